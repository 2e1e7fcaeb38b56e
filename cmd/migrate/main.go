package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"pisces-api/internal/repository"
)

const dropUsersTable = `DROP TABLE IF EXISTS users`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate [up|drop|status]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(context.Background())

	switch command := os.Args[1]; command {
	case "up":
		if _, err := conn.Exec(ctx, repository.UsersTableDDL); err != nil {
			log.Fatalf("Failed to create users table: %v", err)
		}
		fmt.Println("users table created")

	case "drop":
		if _, err := conn.Exec(ctx, dropUsersTable); err != nil {
			log.Fatalf("Failed to drop users table: %v", err)
		}
		fmt.Println("users table dropped")

	case "status":
		var count int64
		if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			log.Fatalf("Failed to count users: %v", err)
		}
		fmt.Printf("users table holds %d records\n", count)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}
