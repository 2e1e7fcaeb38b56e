package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// GeminiAPIKeyName is both the env var and the key-file field holding the Gemini secret
	GeminiAPIKeyName = "GEMINI_API_KEY"

	DefaultGeminiKeyFile       = "secrets.json"
	DefaultGeminiBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel         = "gemini-2.0-flash"
	DefaultGoogleClientID      = "315346868518-os2tf8uc5282bggj40jbpkaltae1phi9.apps.googleusercontent.com"
	DefaultFirestoreProjectID  = "pisces-app"
	DefaultFirestoreDatabaseID = "(default)"
)

// User store backends
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

// Config holds all configuration values for the application.
// It is built once at startup and shared read-only.
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	GeminiKeyFile string
	GeminiBaseURL string
	GeminiModel   string

	GoogleClientID   string
	AuthDevJWTSecret string

	UserStore             string
	FirestoreProjectID    string
	FirestoreDatabaseID   string
	GoogleCredentialsFile string
	DatabaseURL           string
	RedisURL              string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),

		GeminiKeyFile: getEnv("GEMINI_KEY_FILE", DefaultGeminiKeyFile),
		GeminiBaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL), "/"),
		GeminiModel:   getEnv("GEMINI_MODEL", DefaultGeminiModel),

		GoogleClientID:   getEnv("GOOGLE_CLIENT_ID", DefaultGoogleClientID),
		AuthDevJWTSecret: getEnv("AUTH_DEV_JWT_SECRET", ""),

		UserStore:             strings.ToLower(getEnv("USER_STORE", StoreFirestore)),
		FirestoreProjectID:    getEnv("FIRESTORE_PROJECT_ID", DefaultFirestoreProjectID),
		FirestoreDatabaseID:   getEnv("FIRESTORE_DATABASE_ID", DefaultFirestoreDatabaseID),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
	}, nil
}

// ResolveGeminiAPIKey returns the Gemini API key, re-reading its sources on every call.
// The key file wins when it holds a non-empty value; any read or parse failure
// falls through to the environment variable, which may be empty.
func (c *Config) ResolveGeminiAPIKey() string {
	if key := readKeyFile(c.GeminiKeyFile, GeminiAPIKeyName); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(GeminiAPIKeyName))
}

// readKeyFile returns the trimmed string field from a JSON object file, or "" on any failure
func readKeyFile(path, field string) string {
	if path == "" {
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		return ""
	}

	value, ok := values[field].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// IsDevelopment reports whether the service runs in a local or development environment
func (c *Config) IsDevelopment() bool {
	switch c.Environment {
	case "development", "local", "test":
		return true
	}
	return false
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
