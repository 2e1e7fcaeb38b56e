package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pisces-api/internal/config"
	"pisces-api/internal/container"
	"pisces-api/internal/domain"
	"pisces-api/internal/repository"
	"pisces-api/internal/service"
	"pisces-api/internal/service/gemini"
	"pisces-api/internal/service/identity"
	"pisces-api/pkg/logger"
)

const (
	testSecret   = "handler-test-secret"
	testClientID = "test-client-id"
)

var errStore = errors.New("store unavailable")

type stepClock struct {
	current time.Time
}

func (c *stepClock) now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

// brokenRepository fails every call that reaches the backing store
type brokenRepository struct {
	*repository.MemoryUserRepository
}

func (r *brokenRepository) Merge(ctx context.Context, write *domain.UserWrite) error {
	return errStore
}

func (r *brokenRepository) List(ctx context.Context, limit int) ([]domain.UserDocument, error) {
	return nil, errStore
}

func (r *brokenRepository) Health(ctx context.Context) error {
	return errStore
}

type testEnv struct {
	container   *container.Container
	repo        *repository.MemoryUserRepository
	geminiCalls *int32
}

// newTestEnv wires real services against a fake Gemini server, the development
// verifier and an in-memory store
func newTestEnv(t *testing.T, apiKey string, geminiHandler http.HandlerFunc, users repository.UserRepository) *testEnv {
	t.Helper()
	t.Setenv(config.GeminiAPIKeyName, "")

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		geminiHandler(w, r)
	}))
	t.Cleanup(server.Close)

	keyFile := filepath.Join(t.TempDir(), "secrets.json")
	if apiKey != "" {
		require.NoError(t, os.WriteFile(keyFile, []byte(`{"GEMINI_API_KEY":"`+apiKey+`"}`), 0o600))
	}

	cfg := &config.Config{
		Environment:         "test",
		GeminiKeyFile:       keyFile,
		GeminiBaseURL:       server.URL,
		GeminiModel:         config.DefaultGeminiModel,
		GoogleClientID:      testClientID,
		FirestoreProjectID:  config.DefaultFirestoreProjectID,
		FirestoreDatabaseID: config.DefaultFirestoreDatabaseID,
		UserStore:           config.StoreMemory,
	}
	log := logger.NewNop()

	memory := repository.NewMemoryUserRepository().
		WithClock((&stepClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}).now)
	if users == nil {
		users = memory
	}

	verifier, err := identity.NewJWTVerifier(testSecret, testClientID, log)
	require.NoError(t, err)

	c := &container.Container{
		Config: cfg,
		Logger: log,
		Users:  users,
		Services: &service.Services{
			Chat:  service.NewChatService(cfg, gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, log), log),
			Users: service.NewUserService(verifier, users, nil, log),
		},
	}

	return &testEnv{container: c, repo: memory, geminiCalls: &calls}
}

func geminiReply(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"parts": []interface{}{map[string]interface{}{"text": text}},
					},
				},
			},
		})
	}
}

func signCredential(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["aud"]; !ok {
		claims["aud"] = testClientID
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(handler http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChatHandler_Options(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewChatHandler(env.container)

	rec := doRequest(h.Chat, http.MethodOptions, "/api/chat", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, atomic.LoadInt32(env.geminiCalls))
}

func TestChatHandler_MessageRequired(t *testing.T) {
	bodies := []string{
		`{"message":""}`,
		`{"message":"   "}`,
		`{}`,
		`{"message":42}`,
		`not json`,
		`["hello"]`,
		``,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			env := newTestEnv(t, "test-key", geminiReply("unused"), nil)
			h := NewChatHandler(env.container)

			rec := doRequest(h.Chat, http.MethodPost, "/api/chat", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]interface{}{"error": "message is required"}, decodeBody(t, rec))
			assert.Zero(t, atomic.LoadInt32(env.geminiCalls))
		})
	}
}

func TestChatHandler_KeyMissing(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewChatHandler(env.container)

	rec := doRequest(h.Chat, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "GEMINI_API_KEY is not configured"}, decodeBody(t, rec))
	assert.Zero(t, atomic.LoadInt32(env.geminiCalls))
}

func TestChatHandler_Success(t *testing.T) {
	env := newTestEnv(t, "test-key", geminiReply("Hi there"), nil)
	h := NewChatHandler(env.container)

	rec := doRequest(h.Chat, http.MethodPost, "/api/chat", `{"message":"  hi  "}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]interface{}{"reply": "Hi there"}, decodeBody(t, rec))
	assert.Equal(t, int32(1), atomic.LoadInt32(env.geminiCalls))
}

func TestChatHandler_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		upstream http.HandlerFunc
		expected map[string]interface{}
	}{
		{
			name: "error status passes raw body as detail",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"denied"}`))
			},
			expected: map[string]interface{}{"error": "Gemini request failed", "detail": `{"error":"denied"}`},
		},
		{
			name: "no candidates",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"candidates":[]}`))
			},
			expected: map[string]interface{}{"error": "Gemini returned empty response"},
		},
		{
			name:     "empty text",
			upstream: geminiReply(""),
			expected: map[string]interface{}{"error": "Gemini returned empty response"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "test-key", tt.upstream, nil)
			h := NewChatHandler(env.container)

			rec := doRequest(h.Chat, http.MethodPost, "/api/chat", `{"message":"hi"}`)

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, tt.expected, decodeBody(t, rec))
		})
	}
}

func TestChatHandler_UnparseableUpstream(t *testing.T) {
	env := newTestEnv(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}, nil)
	h := NewChatHandler(env.container)

	rec := doRequest(h.Chat, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Gemini request failed", body["error"])
	assert.Contains(t, body["detail"], "failed to parse Gemini response")
	assert.NotContains(t, body["detail"], "test-key")
}

func TestAuthHandler_Options(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewAuthHandler(env.container)

	rec := doRequest(h.Google, http.MethodOptions, "/api/auth/google", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAuthHandler_CredentialRequired(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewAuthHandler(env.container)

	for _, body := range []string{`{}`, `{"credential":"  "}`, `garbage`} {
		rec := doRequest(h.Google, http.MethodPost, "/api/auth/google", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]interface{}{"ok": false, "error": "credential is required"}, decodeBody(t, rec))
	}

	users, err := env.repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAuthHandler_InvalidCredential(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewAuthHandler(env.container)

	expired := signCredential(t, jwt.MapClaims{
		"sub":   "u1",
		"email": "a@b.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	for _, credential := range []string{"not-a-token", expired} {
		rec := doRequest(h.Google, http.MethodPost, "/api/auth/google", `{"credential":"`+credential+`"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["ok"])
		assert.True(t, strings.HasPrefix(body["error"].(string), "invalid google credential: "))
	}
}

func TestAuthHandler_MissingClaims(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewAuthHandler(env.container)

	credential := signCredential(t, jwt.MapClaims{"sub": "u1"})
	rec := doRequest(h.Google, http.MethodPost, "/api/auth/google", `{"credential":"`+credential+`"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]interface{}{"ok": false, "error": "google token missing sub/email"}, decodeBody(t, rec))
}

func TestAuthHandler_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewAuthHandler(env.container)

	first := signCredential(t, jwt.MapClaims{"sub": "u1", "email": "a@b.com", "email_verified": true})
	rec := doRequest(h.Google, http.MethodPost, "/api/auth/google", `{"credential":"`+first+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"ok": true,
		"user": map[string]interface{}{
			"id":             "u1",
			"display_name":   "a@b.com",
			"email":          "a@b.com",
			"email_verified": true,
		},
	}, decodeBody(t, rec))

	created, err := env.repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, created)

	second := signCredential(t, jwt.MapClaims{"sub": "u1", "email": "a@b.com", "name": "Ann"})
	rec = doRequest(h.Google, http.MethodPost, "/api/auth/google", `{"credential":"`+second+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Ann", body["user"].(map[string]interface{})["display_name"])

	updated, err := env.repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "Ann", updated.DisplayName)
	assert.False(t, updated.EmailVerified)
	assert.Equal(t, domain.ProviderGoogle, updated.Provider)
}

func TestAuthHandler_SaveFailure(t *testing.T) {
	broken := &brokenRepository{MemoryUserRepository: repository.NewMemoryUserRepository()}
	env := newTestEnv(t, "", geminiReply("unused"), broken)
	h := NewAuthHandler(env.container)

	credential := signCredential(t, jwt.MapClaims{"sub": "u1", "email": "a@b.com"})
	rec := doRequest(h.Google, http.MethodPost, "/api/auth/google", `{"credential":"`+credential+`"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"ok": false, "error": "failed to save user: store unavailable"}, decodeBody(t, rec))
}

func TestDiagnosticsHandler_FirestoreTest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewDiagnosticsHandler(env.container)

	rec := doRequest(h.FirestoreTest, http.MethodGet, "/api/firestore-test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "pisces-app", body["project"])
	assert.Equal(t, "(default)", body["database"])
	assert.Equal(t, float64(0), body["users_count"])
	assert.Equal(t, []interface{}{}, body["users"])

	for _, id := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"} {
		require.NoError(t, env.repo.Merge(ctx, &domain.UserWrite{ID: id, Email: id + "@b.com", SetCreatedAt: true}))
	}

	rec = doRequest(h.FirestoreTest, http.MethodGet, "/api/firestore-test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(repository.DiagnosticsLimit), body["users_count"])
	users := body["users"].([]interface{})
	require.Len(t, users, repository.DiagnosticsLimit)
	first := users[0].(map[string]interface{})
	assert.Equal(t, "u1", first["id"])
	assert.Equal(t, "u1@b.com", first["data"].(map[string]interface{})["email"])
}

func TestDiagnosticsHandler_Failure(t *testing.T) {
	broken := &brokenRepository{MemoryUserRepository: repository.NewMemoryUserRepository()}
	env := newTestEnv(t, "", geminiReply("unused"), broken)
	h := NewDiagnosticsHandler(env.container)

	rec := doRequest(h.FirestoreTest, http.MethodGet, "/api/firestore-test", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"ok":       false,
		"project":  "pisces-app",
		"database": "(default)",
		"error":    "store unavailable",
	}, decodeBody(t, rec))
}

func TestHealthHandler_Root(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewHealthHandler(env.container)

	rec := doRequest(h.Root, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello Pisces!", rec.Body.String())
}

func TestHealthHandler_Check(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewHealthHandler(env.container)

	rec := doRequest(h.Check, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "pisces-api", body["service"])
	assert.Equal(t, map[string]interface{}{"store": "ok", "redis": "disabled"}, body["checks"])
}

func TestHealthHandler_CheckStoreDown(t *testing.T) {
	broken := &brokenRepository{MemoryUserRepository: repository.NewMemoryUserRepository()}
	env := newTestEnv(t, "", geminiReply("unused"), broken)
	h := NewHealthHandler(env.container)

	rec := doRequest(h.Check, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decodeBody(t, rec)["status"])
}

func TestHealthHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "", geminiReply("unused"), nil)
	h := NewHealthHandler(env.container)

	rec := doRequest(h.NotFound, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "not found"}, decodeBody(t, rec))

	rec = doRequest(h.MethodNotAllowed, http.MethodDelete, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "method not allowed"}, decodeBody(t, rec))
}
