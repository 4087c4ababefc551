package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmarjanovic/tasklist-api/internal/auth"
	"github.com/dmarjanovic/tasklist-api/internal/repo"
	"github.com/dmarjanovic/tasklist-api/internal/service"
	"github.com/dmarjanovic/tasklist-api/tests"
)

// setupRouter собирает роутер так же, как cmd/app/main.go
func setupRouter(t *testing.T) (*chi.Mux, *pgxpool.Pool, *auth.TokenManager, func()) {
	t.Helper()

	pool, cleanup := tests.SetupTestDB(t)
	logger := zap.NewNop()

	tokenManager := auth.NewTokenManager("test-secret", 7*24*time.Hour)

	userRepo := repo.NewUserRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)
	authService := service.NewAuthService(userRepo, tokenManager)
	taskService := service.NewTaskService(taskRepo)
	authHandler := NewAuthHandler(authService, logger)
	taskHandler := NewTaskHandler(taskService, logger)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))
		r.Get("/", taskHandler.List)
		r.Post("/", taskHandler.Create)
		r.Put("/reorder", taskHandler.Reorder)
		r.Get("/{id}", taskHandler.Get)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})
	r.Post("/admin/migrate", taskHandler.Migrate)

	return r, pool, tokenManager, cleanup
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if body != nil {
		req.ContentLength = int64(buf.Len())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	router, _, tokenManager, cleanup := setupRouter(t)
	defer cleanup()

	t.Run("successful registration returns token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "a@x.com",
			"password": "pw123456",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "User registered successfully", body["message"])

		_, ok := tokenManager.Verify(body["token"])
		assert.True(t, ok)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "bob",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice2",
			"email":    "a@x.com",
			"password": "pw123456",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "User already exists", body["message"])
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, _, _, cleanup := setupRouter(t)
	defer cleanup()

	w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "a@x.com",
			"password": "pw123456",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Login successful", body["message"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password and unknown email get one message", func(t *testing.T) {
		wrongPw := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "a@x.com",
			"password": "nope",
		})
		unknown := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "nobody@x.com",
			"password": "pw123456",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)

		var bodyWrong, bodyUnknown map[string]string
		require.NoError(t, json.NewDecoder(wrongPw.Body).Decode(&bodyWrong))
		require.NoError(t, json.NewDecoder(unknown.Body).Decode(&bodyUnknown))
		assert.Equal(t, bodyWrong["message"], bodyUnknown["message"],
			"response must not reveal whether the email exists")
	})
}
