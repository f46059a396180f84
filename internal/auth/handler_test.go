package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/platform/httpx"
	_ "github.com/stockroom/stockroom/testing"
)

func newTestRouter(t *testing.T, loginLimit int) chi.Router {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(nil, svc, httpx.NewResponder(nil, false), httpx.NewValidator(), loginLimit)
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		h.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(Middleware(svc, nil))
			h.MountRoutes(r)
		})
	})
	return router
}

func call(t *testing.T, router chi.Router, method, path, token, body string) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, 0)

	rec, env := call(t, router, http.MethodPost, "/api/register", "",
		`{"name":"Ada","email":"ada@example.com","password":"secret1","password_confirmation":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "User registered successfully", env.Message)
	data := env.Data.(map[string]any)
	require.Equal(t, "Bearer", data["token_type"])
	require.NotContains(t, data["user"].(map[string]any), "password_hash")
	token := data["token"].(string)

	rec, env = call(t, router, http.MethodPost, "/api/register", "",
		`{"name":"Ada","email":"ada@example.com","password":"secret1","password_confirmation":"secret1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, []string{"The email has already been taken."}, env.Errors["email"])

	rec, env = call(t, router, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid email or password", env.Message)

	rec, env = call(t, router, http.MethodGet, "/api/user", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ada@example.com", env.Data.(map[string]any)["user"].(map[string]any)["email"])

	rec, env = call(t, router, http.MethodPut, "/api/user/change-password", token,
		`{"current_password":"bad","new_password":"secret2","new_password_confirmation":"secret2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Current password is incorrect", env.Message)

	rec, _ = call(t, router, http.MethodPost, "/api/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = call(t, router, http.MethodGet, "/api/user", token, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthenticated.", env.Message)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t, 0)

	rec, env := call(t, router, http.MethodPost, "/api/register", "",
		`{"name":"","email":"nope","password":"abc","password_confirmation":"abd"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, env.Errors, "name")
	require.Contains(t, env.Errors, "email")
	require.Contains(t, env.Errors, "password")
}

func TestMissingBearerToken(t *testing.T) {
	router := newTestRouter(t, 0)

	rec, env := call(t, router, http.MethodGet, "/api/user", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthenticated.", env.Message)

	rec, _ = call(t, router, http.MethodGet, "/api/user", "not-a-token", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	router := newTestRouter(t, 2)
	body := `{"email":"ada@example.com","password":"wrong"}`

	for i := 0; i < 2; i++ {
		rec, _ := call(t, router, http.MethodPost, "/api/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
