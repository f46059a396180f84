package suppliers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/platform/httpx"
	_ "github.com/stockroom/stockroom/testing"
)

func serve(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestSupplierStatusEndpoint(t *testing.T) {
	h := NewHandler(slog.Default(), NewService(newMemoryRepo()), httpx.NewResponder(nil, false), httpx.NewValidator())
	router := chi.NewRouter()
	router.Route("/api/suppliers", h.MountRoutes)

	rec, _ := serve(t, router, http.MethodPost, "/api/suppliers",
		`{"name":"Acme","email":"sales@acme.test","phone":"555","address":"1 Main St","city":"Springfield","country":"US","rating":6}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = serve(t, router, http.MethodPost, "/api/suppliers",
		`{"name":"Acme","email":"sales@acme.test","phone":"555","address":"1 Main St","city":"Springfield","country":"US"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := serve(t, router, http.MethodPatch, "/api/suppliers/1/status", `{"status":"paused"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, []string{"The selected status is invalid."}, env.Errors["status"])

	rec, env = serve(t, router, http.MethodPatch, "/api/suppliers/1/status", `{"status":"inactive"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Supplier status updated successfully", env.Message)
	supplier := env.Data.(map[string]any)["supplier"].(map[string]any)
	require.Equal(t, "inactive", supplier["status"])

	rec, env = serve(t, router, http.MethodPatch, "/api/suppliers/9/status", `{"status":"active"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Supplier not found", env.Message)
}
