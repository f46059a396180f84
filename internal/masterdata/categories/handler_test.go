package categories

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

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(slog.Default(), NewService(repo), httpx.NewResponder(nil, false), httpx.NewValidator())
	r := chi.NewRouter()
	r.Route("/api/categories", h.MountRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCategoryHandlers(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/api/categories", `{"name":"Electronics","description":"Gadgets"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Category created successfully", env.Message)

	rec, env = doJSON(t, router, http.MethodPost, "/api/categories", `{"description":"no name"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, env.Errors, "name")

	rec, env = doJSON(t, router, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	require.EqualValues(t, 1, data["total"])

	rec, env = doJSON(t, router, http.MethodGet, "/api/categories/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Category not found", env.Message)

	rec, env = doJSON(t, router, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Category deleted successfully", env.Message)
}
