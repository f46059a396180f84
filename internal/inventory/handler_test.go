package inventory

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
	internalShared "github.com/stockroom/stockroom/internal/shared"
	_ "github.com/stockroom/stockroom/testing"
)

func TestStockMovementEndpoints(t *testing.T) {
	repo := newMemoryRepo(widget(2))
	h := NewHandler(slog.Default(), NewService(repo, nil, nil, nil), httpx.NewResponder(nil, false), httpx.NewValidator())
	router := chi.NewRouter()
	router.Route("/api/stock-movements", h.MountRoutes)

	call := func(method, path, body string) (*httptest.ResponseRecorder, httpx.Envelope) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(internalShared.ContextWithUser(req.Context(), &internalShared.CurrentUser{ID: 5}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var env httpx.Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		return rec, env
	}

	rec, env := call(http.MethodPost, "/api/stock-movements", `{"product_id":1,"type":"out","quantity":3,"reason":"sold"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Insufficient stock. Available: 2", env.Message)

	rec, env = call(http.MethodPost, "/api/stock-movements", `{"product_id":1,"type":"transfer","quantity":3}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, env.Errors, "type")
	require.Contains(t, env.Errors, "reason")

	rec, env = call(http.MethodPost, "/api/stock-movements", `{"product_id":1,"type":"in","quantity":3,"reason":"restock","reference":"GRN-7"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	movement := env.Data.(map[string]any)["movement"].(map[string]any)
	require.EqualValues(t, 5, movement["stock_after"])
	require.EqualValues(t, 5, movement["created_by"])

	rec, env = call(http.MethodGet, "/api/stock-movements/product/1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 5, env.Data.(map[string]any)["product"].(map[string]any)["current_stock"])

	rec, env = call(http.MethodGet, "/api/stock-movements/77", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Stock movement not found", env.Message)

	rec, _ = call(http.MethodGet, "/api/stock-movements/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
