package categories

import (
	"log/slog"
	"net/http"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *httpx.Validator
}

func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, validator *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, responder: responder, validator: validator}
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), ListFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve categories")
		return
	}
	httpx.OK(w, "Categories retrieved successfully", map[string]any{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgCategoryNotFound)
		return
	}
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve category")
		return
	}
	httpx.OK(w, "Category retrieved successfully", map[string]any{"category": category})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	category, err := h.service.Create(r.Context(), CreateCommand{Name: req.Name, Description: req.Description})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to create category")
		return
	}
	h.logger.Info("category created", slog.Int64("id", category.ID))
	httpx.Created(w, "Category created successfully", map[string]any{"category": category})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgCategoryNotFound)
		return
	}
	var req categoryRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	category, err := h.service.Update(r.Context(), UpdateCommand{ID: id, Name: req.Name, Description: req.Description})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to update category")
		return
	}
	httpx.OK(w, "Category updated successfully", map[string]any{"category": category})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgCategoryNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.Error(w, r, err, "Failed to delete category")
		return
	}
	h.logger.Info("category deleted", slog.Int64("id", id))
	httpx.OK(w, "Category deleted successfully", nil)
}
