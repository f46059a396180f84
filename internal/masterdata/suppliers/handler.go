package suppliers

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

type supplierRequest struct {
	Name    string   `json:"name" validate:"required,max=255"`
	Email   string   `json:"email" validate:"required,email,max=255"`
	Phone   string   `json:"phone" validate:"required,max=20"`
	Address string   `json:"address" validate:"required,max=500"`
	City    string   `json:"city" validate:"required,max=100"`
	Country string   `json:"country" validate:"required,max=100"`
	Status  *string  `json:"status" validate:"omitempty,oneof=active inactive"`
	Rating  *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

func (req supplierRequest) command(id int64) SaveCommand {
	return SaveCommand{
		ID:      id,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		Country: req.Country,
		Status:  req.Status,
		Rating:  req.Rating,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	suppliers, err := h.service.List(r.Context(), ListFilter{Status: q.Get("status"), Search: q.Get("search")})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve suppliers")
		return
	}
	httpx.OK(w, "Suppliers retrieved successfully", map[string]any{
		"suppliers": suppliers,
		"total":     len(suppliers),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgSupplierNotFound)
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve supplier")
		return
	}
	httpx.OK(w, "Supplier retrieved successfully", map[string]any{"supplier": supplier})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	supplier, err := h.service.Create(r.Context(), req.command(0))
	if err != nil {
		h.responder.Error(w, r, err, "Failed to create supplier")
		return
	}
	h.logger.Info("supplier created", slog.Int64("id", supplier.ID))
	httpx.Created(w, "Supplier created successfully", map[string]any{"supplier": supplier})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgSupplierNotFound)
		return
	}
	var req supplierRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	supplier, err := h.service.Update(r.Context(), req.command(id))
	if err != nil {
		h.responder.Error(w, r, err, "Failed to update supplier")
		return
	}
	httpx.OK(w, "Supplier updated successfully", map[string]any{"supplier": supplier})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgSupplierNotFound)
		return
	}
	var req statusRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	supplier, err := h.service.UpdateStatus(r.Context(), UpdateStatusCommand{ID: id, Status: req.Status})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to update supplier status")
		return
	}
	httpx.OK(w, "Supplier status updated successfully", map[string]any{"supplier": supplier})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgSupplierNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.Error(w, r, err, "Failed to delete supplier")
		return
	}
	h.logger.Info("supplier deleted", slog.Int64("id", id))
	httpx.OK(w, "Supplier deleted successfully", nil)
}
