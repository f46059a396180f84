package products

import (
	"log/slog"
	"net/http"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/httpx"
	internalShared "github.com/stockroom/stockroom/internal/shared"
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

type productRequest struct {
	SKU         string   `json:"sku" validate:"required,max=50"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	CategoryID  int64    `json:"category_id" validate:"required,gt=0"`
	SupplierID  int64    `json:"supplier_id" validate:"required,gt=0"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	CostPrice   *float64 `json:"cost_price" validate:"required,gte=0"`
	Quantity    *int     `json:"quantity" validate:"omitempty,gte=0"`
	MinStock    *int     `json:"min_stock" validate:"omitempty,gte=0"`
	MaxStock    *int     `json:"max_stock" validate:"omitempty,gte=0"`
	Location    *string  `json:"location" validate:"omitempty,max=255"`
	Image       *string  `json:"image" validate:"omitempty,max=500"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active inactive discontinued"`
}

func (req productRequest) command(id int64) SaveCommand {
	return SaveCommand{
		ID:          id,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		SupplierID:  req.SupplierID,
		Price:       internalShared.AmountFromFloat(*req.Price),
		CostPrice:   internalShared.AmountFromFloat(*req.CostPrice),
		Quantity:    req.Quantity,
		MinStock:    req.MinStock,
		MaxStock:    req.MaxStock,
		Location:    req.Location,
		Image:       req.Image,
		Status:      req.Status,
	}
}

func listData(products []Product) map[string]any {
	return map[string]any{"products": products, "total": len(products)}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		CategoryID:  httpx.QueryInt64(q, "category_id"),
		SupplierID:  httpx.QueryInt64(q, "supplier_id"),
		Status:      httpx.QueryEnum(q, "status", StatusActive, StatusInactive, StatusDiscontinued),
		StockStatus: httpx.QueryEnum(q, "stock_status", StockInStock, StockLow, StockOutOfStock),
		Search:      q.Get("search"),
		SortBy:      q.Get("sort_by"),
		SortOrder:   q.Get("sort_order"),
	}
	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve products")
		return
	}
	httpx.OK(w, "Products retrieved successfully", listData(products))
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve low stock products")
		return
	}
	httpx.OK(w, "Low stock products retrieved successfully", listData(products))
}

func (h *Handler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.OutOfStock(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve out of stock products")
		return
	}
	httpx.OK(w, "Out of stock products retrieved successfully", listData(products))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgProductNotFound)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve product")
		return
	}
	httpx.OK(w, "Product retrieved successfully", map[string]any{"product": product})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	product, err := h.service.Create(r.Context(), req.command(0))
	if err != nil {
		h.responder.Error(w, r, err, "Failed to create product")
		return
	}
	h.logger.Info("product created", slog.Int64("id", product.ID), slog.String("sku", product.SKU))
	httpx.Created(w, "Product created successfully", map[string]any{"product": product})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgProductNotFound)
		return
	}
	var req productRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	product, err := h.service.Update(r.Context(), req.command(id))
	if err != nil {
		h.responder.Error(w, r, err, "Failed to update product")
		return
	}
	httpx.OK(w, "Product updated successfully", map[string]any{"product": product})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgProductNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.Error(w, r, err, "Failed to delete product")
		return
	}
	h.logger.Info("product deleted", slog.Int64("id", id))
	httpx.OK(w, "Product deleted successfully", nil)
}
