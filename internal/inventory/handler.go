package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/httpx"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for stock movements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *httpx.Validator
}

// NewHandler constructs the stock movement handler.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, validator *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, responder: responder, validator: validator}
}

// MountRoutes registers stock movement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Get("/stats", h.stats)
	r.Get("/product/{id}/history", h.productHistory)
	r.Get("/{id}", h.show)
}

type movementRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Type      string  `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity  *int    `json:"quantity" validate:"required,gte=0"`
	Reason    string  `json:"reason" validate:"required,max=255"`
	Reference *string `json:"reference" validate:"omitempty,max=100"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		ProductID: httpx.QueryInt64(q, "product_id"),
		Type:      MovementType(httpx.QueryEnum(q, "type", string(MovementIn), string(MovementOut), string(MovementAdjustment))),
		FromDate:  httpx.QueryDate(q, "from_date"),
		ToDate:    httpx.QueryDate(q, "to_date"),
	}
	movements, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve stock movements")
		return
	}
	httpx.OK(w, "Stock movements retrieved successfully", map[string]any{
		"movements": movements,
		"total":     len(movements),
	})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	movement, err := h.service.Record(r.Context(), RecordMovementCommand{
		ProductID: req.ProductID,
		Type:      MovementType(req.Type),
		Quantity:  *req.Quantity,
		Reason:    req.Reason,
		Reference: req.Reference,
		CreatedBy: internalShared.ActorID(r.Context()),
	})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to create stock movement")
		return
	}
	h.logger.Info("stock movement recorded",
		slog.Int64("movement_id", movement.ID),
		slog.String("type", string(movement.Type)),
		slog.Int("stock_before", movement.StockBefore),
		slog.Int("stock_after", movement.StockAfter))
	httpx.Created(w, "Stock movement created successfully", map[string]any{"movement": movement})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, "Stock movement not found")
		return
	}
	movement, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve stock movement")
		return
	}
	httpx.OK(w, "Stock movement retrieved successfully", map[string]any{"movement": movement})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve stock movement statistics")
		return
	}
	httpx.OK(w, "Stock movement statistics retrieved successfully", map[string]any{"stats": stats})
}

func (h *Handler) productHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, shared.MsgProductNotFound)
		return
	}
	history, err := h.service.ProductHistory(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve product stock history")
		return
	}
	httpx.OK(w, "Product stock history retrieved successfully", history)
}
