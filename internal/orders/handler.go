package orders

import (
	"log/slog"
	"net/http"

	"github.com/stockroom/stockroom/internal/platform/httpx"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for orders.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *httpx.Validator
}

// NewHandler constructs the order handler.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, validator *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, responder: responder, validator: validator}
}

type itemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type createRequest struct {
	Type         string        `json:"type" validate:"required,oneof=purchase sale"`
	SupplierID   int64         `json:"supplier_id" validate:"required_if=Type purchase"`
	CustomerName string        `json:"customer_name" validate:"required_if=Type sale,max=255"`
	Notes        *string       `json:"notes" validate:"omitempty,max=1000"`
	Items        []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed cancelled"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Type:     Type(httpx.QueryEnum(q, "type", string(TypePurchase), string(TypeSale))),
		Status:   Status(httpx.QueryEnum(q, "status", string(StatusPending), string(StatusProcessing), string(StatusCompleted), string(StatusCancelled))),
		Search:   q.Get("search"),
		FromDate: httpx.QueryDate(q, "from_date"),
		ToDate:   httpx.QueryDate(q, "to_date"),
	}
	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve orders")
		return
	}
	httpx.OK(w, "Orders retrieved successfully", map[string]any{
		"orders": orders,
		"total":  len(orders),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	cmd := CreateOrderCommand{
		Type:      Type(req.Type),
		Notes:     req.Notes,
		CreatedBy: internalShared.ActorID(r.Context()),
	}
	if req.SupplierID > 0 {
		cmd.SupplierID = &req.SupplierID
	}
	if req.CustomerName != "" {
		cmd.CustomerName = &req.CustomerName
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := h.service.Create(r.Context(), cmd)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to create order")
		return
	}
	h.logger.Info("order created",
		slog.Int64("id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("total_amount", order.TotalAmount.StringFixed(2)))
	httpx.Created(w, "Order created successfully", map[string]any{"order": order})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgOrderNotFound)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve order")
		return
	}
	httpx.OK(w, "Order retrieved successfully", map[string]any{"order": order})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgOrderNotFound)
		return
	}
	var req statusRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	fallback := "Failed to update order status"
	if Status(req.Status) == StatusCompleted {
		fallback = "Failed to complete order"
	}
	change, err := h.service.UpdateStatus(r.Context(), UpdateStatusCommand{
		OrderID: id,
		Status:  Status(req.Status),
		ActorID: internalShared.ActorID(r.Context()),
	})
	if err != nil {
		h.responder.Error(w, r, err, fallback)
		return
	}
	httpx.OK(w, "Order status updated successfully", change)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgOrderNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.Error(w, r, err, "Failed to delete order")
		return
	}
	h.logger.Info("order deleted", slog.Int64("id", id))
	httpx.OK(w, "Order deleted successfully", nil)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve order statistics")
		return
	}
	httpx.OK(w, "Order statistics retrieved successfully", map[string]any{"stats": stats})
}
