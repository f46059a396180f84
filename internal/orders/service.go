package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom/stockroom/internal/inventory"
	"github.com/stockroom/stockroom/internal/observability"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// StockPort applies completed orders to product stock.
type StockPort interface {
	ApplyOrderCompletion(ctx context.Context, completion inventory.OrderCompletion) ([]inventory.Movement, error)
	OrderMovementsCommitted(ctx context.Context, movements []inventory.Movement)
}

// Service orchestrates the order workflow.
type Service struct {
	repo    RepositoryPort
	stock   StockPort
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService constructs an order service. metrics may be nil.
func NewService(repo RepositoryPort, stock StockPort, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, logger: logger, metrics: metrics, now: time.Now}
}

// List returns orders newest first, each with its items.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one order with items, supplier and creator.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Create prices the requested lines from the catalogue and writes the order
// with its items and number in one transaction.
func (s *Service) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	products, err := s.validateCreate(ctx, cmd)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		Type:      cmd.Type,
		Status:    StatusPending,
		CreatedBy: actor(cmd.CreatedBy),
		Notes:     cmd.Notes,
	}
	if cmd.Type == TypePurchase {
		order.SupplierID = cmd.SupplierID
	} else {
		order.CustomerName = cmd.CustomerName
	}

	items := make([]Item, 0, len(cmd.Items))
	total := decimal.Zero
	for _, in := range cmd.Items {
		product := products[in.ProductID]
		price := product.UnitPrice(cmd.Type)
		lineTotal := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)
		productID := product.ID
		items = append(items, Item{
			ProductID:   &productID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			Price:       price,
			Total:       internalShared.NewAmount(lineTotal),
		})
	}
	order.TotalAmount = internalShared.NewAmount(total)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := s.NextOrderNumber(ctx, cmd.Type, s.now().Year())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		order, err = tx.Insert(ctx, order)
		if err != nil {
			return fmt.Errorf("orders: insert order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			items[i], err = tx.InsertItem(ctx, items[i])
			if err != nil {
				return fmt.Errorf("orders: insert item: %w", err)
			}
		}
		if order.Type == TypePurchase && order.SupplierID != nil {
			if err := tx.IncrementSupplierOrders(ctx, *order.SupplierID); err != nil {
				return fmt.Errorf("orders: supplier order count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.metrics.RecordOrderCreated(string(order.Type))

	loaded, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		s.logger.Warn("reload order", slog.Int64("order_id", order.ID), slog.Any("error", err))
		order.Items = items
		return order, nil
	}
	return loaded, nil
}

// NextOrderNumber reserves the next number for type and year. It joins the
// transaction carried by ctx so the reservation commits with the order.
func (s *Service) NextOrderNumber(ctx context.Context, t Type, year int) (string, error) {
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, t, year)
		if err != nil {
			return fmt.Errorf("orders: next sequence: %w", err)
		}
		number = FormatOrderNumber(t, year, seq)
		return nil
	})
	return number, err
}

// UpdateStatus moves an order out of a non-terminal status. Completion is
// delegated to CompleteOrder so stock moves with the status.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (StatusChange, error) {
	if cmd.Status == StatusCompleted {
		return s.CompleteOrder(ctx, CompleteOrderCommand{OrderID: cmd.OrderID, ActorID: cmd.ActorID})
	}

	var change StatusChange
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return internalShared.WrapViolation(ErrInvalidStatus, msgTerminalStatus)
		}
		change.OldStatus = order.Status
		change.NewStatus = cmd.Status
		return tx.SetStatus(ctx, order.ID, cmd.Status)
	})
	if err != nil {
		return StatusChange{}, err
	}

	change.Order, err = s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return StatusChange{}, err
	}
	s.logger.Info("order status updated",
		slog.Int64("order_id", cmd.OrderID),
		slog.String("old_status", string(change.OldStatus)),
		slog.String("new_status", string(change.NewStatus)))
	return change, nil
}

// CompleteOrder sets the order completed and applies its stock movements in
// the same transaction. Low-stock notifications go out after commit.
func (s *Service) CompleteOrder(ctx context.Context, cmd CompleteOrderCommand) (StatusChange, error) {
	var (
		change    StatusChange
		orderType Type
		movements []inventory.Movement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return internalShared.WrapViolation(ErrInvalidStatus, msgTerminalStatus)
		}
		orderType = order.Type
		change.OldStatus = order.Status
		change.NewStatus = StatusCompleted
		if err := tx.SetStatus(ctx, order.ID, StatusCompleted); err != nil {
			return fmt.Errorf("orders: set status: %w", err)
		}

		completion := inventory.OrderCompletion{
			OrderNumber: order.OrderNumber,
			OrderType:   string(order.Type),
		}
		if order.CreatedBy != nil {
			completion.CreatedBy = *order.CreatedBy
		}
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			completion.Items = append(completion.Items, inventory.CompletionItem{
				ProductID: *item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		movements, err = s.stock.ApplyOrderCompletion(ctx, completion)
		if err != nil {
			return fmt.Errorf("orders: apply stock: %w", err)
		}
		return nil
	})
	if orderType != "" {
		s.metrics.RecordOrderCompleted(string(orderType), err)
	}
	if err != nil {
		s.logger.Error("complete order", slog.Int64("order_id", cmd.OrderID), slog.Any("error", err))
		return StatusChange{}, err
	}

	s.stock.OrderMovementsCommitted(ctx, movements)

	change.Order, err = s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return StatusChange{}, err
	}
	s.logger.Info("order completed",
		slog.Int64("order_id", cmd.OrderID),
		slog.String("order_number", change.Order.OrderNumber),
		slog.Int("movements", len(movements)))
	return change, nil
}

// Delete removes a pending order and, by cascade, its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return internalShared.WrapViolation(ErrNotPending, msgDeleteNotPending)
		}
		return tx.Delete(ctx, id)
	})
}

// Stats runs the order aggregates concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, filter CountFilter) {
		g.Go(func() error {
			n, err := s.repo.Count(ctx, filter)
			*dst = n
			return err
		})
	}
	sum := func(dst *internalShared.Amount, filter CountFilter) {
		g.Go(func() error {
			v, err := s.repo.SumTotal(ctx, filter)
			*dst = v
			return err
		})
	}
	count(&stats.TotalOrders, CountFilter{})
	count(&stats.PendingOrders, CountFilter{Status: StatusPending})
	count(&stats.CompletedOrders, CountFilter{Status: StatusCompleted})
	count(&stats.PurchaseOrders, CountFilter{Type: TypePurchase})
	count(&stats.SaleOrders, CountFilter{Type: TypeSale})
	sum(&stats.TotalPurchases, CountFilter{Type: TypePurchase, Status: StatusCompleted})
	sum(&stats.TotalSales, CountFilter{Type: TypeSale, Status: StatusCompleted})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) validateCreate(ctx context.Context, cmd CreateOrderCommand) (map[int64]ProductPrice, error) {
	verr := internalShared.NewValidationError()
	switch cmd.Type {
	case TypePurchase:
		if cmd.SupplierID == nil {
			verr.Add("supplier_id", "The supplier id field is required when type is purchase.")
		} else {
			ok, err := s.repo.SupplierExists(ctx, *cmd.SupplierID)
			if err != nil {
				return nil, err
			}
			if !ok {
				verr.Add("supplier_id", "The selected supplier id is invalid.")
			}
		}
	case TypeSale:
		if cmd.CustomerName == nil || *cmd.CustomerName == "" {
			verr.Add("customer_name", "The customer name field is required when type is sale.")
		}
	default:
		verr.Add("type", "The selected type is invalid.")
	}
	if len(cmd.Items) == 0 {
		verr.Add("items", "The items field is required.")
		return nil, verr
	}

	ids := make([]int64, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		ids = append(ids, in.ProductID)
	}
	products, err := s.repo.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, in := range cmd.Items {
		if _, ok := products[in.ProductID]; !ok {
			verr.Add(fmt.Sprintf("items.%d.product_id", i), "The selected product id is invalid.")
		}
		if in.Quantity < 1 {
			verr.Add(fmt.Sprintf("items.%d.quantity", i), "The quantity field must be at least 1.")
		}
	}
	return products, verr.OrNil()
}

func actor(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
