package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockroom/stockroom/internal/observability"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// Notifier receives low-stock alerts raised after movements commit.
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert) error
}

// Service coordinates stock operations.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService builds Service. notifier and metrics may be nil.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, metrics: metrics, now: time.Now}
}

// Record applies a manual movement to the locked product row and writes the
// movement record in the same transaction.
func (s *Service) Record(ctx context.Context, cmd RecordMovementCommand) (Movement, error) {
	if err := validateRecord(cmd); err != nil {
		return Movement{}, err
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.LockProduct(ctx, cmd.ProductID)
		if errors.Is(err, ErrProductMissing) {
			return internalShared.FieldError("product_id", "The selected product id is invalid.")
		}
		if err != nil {
			return err
		}

		after, err := nextQuantity(cmd.Type, product.Quantity, cmd.Quantity)
		if err != nil {
			return err
		}

		movement, err = tx.InsertMovement(ctx, Movement{
			ProductID:   &product.ID,
			ProductName: product.Name,
			Type:        cmd.Type,
			Quantity:    cmd.Quantity,
			StockBefore: product.Quantity,
			StockAfter:  after,
			Reason:      cmd.Reason,
			Reference:   cmd.Reference,
			CreatedBy:   actor(cmd.CreatedBy),
		})
		if err != nil {
			return fmt.Errorf("inventory: insert movement: %w", err)
		}
		movement.minStock = product.MinStock
		if err := tx.SetQuantity(ctx, product.ID, after); err != nil {
			return fmt.Errorf("inventory: update quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	s.metrics.RecordStockMovement(string(cmd.Type), "manual", cmd.Quantity)
	s.NotifyLowStock(ctx, []Movement{movement})

	loaded, err := s.repo.Get(ctx, movement.ID)
	if err != nil {
		s.logger.Warn("reload stock movement", slog.Int64("movement_id", movement.ID), slog.Any("error", err))
		return movement, nil
	}
	return loaded, nil
}

// ApplyOrderCompletion writes one movement per order line and updates product
// quantities. Purchases add stock; sales remove it, clamped at zero. Lines
// whose product no longer exists are skipped. It joins the transaction
// carried by ctx, so a failure rolls back the caller's work too.
func (s *Service) ApplyOrderCompletion(ctx context.Context, completion OrderCompletion) ([]Movement, error) {
	movementType, reason := MovementIn, ReasonPurchaseCompleted
	if completion.OrderType == OrderTypeSale {
		movementType, reason = MovementOut, ReasonSaleCompleted
	}
	reference := completion.OrderNumber

	var movements []Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, item := range completion.Items {
			product, err := tx.LockProduct(ctx, item.ProductID)
			if errors.Is(err, ErrProductMissing) {
				s.logger.Warn("product not found for stock update",
					slog.Int64("product_id", item.ProductID),
					slog.String("order_number", completion.OrderNumber))
				continue
			}
			if err != nil {
				return err
			}

			after := product.Quantity + item.Quantity
			if movementType == MovementOut {
				after = product.Quantity - item.Quantity
				if after < 0 {
					s.logger.Warn("insufficient stock on sale completion, clamping to zero",
						slog.Int64("product_id", product.ID),
						slog.String("product_name", product.Name),
						slog.Int("available", product.Quantity),
						slog.Int("requested", item.Quantity),
						slog.String("order_number", completion.OrderNumber))
					after = 0
				}
			}

			movement, err := tx.InsertMovement(ctx, Movement{
				ProductID:   &product.ID,
				ProductName: product.Name,
				Type:        movementType,
				Quantity:    item.Quantity,
				StockBefore: product.Quantity,
				StockAfter:  after,
				Reason:      reason,
				Reference:   &reference,
				CreatedBy:   actor(completion.CreatedBy),
			})
			if err != nil {
				return fmt.Errorf("inventory: insert movement: %w", err)
			}
			movement.minStock = product.MinStock
			if err := tx.SetQuantity(ctx, product.ID, after); err != nil {
				return fmt.Errorf("inventory: update quantity: %w", err)
			}
			s.logger.Info("stock updated",
				slog.String("product_name", product.Name),
				slog.Int("stock_before", product.Quantity),
				slog.Int("stock_after", after))
			movements = append(movements, movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// OrderMovementsCommitted counts the movements of a completed order and sends
// their low-stock notifications. Call it only after the completing
// transaction has committed.
func (s *Service) OrderMovementsCommitted(ctx context.Context, movements []Movement) {
	for _, m := range movements {
		s.metrics.RecordStockMovement(string(m.Type), "order", m.Quantity)
	}
	s.NotifyLowStock(ctx, movements)
}

// NotifyLowStock hands an alert to the notifier for every movement that left
// its product at or below the reorder level. Call it after commit; failures
// are logged and do not affect the movement.
func (s *Service) NotifyLowStock(ctx context.Context, movements []Movement) {
	if s.notifier == nil {
		return
	}
	for _, m := range movements {
		if !m.LowStock() {
			continue
		}
		alert := LowStockAlert{
			ProductID:   *m.ProductID,
			ProductName: m.ProductName,
			Quantity:    m.StockAfter,
			MinStock:    m.minStock,
		}
		if m.Reference != nil {
			alert.Reference = *m.Reference
		}
		if err := s.notifier.NotifyLowStock(ctx, alert); err != nil {
			s.logger.Warn("enqueue low stock alert", slog.Int64("product_id", alert.ProductID), slog.Any("error", err))
		}
	}
}

// List returns movements newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Movement, error) {
	return s.repo.List(ctx, filter)
}

// Get returns a single movement.
func (s *Service) Get(ctx context.Context, id int64) (Movement, error) {
	return s.repo.Get(ctx, id)
}

// Stats counts movements by type and those recorded today (UTC).
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.Stats(ctx, dayStart)
}

// ProductHistory returns the product's current stock with all its movements.
func (s *Service) ProductHistory(ctx context.Context, productID int64) (ProductHistory, error) {
	product, err := s.repo.ProductStock(ctx, productID)
	if err != nil {
		return ProductHistory{}, err
	}
	movements, err := s.repo.List(ctx, ListFilter{ProductID: &productID})
	if err != nil {
		return ProductHistory{}, err
	}
	return ProductHistory{
		Product:   HistoryProduct{ID: product.ID, Name: product.Name, CurrentStock: product.Quantity},
		Movements: movements,
		Total:     len(movements),
	}, nil
}

// nextQuantity computes the on-hand quantity after a manual movement.
func nextQuantity(t MovementType, before, quantity int) (int, error) {
	switch t {
	case MovementIn:
		return before + quantity, nil
	case MovementOut:
		if quantity > before {
			return 0, internalShared.WrapViolation(ErrInsufficientStock, fmt.Sprintf("Insufficient stock. Available: %d", before))
		}
		return before - quantity, nil
	case MovementAdjustment:
		return quantity, nil
	}
	return 0, internalShared.FieldError("type", "The selected type is invalid.")
}

func validateRecord(cmd RecordMovementCommand) error {
	verr := internalShared.NewValidationError()
	if !cmd.Type.Valid() {
		verr.Add("type", "The selected type is invalid.")
	}
	switch {
	case cmd.Quantity < 0:
		verr.Add("quantity", "The quantity field must be at least 0.")
	case cmd.Quantity < 1 && cmd.Type != MovementAdjustment:
		verr.Add("quantity", "The quantity field must be at least 1.")
	}
	return verr.OrNil()
}

func actor(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
