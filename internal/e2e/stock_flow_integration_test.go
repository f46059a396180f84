//go:build integration
// +build integration

package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stockroom/stockroom/internal/inventory"
	"github.com/stockroom/stockroom/internal/masterdata/products"
	"github.com/stockroom/stockroom/internal/orders"
	"github.com/stockroom/stockroom/internal/platform/db"
	"github.com/stockroom/stockroom/internal/seed"
	_ "github.com/stockroom/stockroom/internal/testing/guard"
	"github.com/stockroom/stockroom/migrations"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []inventory.LowStockAlert
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, alert inventory.LowStockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func setupDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stockroom"),
		postgres.WithUsername("stockroom"),
		postgres.WithPassword("stockroom"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := db.New(ctx, dsn, 5)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := db.Migrate(ctx, pool, migrations.FS, nil)
	require.NoError(t, err)
	require.NotEmpty(t, applied)

	again, err := db.Migrate(ctx, pool, migrations.FS, nil)
	require.NoError(t, err)
	require.Empty(t, again)

	require.NoError(t, seed.Run(ctx, pool, nil))
	require.NoError(t, seed.Run(ctx, pool, nil))
	return pool
}

func productBySKU(t *testing.T, pool *pgxpool.Pool, sku string) (id int64, quantity int) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		`SELECT id, quantity FROM products WHERE sku = $1`, sku).Scan(&id, &quantity)
	require.NoError(t, err)
	return id, quantity
}

func TestOrderCompletionMovesStock(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t)

	var products int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&products))
	require.Equal(t, 10, products)

	notifier := &recordingNotifier{}
	stock := inventory.NewService(inventory.NewRepository(pool), notifier, nil, nil)
	svc := orders.NewService(orders.NewRepository(pool), stock, nil, nil)

	headphones, before := productBySKU(t, pool, "TEST-HEADPHONE-001")
	customer := "Walk-in customer"
	order, err := svc.Create(ctx, orders.CreateOrderCommand{
		Type:         orders.TypeSale,
		CustomerName: &customer,
		Items:        []orders.ItemInput{{ProductID: headphones, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, orders.StatusPending, order.Status)
	require.Regexp(t, `^SO-\d{4}-0001$`, order.OrderNumber)
	require.Equal(t, "899.97", order.TotalAmount.StringFixed(2))

	change, err := svc.UpdateStatus(ctx, orders.UpdateStatusCommand{OrderID: order.ID, Status: orders.StatusCompleted})
	require.NoError(t, err)
	require.Equal(t, orders.StatusPending, change.OldStatus)
	require.Equal(t, orders.StatusCompleted, change.NewStatus)

	_, after := productBySKU(t, pool, "TEST-HEADPHONE-001")
	require.Equal(t, before-3, after)

	movements, err := stock.List(ctx, inventory.ListFilter{ProductID: &headphones})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, inventory.MovementOut, movements[0].Type)

	_, err = svc.UpdateStatus(ctx, orders.UpdateStatusCommand{OrderID: order.ID, Status: orders.StatusCancelled})
	require.Error(t, err)
}

func TestOversoldCompletionClampsStockAndAlerts(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t)

	notifier := &recordingNotifier{}
	stock := inventory.NewService(inventory.NewRepository(pool), notifier, nil, nil)
	svc := orders.NewService(orders.NewRepository(pool), stock, nil, nil)

	lowStock, before := productBySKU(t, pool, "TEST-LOW-STOCK")
	customer := "Bulk buyer"
	order, err := svc.Create(ctx, orders.CreateOrderCommand{
		Type:         orders.TypeSale,
		CustomerName: &customer,
		Items:        []orders.ItemInput{{ProductID: lowStock, Quantity: before + 10}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, orders.UpdateStatusCommand{OrderID: order.ID, Status: orders.StatusCompleted})
	require.NoError(t, err)

	_, after := productBySKU(t, pool, "TEST-LOW-STOCK")
	require.Zero(t, after)

	movements, err := stock.List(ctx, inventory.ListFilter{ProductID: &lowStock})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, before, movements[0].StockBefore)
	require.Zero(t, movements[0].StockAfter)

	require.Len(t, notifier.alerts, 1)
	require.Equal(t, lowStock, notifier.alerts[0].ProductID)
	require.Equal(t, order.OrderNumber, notifier.alerts[0].Reference)
}

func TestOutMovementAboveStockIsRejected(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t)

	stock := inventory.NewService(inventory.NewRepository(pool), &recordingNotifier{}, nil, nil)
	lowStock, before := productBySKU(t, pool, "TEST-LOW-STOCK")

	_, err := stock.Record(ctx, inventory.RecordMovementCommand{
		ProductID: lowStock,
		Type:      inventory.MovementOut,
		Quantity:  before + 1,
		Reason:    "Damaged",
	})
	require.Error(t, err)

	_, after := productBySKU(t, pool, "TEST-LOW-STOCK")
	require.Equal(t, before, after)

	movements, err := stock.List(ctx, inventory.ListFilter{ProductID: &lowStock})
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestPurchaseCompletionRaisesNoAlertAboveMinimum(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t)

	notifier := &recordingNotifier{}
	stock := inventory.NewService(inventory.NewRepository(pool), notifier, nil, nil)
	svc := orders.NewService(orders.NewRepository(pool), stock, nil, nil)

	var supplierID int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT id FROM suppliers WHERE name = 'Acme Distribution'`).Scan(&supplierID))
	outOfStock, _ := productBySKU(t, pool, "TEST-OUT-STOCK")

	order, err := svc.Create(ctx, orders.CreateOrderCommand{
		Type:       orders.TypePurchase,
		SupplierID: &supplierID,
		Items:      []orders.ItemInput{{ProductID: outOfStock, Quantity: 20}},
	})
	require.NoError(t, err)
	require.Regexp(t, `^PO-\d{4}-0001$`, order.OrderNumber)
	require.Equal(t, "16000.00", order.TotalAmount.StringFixed(2))

	_, err = svc.CompleteOrder(ctx, orders.CompleteOrderCommand{OrderID: order.ID})
	require.NoError(t, err)

	_, quantity := productBySKU(t, pool, "TEST-OUT-STOCK")
	require.Equal(t, 20, quantity)
	require.Empty(t, notifier.alerts)

	var totalOrders int
	require.NoError(t, pool.QueryRow(ctx, `SELECT total_orders FROM suppliers WHERE id = $1`, supplierID).Scan(&totalOrders))
	require.Equal(t, 1, totalOrders)
}

func skus(list []products.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.SKU)
	}
	return out
}

func TestProductListFiltersAgainstSeededCatalogue(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t)
	repo := products.NewRepository(pool)

	low, err := repo.List(ctx, products.ListFilter{StockStatus: products.StockLow})
	require.NoError(t, err)
	require.Contains(t, skus(low), "TEST-LOW-STOCK")
	require.NotContains(t, skus(low), "TEST-OUT-STOCK")
	require.NotContains(t, skus(low), "TEST-HEADPHONE-001")
	for _, p := range low {
		require.Equal(t, products.StockLow, p.StockStatus)
	}

	empty, err := repo.List(ctx, products.ListFilter{StockStatus: products.StockOutOfStock})
	require.NoError(t, err)
	require.Equal(t, []string{"TEST-OUT-STOCK"}, skus(empty))

	inStock, err := repo.List(ctx, products.ListFilter{StockStatus: products.StockInStock})
	require.NoError(t, err)
	require.Contains(t, skus(inStock), "TEST-HEADPHONE-001")
	require.NotContains(t, skus(inStock), "TEST-LOW-STOCK")
	require.NotContains(t, skus(inStock), "TEST-OUT-STOCK")
	require.Equal(t, 10, len(low)+len(empty)+len(inStock))

	var categoryID int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT id FROM categories WHERE name = 'Networking'`).Scan(&categoryID))
	networking, err := repo.List(ctx, products.ListFilter{CategoryID: &categoryID, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Equal(t, []string{"NET-CAT6-30", "NET-SW-24"}, skus(networking))

	found, err := repo.List(ctx, products.ListFilter{Search: "headphone"})
	require.NoError(t, err)
	require.Equal(t, []string{"TEST-HEADPHONE-001"}, skus(found))

	hostile, err := repo.List(ctx, products.ListFilter{SortBy: "name; DROP TABLE products; --", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, hostile, 10)
}
}
