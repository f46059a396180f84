package orders

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/inventory"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

type memoryRepo struct {
	orders         map[int64]Order
	products       map[int64]ProductPrice
	suppliers      map[int64]int
	sequences      map[string]int
	nextOrderID    int64
	nextItemID     int64
	depth          int
	failInsertItem bool
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:    make(map[int64]Order),
		products:  make(map[int64]ProductPrice),
		suppliers: make(map[int64]int),
		sequences: make(map[string]int),
	}
}

func price(v string) internalShared.Amount {
	return internalShared.NewAmount(decimal.RequireFromString(v))
}

func (r *memoryRepo) addProduct(id int64, name, sell, cost string) {
	r.products[id] = ProductPrice{ID: id, Name: name, Price: price(sell), CostPrice: price(cost)}
}

// WithTx snapshots state at the outermost level and restores it when fn
// fails. Nested calls join the outer transaction.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r.depth > 0 {
		return fn(ctx, &memoryTx{repo: r})
	}
	orders := make(map[int64]Order, len(r.orders))
	for id, o := range r.orders {
		o.Items = append([]Item(nil), o.Items...)
		orders[id] = o
	}
	suppliers := make(map[int64]int, len(r.suppliers))
	for id, n := range r.suppliers {
		suppliers[id] = n
	}
	sequences := make(map[string]int, len(r.sequences))
	for k, v := range r.sequences {
		sequences[k] = v
	}

	r.depth++
	err := fn(ctx, &memoryTx{repo: r})
	r.depth--
	if err != nil {
		r.orders, r.suppliers, r.sequences = orders, suppliers, sequences
	}
	return err
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	out := []Order{}
	for _, o := range r.orders {
		if filter.Type != "" && o.Type != filter.Type {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *memoryRepo) ProductsByID(ctx context.Context, ids []int64) (map[int64]ProductPrice, error) {
	out := make(map[int64]ProductPrice)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *memoryRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.suppliers[id]
	return ok, nil
}

func (r *memoryRepo) matching(filter CountFilter) []Order {
	var out []Order
	for _, o := range r.orders {
		if (filter.Type == "" || o.Type == filter.Type) && (filter.Status == "" || o.Status == filter.Status) {
			out = append(out, o)
		}
	}
	return out
}

func (r *memoryRepo) Count(ctx context.Context, filter CountFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *memoryRepo) SumTotal(ctx context.Context, filter CountFilter) (internalShared.Amount, error) {
	sum := decimal.Zero
	for _, o := range r.matching(filter) {
		sum = sum.Add(o.TotalAmount.Decimal)
	}
	return internalShared.NewAmount(sum), nil
}

func (tx *memoryTx) NextSequence(ctx context.Context, t Type, year int) (int, error) {
	key := FormatOrderNumber(t, year, 0)
	tx.repo.sequences[key]++
	return tx.repo.sequences[key], nil
}

func (tx *memoryTx) Insert(ctx context.Context, o Order) (Order, error) {
	tx.repo.nextOrderID++
	o.ID = tx.repo.nextOrderID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	o.Items = []Item{}
	tx.repo.orders[o.ID] = o
	return o, nil
}

func (tx *memoryTx) InsertItem(ctx context.Context, item Item) (Item, error) {
	if tx.repo.failInsertItem {
		return Item{}, errors.New("connection reset")
	}
	tx.repo.nextItemID++
	item.ID = tx.repo.nextItemID
	o := tx.repo.orders[item.OrderID]
	o.Items = append(o.Items, item)
	tx.repo.orders[item.OrderID] = o
	return item, nil
}

func (tx *memoryTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) SetStatus(ctx context.Context, id int64, status Status) error {
	o := tx.repo.orders[id]
	o.Status = status
	tx.repo.orders[id] = o
	return nil
}

func (tx *memoryTx) IncrementSupplierOrders(ctx context.Context, supplierID int64) error {
	tx.repo.suppliers[supplierID]++
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, id int64) error {
	delete(tx.repo.orders, id)
	return nil
}

var errTestStock = errors.New("deadlock detected")

type fakeStock struct {
	completions []inventory.OrderCompletion
	notified    []inventory.Movement
	err         error
}

func (f *fakeStock) ApplyOrderCompletion(ctx context.Context, completion inventory.OrderCompletion) ([]inventory.Movement, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.completions = append(f.completions, completion)
	movements := make([]inventory.Movement, 0, len(completion.Items))
	for _, item := range completion.Items {
		id := item.ProductID
		movements = append(movements, inventory.Movement{ProductID: &id, Quantity: item.Quantity})
	}
	return movements, nil
}

func (f *fakeStock) OrderMovementsCommitted(ctx context.Context, movements []inventory.Movement) {
	f.notified = append(f.notified, movements...)
}

func newTestService(repo *memoryRepo, stock *fakeStock) *Service {
	svc := NewService(repo, stock, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func saleCommand() CreateOrderCommand {
	return CreateOrderCommand{
		Type:         TypeSale,
		CustomerName: strPtr("Ada"),
		Items:        []ItemInput{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		CreatedBy:    7,
	}
}

func TestCreateSaleOrderPricesLinesFromCatalogue(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Bolt", "10.00", "6.00")
	repo.addProduct(2, "Nut", "5.00", "2.50")
	svc := newTestService(repo, &fakeStock{})

	order, err := svc.Create(context.Background(), saleCommand())
	require.NoError(t, err)
	require.Equal(t, "SO-2026-0001", order.OrderNumber)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, "25.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	require.Equal(t, "20.00", order.Items[0].Total.StringFixed(2))
	require.Equal(t, "Bolt", order.Items[0].ProductName)
	require.Equal(t, "5.00", order.Items[1].Total.StringFixed(2))
	require.Equal(t, int64(7), *order.CreatedBy)
	require.Nil(t, order.SupplierID)
}

func TestCreatePurchaseUsesCostPriceAndCountsSupplierOrder(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Bolt", "10.00", "6.00")
	repo.suppliers[3] = 0
	svc := newTestService(repo, &fakeStock{})

	cmd := CreateOrderCommand{
		Type:         TypePurchase,
		SupplierID:   int64Ptr(3),
		CustomerName: strPtr("ignored"),
		Items:        []ItemInput{{ProductID: 1, Quantity: 4}},
	}
	first, err := svc.Create(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, "PO-2026-0001", first.OrderNumber)
	require.Equal(t, "24.00", first.TotalAmount.StringFixed(2))
	require.Nil(t, first.CustomerName)
	require.Nil(t, first.CreatedBy)

	second, err := svc.Create(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, "PO-2026-0002", second.OrderNumber)
	require.Equal(t, 2, repo.suppliers[3])
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Bolt", "10.00", "6.00")
	svc := newTestService(repo, &fakeStock{})

	_, err := svc.Create(context.Background(), CreateOrderCommand{
		Type:       TypePurchase,
		SupplierID: int64Ptr(9),
		Items:      []ItemInput{{ProductID: 1, Quantity: 1}, {ProductID: 42, Quantity: 1}},
	})
	var verr *internalShared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "supplier_id")
	require.Contains(t, verr.Fields, "items.1.product_id")
	require.NotContains(t, verr.Fields, "items.0.product_id")
	require.Empty(t, repo.orders)
}

func TestCreateRollsBackSequenceOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Bolt", "10.00", "6.00")
	repo.addProduct(2, "Nut", "5.00", "2.50")
	svc := newTestService(repo, &fakeStock{})

	repo.failInsertItem = true
	_, err := svc.Create(context.Background(), saleCommand())
	require.Error(t, err)
	require.Empty(t, repo.orders)

	repo.failInsertItem = false
	order, err := svc.Create(context.Background(), saleCommand())
	require.NoError(t, err)
	require.Equal(t, "SO-2026-0001", order.OrderNumber)
}

func TestUpdateStatusRejectsTerminalOrders(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			repo := newMemoryRepo()
			repo.orders[1] = Order{ID: 1, Type: TypeSale, Status: status}
			svc := newTestService(repo, &fakeStock{})

			_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderID: 1, Status: StatusPending})
			require.ErrorIs(t, err, internalShared.ErrRuleViolation)
			require.ErrorIs(t, err, ErrInvalidStatus)
			require.EqualError(t, err, "Cannot change status of completed or cancelled orders")
			require.Equal(t, status, repo.orders[1].Status)
		})
	}
}

func TestUpdateStatusReportsTransition(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, Type: TypeSale, Status: StatusPending}
	svc := newTestService(repo, &fakeStock{})

	change, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderID: 1, Status: StatusProcessing})
	require.NoError(t, err)
	require.Equal(t, StatusPending, change.OldStatus)
	require.Equal(t, StatusProcessing, change.NewStatus)
	require.Equal(t, StatusProcessing, change.Order.Status)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderID: 99, Status: StatusCancelled})
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestCompletingAnOrderAppliesStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{
		ID:          1,
		OrderNumber: "SO-2026-0001",
		Type:        TypeSale,
		Status:      StatusProcessing,
		CreatedBy:   int64Ptr(7),
		Items: []Item{
			{ProductID: int64Ptr(1), Quantity: 2},
			{ProductName: "Deleted", Quantity: 5},
		},
	}
	stock := &fakeStock{}
	svc := newTestService(repo, stock)

	change, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderID: 1, Status: StatusCompleted, ActorID: 4})
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, change.OldStatus)
	require.Equal(t, StatusCompleted, change.Order.Status)

	require.Len(t, stock.completions, 1)
	completion := stock.completions[0]
	require.Equal(t, "SO-2026-0001", completion.OrderNumber)
	require.Equal(t, inventory.OrderTypeSale, completion.OrderType)
	require.Equal(t, int64(7), completion.CreatedBy, "movements are attributed to the order creator, not the actor")
	require.Equal(t, []inventory.CompletionItem{{ProductID: 1, Quantity: 2}}, completion.Items)
	require.Len(t, stock.notified, 1)
}

func TestCompletingAnOrderWithoutCreatorLeavesMovementsUnattributed(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{
		ID:          1,
		OrderNumber: "PO-2026-0003",
		Type:        TypePurchase,
		Status:      StatusPending,
		Items:       []Item{{ProductID: int64Ptr(1), Quantity: 1}},
	}
	stock := &fakeStock{}
	svc := newTestService(repo, stock)

	_, err := svc.CompleteOrder(context.Background(), CompleteOrderCommand{OrderID: 1, ActorID: 4})
	require.NoError(t, err)
	require.Len(t, stock.completions, 1)
	require.Zero(t, stock.completions[0].CreatedBy)
}

func TestCompleteOrderRollsBackStatusWhenStockFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, Type: TypePurchase, Status: StatusPending, Items: []Item{{ProductID: int64Ptr(1), Quantity: 2}}}
	stock := &fakeStock{err: errTestStock}
	svc := newTestService(repo, stock)

	_, err := svc.CompleteOrder(context.Background(), CompleteOrderCommand{OrderID: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, internalShared.ErrRuleViolation)
	require.Equal(t, StatusPending, repo.orders[1].Status)
	require.Empty(t, stock.notified)
}

func TestDeleteOnlyPendingOrders(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, Status: StatusPending}
	repo.orders[2] = Order{ID: 2, Status: StatusProcessing}
	svc := newTestService(repo, &fakeStock{})

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.NotContains(t, repo.orders, int64(1))

	err := svc.Delete(context.Background(), 2)
	require.ErrorIs(t, err, ErrNotPending)
	require.EqualError(t, err, "Only pending orders can be deleted")
	require.Contains(t, repo.orders, int64(2))
}

func TestStatsAggregatesCompletedTotals(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, Type: TypePurchase, Status: StatusCompleted, TotalAmount: price("100.00")}
	repo.orders[2] = Order{ID: 2, Type: TypePurchase, Status: StatusPending, TotalAmount: price("40.00")}
	repo.orders[3] = Order{ID: 3, Type: TypeSale, Status: StatusCompleted, TotalAmount: price("12.50")}
	svc := newTestService(repo, &fakeStock{})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalOrders)
	require.Equal(t, int64(1), stats.PendingOrders)
	require.Equal(t, int64(2), stats.CompletedOrders)
	require.Equal(t, int64(2), stats.PurchaseOrders)
	require.Equal(t, int64(1), stats.SaleOrders)
	require.Equal(t, "100.00", stats.TotalPurchases.StringFixed(2))
	require.Equal(t, "12.50", stats.TotalSales.StringFixed(2))
}

func TestFormatOrderNumber(t *testing.T) {
	require.Equal(t, "PO-2026-0001", FormatOrderNumber(TypePurchase, 2026, 1))
	require.Equal(t, "SO-2027-0120", FormatOrderNumber(TypeSale, 2027, 120))
}
