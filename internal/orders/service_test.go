package orders

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/internal/ledger"
	"github.com/angelmondragon/staffstore-backend/internal/notifications"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeNotifier struct {
	mu     sync.Mutex
	result bool
	calls  []notifications.OrderNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, n notifications.OrderNotification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, n)
	return f.result
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingLedger struct{ err error }

func (f failingLedger) Record(context.Context, ledger.RecordOrderInput) (*models.Order, error) {
	return nil, f.err
}

func (f failingLedger) List(context.Context, pagination.Params) (*ledger.OrderPage, error) {
	return &ledger.OrderPage{}, nil
}

type fixture struct {
	svc      Service
	client   *db.Client
	catalog  catalog.Repository
	ledger   ledger.Repository
	notifier *fakeNotifier
	logs     *lockedBuffer
}

// redShirt is a product with a single (M, Red) variant holding stock 3.
func redShirt() models.Product {
	return models.Product{
		ProductID: 42,
		Name:      "Red Tee",
		Price:     decimal.RequireFromString("499.50"),
		Image:     "images/red.webp",
		Variants: []models.ProductVariant{
			{Size: "M", Color: "Red", Stock: 3},
		},
	}
}

func newFixture(t *testing.T, products ...models.Product) *fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.NewClient(t), products...)
}

func newFixtureOn(t *testing.T, client *db.Client, products ...models.Product) *fixture {
	t.Helper()
	catalogRepo := catalog.NewRepository(client)
	if len(products) == 0 {
		products = catalog.DefaultProducts()
	}
	_, err := catalog.Seed(context.Background(), catalogRepo, products, nil)
	require.NoError(t, err)

	ledgerRepo := ledger.NewRepository(client)
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	require.NoError(t, err)

	logs := &lockedBuffer{}
	notifier := &fakeNotifier{result: true}
	svc, err := NewService(Deps{
		Catalog:  catalogRepo,
		Ledger:   ledgerSvc,
		Tx:       client,
		Notifier: notifier,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: logs}),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, client: client, catalog: catalogRepo, ledger: ledgerRepo, notifier: notifier, logs: logs}
}

func order(productID int, size, color string, qty int) FulfillInput {
	return FulfillInput{
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  qty,
		Submitter: Submitter{EmployeeCode: "E-7", Name: "Ravi", Email: "ravi@example.com", Phone: "9000000000"},
	}
}

func (f *fixture) stock(t *testing.T, key catalog.VariantKey) int {
	t.Helper()
	snap, err := f.catalog.FindVariant(context.Background(), key)
	require.NoError(t, err)
	return snap.Stock
}

func (f *fixture) ledgerCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.ledger.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestFulfillDeductsAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Fulfill(ctx, order(1, "M", "White", 2))
	require.NoError(t, err)

	assert.Equal(t, 13, res.NewStock)
	assert.Equal(t, 1, res.ProductID)
	assert.True(t, res.EmailSent)
	assert.True(t, res.Recorded)
	assert.True(t, decimal.NewFromInt(2598).Equal(res.Total))

	page, err := ledger.NewService(f.ledger)
	require.NoError(t, err)
	orders, err := page.List(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, res.ID, orders.Orders[0].ID)
	assert.Equal(t, "Women Printed Kurta", orders.Orders[0].ProductName)
	assert.Equal(t, 2598.0, orders.Orders[0].Total)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, res.ID, f.notifier.calls[0].OrderID)
	assert.Equal(t, "E-7", f.notifier.calls[0].EmployeeCode)
}

func TestFulfillIgnoresClientPrice(t *testing.T) {
	f := newFixture(t)
	req := CreateOrderRequest{
		ProductID: 2, ProductName: "Free Polo", Size: "32", Color: "Blue", Quantity: 3,
		Price:        func() *float64 { v := 1.0; return &v }(),
		EmployeeCode: "E-1", Name: "N", Email: "n@example.com", Phone: "1",
	}

	res, err := f.svc.Fulfill(context.Background(), req.ToInput())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2499*3).Equal(res.Total))
	assert.Equal(t, "Men Solid Polo T-Shirt", res.ProductName)
}

func TestFulfillRejectionIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := catalog.VariantKey{ProductID: 3, Size: "M", Color: "Charcoal"}

	cases := []FulfillInput{
		order(3, "M", "Charcoal", 3),
		order(3, "M", "Purple", 1),
		order(99, "M", "Charcoal", 1),
	}
	for _, in := range cases {
		_, err := f.svc.Fulfill(ctx, in)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	}

	assert.Equal(t, 2, f.stock(t, key))
	assert.Zero(t, f.ledgerCount(t))
	assert.Empty(t, f.notifier.calls)
}

func TestFulfillValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fulfill(context.Background(), FulfillInput{ProductID: 0, Size: " ", Quantity: 0})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "productId")
	assert.Contains(t, details, "size")
	assert.Contains(t, details, "color")
	assert.Contains(t, details, "quantity")
}

func TestFulfillNeverOversells(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewFileClient(t, 8), redShirt())
	key := catalog.VariantKey{ProductID: 42, Size: "M", Color: "Red"}
	found, err := f.catalog.SetStock(context.Background(), key, 7)
	require.NoError(t, err)
	require.True(t, found)

	const attempts = 25
	var mu sync.Mutex
	successes, rejections := 0, 0

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := f.svc.Fulfill(context.Background(), order(42, "M", "Red", 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
				rejections++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 7, successes)
	assert.Equal(t, attempts-7, rejections)
	assert.Equal(t, 0, f.stock(t, key))
	assert.Equal(t, int64(7), f.ledgerCount(t))
}

func TestFulfillScenarioWithAdminRestock(t *testing.T) {
	f := newFixture(t, redShirt())
	ctx := context.Background()
	key := catalog.VariantKey{ProductID: 42, Size: "M", Color: "Red"}
	price := decimal.RequireFromString("499.50")

	res, err := f.svc.Fulfill(ctx, order(42, "M", "Red", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStock)
	assert.True(t, price.Mul(decimal.NewFromInt(2)).Equal(res.Total))
	assert.Equal(t, int64(1), f.ledgerCount(t))

	_, err = f.svc.Fulfill(ctx, order(42, "M", "Red", 2))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 1, f.stock(t, key))
	assert.Equal(t, int64(1), f.ledgerCount(t))

	catalogSvc, err := catalog.NewService(f.catalog, logger.Nop(), nil)
	require.NoError(t, err)
	_, err = catalogSvc.SetVariantStock(ctx, catalog.SetStockInput{ProductID: 42, Size: "M", Color: "Red", Stock: 10})
	require.NoError(t, err)

	res, err = f.svc.Fulfill(ctx, order(42, "M", "Red", 5))
	require.NoError(t, err)
	assert.Equal(t, 5, res.NewStock)
	assert.Equal(t, int64(2), f.ledgerCount(t))
}

func TestFulfillNotifierFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.notifier.result = false

	res, err := f.svc.Fulfill(context.Background(), order(4, "S", "Multi", 1))
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	assert.Equal(t, 4, res.NewStock)
	assert.Equal(t, int64(1), f.ledgerCount(t))
}

func TestFulfillLedgerFailureStillSucceeds(t *testing.T) {
	client := dbtest.NewClient(t)
	catalogRepo := catalog.NewRepository(client)
	_, err := catalog.Seed(context.Background(), catalogRepo, catalog.DefaultProducts(), nil)
	require.NoError(t, err)

	logs := &lockedBuffer{}
	notifier := &fakeNotifier{result: true}
	svc, err := NewService(Deps{
		Catalog:  catalogRepo,
		Ledger:   failingLedger{err: errors.New("disk full")},
		Tx:       client,
		Notifier: notifier,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: logs}),
	})
	require.NoError(t, err)

	res, err := svc.Fulfill(context.Background(), order(1, "L", "White", 3))
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.True(t, res.EmailSent)
	assert.Equal(t, 5, res.NewStock)
	assert.Contains(t, logs.String(), "orders.ledger_write_failed")
	assert.Contains(t, logs.String(), "disk full")

	snap, err := catalogRepo.FindVariant(context.Background(), catalog.VariantKey{ProductID: 1, Size: "L", Color: "White"})
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Stock)
}

func TestFulfillStoreUnavailable(t *testing.T) {
	lazy := db.NewLazy(func(context.Context) (*db.Client, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(lazy))
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Catalog: catalog.NewRepository(lazy),
		Ledger:  ledgerSvc,
		Tx:      lazy,
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)

	_, err = svc.Fulfill(context.Background(), order(1, "M", "White", 1))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStoreUnavailable, typed.Code())
	assert.Equal(t, "Database not connected", typed.PublicMessage())
}
