package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seededRepo(t *testing.T) (Repository, *db.Client) {
	t.Helper()
	client := dbtest.NewClient(t)
	r := NewRepository(client)
	n, err := Seed(context.Background(), r, DefaultProducts(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return r, client
}

func TestRepositoryListOrdersProductsAndVariants(t *testing.T) {
	r, _ := seededRepo(t)

	products, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)

	assert.Equal(t, 1, products[0].ProductID)
	assert.Equal(t, "Women Printed Kurta", products[0].Name)
	assert.True(t, decimal.NewFromInt(1299).Equal(products[0].Price))

	sizes := []string{}
	for _, v := range products[0].Variants {
		sizes = append(sizes, v.Size)
	}
	assert.Equal(t, []string{"S", "M", "L", "XL"}, sizes)
	assert.Len(t, products[1].Variants, 5)
}

func TestRepositoryDecrementStockGuardsQuantity(t *testing.T) {
	r, _ := seededRepo(t)
	ctx := context.Background()
	key := VariantKey{ProductID: 3, Size: "M", Color: "Charcoal"}

	ok, err := r.DecrementStock(ctx, key, 3)
	require.NoError(t, err)
	assert.False(t, ok, "stock 2 cannot cover 3")

	ok, err = r.DecrementStock(ctx, key, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	snap, err := r.FindVariant(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Stock)
	assert.Equal(t, "Women Wide-Leg Trousers", snap.ProductName)
	assert.True(t, decimal.NewFromInt(4999).Equal(snap.Price))

	ok, err = r.DecrementStock(ctx, key, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryDecrementStockUnknownVariant(t *testing.T) {
	r, _ := seededRepo(t)
	ctx := context.Background()

	for _, key := range []VariantKey{
		{ProductID: 99, Size: "M", Color: "White"},
		{ProductID: 1, Size: "XXL", Color: "White"},
		{ProductID: 1, Size: "M", Color: "Red"},
	} {
		ok, err := r.DecrementStock(ctx, key, 1)
		require.NoError(t, err)
		assert.False(t, ok, "%+v", key)
	}

	_, err := r.FindVariant(ctx, VariantKey{ProductID: 99, Size: "M", Color: "White"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDecrementStockIsOneGuardedUpdate(t *testing.T) {
	r, client := seededRepo(t)

	var (
		mu         sync.Mutex
		statements []string
	)
	record := func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		statements = append(statements, tx.Statement.SQL.String())
	}
	cb := client.DB().Callback()
	require.NoError(t, cb.Query().After("gorm:query").Register("test:record_query", record))
	require.NoError(t, cb.Row().After("gorm:row").Register("test:record_row", record))
	require.NoError(t, cb.Raw().After("gorm:raw").Register("test:record_raw", record))
	require.NoError(t, cb.Update().After("gorm:update").Register("test:record_update", record))

	ok, err := r.DecrementStock(context.Background(), VariantKey{ProductID: 1, Size: "M", Color: "White"}, 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, statements, 1, "check and write must not be split: %v", statements)
	stmt := statements[0]
	assert.True(t, strings.HasPrefix(stmt, "UPDATE"), stmt)
	assert.Contains(t, stmt, "stock >= ?")
	assert.Contains(t, stmt, "stock - ?")
}

func TestRepositoryDecrementStockConcurrent(t *testing.T) {
	client := dbtest.NewFileClient(t, 8)
	r := NewRepository(client)
	ctx := context.Background()
	_, err := Seed(ctx, r, DefaultProducts(), nil)
	require.NoError(t, err)

	key := VariantKey{ProductID: 1, Size: "XL", Color: "White"} // stock 5

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	start := make(chan struct{})
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := r.DecrementStock(ctx, key, 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 5, success)
	snap, err := r.FindVariant(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Stock)
}

func TestRepositorySetStock(t *testing.T) {
	r, _ := seededRepo(t)
	ctx := context.Background()

	found, err := r.SetStock(ctx, VariantKey{ProductID: 2, Size: "34", Color: "Blue"}, 40)
	require.NoError(t, err)
	assert.True(t, found)

	snap, err := r.FindVariant(ctx, VariantKey{ProductID: 2, Size: "34", Color: "Blue"})
	require.NoError(t, err)
	assert.Equal(t, 40, snap.Stock)

	found, err = r.SetStock(ctx, VariantKey{ProductID: 2, Size: "36", Color: "Blue"}, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	r, client := seededRepo(t)
	ctx := context.Background()
	key := VariantKey{ProductID: 1, Size: "S", Color: "White"}

	_ = client.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := r.WithTx(tx).DecrementStock(ctx, key, 4)
		require.NoError(t, err)
		require.True(t, ok)
		return gorm.ErrInvalidTransaction
	})

	snap, err := r.FindVariant(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Stock)
}

func TestSeedSkipsNonEmptyCatalog(t *testing.T) {
	r, _ := seededRepo(t)

	n, err := Seed(context.Background(), r, []models.Product{{ProductID: 50, Name: "Extra", Price: decimal.NewFromInt(1)}}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}
