package catalog

import (
	"context"
	"time"

	"github.com/angelmondragon/staffstore-backend/internal/repo"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariantKey identifies one variant of one product.
type VariantKey struct {
	ProductID int
	Size      string
	Color     string
}

// VariantSnapshot is a variant row joined with its product's name and price.
type VariantSnapshot struct {
	ProductID   int
	ProductName string
	Price       decimal.Decimal
	Size        string
	Color       string
	Stock       int
}

// Repository manages persistence for products and their variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	CreateProducts(ctx context.Context, products []models.Product) error
	DecrementStock(ctx context.Context, key VariantKey, quantity int) (bool, error)
	FindVariant(ctx context.Context, key VariantKey) (*VariantSnapshot, error)
	SetStock(ctx context.Context, key VariantKey, stock int) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a catalog repository resolving connections through provider.
func NewRepository(provider db.Provider) Repository {
	return &repository{Base: repo.NewBase(provider)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) List(ctx context.Context) ([]models.Product, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := conn.
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC").Order("size ASC").Order("color ASC")
		}).
		Order("product_id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := conn.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	conn, err := r.DB(ctx)
	if err != nil {
		return err
	}
	return conn.Create(&products).Error
}

// DecrementStock subtracts quantity from the variant only if enough stock
// remains. The check and the write are one statement, so concurrent callers
// can never take the count below zero. It reports false when no row matched.
func (r *repository) DecrementStock(ctx context.Context, key VariantKey, quantity int) (bool, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return false, err
	}
	res := conn.Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ? AND stock >= ?", key.ProductID, key.Size, key.Color, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

const variantSnapshotQuery = `
SELECT v.product_id,
       p.name AS product_name,
       p.price,
       v.size,
       v.color,
       v.stock
FROM product_variants v
JOIN products p ON p.product_id = v.product_id
WHERE v.product_id = ? AND v.size = ? AND v.color = ?
`

func (r *repository) FindVariant(ctx context.Context, key VariantKey) (*VariantSnapshot, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return nil, err
	}
	var snap VariantSnapshot
	res := conn.Raw(variantSnapshotQuery, key.ProductID, key.Size, key.Color).Scan(&snap)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &snap, nil
}

// SetStock overwrites the variant's stock unconditionally.
func (r *repository) SetStock(ctx context.Context, key VariantKey, stock int) (bool, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return false, err
	}
	res := conn.Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ?", key.ProductID, key.Size, key.Color).
		Updates(map[string]any{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
