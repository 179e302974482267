package ledger

import (
	"context"

	"github.com/angelmondragon/staffstore-backend/internal/repo"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/angelmondragon/staffstore-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for ledger entries. Entries are insert-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Count(ctx context.Context) (int64, error)
	ListPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository resolving connections through provider.
func NewRepository(provider db.Provider) Repository {
	return &repository{Base: repo.NewBase(provider)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	conn, err := r.DB(ctx)
	if err != nil {
		return err
	}
	return conn.Create(order).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListPage returns newest-first entries strictly older than cursor.
func (r *repository) ListPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return nil, err
	}
	q := conn.Model(&models.Order{}).Order("created_at DESC").Order("id DESC").Limit(limit)
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
