package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable ledger entry written after a successful stock deduction.
// Product fields are copied so the entry survives later catalog edits.
type Order struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    int             `gorm:"column:product_id;not null;index"`
	ProductName  string          `gorm:"column:product_name;not null"`
	Size         string          `gorm:"column:size;not null"`
	Color        string          `gorm:"column:color;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	EmployeeCode string          `gorm:"column:employee_code;not null"`
	Name         string          `gorm:"column:name;not null"`
	Email        string          `gorm:"column:email;not null"`
	Phone        string          `gorm:"column:phone;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// All lists the models AutoMigrate manages for sqlite deployments.
func All() []any {
	return []any{&Product{}, &ProductVariant{}, &Order{}}
}
