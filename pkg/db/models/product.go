package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. ProductID is assigned at seeding or by an admin and never changes.
type Product struct {
	ProductID int              `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	Name      string           `gorm:"column:name;not null"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Image     string           `gorm:"column:image;not null;default:''"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;references:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
