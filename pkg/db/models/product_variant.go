package models

import "time"

// ProductVariant is one size/color combination of a product and its stock count.
type ProductVariant struct {
	ProductID int       `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	Size      string    `gorm:"column:size;primaryKey"`
	Color     string    `gorm:"column:color;primaryKey"`
	Stock     int       `gorm:"column:stock;not null;default:0;check:product_variants_stock_check,stock >= 0"`
	Position  int       `gorm:"column:position;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }
