package catalog

import (
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// VariantDTO is the public shape of a variant.
type VariantDTO struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// ProductDTO is the public catalog entry. Internal identifiers and timestamps are dropped.
type ProductDTO struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Price    float64      `json:"price"`
	Image    string       `json:"image"`
	Variants []VariantDTO `json:"variants"`
}

// AdminProductDTO is the admin panel shape; the panel keys products by productId.
type AdminProductDTO struct {
	ProductID int          `json:"productId"`
	Name      string       `json:"name"`
	Price     float64      `json:"price"`
	Image     string       `json:"image"`
	Variants  []VariantDTO `json:"variants"`
}

// SetStockInput is the admin stock overwrite request.
type SetStockInput struct {
	ProductID int
	Size      string
	Color     string
	Stock     int
}

// StockDTO echoes the stored stock after an admin overwrite.
type StockDTO struct {
	ProductID int    `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Stock     int    `json:"stock"`
}

func NewProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ProductID,
		Name:     p.Name,
		Price:    priceValue(p.Price),
		Image:    p.Image,
		Variants: newVariantDTOs(p.Variants),
	}
}

func NewAdminProductDTO(p models.Product) AdminProductDTO {
	return AdminProductDTO{
		ProductID: p.ProductID,
		Name:      p.Name,
		Price:     priceValue(p.Price),
		Image:     p.Image,
		Variants:  newVariantDTOs(p.Variants),
	}
}

func newVariantDTOs(variants []models.ProductVariant) []VariantDTO {
	out := make([]VariantDTO, 0, len(variants))
	for _, v := range variants {
		out = append(out, VariantDTO{Size: v.Size, Color: v.Color, Stock: v.Stock})
	}
	return out
}

func priceValue(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
