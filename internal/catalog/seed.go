package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type seedVariant struct {
	size, color string
	stock       int
}

type seedProduct struct {
	id       int
	name     string
	price    int64
	image    string
	variants []seedVariant
}

var defaultCatalog = []seedProduct{
	{1, "Women Printed Kurta", 1299, "images/shopping (1).webp", []seedVariant{
		{"S", "White", 10}, {"M", "White", 15}, {"L", "White", 8}, {"XL", "White", 5},
	}},
	{2, "Men Solid Polo T-Shirt", 2499, "images/shopping (2).webp", []seedVariant{
		{"30", "Blue", 5}, {"32", "Blue", 8}, {"34", "Blue", 3}, {"30", "Black", 7}, {"32", "Black", 4},
	}},
	{3, "Women Wide-Leg Trousers", 4999, "images/shopping (3).webp", []seedVariant{
		{"M", "Navy", 4}, {"L", "Navy", 6}, {"XL", "Navy", 3}, {"M", "Charcoal", 2}, {"L", "Charcoal", 5},
	}},
	{4, "Men White Casual Blazer", 3299, "images/shopping.webp", []seedVariant{
		{"XS", "Multi", 7}, {"S", "Multi", 5}, {"M", "Multi", 3}, {"L", "Multi", 4},
	}},
}

// DefaultProducts returns fresh model values for the starter catalog.
func DefaultProducts() []models.Product {
	products := make([]models.Product, 0, len(defaultCatalog))
	for _, sp := range defaultCatalog {
		p := models.Product{
			ProductID: sp.id,
			Name:      sp.name,
			Price:     decimal.NewFromInt(sp.price),
			Image:     sp.image,
		}
		for i, v := range sp.variants {
			p.Variants = append(p.Variants, models.ProductVariant{
				ProductID: sp.id,
				Size:      v.size,
				Color:     v.color,
				Stock:     v.stock,
				Position:  i,
			})
		}
		products = append(products, p)
	}
	return products
}

// Seed inserts products only when the catalog is empty. It reports how many were inserted.
func Seed(ctx context.Context, repository Repository, products []models.Product, logg *logger.Logger) (int, error) {
	count, err := repository.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	if err := repository.CreateProducts(ctx, products); err != nil {
		return 0, fmt.Errorf("seeding products: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "products", len(products)), "catalog.seeded")
	}
	return len(products), nil
}
