package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/staffstore-backend/internal/repo"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
)

// Service exposes catalog reads and admin stock edits.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	ListAdminProducts(ctx context.Context) ([]AdminProductDTO, error)
	SetVariantStock(ctx context.Context, input SetStockInput) (*StockDTO, error)
}

// StockObserver is told about admin overwrites, e.g. to refresh gauges.
type StockObserver interface {
	StockSet(productID int, size, color string, stock int)
}

type service struct {
	repo     Repository
	logg     *logger.Logger
	observer StockObserver
}

// NewService wires a catalog service. observer may be nil.
func NewService(repository Repository, logg *logger.Logger, observer StockObserver) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repository, logg: logg, observer: observer}, nil
}

// ListProducts returns a point-in-time snapshot; stock may change before the caller acts on it.
func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.StoreError(err, "list products", "Failed to load products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out, nil
}

func (s *service) ListAdminProducts(ctx context.Context) ([]AdminProductDTO, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.StoreError(err, "list admin products", "Failed to load products")
	}
	out := make([]AdminProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewAdminProductDTO(p))
	}
	return out, nil
}

// SetVariantStock overwrites stock without any guard. Concurrent orders may
// interleave with it; the last write wins.
func (s *service) SetVariantStock(ctx context.Context, input SetStockInput) (*StockDTO, error) {
	key := VariantKey{
		ProductID: input.ProductID,
		Size:      strings.TrimSpace(input.Size),
		Color:     strings.TrimSpace(input.Color),
	}
	if err := validateStockInput(key, input.Stock); err != nil {
		return nil, err
	}

	found, err := s.repo.SetStock(ctx, key, input.Stock)
	if err != nil {
		return nil, repo.StoreError(err, "set variant stock", "Failed to update stock")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Variant not found").
			WithDetails(map[string]any{"productId": key.ProductID, "size": key.Size, "color": key.Color})
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": key.ProductID,
		"size":       key.Size,
		"color":      key.Color,
		"stock":      input.Stock,
	})
	s.logg.Info(ctx, "catalog.stock_set")
	if s.observer != nil {
		s.observer.StockSet(key.ProductID, key.Size, key.Color, input.Stock)
	}

	return &StockDTO{ProductID: key.ProductID, Size: key.Size, Color: key.Color, Stock: input.Stock}, nil
}

func validateStockInput(key VariantKey, stock int) error {
	details := map[string]string{}
	if key.ProductID <= 0 {
		details["productId"] = "must be a positive integer"
	}
	if key.Size == "" {
		details["size"] = "is required"
	}
	if key.Color == "" {
		details["color"] = "is required"
	}
	if stock < 0 {
		details["stock"] = "must be zero or greater"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid stock update").WithDetails(details)
	}
	return nil
}
