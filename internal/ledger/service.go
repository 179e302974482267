package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/staffstore-backend/internal/repo"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service records and lists fulfilled orders.
type Service interface {
	Record(ctx context.Context, input RecordOrderInput) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) (*OrderPage, error)
}

type service struct {
	repo Repository
}

// RecordOrderInput carries the denormalized fields of a fulfilled order.
type RecordOrderInput struct {
	ID           uuid.UUID
	ProductID    int
	ProductName  string
	Size         string
	Color        string
	Quantity     int
	Price        decimal.Decimal
	Total        decimal.Decimal
	EmployeeCode string
	Name         string
	Email        string
	Phone        string
}

// OrderDTO is the admin view of a ledger entry.
type OrderDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    int       `json:"productId"`
	ProductName  string    `json:"productName"`
	Size         string    `json:"size"`
	Color        string    `json:"color"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Total        float64   `json:"total"`
	EmployeeCode string    `json:"employeeCode"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
}

type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repository Repository) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repository}, nil
}

func (s *service) Record(ctx context.Context, input RecordOrderInput) (*models.Order, error) {
	if input.ID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if input.ProductID <= 0 {
		return nil, fmt.Errorf("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if !input.Total.Equal(input.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))) {
		return nil, fmt.Errorf("total %s does not match price %s x %d", input.Total, input.Price, input.Quantity)
	}

	order := &models.Order{
		ID:           input.ID,
		ProductID:    input.ProductID,
		ProductName:  input.ProductName,
		Size:         input.Size,
		Color:        input.Color,
		Quantity:     input.Quantity,
		Price:        input.Price,
		Total:        input.Total,
		EmployeeCode: input.EmployeeCode,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": err.Error()})
	}

	rows, err := s.repo.ListPage(ctx, pagination.Fetch(params.Limit), cursor)
	if err != nil {
		return nil, repo.StoreError(err, "list orders", "Failed to load orders")
	}

	orders, more := pagination.Split(rows, params.Limit)
	page := &OrderPage{Orders: make([]OrderDTO, 0, len(orders))}
	if more {
		last := orders[len(orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, o := range orders {
		page.Orders = append(page.Orders, NewOrderDTO(o))
	}
	return page, nil
}

func NewOrderDTO(o models.Order) OrderDTO {
	return OrderDTO{
		ID:           o.ID,
		ProductID:    o.ProductID,
		ProductName:  o.ProductName,
		Size:         o.Size,
		Color:        o.Color,
		Quantity:     o.Quantity,
		Price:        o.Price.InexactFloat64(),
		Total:        o.Total.InexactFloat64(),
		EmployeeCode: o.EmployeeCode,
		Name:         o.Name,
		Email:        o.Email,
		Phone:        o.Phone,
		CreatedAt:    o.CreatedAt,
	}
}
