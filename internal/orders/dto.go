package orders

import (
	"github.com/angelmondragon/staffstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the POST /orders body. productName and price are
// accepted for compatibility with the storefront UI but never trusted.
type CreateOrderRequest struct {
	ProductID    int      `json:"productId" validate:"required,gt=0"`
	ProductName  string   `json:"productName,omitempty"`
	Size         string   `json:"size" validate:"required,max=32"`
	Color        string   `json:"color" validate:"required,max=64"`
	Quantity     int      `json:"quantity" validate:"required,gt=0,lte=10000"`
	Price        *float64 `json:"price,omitempty"`
	EmployeeCode string   `json:"employeeCode" validate:"required,max=64"`
	Name         string   `json:"name" validate:"required,max=128"`
	Email        string   `json:"email" validate:"required,email,max=254"`
	Phone        string   `json:"phone" validate:"required,max=32"`
}

// Submitter identifies the employee placing the order.
type Submitter struct {
	EmployeeCode string
	Name         string
	Email        string
	Phone        string
}

// FulfillInput is the trusted subset of a create-order request.
type FulfillInput struct {
	ProductID int
	Size      string
	Color     string
	Quantity  int
	Submitter Submitter
}

func (r CreateOrderRequest) ToInput() FulfillInput {
	return FulfillInput{
		ProductID: r.ProductID,
		Size:      r.Size,
		Color:     r.Color,
		Quantity:  r.Quantity,
		Submitter: Submitter{
			EmployeeCode: r.EmployeeCode,
			Name:         r.Name,
			Email:        r.Email,
			Phone:        r.Phone,
		},
	}
}

// FulfillmentResult describes a committed deduction.
type FulfillmentResult struct {
	ID          uuid.UUID
	ProductID   int
	ProductName string
	NewStock    int
	Price       decimal.Decimal
	Total       decimal.Decimal
	EmailSent   bool
	Recorded    bool
}

// CreateOrderResponse is the 201 body of POST /orders.
type CreateOrderResponse struct {
	types.Envelope
	ID        uuid.UUID `json:"id"`
	EmailSent bool      `json:"emailSent"`
	ProductID int       `json:"productId"`
	NewStock  int       `json:"newStock"`
	Total     float64   `json:"total"`
}

func NewCreateOrderResponse(r *FulfillmentResult) CreateOrderResponse {
	return CreateOrderResponse{
		Envelope:  types.Success(),
		ID:        r.ID,
		EmailSent: r.EmailSent,
		ProductID: r.ProductID,
		NewStock:  r.NewStock,
		Total:     r.Total.InexactFloat64(),
	}
}
