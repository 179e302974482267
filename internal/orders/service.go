package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/internal/ledger"
	"github.com/angelmondragon/staffstore-backend/internal/notifications"
	"github.com/angelmondragon/staffstore-backend/internal/repo"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service fulfills single-line staff orders.
type Service interface {
	Fulfill(ctx context.Context, input FulfillInput) (*FulfillmentResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, order notifications.OrderNotification) bool
}

type service struct {
	catalog  catalog.Repository
	ledger   ledger.Service
	tx       txRunner
	notifier notifier
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

type Deps struct {
	Catalog  catalog.Repository
	Ledger   ledger.Service
	Tx       txRunner
	Notifier notifier
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

// NewService wires the fulfillment dependencies. Notifier and Metrics may be nil.
func NewService(deps Deps) (Service, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog:  deps.Catalog,
		ledger:   deps.Ledger,
		tx:       deps.Tx,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		now:      time.Now,
		newID:    uuid.New,
	}, nil
}

// Fulfill deducts stock with a single guarded update, records the order and
// notifies staff. Only the deduction decides success: a ledger or
// notification failure after commit is logged and the order still succeeds.
func (s *service) Fulfill(ctx context.Context, input FulfillInput) (*FulfillmentResult, error) {
	start := s.now()
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		s.metrics.IncRejected(metrics.ReasonValidation)
		return nil, err
	}

	key := catalog.VariantKey{ProductID: input.ProductID, Size: input.Size, Color: input.Color}
	var snap *catalog.VariantSnapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		ok, err := catalogRepo.DecrementStock(ctx, key, input.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock")
		}
		snap, err = catalogRepo.FindVariant(ctx, key)
		return err
	})
	if err != nil {
		return nil, s.rejected(ctx, input, start, err)
	}

	s.metrics.IncFulfilled()
	s.metrics.StockSet(snap.ProductID, snap.Size, snap.Color, snap.Stock)

	total := snap.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))
	result := &FulfillmentResult{
		ID:          s.newID(),
		ProductID:   snap.ProductID,
		ProductName: snap.ProductName,
		NewStock:    snap.Stock,
		Price:       snap.Price,
		Total:       total,
	}
	ctx = s.logg.WithOrderID(ctx, result.ID.String())

	order, err := s.ledger.Record(ctx, ledger.RecordOrderInput{
		ID:           result.ID,
		ProductID:    snap.ProductID,
		ProductName:  snap.ProductName,
		Size:         snap.Size,
		Color:        snap.Color,
		Quantity:     input.Quantity,
		Price:        snap.Price,
		Total:        total,
		EmployeeCode: input.Submitter.EmployeeCode,
		Name:         input.Submitter.Name,
		Email:        input.Submitter.Email,
		Phone:        input.Submitter.Phone,
	})
	createdAt := s.now().UTC()
	if err != nil {
		s.metrics.IncLedgerFailure()
		failCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":    snap.ProductID,
			"size":          snap.Size,
			"color":         snap.Color,
			"quantity":      input.Quantity,
			"total":         total.String(),
			"employee_code": input.Submitter.EmployeeCode,
		})
		s.logg.Error(failCtx, "orders.ledger_write_failed", err)
	} else {
		result.Recorded = true
		createdAt = order.CreatedAt
	}

	if s.notifier != nil {
		result.EmailSent = s.notifier.Notify(ctx, notifications.OrderNotification{
			OrderID:      result.ID,
			ProductID:    snap.ProductID,
			ProductName:  snap.ProductName,
			Size:         snap.Size,
			Color:        snap.Color,
			Quantity:     input.Quantity,
			Price:        snap.Price,
			Total:        total,
			EmployeeCode: input.Submitter.EmployeeCode,
			Name:         input.Submitter.Name,
			Email:        input.Submitter.Email,
			Phone:        input.Submitter.Phone,
			CreatedAt:    createdAt,
		})
	}

	s.metrics.ObserveDuration("fulfilled", s.now().Sub(start))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": snap.ProductID,
		"new_stock":  snap.Stock,
		"email_sent": result.EmailSent,
	}), "orders.fulfilled")
	return result, nil
}

func (s *service) rejected(ctx context.Context, input FulfillInput, start time.Time, err error) error {
	reason := metrics.ReasonStoreError
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		reason = metrics.ReasonInsufficientStock
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id": input.ProductID,
			"size":       input.Size,
			"color":      input.Color,
			"quantity":   input.Quantity,
		}), "orders.insufficient_stock")
	case db.IsUnavailable(err):
		reason = metrics.ReasonStoreUnavailable
	case errors.Is(err, gorm.ErrRecordNotFound):
		// The row matched the guarded update but vanished before the read-back.
		err = fmt.Errorf("read back variant: %w", err)
	}
	s.metrics.IncRejected(reason)
	s.metrics.ObserveDuration("rejected", s.now().Sub(start))
	return repo.StoreError(err, "fulfill order", "Failed to create order")
}

func normalizeInput(in FulfillInput) FulfillInput {
	in.Size = strings.TrimSpace(in.Size)
	in.Color = strings.TrimSpace(in.Color)
	in.Submitter.EmployeeCode = strings.TrimSpace(in.Submitter.EmployeeCode)
	in.Submitter.Name = strings.TrimSpace(in.Submitter.Name)
	in.Submitter.Email = strings.TrimSpace(in.Submitter.Email)
	in.Submitter.Phone = strings.TrimSpace(in.Submitter.Phone)
	return in
}

func validateInput(in FulfillInput) error {
	details := map[string]string{}
	if in.ProductID <= 0 {
		details["productId"] = "must be a positive integer"
	}
	if in.Size == "" {
		details["size"] = "is required"
	}
	if in.Color == "" {
		details["color"] = "is required"
	}
	if in.Quantity <= 0 {
		details["quantity"] = "must be a positive integer"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid order").WithDetails(details)
	}
	return nil
}
