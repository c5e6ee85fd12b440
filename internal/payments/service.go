package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/internal/orders"
	"github.com/tavolapos/tavola-backend/pkg/db"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"gorm.io/gorm"
)

const paymentsOrderConstraint = "payments_order_id_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderCompleter is the slice of the order service settlement needs: applying
// the completed transition inside the settlement transaction.
type orderCompleter interface {
	CompleteTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

// SettleInput captures a settlement request for one order.
type SettleInput struct {
	OrderID uuid.UUID
	Method  enums.PaymentMethod
	Amount  decimal.Decimal
}

// Service settles payments. Each order settles exactly once; the payment
// insert and the order's completed transition commit atomically.
type Service interface {
	Settle(ctx context.Context, input SettleInput) (*models.Payment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	ordersSvc  orderCompleter
	tx         txRunner
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, ordersRepo orders.Repository, ordersSvc orderCompleter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("order completer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		ordersRepo: ordersRepo,
		ordersSvc:  ordersSvc,
		tx:         tx,
	}, nil
}

func (s *service) Settle(ctx context.Context, input SettleInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.ordersRepo.WithTx(tx).Find(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// The existence check and the insert run in the same transaction,
		// and the unique index on order_id backstops concurrent settlers.
		if _, err := repo.FindByOrder(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payment")
		}

		if !input.Amount.Equal(order.Total) {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment amount does not match order total").
				WithDetails(map[string]any{
					"expected_amount": order.Total,
					"provided_amount": input.Amount,
				})
		}

		payment = &models.Payment{
			OrderID: order.ID,
			Method:  input.Method,
			Amount:  input.Amount,
		}
		if _, err := repo.Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, paymentsOrderConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		// Completing the order inside the same transaction means an
		// illegal transition rolls the payment insert back too.
		if _, err := s.ordersSvc.CompleteTx(ctx, tx, order.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}
