package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/internal/orders"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubPaymentsRepo struct {
	payment   *models.Payment
	created   *models.Payment
	createErr error
	findErr   error
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.created = payment
	s.payment = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.payment == nil || s.payment.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.payment, nil
}

type stubOrderFinder struct {
	order *models.Order
}

func (s *stubOrderFinder) WithTx(tx *gorm.DB) orders.Repository {
	return s
}

func (s *stubOrderFinder) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderFinder) Find(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderFinder) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.Find(ctx, id)
}

func (s *stubOrderFinder) List(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	panic("not implemented")
}

func (s *stubOrderFinder) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	panic("not implemented")
}

func (s *stubOrderFinder) NextOrderNumber(ctx context.Context) (int64, error) {
	panic("not implemented")
}

type stubOrderCompleter struct {
	order  *models.Order
	called int
	err    error
}

func (s *stubOrderCompleter) CompleteTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	s.called++
	if s.err != nil {
		return nil, s.err
	}
	if s.order != nil {
		s.order.Status = enums.OrderStatusCompleted
	}
	return s.order, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func readyOrder(total string) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: 7,
		Type:        enums.OrderTypeCounter,
		Status:      enums.OrderStatusReady,
		Subtotal:    decimal.RequireFromString("13.00"),
		Tax:         decimal.RequireFromString("1.30"),
		Total:       decimal.RequireFromString(total),
	}
}

func newTestService(t *testing.T, repo *stubPaymentsRepo, finder *stubOrderFinder, completer *stubOrderCompleter) Service {
	t.Helper()
	svc, err := NewService(repo, finder, completer, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestSettleCompletesOrder(t *testing.T) {
	order := readyOrder("14.30")
	repo := &stubPaymentsRepo{}
	completer := &stubOrderCompleter{order: order}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	payment, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if payment.OrderID != order.ID {
		t.Fatalf("payment bound to wrong order %s", payment.OrderID)
	}
	if !payment.Amount.Equal(decimal.RequireFromString("14.30")) {
		t.Fatalf("unexpected amount %s", payment.Amount)
	}
	if completer.called != 1 {
		t.Fatalf("expected one complete call got %d", completer.called)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected order status %s", order.Status)
	}
}

func TestSettleTreatsWrappedNotFoundAsUnpaid(t *testing.T) {
	order := readyOrder("14.30")
	repo := &stubPaymentsRepo{
		findErr: fmt.Errorf("scan payment row: %w", gorm.ErrRecordNotFound),
	}
	completer := &stubOrderCompleter{order: order}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err != nil {
		t.Fatalf("wrapped not-found must read as unpaid, got %v", err)
	}
	if completer.called != 1 {
		t.Fatalf("expected one complete call got %d", completer.called)
	}
}

func TestGetByOrderMapsWrappedRecordNotFound(t *testing.T) {
	repo := &stubPaymentsRepo{
		findErr: fmt.Errorf("scan payment row: %w", gorm.ErrRecordNotFound),
	}
	svc := newTestService(t, repo, &stubOrderFinder{}, &stubOrderCompleter{})

	_, err := svc.GetByOrder(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSettleAmountMismatch(t *testing.T) {
	order := readyOrder("14.30")
	repo := &stubPaymentsRepo{}
	completer := &stubOrderCompleter{order: order}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCard,
		Amount:  decimal.RequireFromString("14.29"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %v", typed.Details())
	}
	expected, ok := details["expected_amount"].(decimal.Decimal)
	if !ok || !expected.Equal(decimal.RequireFromString("14.30")) {
		t.Fatalf("unexpected expected amount %v", details["expected_amount"])
	}
	if repo.created != nil {
		t.Fatal("payment must not be created")
	}
	if completer.called != 0 {
		t.Fatal("order must not be completed")
	}
}

func TestSettleAlreadyPaid(t *testing.T) {
	order := readyOrder("14.30")
	repo := &stubPaymentsRepo{payment: &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("14.30"),
	}}
	completer := &stubOrderCompleter{order: order}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if completer.called != 0 {
		t.Fatal("order must not be completed twice")
	}
}

func TestSettleInvalidTransitionAbortsPayment(t *testing.T) {
	order := readyOrder("14.30")
	order.Status = enums.OrderStatusPending
	repo := &stubPaymentsRepo{}
	completer := &stubOrderCompleter{
		order: order,
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
			WithDetails(map[string]any{
				"current_status":   enums.OrderStatusPending,
				"requested_status": enums.OrderStatusCompleted,
			}),
	}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSettleOrderNotFound(t *testing.T) {
	svc := newTestService(t, &stubPaymentsRepo{}, &stubOrderFinder{}, &stubOrderCompleter{})
	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: uuid.New(),
		Method:  enums.PaymentMethodCash,
		Amount:  decimal.RequireFromString("10.00"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSettleInvalidMethod(t *testing.T) {
	order := readyOrder("14.30")
	svc := newTestService(t, &stubPaymentsRepo{}, &stubOrderFinder{order: order}, &stubOrderCompleter{order: order})
	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  "voucher",
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSettleUniqueViolationMapsToAlreadyPaid(t *testing.T) {
	order := readyOrder("14.30")
	repo := &stubPaymentsRepo{
		createErr: errors.New(`duplicate key value violates unique constraint "payments_order_id_key"`),
	}
	completer := &stubOrderCompleter{order: order}
	svc := newTestService(t, repo, &stubOrderFinder{order: order}, completer)

	_, err := svc.Settle(context.Background(), SettleInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCard,
		Amount:  decimal.RequireFromString("14.30"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if completer.called != 0 {
		t.Fatal("order must not complete when the payment insert loses the race")
	}
}
