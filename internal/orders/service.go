package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/internal/catalog"
	"github.com/tavolapos/tavola-backend/internal/tables"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives orders through creation and the status state machine.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	// CompleteTx applies the transition to completed inside the caller's
	// transaction, including the table-release side effect. Payment
	// settlement uses it so the payment insert and the status change
	// commit or roll back together.
	CompleteTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog catalog.Reader
	tables  tables.Repository
	taxRate decimal.Decimal
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, reader catalog.Reader, tableRepo tables.Repository, taxRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reader == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if tableRepo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: reader,
		tables:  tableRepo,
		taxRate: taxRate,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	if input.Type == enums.OrderTypeTable && input.TableID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table required for table orders")
	}
	if input.Type == enums.OrderTypeCounter && input.TableID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counter orders cannot reference a table")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.ProductID)
		}
		resolved, err := s.catalog.Resolve(ctx, tx, ids)
		if err != nil {
			return err
		}

		var unavailable []uuid.UUID
		for _, id := range ids {
			info, ok := resolved[id]
			if !ok || !info.Available {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "products unknown or unavailable").
				WithDetails(map[string]any{"product_ids": unavailable})
		}

		if input.TableID != nil {
			if _, err := s.tables.WithTx(tx).Find(ctx, *input.TableID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
			}
		}

		// Server-side pricing: line prices come from the resolved catalog
		// snapshot, never from the request.
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			price := resolved[item.ProductID].Price
			subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			items = append(items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     price,
				Notes:     item.Notes,
			})
		}
		tax := subtotal.Mul(s.taxRate).Round(2)
		total := subtotal.Add(tax).Round(2)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order := &models.Order{
			OrderNumber:  number,
			Type:         input.Type,
			TableID:      input.TableID,
			CustomerName: input.CustomerName,
			Status:       enums.OrderStatusPending,
			Subtotal:     subtotal,
			Tax:          tax,
			Total:        total,
			Notes:        input.Notes,
			PlacedBy:     input.PlacedBy,
			Items:        items,
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if input.TableID != nil {
			if err := s.tables.WithTx(tx).SetStatus(ctx, *input.TableID, enums.TableStatusOccupied); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy table")
			}
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, orderID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.applyTransition(ctx, tx, id, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) CompleteTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	return s.applyTransition(ctx, tx, orderID, enums.OrderStatusCompleted)
}

// applyTransition enforces the state machine inside the supplied transaction.
// Re-applying the order's current status is a successful no-op so concurrent
// kitchen and POS clients can race on the same transition.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status == target {
		return order, nil
	}
	if !canTransition(order.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
			WithDetails(map[string]any{
				"current_status":   order.Status,
				"requested_status": target,
			})
	}

	applied, err := repo.UpdateStatus(ctx, order.ID, order.Status, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		// The row moved between the read and the guarded write. Re-read so
		// a racing duplicate of the same transition stays a no-op.
		current, err := repo.Find(ctx, orderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		if current.Status == target {
			return current, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
			WithDetails(map[string]any{
				"current_status":   current.Status,
				"requested_status": target,
			})
	}
	order.Status = target

	if target.IsTerminal() && order.TableID != nil {
		if err := s.releaseTableIfIdle(ctx, tx, *order.TableID, order.ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// releaseTableIfIdle flips the table back to available once no other active
// orders reference it. Runs in the same transaction as the status write so a
// concurrently created order cannot be missed by the count.
func (s *service) releaseTableIfIdle(ctx context.Context, tx *gorm.DB, tableID, excludeOrderID uuid.UUID) error {
	repo := s.tables.WithTx(tx)
	active, err := repo.CountActiveOrders(ctx, tableID, &excludeOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active table orders")
	}
	if active > 0 {
		return nil
	}
	if err := repo.SetStatus(ctx, tableID, enums.TableStatusAvailable); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release table")
	}
	return nil
}

func canTransition(current, target enums.OrderStatus) bool {
	switch {
	case target == enums.OrderStatusCancelled:
		return current.IsActive()
	case current == enums.OrderStatusPending && target == enums.OrderStatusPreparing:
		return true
	case current == enums.OrderStatusPreparing && target == enums.OrderStatusReady:
		return true
	case current == enums.OrderStatusReady && target == enums.OrderStatusCompleted:
		return true
	default:
		return false
	}
}
