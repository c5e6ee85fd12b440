package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains ingredients and their append-only stock ledger. The
// running balance on an ingredient always equals the sum of its signed
// ledger entries and never goes negative.
type Service interface {
	CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uuid.UUID, input UpdateIngredientInput) (*IngredientView, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*IngredientView, error)
	ListIngredients(ctx context.Context) ([]IngredientView, error)
	ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*models.StockTransaction, error)
	ListTransactions(ctx context.Context, params pagination.Params, filters TransactionFilters) (*TransactionList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an inventory service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient name required")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ingredient unit")
	}
	if input.MinStock.IsNegative() || input.CostPerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock and cost must not be negative")
	}

	ingredient := &models.Ingredient{
		Name:         input.Name,
		Unit:         input.Unit,
		CurrentStock: decimal.Zero,
		MinStock:     input.MinStock,
		CostPerUnit:  input.CostPerUnit,
	}
	if _, err := s.repo.CreateIngredient(ctx, ingredient); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ingredient")
	}
	return ingredient, nil
}

func (s *service) UpdateIngredient(ctx context.Context, id uuid.UUID, input UpdateIngredientInput) (*IngredientView, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient name required")
		}
		updates["name"] = *input.Name
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ingredient unit")
		}
		updates["unit"] = *input.Unit
	}
	if input.MinStock != nil {
		if input.MinStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock must not be negative")
		}
		updates["min_stock"] = *input.MinStock
	}
	if input.CostPerUnit != nil {
		if input.CostPerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
		}
		updates["cost_per_unit"] = *input.CostPerUnit
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.loadIngredient(ctx, s.repo, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateIngredient(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ingredient")
	}
	return s.GetIngredient(ctx, id)
}

func (s *service) GetIngredient(ctx context.Context, id uuid.UUID) (*IngredientView, error) {
	ingredient, err := s.loadIngredient(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	view := decorate(*ingredient)
	return &view, nil
}

func (s *service) ListIngredients(ctx context.Context) ([]IngredientView, error) {
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	views := make([]IngredientView, 0, len(ingredients))
	for _, ingredient := range ingredients {
		views = append(views, decorate(ingredient))
	}
	return views, nil
}

func (s *service) ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*models.StockTransaction, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock transaction type")
	}
	if input.Type.IsAdjustment() {
		if input.Quantity.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment target must not be negative")
		}
	} else if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.TotalCost != nil && input.TotalCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cost must not be negative")
	}

	var txn *models.StockTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ingredient, err := s.loadIngredient(ctx, repo, input.IngredientID)
		if err != nil {
			return err
		}

		// The stored quantity is always the signed effect, so the balance
		// stays equal to the sum of the ledger even for adjustments.
		var delta decimal.Decimal
		switch {
		case input.Type.IsAdjustment():
			delta = input.Quantity.Sub(ingredient.CurrentStock)
		case input.Type.Increases():
			delta = input.Quantity
		default:
			delta = input.Quantity.Neg()
		}

		// The guarded conditional write serializes concurrent writers on the
		// ingredient row, so an overdraw matches no row even when this
		// transaction read a stale balance.
		applied, err := repo.AdjustIngredientStock(ctx, ingredient.ID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock delta")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]any{
					"attempted_delta": delta,
					"current_stock":   ingredient.CurrentStock,
				})
		}

		txn = &models.StockTransaction{
			IngredientID: ingredient.ID,
			Type:         input.Type,
			Quantity:     delta,
			TotalCost:    input.TotalCost,
			Notes:        input.Notes,
			RecordedBy:   input.RecordedBy,
		}
		if _, err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) ListTransactions(ctx context.Context, params pagination.Params, filters TransactionFilters) (*TransactionList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.ListTransactions(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock transactions")
	}
	return list, nil
}

func (s *service) loadIngredient(ctx context.Context, repo Repository, id uuid.UUID) (*models.Ingredient, error) {
	ingredient, err := repo.FindIngredient(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ingredient")
	}
	return ingredient, nil
}

func decorate(ingredient models.Ingredient) IngredientView {
	return IngredientView{
		Ingredient: ingredient,
		LowStock:   ingredient.CurrentStock.LessThan(ingredient.MinStock),
		OutOfStock: !ingredient.CurrentStock.IsPositive(),
	}
}
