package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for ingredients and the ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error)
	FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// AdjustIngredientStock atomically adds a signed delta to the balance,
	// refusing any write that would drive it negative. Returns false when
	// no row was updated.
	AdjustIngredientStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.StockTransaction) (*models.StockTransaction, error)
	ListTransactions(ctx context.Context, params pagination.Params, filters TransactionFilters) (*TransactionList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return nil, err
	}
	return ingredient, nil
}

func (r *repository) FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ingredient).Error
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&ingredients).Error
	if err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *repository) UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AdjustIngredientStock applies the delta in a single guarded UPDATE so two
// concurrent writers serialize on the ingredient row and neither can
// overdraw the balance.
func (r *repository) AdjustIngredientStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ? AND current_stock + ? >= 0", id, delta).
		Update("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.StockTransaction) (*models.StockTransaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, params pagination.Params, filters TransactionFilters) (*TransactionList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Preload("Ingredient")

	if filters.IngredientID != nil {
		query = query.Where("ingredient_id = ?", *filters.IngredientID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.StockTransaction
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &TransactionList{Transactions: rows}
	if len(rows) > limit {
		list.Transactions = rows[:limit]
		last := list.Transactions[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}
