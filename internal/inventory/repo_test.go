package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS ingredients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT NOT NULL,
  current_stock NUMERIC NOT NULL DEFAULT 0,
  min_stock NUMERIC NOT NULL DEFAULT 0,
  cost_per_unit NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS stock_transactions (
  id TEXT PRIMARY KEY,
  ingredient_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  total_cost NUMERIC,
  notes TEXT,
  recorded_by TEXT,
  created_at DATETIME
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func insertTestIngredient(t *testing.T, db *gorm.DB, name string, stock string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{
		ID:           uuid.New(),
		Name:         name,
		Unit:         enums.IngredientUnitKilogram,
		CurrentStock: decimal.RequireFromString(stock),
		MinStock:     decimal.RequireFromString("1"),
	}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func insertTestTransaction(t *testing.T, db *gorm.DB, ingredientID uuid.UUID, kind enums.StockTransactionType, qty string, createdAt time.Time) *models.StockTransaction {
	t.Helper()
	txn := &models.StockTransaction{
		ID:           uuid.New(),
		IngredientID: ingredientID,
		Type:         kind,
		Quantity:     decimal.RequireFromString(qty),
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func TestIngredientRoundTrip(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ingredient := &models.Ingredient{
		ID:           uuid.New(),
		Name:         "Mozzarella",
		Unit:         enums.IngredientUnitGram,
		CurrentStock: decimal.Zero,
		MinStock:     decimal.RequireFromString("500"),
		CostPerUnit:  decimal.RequireFromString("0.01"),
	}
	_, err := repo.CreateIngredient(ctx, ingredient)
	require.NoError(t, err)

	found, err := repo.FindIngredient(ctx, ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mozzarella", found.Name)
	assert.True(t, found.CurrentStock.IsZero())

	applied, err := repo.AdjustIngredientStock(ctx, ingredient.ID, decimal.RequireFromString("750"))
	require.NoError(t, err)
	assert.True(t, applied)
	found, err = repo.FindIngredient(ctx, ingredient.ID)
	require.NoError(t, err)
	assert.True(t, found.CurrentStock.Equal(decimal.RequireFromString("750")))

	// A delta that would overdraw the balance matches no row.
	applied, err = repo.AdjustIngredientStock(ctx, ingredient.ID, decimal.RequireFromString("-1000"))
	require.NoError(t, err)
	assert.False(t, applied)
	found, err = repo.FindIngredient(ctx, ingredient.ID)
	require.NoError(t, err)
	assert.True(t, found.CurrentStock.Equal(decimal.RequireFromString("750")))

	applied, err = repo.AdjustIngredientStock(ctx, ingredient.ID, decimal.RequireFromString("-750"))
	require.NoError(t, err)
	assert.True(t, applied)
	found, err = repo.FindIngredient(ctx, ingredient.ID)
	require.NoError(t, err)
	assert.True(t, found.CurrentStock.IsZero())
}

func TestListTransactionsFiltersByIngredient(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	flour := insertTestIngredient(t, db, "Flour", "10")
	sugar := insertTestIngredient(t, db, "Sugar", "5")

	base := time.Now().UTC().Add(-time.Hour)
	insertTestTransaction(t, db, flour.ID, enums.StockTransactionPurchase, "10", base)
	insertTestTransaction(t, db, flour.ID, enums.StockTransactionUsage, "-2", base.Add(time.Minute))
	insertTestTransaction(t, db, sugar.ID, enums.StockTransactionPurchase, "5", base.Add(2*time.Minute))

	list, err := repo.ListTransactions(ctx, pagination.Params{}, TransactionFilters{IngredientID: &flour.ID})
	require.NoError(t, err)
	require.Len(t, list.Transactions, 2)
	for _, txn := range list.Transactions {
		assert.Equal(t, flour.ID, txn.IngredientID)
	}
	// Newest first.
	assert.True(t, list.Transactions[0].Quantity.Equal(decimal.RequireFromString("-2")))
}

func TestListTransactionsPaginatesWithCursor(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	flour := insertTestIngredient(t, db, "Flour", "10")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 1; i <= 3; i++ {
		insertTestTransaction(t, db, flour.ID, enums.StockTransactionPurchase, "1", base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.ListTransactions(ctx, pagination.Params{Limit: 2}, TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListTransactions(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 1)
	assert.Empty(t, second.NextCursor)
}
