package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// CreateIngredientInput captures a new ingredient definition. Stock always
// starts at zero; the opening balance arrives as a purchase transaction so
// the ledger sum invariant holds from day one.
type CreateIngredientInput struct {
	Name        string
	Unit        enums.IngredientUnit
	MinStock    decimal.Decimal
	CostPerUnit decimal.Decimal
}

// UpdateIngredientInput carries the mutable ingredient fields. Current stock
// is deliberately absent; it only moves through the ledger.
type UpdateIngredientInput struct {
	Name        *string
	Unit        *enums.IngredientUnit
	MinStock    *decimal.Decimal
	CostPerUnit *decimal.Decimal
}

// ApplyTransactionInput is one requested ledger entry. For increase and
// decrease kinds Quantity is a positive magnitude; for adjustments it is the
// exact target balance.
type ApplyTransactionInput struct {
	IngredientID uuid.UUID
	Type         enums.StockTransactionType
	Quantity     decimal.Decimal
	TotalCost    *decimal.Decimal
	Notes        *string
	RecordedBy   *uuid.UUID
}

// IngredientView decorates an ingredient with its derived stock flags.
type IngredientView struct {
	models.Ingredient
	LowStock   bool `json:"low_stock"`
	OutOfStock bool `json:"out_of_stock"`
}

// TransactionFilters describe the inputs supported by the history list.
type TransactionFilters struct {
	IngredientID *uuid.UUID
	Type         *enums.StockTransactionType
}

// TransactionList wraps the paginated ledger entries plus the next cursor.
type TransactionList struct {
	Transactions []models.StockTransaction `json:"transactions"`
	NextCursor   string                    `json:"next_cursor,omitempty"`
}
