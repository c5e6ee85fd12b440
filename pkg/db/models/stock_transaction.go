package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// StockTransaction is an immutable, append-only ledger entry. Quantity is
// always the signed effect applied to the balance; an adjustment stores the
// delta needed to reach the requested target, not the target itself.
type StockTransaction struct {
	ID           uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IngredientID uuid.UUID                  `gorm:"column:ingredient_id;type:uuid;not null"`
	Type         enums.StockTransactionType `gorm:"column:type;type:stock_transaction_type;not null"`
	Quantity     decimal.Decimal            `gorm:"column:quantity;type:numeric(10,3);not null"`
	TotalCost    *decimal.Decimal           `gorm:"column:total_cost;type:numeric(10,2)"`
	Notes        *string                    `gorm:"column:notes"`
	RecordedBy   *uuid.UUID                 `gorm:"column:recorded_by;type:uuid"`
	Ingredient   *Ingredient                `gorm:"foreignKey:IngredientID"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
