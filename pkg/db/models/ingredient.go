package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// Ingredient is a stocked raw material. CurrentStock is a running balance
// maintained in the same transaction as every ledger append, so it always
// equals the sum of the ingredient's stock transactions.
type Ingredient struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string               `gorm:"column:name;not null"`
	Unit         enums.IngredientUnit `gorm:"column:unit;type:ingredient_unit;not null"`
	CurrentStock decimal.Decimal      `gorm:"column:current_stock;type:numeric(10,3);not null;default:0"`
	MinStock     decimal.Decimal      `gorm:"column:min_stock;type:numeric(10,3);not null;default:0"`
	CostPerUnit  decimal.Decimal      `gorm:"column:cost_per_unit;type:numeric(10,2);not null;default:0"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
