package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// Order is the aggregate root of the order lifecycle. Totals are computed
// once at creation and never mutated; only the status field transitions.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber  int64             `gorm:"column:order_number;not null;unique"`
	Type         enums.OrderType   `gorm:"column:type;type:order_type;not null"`
	TableID      *uuid.UUID        `gorm:"column:table_id;type:uuid"`
	CustomerName *string           `gorm:"column:customer_name"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Subtotal     decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax          decimal.Decimal   `gorm:"column:tax;type:numeric(10,2);not null"`
	Total        decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	Notes        *string           `gorm:"column:notes"`
	PlacedBy     *uuid.UUID        `gorm:"column:placed_by;type:uuid"`
	Table        *DiningTable      `gorm:"foreignKey:TableID"`
	Items        []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment      *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
