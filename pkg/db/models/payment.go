package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// Payment settles exactly one order. The unique index on order_id is the
// database-level backstop for the one-payment-per-order rule.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:payments_order_id_key"`
	Method    enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Order     *Order              `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
