package orders

import (
	"github.com/google/uuid"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// CreateOrderItemInput is one requested line. The caller never supplies a
// price; the catalog price at creation time is snapshotted onto the item.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Notes     *string
}

// CreateOrderInput captures everything needed to create and price an order.
type CreateOrderInput struct {
	Type         enums.OrderType
	TableID      *uuid.UUID
	CustomerName *string
	Notes        *string
	PlacedBy     *uuid.UUID
	Items        []CreateOrderItemInput
}

// OrderFilters describe the inputs supported by the orders list.
type OrderFilters struct {
	Status  *enums.OrderStatus
	Type    *enums.OrderType
	TableID *uuid.UUID
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
