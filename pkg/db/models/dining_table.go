package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavolapos/tavola-backend/pkg/enums"
)

// DiningTable is a physical table whose occupancy is derived from order
// lifecycle events rather than set directly while orders are active.
type DiningTable struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number    int               `gorm:"column:number;not null;unique"`
	Seats     int               `gorm:"column:seats;not null"`
	Status    enums.TableStatus `gorm:"column:status;type:table_status;not null;default:'available'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the SQL name free of the reserved word "table".
func (DiningTable) TableName() string {
	return "dining_tables"
}
