package tables

import (
	"context"

	"github.com/google/uuid"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for dining tables. Table status
// is maintained by the order lifecycle, so the mutating operations here are
// always invoked inside an order transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	List(ctx context.Context) ([]models.DiningTable, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) error
	CountActiveOrders(ctx context.Context, tableID uuid.UUID, excludeOrderID *uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tables repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.DiningTable, error) {
	var table models.DiningTable
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) List(ctx context.Context) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	err := r.db.WithContext(ctx).
		Order("number ASC").
		Find(&tables).Error
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.DiningTable{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) CountActiveOrders(ctx context.Context, tableID uuid.UUID, excludeOrderID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("table_id = ?", tableID).
		Where("status IN ?", enums.ActiveOrderStatuses())
	if excludeOrderID != nil {
		query = query.Where("id <> ?", *excludeOrderID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
