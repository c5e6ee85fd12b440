package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"gorm.io/gorm"
)

// ProductInfo is the authoritative pricing snapshot returned per product id.
type ProductInfo struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

// Reader resolves product ids to their authoritative price and availability.
// Unknown ids are omitted from the result rather than reported as errors.
type Reader interface {
	Resolve(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]ProductInfo, error)
	ListMenu(ctx context.Context, categoryID *uuid.UUID) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type reader struct {
	repo Repository
}

// NewReader builds the catalog reader with the required dependencies.
func NewReader(repo Repository) (Reader, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &reader{repo: repo}, nil
}

func (r *reader) Resolve(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]ProductInfo, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]ProductInfo{}, nil
	}

	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	products, err := r.repo.WithTx(tx).FindProductsByIDs(ctx, distinct)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve products")
	}

	resolved := make(map[uuid.UUID]ProductInfo, len(products))
	for _, p := range products {
		resolved[p.ID] = ProductInfo{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Available: p.Available,
		}
	}
	return resolved, nil
}

func (r *reader) ListMenu(ctx context.Context, categoryID *uuid.UUID) ([]models.Product, error) {
	products, err := r.repo.ListAvailableProducts(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu")
	}
	return products, nil
}

func (r *reader) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := r.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}
