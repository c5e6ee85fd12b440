package inventory

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolapos/tavola-backend/api/responses"
	"github.com/tavolapos/tavola-backend/api/validators"
	internalinventory "github.com/tavolapos/tavola-backend/internal/inventory"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/logger"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
)

type createIngredientRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Unit        string `json:"unit" validate:"required"`
	MinStock    string `json:"min_stock" validate:"required"`
	CostPerUnit string `json:"cost_per_unit" validate:"required"`
}

type updateIngredientRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Unit        *string `json:"unit"`
	MinStock    *string `json:"min_stock"`
	CostPerUnit *string `json:"cost_per_unit"`
}

type createTransactionRequest struct {
	IngredientID string  `json:"ingredient_id" validate:"required,uuid4"`
	Type         string  `json:"type" validate:"required"`
	Quantity     string  `json:"quantity" validate:"required"`
	TotalCost    *string `json:"total_cost"`
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
	RecordedBy   *string `json:"recorded_by" validate:"omitempty,uuid4"`
}

// CreateIngredient registers a new ingredient with a zero opening balance.
func CreateIngredient(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload createIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := enums.ParseIngredientUnit(payload.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}
		minStock, err := parseNonNegativeDecimal(payload.MinStock, "min_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		costPerUnit, err := parseNonNegativeDecimal(payload.CostPerUnit, "cost_per_unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ingredient, err := svc.CreateIngredient(r.Context(), internalinventory.CreateIngredientInput{
			Name:        strings.TrimSpace(payload.Name),
			Unit:        unit,
			MinStock:    minStock,
			CostPerUnit: costPerUnit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ingredient)
	}
}

// UpdateIngredient patches the mutable ingredient fields. Stock is not one
// of them; it only moves through the transaction ledger.
func UpdateIngredient(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		ingredientID, err := validators.ParsePathUUID(chi.URLParam(r, "ingredientId"), "ingredient id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input internalinventory.UpdateIngredientInput
		if payload.Name != nil {
			name := strings.TrimSpace(*payload.Name)
			input.Name = &name
		}
		if payload.Unit != nil {
			unit, err := enums.ParseIngredientUnit(*payload.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}
		if payload.MinStock != nil {
			minStock, err := parseNonNegativeDecimal(*payload.MinStock, "min_stock")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.MinStock = &minStock
		}
		if payload.CostPerUnit != nil {
			costPerUnit, err := parseNonNegativeDecimal(*payload.CostPerUnit, "cost_per_unit")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CostPerUnit = &costPerUnit
		}

		view, err := svc.UpdateIngredient(r.Context(), ingredientID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// GetIngredient returns one ingredient with its derived stock flags.
func GetIngredient(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		ingredientID, err := validators.ParsePathUUID(chi.URLParam(r, "ingredientId"), "ingredient id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetIngredient(r.Context(), ingredientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// ListIngredients returns every ingredient with derived stock flags.
func ListIngredients(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		views, err := svc.ListIngredients(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"ingredients": views})
	}
}

// CreateTransaction appends one ledger entry for an ingredient.
func CreateTransaction(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload createTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ingredientID, err := uuid.Parse(payload.IngredientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient id"))
			return
		}

		txType, err := enums.ParseStockTransactionType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		quantity, err := decimal.NewFromString(strings.TrimSpace(payload.Quantity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity"))
			return
		}

		input := internalinventory.ApplyTransactionInput{
			IngredientID: ingredientID,
			Type:         txType,
			Quantity:     quantity,
			Notes:        payload.Notes,
		}

		if payload.TotalCost != nil {
			totalCost, err := parseNonNegativeDecimal(*payload.TotalCost, "total_cost")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.TotalCost = &totalCost
		}
		if payload.RecordedBy != nil {
			recordedBy, err := uuid.Parse(*payload.RecordedBy)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recorded_by id"))
				return
			}
			input.RecordedBy = &recordedBy
		}

		transaction, err := svc.ApplyTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transaction)
	}
}

// ListTransactions returns the cursor-paginated ledger, newest first.
func ListTransactions(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters internalinventory.TransactionFilters
		filters.IngredientID, err = validators.ParseQueryUUID(r, "ingredient_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			txType, err := enums.ParseStockTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			filters.Type = &txType
		}

		list, err := svc.ListTransactions(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func parseNonNegativeDecimal(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" must not be negative").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
