package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tavolapos/tavola-backend/api/responses"
	"github.com/tavolapos/tavola-backend/api/validators"
	internalorders "github.com/tavolapos/tavola-backend/internal/orders"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/logger"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
)

type createOrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid4"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

// createOrderRequest deliberately has no price fields. Unknown fields are
// rejected by the decoder, so a client-supplied price never reaches pricing.
type createOrderRequest struct {
	Type         string                   `json:"type" validate:"required"`
	TableID      *string                  `json:"table_id" validate:"omitempty,uuid4"`
	CustomerName *string                  `json:"customer_name" validate:"omitempty,max=120"`
	Notes        *string                  `json:"notes" validate:"omitempty,max=500"`
	PlacedBy     *string                  `json:"placed_by" validate:"omitempty,uuid4"`
	Items        []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// publicCreateOrderRequest is the unauthenticated variant; there is no
// placed_by because no staff member is involved.
type publicCreateOrderRequest struct {
	Type         string                   `json:"type" validate:"required"`
	TableID      *string                  `json:"table_id" validate:"omitempty,uuid4"`
	CustomerName *string                  `json:"customer_name" validate:"omitempty,max=120"`
	Notes        *string                  `json:"notes" validate:"omitempty,max=500"`
	Items        []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create prices and persists a new order from catalog data.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseOrderType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		input := internalorders.CreateOrderInput{
			Type:         orderType,
			CustomerName: payload.CustomerName,
			Notes:        payload.Notes,
		}

		input.TableID, err = parseOptionalUUID(payload.TableID, "table id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.PlacedBy, err = parseOptionalUUID(payload.PlacedBy, "placed_by id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Items, err = parseOrderItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// PublicCreate is the unauthenticated order surface used by the customer
// menu. It never records a placing staff member.
func PublicCreate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload publicCreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseOrderType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		input := internalorders.CreateOrderInput{
			Type:         orderType,
			CustomerName: payload.CustomerName,
			Notes:        payload.Notes,
		}

		input.TableID, err = parseOptionalUUID(payload.TableID, "table id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Items, err = parseOrderItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}

func parseOrderItems(items []createOrderItemRequest) ([]internalorders.CreateOrderItemInput, error) {
	parsed := make([]internalorders.CreateOrderItemInput, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		parsed = append(parsed, internalorders.CreateOrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}
	return parsed, nil
}

// Detail returns one order with its items, table and payment.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// List returns a cursor-paginated order page, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// UpdateStatus applies a lifecycle transition to an order.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func buildOrderFilters(r *http.Request) (internalorders.OrderFilters, error) {
	var filters internalorders.OrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		orderType, err := enums.ParseOrderType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		filters.Type = &orderType
	}
	tableID, err := validators.ParseQueryUUID(r, "table_id")
	if err != nil {
		return filters, err
	}
	filters.TableID = tableID

	return filters, nil
}
