package catalog

import (
	"net/http"

	"github.com/tavolapos/tavola-backend/api/responses"
	"github.com/tavolapos/tavola-backend/api/validators"
	internalcatalog "github.com/tavolapos/tavola-backend/internal/catalog"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/logger"
)

// Menu returns available products, optionally scoped to one category.
func Menu(reader internalcatalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := reader.ListMenu(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

// Categories returns every catalog category.
func Categories(reader internalcatalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categories, err := reader.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
