package tables

import (
	"net/http"

	"github.com/tavolapos/tavola-backend/api/responses"
	internaltables "github.com/tavolapos/tavola-backend/internal/tables"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/logger"
)

// List returns the floor view: every table with its occupancy status.
// Table CRUD lives elsewhere; this surface is read-only.
func List(repo internaltables.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables repository unavailable"))
			return
		}

		tables, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"tables": tables})
	}
}
