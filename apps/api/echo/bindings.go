package echoapi

import (
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

const (
	// orderingParam lists the sort fields, comma separated. A "-" prefix sorts descending.
	orderingParam = "ordering"

	// contextObjectKey holds the object loaded by a detail middleware.
	contextObjectKey = "object"
)

var errObjectNotFoundInCtx = errors.New("object not found in echo.Context")

// bindOrderings reads the orderings requested on ctx. Fields not in allowed are dropped,
// and so is any repeat of a field.
func bindOrderings(ctx echo.Context, allowed ...string) []core.DBOrdering {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return nil
	}

	var orderings []core.DBOrdering
	seen := make(map[string]bool, len(allowed))
	for _, field := range strings.Split(raw, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		ascending := !strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if seen[field] || !slices.Contains(allowed, field) {
			continue
		}
		seen[field] = true
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: ascending})
	}
	return orderings
}

func contextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrapf(errObjectNotFoundInCtx, "retrieving %T from context", obj)
	}
	return obj, nil
}
