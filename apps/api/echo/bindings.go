package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Amanroy9658/collegerp/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the "ordering" query param ("-" prefix for descending).
// Field names are user input that ends up in an ORDER BY clause, so any
// field outside sortable is dropped.
func (ord *Ordering) Bind(ctx echo.Context, sortable ...string) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !isSortable(field, sortable) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func isSortable(field string, sortable []string) bool {
	for _, s := range sortable {
		if s == field {
			return true
		}
	}
	return false
}
