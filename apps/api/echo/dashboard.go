package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// recentPendingLimit caps the dashboard's recent-registrations panel.
const recentPendingLimit = 5

type dashboardApi struct {
	deps *ServerDeps
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := dashboardApi{deps: deps}

	dg := g.Group("/dashboard", jwt, adminMiddleware())
	dg.GET("/stats", api.stats)
}

// stats recomputes the aggregates from the store on every call; there is no
// caching layer in front of it.
func (api *dashboardApi) stats(ctx echo.Context) error {
	stats, err := api.deps.UserSvc.Stats(ctx.Request().Context(), recentPendingLimit)
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return jsonSuccess(ctx, http.StatusOK, "", stats)
}
