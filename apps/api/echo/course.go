package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core/course"
)

type courseApi struct {
	deps *ServerDeps
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses")

	// the catalog list is public: registrants pick their course before
	// they have an account
	cg.GET("", api.query)

	ag := cg.Group("", jwt, approvedMiddleware(deps.UserSvc))
	ag.GET("/:id", api.retrieve)
	ag.POST("", api.create, adminMiddleware())
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.deps.CourseSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return jsonSuccess(ctx, http.StatusOK, "", courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.deps.CourseSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return jsonSuccess(ctx, http.StatusOK, "", crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.deps.Validate, api.deps.CourseSvc); err != nil {
		return err
	}

	crs, err := api.deps.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return jsonSuccess(ctx, http.StatusCreated, "Course created.", crs)
}
