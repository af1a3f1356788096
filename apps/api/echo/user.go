package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/user"
	exportsvc "github.com/Amanroy9658/collegerp/services/export"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

// userSortableFields are the columns the admin list accepts in "ordering".
var userSortableFields = []string{
	"first_name", "last_name", "email", "role", "status", "created_at", "updated_at", "last_login",
}

type userApi struct {
	deps *ServerDeps
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := userApi{deps: deps}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints; available to pending accounts too
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.PUT("/me", api.updateMe)

	// admin endpoints
	adm := ag.Group("", adminMiddleware())
	adm.GET("", api.query)
	adm.GET("/pending", api.pendingApprovals)
	adm.GET("/export", api.export)
	adm.GET("/roles", api.queryRoles)
	adm.PUT("/:id/approve", api.approve)
	adm.PUT("/:id/reject", api.reject)

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrAdminMiddleware(deps.UserSvc))
	dg.GET("", api.retrieve)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	// issue a token right away so the registrant can watch their pending page
	token, err := GenerateToken(GetUserClaims(api.deps.Conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return jsonSuccess(ctx, http.StatusCreated,
		"Registration successful. Your account is pending admin approval.",
		echo.Map{"user": usr, "token": token},
	)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.deps)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return jsonSuccess(ctx, http.StatusOK, "Login successful.", echo.Map{"token": token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return jsonSuccess(ctx, http.StatusOK,
		"If the email address supplied is associated with an account on this system, "+
			"an email will arrive in your inbox shortly with instructions to reset your password.",
		nil,
	)
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return jsonSuccess(ctx, http.StatusOK, "Password has been reset with the new password.", nil)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return jsonSuccess(ctx, http.StatusOK, "", usr)
}

func (api *userApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.deps.Validate); err != nil {
		return err
	}

	usr, err = api.deps.UserSvc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return jsonSuccess(ctx, http.StatusOK, "Profile updated.", usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return jsonSuccess(ctx, http.StatusOK, "", []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, userSortableFields...)

	users, err := api.deps.UserSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return jsonSuccess(ctx, http.StatusOK, "", users)
}

func (api *userApi) pendingApprovals(ctx echo.Context) error {
	users, err := api.deps.UserSvc.PendingApprovals(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending users")
	}
	if users == nil {
		users = []user.User{}
	}
	return jsonSuccess(ctx, http.StatusOK, "", users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return jsonSuccess(ctx, http.StatusOK, "", usr)
}

func (api *userApi) approve(ctx echo.Context) error {
	usr, err := api.deps.UserSvc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving user")
	}
	return jsonSuccess(ctx, http.StatusOK, "Account approved.", usr)
}

func (api *userApi) reject(ctx echo.Context) error {
	var data RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}

	usr, err := api.deps.UserSvc.Reject(ctx.Request().Context(), ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "rejecting user")
	}
	return jsonSuccess(ctx, http.StatusOK, "Account rejected.", usr)
}

func (api *userApi) export(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	users, err := api.deps.UserSvc.Query(reqCtx, nil, []core.DBOrdering{{Field: "created_at", Ascending: true}})
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	courses, err := api.deps.CourseSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	courseNames := make(map[string]string, len(courses))
	for _, crs := range courses {
		courseNames[crs.ID] = crs.Name
	}

	f, err := exportsvc.UsersWorkbook(users, courseNames)
	if err != nil {
		return errors.Wrap(err, "building users workbook")
	}
	defer func() { _ = f.Close() }()

	ctx.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="users.xlsx"`)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response())
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return jsonSuccess(ctx, http.StatusOK, "", user.Roles)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return jsonSuccess(ctx, http.StatusOK, "", echo.Map{"token": token})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	RejectRequest struct {
		Reason string `json:"reason"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
