package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/course"
	"github.com/Amanroy9658/collegerp/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidCredentials = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errAccountNotApproved = echo.NewHTTPError(http.StatusForbidden, "account not approved")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that maps
// domain errors onto the response envelope. signalShutdown is called
// whenever a core.shutdown error is caught so the server can stop gracefully.
func newAppHTTPErrorHandler(deps *ServerDeps, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fldErrs []core.FieldError

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = fmt.Sprintf("%v", origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprintf("%v", origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = "validation failed"
			fldErrs = make([]core.FieldError, 0, len(origErr))
			for _, vErr := range origErr {
				fldErrs = append(fldErrs, core.FieldError{Field: vErr.Field(), Error: vErr.Translate(deps.Translator)})
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = "validation failed"
			if origErr.Err != nil {
				message = origErr.Error()
			}
			fldErrs = origErr.Fields
		default:
			switch origErr {
			case user.ErrNotFound, course.ErrNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			case user.ErrAlreadyDecided, user.ErrEmailExists, course.ErrCodeExists:
				code = http.StatusConflict
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Email = claims.Email
				}
				deps.Logger.Error(message, errors.Wrap(err, message), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, envelope{Status: "error", Message: message, Errors: fldErrs})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
