package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/Amanroy9658/collegerp/core"
)

// envelope is the uniform response shape of the API.
type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  []core.FieldError `json:"errors,omitempty"`
}

func jsonSuccess(ctx echo.Context, code int, message string, data interface{}) error {
	return ctx.JSON(code, envelope{Status: "success", Message: message, Data: data})
}
