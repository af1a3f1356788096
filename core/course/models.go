package course

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Amanroy9658/collegerp/core"
)

// Course is a catalog entry students enroll into at registration time.
type Course struct {
	ID                string    `json:"id" db:"id"`
	Code              string    `json:"code" db:"code"`
	Name              string    `json:"name" db:"name"`
	Department        string    `json:"department" db:"department"`
	DurationSemesters int       `json:"duration_semesters" db:"duration_semesters"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code              string `json:"code" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Department        string `json:"department" validate:"required"`
	DurationSemesters int    `json:"duration_semesters" validate:"required,min=1,max=12"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.Department = core.CleanString(nc.Department)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nc.Code)
}
