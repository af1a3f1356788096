package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Amanroy9658/collegerp/core"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseByCode(ctx context.Context, code string) (Course, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		QueryAll(ctx context.Context) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		GetByCode(ctx context.Context, code string) (Course, error)
		CheckUniqueness(ctx context.Context, code string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, code string) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	crs := Course{
		ID:                uuid.New().String(),
		Code:              nc.Code,
		Name:              nc.Name,
		Department:        nc.Department,
		DurationSemesters: nc.DurationSemesters,
		CreatedAt:         time.Now().UTC(),
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) GetByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourseByCode(ctx, code)
}
