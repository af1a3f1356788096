package course_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/course"
	inmemdb "github.com/Amanroy9658/collegerp/storage/database/inmem"
	testutil "github.com/Amanroy9658/collegerp/tests"
)

func setup(t *testing.T) (course.Service, course.Repository, *validator.Validate) {
	t.Helper()

	repo := inmemdb.NewCourseRepository(inmemdb.Open())

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)

	return course.NewService(repo), repo, validate
}

func TestService_Create(t *testing.T) {
	svc, _, validate := setup(t)
	ctx := context.Background()

	nc := course.NewCourse{
		Code:              " cse101 ",
		Name:              "B.Tech Computer Science",
		Department:        "CSE",
		DurationSemesters: 8,
	}
	if err := nc.Validate(ctx, validate, svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if nc.Code != "CSE101" {
		t.Errorf("code = %q; want normalized CSE101", nc.Code)
	}

	crs, err := svc.Create(ctx, nc)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if crs.ID == "" || crs.CreatedAt.IsZero() {
		t.Errorf("id/created_at not set: %+v", crs)
	}

	t.Run("duplicate code", func(t *testing.T) {
		dup := nc
		err := dup.Validate(ctx, validate, svc)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v; want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "code" {
			t.Errorf("fields = %+v; want code", vErr.Fields)
		}
	})
}

func TestService_lookups(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	mech := testutil.CreateCourse(t, repo, "ME201", "B.Tech Mechanical", "ME")
	civil := testutil.CreateCourse(t, repo, "CE105", "B.Tech Civil", "CE")

	t.Run("query all sorts by code", func(t *testing.T) {
		all, err := svc.QueryAll(ctx)
		if err != nil {
			t.Fatalf("QueryAll() failed: %v", err)
		}
		if len(all) != 2 || all[0].Code != civil.Code || all[1].Code != mech.Code {
			t.Errorf("QueryAll() = %+v; want [CE105, ME201]", all)
		}
	})

	t.Run("by id", func(t *testing.T) {
		got, err := svc.GetByID(ctx, mech.ID)
		if err != nil || got.Code != mech.Code {
			t.Errorf("GetByID() = %+v, %v", got, err)
		}
		if _, err = svc.GetByID(ctx, "0b1f7c55-9d3e-4a21-8f9d-8a2a5d1c6e01"); err != course.ErrNotFound {
			t.Errorf("GetByID() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("by code", func(t *testing.T) {
		got, err := svc.GetByCode(ctx, "CE105")
		if err != nil || got.ID != civil.ID {
			t.Errorf("GetByCode() = %+v, %v", got, err)
		}
		if _, err = svc.GetByCode(ctx, "EE999"); err != course.ErrNotFound {
			t.Errorf("GetByCode() error = %v; want ErrNotFound", err)
		}
	})
}
