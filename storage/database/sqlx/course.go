package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

const courseColumns = `id, code, name, department, duration_semesters, created_at`

func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CheckCodeUniqueness(ctx context.Context, code string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1)`
	if err := repo.db.GetContext(ctx, &exists, query, code); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :code, :name, :department, :duration_semesters, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, crs); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY code ASC`
	if err := repo.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var crs course.Course
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if err := repo.db.GetContext(ctx, &crs, query, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by ID")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByCode(ctx context.Context, code string) (course.Course, error) {
	var crs course.Course
	query := `SELECT ` + courseColumns + ` FROM courses WHERE code = $1`
	if err := repo.db.GetContext(ctx, &crs, query, code); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by code")
	}
	return crs, nil
}
