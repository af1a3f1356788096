package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// userRow maps the users table; role sub-profile columns are nullable and
// only set for the matching role.
type userRow struct {
	ID                   string         `db:"id"`
	FirstName            string         `db:"first_name"`
	LastName             string         `db:"last_name"`
	Email                string         `db:"email"`
	Phone                string         `db:"phone"`
	Role                 string         `db:"role"`
	Status               string         `db:"status"`
	PasswordHash         []byte         `db:"password_hash"`
	RejectionReason      string         `db:"rejection_reason"`
	StudentCourseID      sql.NullString `db:"student_course_id"`
	StudentSemester      sql.NullInt64  `db:"student_semester"`
	StudentAcademicYear  sql.NullString `db:"student_academic_year"`
	TeacherDepartment    sql.NullString `db:"teacher_department"`
	TeacherDesignation   sql.NullString `db:"teacher_designation"`
	TeacherQualification sql.NullString `db:"teacher_qualification"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	LastLogin            sql.NullTime   `db:"last_login"`
}

const userColumns = `id, first_name, last_name, email, phone, role, status, password_hash,
	rejection_reason, student_course_id, student_semester, student_academic_year,
	teacher_department, teacher_designation, teacher_qualification,
	created_at, updated_at, last_login`

func (repo userRepository) toRow(usr user.User) userRow {
	row := userRow{
		ID:              usr.ID,
		FirstName:       usr.FirstName,
		LastName:        usr.LastName,
		Email:           usr.Email,
		Phone:           usr.Phone,
		Role:            usr.Role,
		Status:          usr.Status,
		PasswordHash:    usr.PasswordHash,
		RejectionReason: usr.RejectionReason,
		CreatedAt:       usr.CreatedAt.UTC(),
		UpdatedAt:       usr.UpdatedAt.UTC(),
		LastLogin:       sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
	if usr.Student != nil {
		row.StudentCourseID = sql.NullString{String: usr.Student.CourseID, Valid: true}
		row.StudentSemester = sql.NullInt64{Int64: int64(usr.Student.Semester), Valid: true}
		row.StudentAcademicYear = sql.NullString{String: usr.Student.AcademicYear, Valid: true}
	}
	if usr.Teacher != nil {
		row.TeacherDepartment = sql.NullString{String: usr.Teacher.Department, Valid: true}
		row.TeacherDesignation = sql.NullString{String: usr.Teacher.Designation, Valid: true}
		row.TeacherQualification = sql.NullString{String: usr.Teacher.Qualification, Valid: true}
	}
	return row
}

func (repo userRepository) fromRow(row userRow) user.User {
	usr := user.User{
		ID:              row.ID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		Phone:           row.Phone,
		Role:            row.Role,
		Status:          row.Status,
		PasswordHash:    row.PasswordHash,
		RejectionReason: row.RejectionReason,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		LastLogin:       row.LastLogin.Time,
	}
	if row.StudentCourseID.Valid {
		usr.Student = &user.StudentProfile{
			CourseID:     row.StudentCourseID.String,
			Semester:     int(row.StudentSemester.Int64),
			AcademicYear: row.StudentAcademicYear.String,
		}
	}
	if row.TeacherDepartment.Valid {
		usr.Teacher = &user.TeacherProfile{
			Department:    row.TeacherDepartment.String,
			Designation:   row.TeacherDesignation.String,
			Qualification: row.TeacherQualification.String,
		}
	}
	return usr
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT EXISTS (SELECT 1 FROM users WHERE email = ? AND id NOT IN (?))`, email, ids)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	row := repo.toRow(usr)
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :first_name, :last_name, :email, :phone, :role, :status, :password_hash,
			:rejection_reason, :student_course_id, :student_semester, :student_academic_year,
			:teacher_department, :teacher_designation, :teacher_qualification,
			:created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, `(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)`)
			args = append(args, val, val, val)
		}
		if len(filter.Roles) > 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Roles)), ",")
			conds = append(conds, `role IN (`+placeholders+`)`)
			for _, role := range filter.Roles {
				args = append(args, role)
			}
		}
		if filter.Status != "" {
			conds = append(conds, `status = ?`)
			args = append(args, filter.Status)
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, `created_at >= ?`)
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, `created_at <= ?`)
			args = append(args, filter.CreatedTo.UTC())
		}
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	}
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := repo.db.GetContext(ctx, &row, query, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	query := `
		UPDATE users SET
			first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
			role = :role, status = :status, password_hash = :password_hash,
			rejection_reason = :rejection_reason,
			student_course_id = :student_course_id, student_semester = :student_semester,
			student_academic_year = :student_academic_year,
			teacher_department = :teacher_department, teacher_designation = :teacher_designation,
			teacher_qualification = :teacher_qualification,
			updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

// SetUserStatus decides a pending account. The status guard in the WHERE
// clause makes racing decisions on the same account resolve to a single
// winner; the loser sees ErrAlreadyDecided.
func (repo userRepository) SetUserStatus(ctx context.Context, id, status, reason string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	query := `
		UPDATE users
		SET status = $2, rejection_reason = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + userColumns
	err := repo.db.GetContext(ctx, &row, query, id, status, reason, time.Now().UTC())
	if err == nil {
		return repo.fromRow(row), nil
	}
	if err != sql.ErrNoRows {
		return user.User{}, errors.Wrap(err, "deciding user status")
	}

	// no pending row matched: either unknown or already decided
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return user.User{}, errors.Wrap(err, "deciding user status")
	}
	if exists {
		return user.User{}, user.ErrAlreadyDecided
	}
	return user.User{}, user.ErrNotFound
}

func (repo userRepository) CountUsersByStatus(ctx context.Context) (map[string]int, error) {
	return repo.countBy(ctx, "status")
}

func (repo userRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return repo.countBy(ctx, "role")
}

func (repo userRepository) countBy(ctx context.Context, column string) (map[string]int, error) {
	rows, err := repo.db.QueryxContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM users GROUP BY %s`, column, column))
	if err != nil {
		return nil, errors.Wrapf(err, "counting users by %s", column)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err = rows.Scan(&key, &n); err != nil {
			return nil, errors.Wrapf(err, "counting users by %s", column)
		}
		counts[key] = n
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "counting users by %s", column)
	}
	return counts, nil
}
