package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Amanroy9658/collegerp/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleLibrarian  = "librarian"
	RoleWarden     = "warden"
	RoleAccountant = "accountant"
	RoleRegistrar  = "registrar"
)

// Account statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	AllRoles = []string{RoleAdmin, RoleStudent, RoleTeacher, RoleLibrarian, RoleWarden, RoleAccountant, RoleRegistrar}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Librarian", Value: RoleLibrarian},
		{Name: "Warden", Value: RoleWarden},
		{Name: "Accountant", Value: RoleAccountant},
		{Name: "Registrar", Value: RoleRegistrar},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type (
	// StudentProfile is the role sub-profile attached to student accounts.
	StudentProfile struct {
		CourseID     string `json:"course_id"`
		Semester     int    `json:"semester"`
		AcademicYear string `json:"academic_year"`
	}

	// TeacherProfile is the role sub-profile attached to teacher accounts.
	TeacherProfile struct {
		Department    string `json:"department"`
		Designation   string `json:"designation"`
		Qualification string `json:"qualification"`
	}

	User struct {
		ID              string          `json:"id"`
		FirstName       string          `json:"first_name"`
		LastName        string          `json:"last_name"`
		Email           string          `json:"email"`
		Phone           string          `json:"phone"`
		Role            string          `json:"role"`
		Status          string          `json:"status"`
		RejectionReason string          `json:"rejection_reason,omitempty"`
		Student         *StudentProfile `json:"student,omitempty"`
		Teacher         *TeacherProfile `json:"teacher,omitempty"`
		PasswordHash    []byte          `json:"-"`
		CreatedAt       time.Time       `json:"created_at"` // UTC
		UpdatedAt       time.Time       `json:"updated_at"` // UTC
		LastLogin       time.Time       `json:"last_login"` // UTC
	}
)

func (u *User) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd against the stored hash in constant time.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsStudent() bool  { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool  { return u.Role == RoleTeacher }
func (u *User) IsPending() bool  { return u.Status == StatusPending }
func (u *User) IsApproved() bool { return u.Status == StatusApproved }
func (u *User) IsRejected() bool { return u.Status == StatusRejected }

type (
	NewStudentProfile struct {
		CourseID     string `json:"course_id" validate:"required"`
		Semester     int    `json:"semester" validate:"required,min=1,max=12"`
		AcademicYear string `json:"academic_year" validate:"required"`
	}

	NewTeacherProfile struct {
		Department    string `json:"department" validate:"required"`
		Designation   string `json:"designation" validate:"required"`
		Qualification string `json:"qualification" validate:"required"`
	}

	// NewUser contains information needed to register a new User.
	// The role sub-profile must match Role: students carry Student,
	// teachers carry Teacher, everyone else carries neither.
	NewUser struct {
		FirstName       string             `json:"first_name" validate:"required"`
		LastName        string             `json:"last_name" validate:"required"`
		Email           string             `json:"email" validate:"required,email"`
		Phone           string             `json:"phone" validate:"required,phone"`
		Password        string             `json:"password" validate:"required"`
		PasswordConfirm string             `json:"password_confirm" validate:"required,eqfield=Password"`
		Role            string             `json:"role" validate:"required,role"`
		Student         *NewStudentProfile `json:"student,omitempty"`
		Teacher         *NewTeacherProfile `json:"teacher,omitempty"`
	}
)

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information a User may modify on their own account.
type UpdateUser struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	name := core.CleanString(uu.FirstName)
	if name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}

	name = core.CleanString(uu.LastName)
	if name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}

	phone := core.CleanString(uu.Phone)
	if phone == "" {
		uu.Phone = origUsr.Phone
	} else {
		uu.Phone = phone
	}

	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	Status      string    `query:"status"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
	Limit       int       `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Status == "" &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero() && qf.Limit == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Stats is the dashboard aggregate view over the user store.
type Stats struct {
	TotalUsers    int            `json:"total_users"`
	ByStatus      map[string]int `json:"by_status"`
	ByRole        map[string]int `json:"by_role"`
	RecentPending []User         `json:"recent_pending"`
}
