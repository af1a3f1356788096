package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/course"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrAlreadyDecided = errors.New("account has already been approved or rejected")

	errCourseNotFound = "course not found"
	errEmptyReason    = "a rejection reason is required"
	errNoSubProfile   = "sub-profile does not match role"
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.FirstName, User.LastName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// SetUserStatus atomically decides a pending account. It returns
		// ErrNotFound for an unknown id and ErrAlreadyDecided when the
		// account is no longer pending.
		SetUserStatus(ctx context.Context, id, status, reason string) (User, error)
		CountUsersByStatus(ctx context.Context) (map[string]int, error)
		CountUsersByRole(ctx context.Context) (map[string]int, error)
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		PendingApprovals(ctx context.Context) ([]User, error)
		Approve(ctx context.Context, id string) (User, error)
		Reject(ctx context.Context, id, reason string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Stats(ctx context.Context, recentLimit int) (Stats, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
	}

	service struct {
		repo    Repository
		courses course.Service
		mailSvc core.EmailService
		smsSvc  core.SMSService
		linkSvc core.LinkMessageService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	courses course.Service,
	mailSvc core.EmailService,
	smsSvc core.SMSService,
	linkSvc core.LinkMessageService,
	conf *core.Config,
) *service {
	return &service{
		repo:    repo,
		courses: courses,
		mailSvc: mailSvc,
		smsSvc:  smsSvc,
		linkSvc: linkSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register persists a new pending account and fans out a welcome
// notification. The course reference of a student sub-profile must resolve
// to an existing course.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch nu.Role {
	case RoleStudent:
		if nu.Student == nil {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "student", Error: errNoSubProfile})
		}
		if _, err := svc.courses.GetByID(ctx, nu.Student.CourseID); err != nil {
			if pkgerrors.Cause(err) == course.ErrNotFound {
				return User{}, core.NewValidationError(err, core.FieldError{Field: "student.course_id", Error: errCourseNotFound})
			}
			return User{}, pkgerrors.Wrap(err, "resolving course")
		}
		usr.Student = &StudentProfile{
			CourseID:     nu.Student.CourseID,
			Semester:     nu.Student.Semester,
			AcademicYear: nu.Student.AcademicYear,
		}
	case RoleTeacher:
		if nu.Teacher == nil {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "teacher", Error: errNoSubProfile})
		}
		usr.Teacher = &TeacherProfile{
			Department:    nu.Teacher.Department,
			Designation:   nu.Teacher.Designation,
			Qualification: nu.Teacher.Qualification,
		}
	}

	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	// best-effort; the created account is the durable fact of record
	svc.sendWelcomeNotifs(usr)
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) PendingApprovals(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(
		ctx,
		&QueryFilter{Status: StatusPending},
		[]core.DBOrdering{{Field: "created_at", Ascending: false}},
	)
}

// Approve decides a pending account in the target's favor. Re-deciding an
// already-decided account is a conflict (ErrAlreadyDecided), never a silent
// no-op; racing decisions on the same account resolve to a single winner in
// the store.
func (svc *service) Approve(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.SetUserStatus(ctx, id, StatusApproved, "")
	if err != nil {
		return User{}, err
	}
	svc.sendDecisionNotifs(usr)
	return usr, nil
}

// Reject decides a pending account against the target; reason must be
// non-empty and is delivered to the affected user.
func (svc *service) Reject(ctx context.Context, id, reason string) (User, error) {
	reason = core.CleanString(reason)
	if reason == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "reason", Error: errEmptyReason})
	}
	usr, err := svc.repo.SetUserStatus(ctx, id, StatusRejected, reason)
	if err != nil {
		return User{}, err
	}
	svc.sendDecisionNotifs(usr)
	return usr, nil
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.Phone = uu.Phone
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Stats recomputes the dashboard aggregates from the current store state on
// every call.
func (svc *service) Stats(ctx context.Context, recentLimit int) (Stats, error) {
	byStatus, err := svc.repo.CountUsersByStatus(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(err, "counting users by status")
	}
	byRole, err := svc.repo.CountUsersByRole(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(err, "counting users by role")
	}

	var total int
	for _, n := range byStatus {
		total += n
	}

	recent, err := svc.repo.QueryUsers(
		ctx,
		&QueryFilter{Status: StatusPending, Limit: recentLimit},
		[]core.DBOrdering{{Field: "created_at", Ascending: false}},
	)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(err, "querying recent pending users")
	}
	if recent == nil {
		recent = []User{}
	}

	return Stats{
		TotalUsers:    total,
		ByStatus:      byStatus,
		ByRole:        byRole,
		RecentPending: recent,
	}, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token, svc.conf); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// Notifications. Each channel owns its own enabled/disabled state and
// failure handling; none of them can fail the triggering operation.

type notifContext struct {
	Name   string
	Role   string
	Reason string
	UID    string
	Token  string
}

func (svc *service) sendWelcomeNotifs(usr User) {
	body := "Welcome to " + svc.conf.AppName + "! Your " + usr.Role +
		" account has been created and is awaiting approval. You will be notified once a decision is made."
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome - account pending approval",
		TemplateName: "welcome",
		TemplateData: notifContext{Name: usr.Name(), Role: usr.Role},
	})
	svc.sendTexts(usr, body)
}

func (svc *service) sendDecisionNotifs(usr User) {
	if usr.IsApproved() {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
			Subject:      "Your account has been approved",
			TemplateName: "account_approved",
			TemplateData: notifContext{Name: usr.Name(), Role: usr.Role},
		})
		svc.sendTexts(usr, "Your "+svc.conf.AppName+" "+usr.Role+" account has been approved. You can now sign in.")
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Your account application was rejected",
		TemplateName: "account_rejected",
		TemplateData: notifContext{Name: usr.Name(), Role: usr.Role, Reason: usr.RejectionReason},
	})
	svc.sendTexts(usr, "Your "+svc.conf.AppName+" account application was rejected. Reason: "+usr.RejectionReason)
}

func (svc *service) sendTexts(usr User, body string) {
	if usr.Phone == "" {
		return
	}
	svc.smsSvc.SendMessages(&core.SMSMessage{To: usr.Phone, Body: body})
	svc.linkSvc.SendMessages(&core.LinkMessage{Phone: usr.Phone, Body: body})
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr, svc.conf)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password_reset",
		TemplateData: notifContext{Name: usr.Name(), UID: EncodeUID(usr), Token: token},
	})
}
