package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Amanroy9658/collegerp/core/course"
	"github.com/Amanroy9658/collegerp/core/user"
)

// CreateUser persists a user fixture; profile, when given, must be a
// *user.StudentProfile or *user.TeacherProfile matching the role.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd, role, status string,
	profile ...interface{},
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.ToLower(email),
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range profile {
		switch prof := p.(type) {
		case *user.StudentProfile:
			usr.Student = prof
		case *user.TeacherProfile:
			usr.Teacher = prof
		}
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, code, name, department string) course.Course {
	t.Helper()

	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Code:              strings.ToUpper(code),
		Name:              name,
		Department:        department,
		DurationSemesters: 8,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}
