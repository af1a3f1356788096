package exportsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amanroy9658/collegerp/core/user"
)

func TestUsersWorkbook(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	users := []user.User{
		{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@test.com",
			Phone: "+15550001111", Role: user.RoleStudent, Status: user.StatusApproved,
			Student:   &user.StudentProfile{CourseID: "c1", Semester: 3, AcademicYear: "2024-2025"},
			CreatedAt: now,
		},
		{
			FirstName: "Alan", LastName: "Turing", Email: "alan@test.com",
			Phone: "+15550002222", Role: user.RoleTeacher, Status: user.StatusPending,
			Teacher:   &user.TeacherProfile{Department: "CS", Designation: "Professor", Qualification: "PhD"},
			CreatedAt: now,
		},
	}

	f, err := UsersWorkbook(users, map[string]string{"c1": "B.Tech Computer Science"})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(usersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 users

	assert.Equal(t, "First Name", rows[0][0])
	assert.Equal(t, "Ada", rows[1][0])
	assert.Equal(t, "B.Tech Computer Science", rows[1][6])
	assert.Equal(t, "3", rows[1][7])
	assert.Equal(t, "Alan", rows[2][0])
	assert.Equal(t, "CS", rows[2][9])
	assert.Equal(t, "Professor", rows[2][10])
}
