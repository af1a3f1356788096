package exportsvc

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/Amanroy9658/collegerp/core/user"
)

const usersSheet = "Users"

var usersHeader = []interface{}{
	"First Name", "Last Name", "Email", "Phone", "Role", "Status",
	"Course", "Semester", "Academic Year", "Department", "Designation",
	"Registered At",
}

// UsersWorkbook builds an xlsx roster of the given users, one row per user.
// Student and teacher profile columns are left blank for other roles.
func UsersWorkbook(users []user.User, courseNames map[string]string) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), usersSheet)

	if err := f.SetSheetRow(usersSheet, "A1", &usersHeader); err != nil {
		return nil, errors.Wrap(err, "writing header row")
	}

	for i, usr := range users {
		row := []interface{}{
			usr.FirstName, usr.LastName, usr.Email, usr.Phone,
			usr.Role, usr.Status,
		}
		if usr.Student != nil {
			name := courseNames[usr.Student.CourseID]
			if name == "" {
				name = usr.Student.CourseID
			}
			row = append(row, name, usr.Student.Semester, usr.Student.AcademicYear)
		} else {
			row = append(row, "", "", "")
		}
		if usr.Teacher != nil {
			row = append(row, usr.Teacher.Department, usr.Teacher.Designation)
		} else {
			row = append(row, "", "")
		}
		row = append(row, usr.CreatedAt.Format(time.RFC3339))

		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(usersSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err := f.SetColWidth(usersSheet, "A", "L", 18); err != nil {
		return nil, errors.Wrap(err, "setting column widths")
	}
	return f, nil
}
