package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Amanroy9658/collegerp/core/user"
	testutil "github.com/Amanroy9658/collegerp/tests"
)

func Test_dashboardApi_stats(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Root", "Admin", "root@test.com", "Xk9#mPz27q", user.RoleAdmin, user.StatusApproved)
	testutil.CreateUser(t, usrRepo, "Alan", "Turing", "alan@test.com", "Xk9#mPz27q", user.RoleTeacher, user.StatusApproved,
		&user.TeacherProfile{Department: "CS", Designation: "Professor", Qualification: "PhD"})
	testutil.CreateUser(t, usrRepo, "Old", "Pending", "old@test.com", "Xk9#mPz27q", user.RoleWarden, user.StatusPending)
	newest := testutil.CreateUser(t, usrRepo, "New", "Pending", "new@test.com", "Xk9#mPz27q", user.RoleLibrarian, user.StatusPending)
	testutil.CreateUser(t, usrRepo, "Sad", "Reject", "sad@test.com", "Xk9#mPz27q", user.RoleAccountant, user.StatusRejected)

	t.Run("admin only", func(t *testing.T) {
		usr := newest
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/stats", getToken(t, usr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("aggregates reflect the store", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/stats", getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body = %s", rec.Code, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		var stats user.Stats
		if err := json.Unmarshal(env.Data, &stats); err != nil {
			t.Fatalf("unmarshalling data: %v", err)
		}

		if stats.TotalUsers != 5 {
			t.Errorf("total_users = %d; want 5", stats.TotalUsers)
		}
		if stats.ByStatus[user.StatusPending] != 2 || stats.ByStatus[user.StatusApproved] != 2 || stats.ByStatus[user.StatusRejected] != 1 {
			t.Errorf("by_status = %v", stats.ByStatus)
		}
		if stats.ByRole[user.RoleAdmin] != 1 || stats.ByRole[user.RoleTeacher] != 1 {
			t.Errorf("by_role = %v", stats.ByRole)
		}
		if len(stats.RecentPending) != 2 || stats.RecentPending[0].ID != newest.ID {
			t.Errorf("recent_pending = %+v; want newest first", stats.RecentPending)
		}
	})
}

func Test_userApi_adminReads(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Root", "Admin", "root@test.com", "Xk9#mPz27q", user.RoleAdmin, user.StatusApproved)
	jane := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.com", "Xk9#mPz27q", user.RoleStudent, user.StatusPending,
		&user.StudentProfile{CourseID: "c1", Semester: 3, AcademicYear: "2024-2025"})
	john := testutil.CreateUser(t, usrRepo, "John", "Roe", "john@test.com", "Xk9#mPz27q", user.RoleWarden, user.StatusPending)

	adminToken := getToken(t, admin)

	t.Run("pending list is most recent first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/pending", adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body = %s", rec.Code, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		var users []user.User
		if err := json.Unmarshal(env.Data, &users); err != nil {
			t.Fatalf("unmarshalling data: %v", err)
		}
		if len(users) != 2 || users[0].ID != john.ID || users[1].ID != jane.ID {
			t.Errorf("pending = %+v; want [john, jane]", users)
		}
	})

	t.Run("filter by role and search", func(t *testing.T) {
		tests := []httpTest{
			{name: "by role", path: "/api/users?role=student", wantData: marchallObj(t, []user.User{jane})},
			{name: "by status", path: "/api/users?status=pending&ordering=created_at", wantData: marchallObj(t, []user.User{jane, john})},
			{name: "by search", path: "/api/users?search=roe", wantData: marchallObj(t, []user.User{john})},
			{name: "no match", path: "/api/users?search=nobody", wantData: []byte("[]")},
		}
		for _, tt := range tests {
			tt.method = http.MethodGet
			tt.token = adminToken
			tt.wantCode = http.StatusOK

			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(tt.method, tt.path, tt.token)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	})

	t.Run("detail is admin or self", func(t *testing.T) {
		tests := []httpTest{
			{name: "admin reads anyone", path: "/api/users/" + jane.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, jane)},
			{name: "self read", path: "/api/users/" + jane.ID, token: getToken(t, jane), wantCode: http.StatusOK, wantData: marchallObj(t, jane)},
			{name: "peer read is hidden", path: "/api/users/" + jane.ID, token: getToken(t, john), wantCode: http.StatusNotFound},
		}
		for _, tt := range tests {
			tt.method = http.MethodGet

			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(tt.method, tt.path, tt.token)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	})

	t.Run("roles listing", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodGet, path: "/api/users/roles", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
		}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("export returns a workbook", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/export", adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body = %s", rec.Code, rec.Body.String())
		}
		ctype := rec.Header().Get("Content-Type")
		if ctype != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
			t.Errorf("Content-Type = %q", ctype)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty workbook body")
		}
	})
}
