package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Amanroy9658/collegerp/core/user"
	testutil "github.com/Amanroy9658/collegerp/tests"
)

func registerPayload(t *testing.T, courseID string) []byte {
	return marchallObj(t, map[string]interface{}{
		"first_name":       "Jane",
		"last_name":        "Doe",
		"email":            "jane@test.com",
		"phone":            "+15550001111",
		"password":         "Xk9#mPz27q",
		"password_confirm": "Xk9#mPz27q",
		"role":             "student",
		"student": map[string]interface{}{
			"course_id":     courseID,
			"semester":      3,
			"academic_year": "2024-2025",
		},
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	crs := testutil.CreateCourse(t, crsRepo, "CSE101", "B.Tech Computer Science", "CSE")

	t.Run("valid student registration is pending", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/register", registerPayload(t, crs.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		if env.Status != "success" {
			t.Errorf("status = %q; want success", env.Status)
		}

		var data struct {
			User  user.User `json:"user"`
			Token string    `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("unmarshalling data: %v", err)
		}
		if data.User.Status != user.StatusPending {
			t.Errorf("status = %q; want %q", data.User.Status, user.StatusPending)
		}
		if data.User.Student == nil || data.User.Student.CourseID != crs.ID || data.User.Student.Semester != 3 {
			t.Errorf("student sub-profile not persisted as submitted: %+v", data.User.Student)
		}
		if data.Token == "" {
			t.Error("expected a session token")
		}
	})

	t.Run("duplicate email conflicts and creates nothing", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/register", registerPayload(t, crs.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		env := parseEnvelope(t, rec)
		if len(env.Errors) != 1 || env.Errors[0].Field != "email" {
			t.Errorf("errors = %+v; want single email error", env.Errors)
		}

		users, _ := usrRepo.QueryUsers(req.Context(), nil, nil)
		if len(users) != 1 {
			t.Errorf("user count = %d; want 1", len(users))
		}
	})

	t.Run("unknown course fails validation", func(t *testing.T) {
		payload := marchallObj(t, map[string]interface{}{
			"first_name":       "John",
			"last_name":        "Roe",
			"email":            "john@test.com",
			"phone":            "+15550002222",
			"password":         "Xk9#mPz27q",
			"password_confirm": "Xk9#mPz27q",
			"role":             "student",
			"student": map[string]interface{}{
				"course_id":     "6a5b1c8e-0000-4000-8000-000000000000",
				"semester":      1,
				"academic_year": "2024-2025",
			},
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", payload)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		if len(env.Errors) != 1 || env.Errors[0].Field != "student.course_id" {
			t.Errorf("errors = %+v; want single student.course_id error", env.Errors)
		}
	})

	t.Run("all failing fields are reported", func(t *testing.T) {
		payload := marchallObj(t, map[string]interface{}{
			"email": "not-an-email",
			"role":  "wizard",
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", payload)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		env := parseEnvelope(t, rec)
		if len(env.Errors) < 5 {
			t.Errorf("errors = %+v; want every failing field reported", env.Errors)
		}
	})

	t.Run("sub-profile must match role", func(t *testing.T) {
		payload := marchallObj(t, map[string]interface{}{
			"first_name":       "Libby",
			"last_name":        "Rarian",
			"email":            "libby@test.com",
			"phone":            "+15550003333",
			"password":         "Xk9#mPz27q",
			"password_confirm": "Xk9#mPz27q",
			"role":             "librarian",
			"student": map[string]interface{}{
				"course_id":     crs.ID,
				"semester":      1,
				"academic_year": "2024-2025",
			},
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", payload)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.com", "Xk9#mPz27q", user.RoleStudent, user.StatusPending)

	login := func(email, pwd string) (int, string) {
		body := marchallObj(t, map[string]string{"email": email, "password": pwd})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		app.ServeHTTP(rec, req)
		return rec.Code, rec.Body.String()
	}

	t.Run("correct password issues a token", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "jane@test.com", "password": "Xk9#mPz27q"})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		var data struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
			t.Errorf("expected a token; data = %s", env.Data)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		code1, body1 := login("jane@test.com", "wrongpass")
		code2, body2 := login("nobody@test.com", "wrongpass")

		if code1 != http.StatusBadRequest || code2 != http.StatusBadRequest {
			t.Fatalf("codes = %d, %d; want both %d", code1, code2, http.StatusBadRequest)
		}
		if body1 != body2 {
			t.Errorf("responses differ:\n%s\n%s", body1, body2)
		}
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.com", "Xk9#mPz27q", user.RoleStudent, user.StatusApproved)

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/token-refresh")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("refresh within window issues a working token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		var data struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
			t.Fatalf("expected a token; data = %s", env.Data)
		}

		// the refreshed token must authenticate subsequent requests
		req, rec = newAuthRequest(http.MethodGet, "/api/users/me", data.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("expired refresh window is terminal", func(t *testing.T) {
		stale := time.Now().Add(-(conf.Server.JWTRefreshExpirationDelta + time.Hour)).Unix()
		req, rec := newAuthRequest(http.MethodPost, "/api/users/token-refresh", getTokenWithOrigIat(t, usr, stale))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d; want %d; body = %s", rec.Code, http.StatusForbidden, rec.Body.String())
		}
	})
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.com", "Xk9#mPz27q", user.RoleStudent, user.StatusPending)

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/users/me")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("pending account can read own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/me", getToken(t, usr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		env := parseEnvelope(t, rec)
		var got user.User
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("unmarshalling data: %v", err)
		}
		if got.ID != usr.ID || got.Email != usr.Email {
			t.Errorf("got = %+v; want %+v", got, usr)
		}
	})

	t.Run("update own profile", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"first_name": "Janet", "phone": "+15550009999"})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/me", getToken(t, usr), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		refreshed, err := usrRepo.GetUserByID(req.Context(), usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		if refreshed.FirstName != "Janet" || refreshed.Phone != "+15550009999" {
			t.Errorf("profile not updated: %+v", refreshed)
		}
	})
}
