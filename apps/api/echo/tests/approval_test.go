package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Amanroy9658/collegerp/core/user"
	emailsvc "github.com/Amanroy9658/collegerp/services/email"
	smssvc "github.com/Amanroy9658/collegerp/services/sms"
	whatsappsvc "github.com/Amanroy9658/collegerp/services/whatsapp"
	testutil "github.com/Amanroy9658/collegerp/tests"
)

func Test_userApi_approvalAuthz(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Root", "Admin", "root@test.com", "Xk9#mPz27q", user.RoleAdmin, user.StatusApproved)
	teacher := testutil.CreateUser(t, usrRepo, "Alan", "Turing", "alan@test.com", "Xk9#mPz27q", user.RoleTeacher, user.StatusApproved,
		&user.TeacherProfile{Department: "CS", Designation: "Professor", Qualification: "PhD"})
	target := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.com", "Xk9#mPz27q", user.RoleStudent, user.StatusPending)

	tests := []httpTest{
		{name: "approve: no auth", method: http.MethodPut, path: "/api/users/" + target.ID + "/approve", wantCode: http.StatusUnauthorized},
		{name: "approve: non-admin", method: http.MethodPut, path: "/api/users/" + target.ID + "/approve", token: getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "reject: non-admin", method: http.MethodPut, path: "/api/users/" + target.ID + "/reject", token: getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "approve: unknown id", method: http.MethodPut, path: "/api/users/6a5b1c8e-0000-4000-8000-000000000000/approve", token: getToken(t, admin), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			// the target's status never moved
			refreshed, err := usrRepo.GetUserByID(req.Context(), target.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed: %v", err)
			}
			if refreshed.Status != user.StatusPending {
				t.Errorf("status = %q; want %q", refreshed.Status, user.StatusPending)
			}
		})
	}
}

// End-to-end: register a student, approve them, then check that functional
// access opens up and a second decision conflicts.
func Test_userApi_approveFlow(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Root", "Admin", "root@test.com", "Xk9#mPz27q", user.RoleAdmin, user.StatusApproved)
	crs := testutil.CreateCourse(t, crsRepo, "CSE101", "B.Tech Computer Science", "CSE")

	// register via the API so the account carries a phone number
	req, rec := newRequest(http.MethodPost, "/api/users/register", registerPayload(t, crs.ID))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %d; body = %s", rec.Code, rec.Body.String())
	}
	jane, err := usrRepo.GetUserByEmail(req.Context(), "jane@test.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}

	// welcome fan-out hit every channel
	if len(emailsvc.SentMessages) != 1 || len(smssvc.SentMessages) != 1 || len(whatsappsvc.SentLinks) != 1 {
		t.Errorf("welcome notifications = %d email, %d sms, %d link; want 1 each",
			len(emailsvc.SentMessages), len(smssvc.SentMessages), len(whatsappsvc.SentLinks))
	}

	// a pending student is denied functional endpoints
	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID, getToken(t, jane))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("pending access: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	// admin approves
	emailsvc.SentMessages, smssvc.SentMessages, whatsappsvc.SentLinks = nil, nil, nil
	req, rec = newAuthRequest(http.MethodPut, "/api/users/"+jane.ID+"/approve", getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code = %d; body = %s", rec.Code, rec.Body.String())
	}

	env := parseEnvelope(t, rec)
	var approved user.User
	if err := json.Unmarshal(env.Data, &approved); err != nil {
		t.Fatalf("unmarshalling data: %v", err)
	}
	if approved.Status != user.StatusApproved {
		t.Errorf("status = %q; want %q", approved.Status, user.StatusApproved)
	}

	// decision fan-out hit every channel
	if len(emailsvc.SentMessages) != 1 || len(smssvc.SentMessages) != 1 || len(whatsappsvc.SentLinks) != 1 {
		t.Errorf("decision notifications = %d email, %d sms, %d link; want 1 each",
			len(emailsvc.SentMessages), len(smssvc.SentMessages), len(whatsappsvc.SentLinks))
	}

	// functional access now works
	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID, getToken(t, approved))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("approved access: code = %d; body = %s", rec.Code, rec.Body.String())
	}

	// a second decision conflicts, consistently
	for i := 0; i < 2; i++ {
		req, rec = newAuthRequest(http.MethodPut, "/api/users/"+jane.ID+"/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("re-approve #%d: code = %d; want %d", i+1, rec.Code, http.StatusConflict)
		}
	}
}

func Test_userApi_rejectFlow(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Root", "Admin", "root@test.com", "Xk9#mPz27q", user.RoleAdmin, user.StatusApproved)
	crs := testutil.CreateCourse(t, crsRepo, "CSE101", "B.Tech Computer Science", "CSE")

	req, rec := newRequest(http.MethodPost, "/api/users/register", registerPayload(t, crs.ID))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %d; body = %s", rec.Code, rec.Body.String())
	}
	jane, err := usrRepo.GetUserByEmail(req.Context(), "jane@test.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}

	t.Run("empty reason fails validation, status unchanged", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"reason": "   "})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+jane.ID+"/reject", getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		refreshed, _ := usrRepo.GetUserByID(req.Context(), jane.ID)
		if refreshed.Status != user.StatusPending {
			t.Errorf("status = %q; want %q", refreshed.Status, user.StatusPending)
		}
	})

	t.Run("reject with reason records the decision and notifies", func(t *testing.T) {
		emailsvc.SentMessages, smssvc.SentMessages, whatsappsvc.SentLinks = nil, nil, nil

		body := marchallObj(t, map[string]string{"reason": "Incomplete documents"})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+jane.ID+"/reject", getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body = %s", rec.Code, rec.Body.String())
		}
		refreshed, _ := usrRepo.GetUserByID(req.Context(), jane.ID)
		if refreshed.Status != user.StatusRejected || refreshed.RejectionReason != "Incomplete documents" {
			t.Errorf("got status %q reason %q", refreshed.Status, refreshed.RejectionReason)
		}

		if len(emailsvc.SentMessages) != 1 || len(smssvc.SentMessages) != 1 {
			t.Fatalf("notifications = %d email, %d sms; want 1 each", len(emailsvc.SentMessages), len(smssvc.SentMessages))
		}
		if !strings.Contains(smssvc.SentMessages[0].Body, "Incomplete documents") {
			t.Errorf("sms body %q does not carry the reason", smssvc.SentMessages[0].Body)
		}
	})

	t.Run("rejecting again conflicts", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"reason": "again"})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+jane.ID+"/reject", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusConflict)
		}
	})
}
