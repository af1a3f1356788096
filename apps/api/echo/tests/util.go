package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/Amanroy9658/collegerp/apps/api/echo"
	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/course"
	"github.com/Amanroy9658/collegerp/core/user"
	emailsvc "github.com/Amanroy9658/collegerp/services/email"
	logsvc "github.com/Amanroy9658/collegerp/services/logger"
	smssvc "github.com/Amanroy9658/collegerp/services/sms"
	whatsappsvc "github.com/Amanroy9658/collegerp/services/whatsapp"
	inmemdb "github.com/Amanroy9658/collegerp/storage/database/inmem"
)

var (
	conf    *core.Config
	usrRepo user.Repository
	crsRepo course.Repository
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = core.NewTestConfig()

	// set up repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)

	// set up services; notification mocks record synchronously
	emailsvc.SentMessages = nil
	smssvc.SentMessages = nil
	whatsappsvc.SentLinks = nil
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	smsSvc := smssvc.NewConsoleServiceMock()
	linkSvc := whatsappsvc.NewLinkServiceMock(conf)

	crsSvc := course.NewService(crsRepo)
	usrSvc := user.NewServiceMock(usrRepo, crsSvc, mailSvc, smsSvc, linkSvc, conf)

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// set up server
	return NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		CourseSvc:  crsSvc,
		Validate:   validate,
		Translator: translator,
	})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// getTokenWithOrigIat mints a token whose refresh window started at origIat.
func getTokenWithOrigIat(t *testing.T, usr user.User, origIat int64) string {
	token, err := GenerateToken(GetUserClaims(conf, usr, origIat))
	if err != nil {
		t.Fatalf("getTokenWithOrigIat() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// respEnvelope mirrors the API response shape for assertions.
type respEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []fieldError    `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) respEnvelope {
	t.Helper()

	var env respEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("parseEnvelope() failed: %v; body = %s", err, rec.Body.String())
	}
	return env
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	env := parseEnvelope(t, rec)
	ok, err := jsonBytesEqual(t, env.Data, tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %s; wantData %s", env.Data, tt.wantData)
	}
}
