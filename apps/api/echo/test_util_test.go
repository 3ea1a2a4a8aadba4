package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ppmhss/pariksha/core/admin"
	"github.com/ppmhss/pariksha/core/duty"
	"github.com/ppmhss/pariksha/core/student"
	emailsvc "github.com/ppmhss/pariksha/services/email"
	inmemdb "github.com/ppmhss/pariksha/storage/database/inmem"
)

var testNow = time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

const (
	testAdminEmail    = "principal@ppmhss.edu"
	testAdminPassword = "s3cr3t!"
)

type testEnv struct {
	server     Server
	studentSvc student.Service
	dutySvc    duty.Service
	adminSvc   admin.Service
	admin      admin.Admin
	token      string
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db := inmemdb.NewDB()
	studentSvc := student.NewServiceMock(inmemdb.NewStudentRepository(db), emailsvc.NewConsoleServiceMock(), testNow)
	dutySvc := duty.NewServiceMock(inmemdb.NewDutyRepository(db), testNow)
	adminSvc := admin.NewService(inmemdb.NewAdminRepository(db))

	adm, err := adminSvc.Create(admin.NewAdmin{
		Name:            "Principal",
		Email:           testAdminEmail,
		Password:        testAdminPassword,
		PasswordConfirm: testAdminPassword,
	})
	require.NoError(t, err)
	token, err := GenerateToken(GetAdminClaims(adm))
	require.NoError(t, err)

	srv := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         testLogger{},
		StudentSvc:     studentSvc,
		DutySvc:        dutySvc,
		AdminSvc:       adminSvc,
	})
	return &testEnv{
		server:     srv,
		studentSvc: studentSvc,
		dutySvc:    dutySvc,
		adminSvc:   adminSvc,
		admin:      adm,
		token:      token,
	}
}

// do runs a request through the server and returns the recorder. An empty
// token leaves the request unauthenticated.
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

// testLogger swallows everything; handler tests only care about responses.
type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func newStudentPayload(n int) student.NewStudent {
	return student.NewStudent{
		Name:        fmt.Sprintf("Student %02d", n),
		FatherName:  fmt.Sprintf("Father %02d", n),
		Gender:      "Female",
		DateOfBirth: "2012-03-09",
		AadhaarNo:   fmt.Sprintf("9876543210%02d", n),
		PhoneNo:     fmt.Sprintf("98470000%02d", n),
		Class:       9,
		Medium:      "English",
		SchoolName:  "Govt HSS Perumbavoor",
	}
}
