package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/report"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	emailsvc "github.com/sintimjnr/gctu-project-submission-system/services/email"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
	"github.com/sintimjnr/gctu-project-submission-system/storage/blob"
	sqlxrepos "github.com/sintimjnr/gctu-project-submission-system/storage/database/sqlx"
	"github.com/sintimjnr/gctu-project-submission-system/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app     Server
	auth    *authenticator
	conf    *core.Config
	usrRepo user.Repository
	prjRepo project.Repository
	dlRepo  deadline.Repository
	blobs   core.BlobStore
	mailSvc *emailsvc.ConsoleServiceMock
	metrics *metricsvc.Metrics
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewConfig(t)
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := testutil.OpenDB(t)
	f := &fixture{
		conf:    conf,
		usrRepo: sqlxrepos.NewUserRepository(db),
		prjRepo: sqlxrepos.NewProjectRepository(db),
		dlRepo:  sqlxrepos.NewDeadlineRepository(db),
		mailSvc: emailsvc.NewConsoleServiceMock(logger, conf),
		metrics: metricsvc.NewMetrics(),
	}
	blobs, err := blob.NewFSStore(conf.Blob.Dir)
	if err != nil {
		t.Fatalf("NewFSStore() failed: %v", err)
	}
	f.blobs = blobs
	f.setDeadline(t, time.Now().Add(24*time.Hour))

	// set up services
	usrSvc := user.NewService(f.usrRepo, f.mailSvc, logger, conf)
	dlSvc, err := deadline.NewService(f.dlRepo, logger, conf)
	if err != nil {
		t.Fatalf("deadline.NewService() failed: %v", err)
	}
	prjSvc := project.NewService(f.prjRepo, usrSvc, dlSvc, f.blobs, f.mailSvc, logger, conf)

	// set up server
	f.app = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Metrics:        f.metrics,
		UserSvc:        usrSvc,
		ProjectSvc:     prjSvc,
		DeadlineSvc:    dlSvc,
		Reports:        report.NewGenerator(f.usrRepo, f.prjRepo, logger, conf),
	})
	f.auth = newAuthenticator(conf)
	return f
}

func (f *fixture) setDeadline(t *testing.T, at time.Time) {
	if err := f.dlRepo.SetDeadline(context.Background(), at.UTC().Truncate(time.Minute)); err != nil {
		t.Fatalf("SetDeadline() failed: %v", err)
	}
}

func (f *fixture) student(t *testing.T, name, email string) user.User {
	return testutil.CreateUser(t, f.usrRepo, name, email, "s3cure-pass", user.RoleStudent)
}

func (f *fixture) admin(t *testing.T) user.User {
	return testutil.CreateUser(t, f.usrRepo, "Admin", "admin@gctu.edu.gh", "s3cure-pass", user.RoleAdmin)
}

func (f *fixture) getToken(t *testing.T, usr user.User) string {
	token, err := f.auth.token(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (f *fixture) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	f.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
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

// newMultipartRequest sends fields and, when filename is set, a "file" part.
func newMultipartRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	filename string,
	content []byte,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("part.Write() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func ctxBg() context.Context { return context.Background() }
