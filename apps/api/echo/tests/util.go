package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/sitepass/sitepass/apps/api/echo"
	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/staff"
	"github.com/sitepass/sitepass/core/visitor"
	emailsvc "github.com/sitepass/sitepass/services/email"
	dummydb "github.com/sitepass/sitepass/storage/database/dummy"
)

var visRepo visitor.Repository

// testClock pins "now" for deterministic sweep behaviour.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConfig() *core.Config {
	return &core.Config{
		AppName:  "SitePass",
		Env:      "TEST",
		TestMode: true,
		Training: core.TrainingConfig{VideoThreshold: 90},
		Site:     core.SiteConfig{Timezone: "UTC", OvertimeCutoff: "17:30"},
	}
}

func setup(t *testing.T) (*echoapi.Server, *testClock) {
	t.Helper()

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	visRepo = dummydb.NewVisitorRepository(db)

	// set up services
	conf := testConfig()
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	clock := &testClock{now: time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)}
	dir := staff.NewDirectory(map[string]string{"John Smith": "jsmith@plant.test"})
	visSvc := visitor.NewService(visRepo, mailSvc, dir, clock, nopLogger{}, conf)

	// set up server
	app := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     nopLogger{},
			VisitorSvc: visSvc,
		},
	)
	return app, clock
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func do(app *echoapi.Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; body = %s", err, rec.Body.String())
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
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
