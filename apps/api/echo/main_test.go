package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/Faiver55/skylearn-flashcards-sub001/apps/api/echo"
	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	"github.com/Faiver55/skylearn-flashcards-sub001/fs"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/email"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database/inmem"
	"github.com/Faiver55/skylearn-flashcards-sub001/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app      *Server
	conf     *core.Config
	usrRepo  user.Repository
	setRepo  flashcard.Repository
	progress progress.Repository
	leadRepo lead.Repository
	settings *lms.SettingsStore
	adapter  *fakeAdapter
}

func setup(t *testing.T, tier ...plan.Tier) fixture {
	t.Helper()
	return setupWithOptions(t, nil, tier...)
}

// setupWithOptions keeps the options in opts, or in the in-memory database when opts is nil.
func setupWithOptions(t *testing.T, opts option.Store, tier ...plan.Tier) fixture {
	t.Helper()
	conf := testutil.NewConfig()
	gate := plan.Gate{Tier: plan.TierFree}
	if len(tier) > 0 {
		gate.Tier = tier[0]
	}
	conf.License.Tier = string(gate.Tier)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, core.NopLogger{})
	emailsvc.ClearSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	setRepo := inmemdb.NewSetRepository(db)
	completionRepo := inmemdb.NewCompletionRepository(db)
	if opts == nil {
		opts = inmemdb.NewOptionStore(db)
	}
	settings := lms.NewSettingsStore(opts, core.NopLogger{})

	// set up services
	logger := core.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	progressSvc := progress.NewService(completionRepo)
	setSvc := flashcard.NewService(setRepo, progressSvc, gate)
	leadRepo := inmemdb.NewLeadRepository(db)
	leadSvc := lead.NewService(leadRepo, setSvc, nil, mailSvc, gate, conf, logger)

	adapter := newFakeAdapter(lms.LearnDash)
	registry := lms.NewRegistry(logger, lms.Integration{
		Name:    lms.LearnDash,
		Probe:   fakeProbe{version: "4.10.2"},
		Adapter: adapter,
	})

	validate, translator := testutil.NewValidator()

	// set up server
	app := NewServer("", nil, &Deps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SetSvc:         setSvc,
		ProgressSvc:    progressSvc,
		LeadSvc:        leadSvc,
		Gate:           gate,
		Registry:       registry,
		Settings:       settings,
		Resolver:       lms.NewResolver(logger),
		Forwarder:      lms.NewForwarder(progressSvc, setSvc, logger),
	})

	return fixture{
		app:      app,
		conf:     conf,
		usrRepo:  usrRepo,
		setRepo:  setRepo,
		progress: completionRepo,
		leadRepo: leadRepo,
		settings: settings,
		adapter:  adapter,
	}
}

// enableLMS turns the integration on with the default thresholds.
func (f fixture) enableLMS(t *testing.T, restrict bool) {
	t.Helper()
	acc := lms.Percent(80)
	_, err := f.settings.Save(context.Background(), lms.SettingsForm{
		Enabled:               true,
		RequiredAccuracy:      &acc,
		AutoComplete:          true,
		ProgressTracking:      true,
		EnrollmentRestriction: lms.Checkbox(restrict),
	})
	if err != nil {
		t.Fatalf("enableLMS() failed: %v", err)
	}
}

// fakeAdapter answers from the (user, unit) pairs it was given and records the units it completed.
type fakeAdapter struct {
	name string

	mu        sync.Mutex
	enrolled  map[string]bool
	completed map[string]bool
	marked    []lms.Unit
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{name: name, enrolled: make(map[string]bool), completed: make(map[string]bool)}
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) enroll(userID, courseID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enrolled[userID+"/"+courseID] = true
}

func (a *fakeAdapter) CheckEnrolled(_ context.Context, userID string, unit lms.Unit) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enrolled[userID+"/"+unit.ID], nil
}

func (a *fakeAdapter) CheckCompleted(_ context.Context, userID string, unit lms.Unit) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.completed[userID+"/"+unit.ID], nil
}

func (a *fakeAdapter) MarkComplete(_ context.Context, userID string, unit lms.Unit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed[userID+"/"+unit.ID] = true
	a.marked = append(a.marked, unit)
	return nil
}

func (a *fakeAdapter) markedUnits() []lms.Unit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]lms.Unit{}, a.marked...)
}

type fakeProbe struct {
	version string
}

func (p fakeProbe) Detect(context.Context) (lms.Descriptor, error) {
	return lms.Descriptor{Version: p.version, Active: p.version != ""}, nil
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

func (f fixture) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	f.app.ServeHTTP(rec, req)
	return rec
}

func (f fixture) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(f.conf, GetUserClaims(f.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
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
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !ok1 || !ok2 {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
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

// checkIDs checks the ids of the listed objects, in order.
func checkIDs(t *testing.T, rec *httptest.ResponseRecorder, wantIDs ...string) {
	t.Helper()
	var objs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &objs); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
	ids := make([]string, 0, len(objs))
	for _, obj := range objs {
		ids = append(ids, obj.ID)
	}
	if !reflect.DeepEqual(ids, append([]string{}, wantIDs...)) {
		t.Errorf("ids = %v; want %v", ids, wantIDs)
	}
}
