package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sakif/ssc-portal/internal/apiclient"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// apiCall records one request the stores made.
type apiCall struct {
	Op      string
	ID      string
	Token   string
	Payload any
}

// reply is a canned response. Err wins over Body.
type reply struct {
	Body string
	Err  error
}

// fakeAPI implements every store API interface in memory. Replies are looked
// up by operation name; an operation without a reply returns a null body.
// A reply func, when set, takes precedence and can vary per call.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	replies map[string]reply
	replyFn map[string]func(call apiCall) reply
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		replies: make(map[string]reply),
		replyFn: make(map[string]func(apiCall) reply),
	}
}

func (f *fakeAPI) on(op, body string) *fakeAPI {
	f.replies[op] = reply{Body: body}
	return f
}

func (f *fakeAPI) fail(op string, err error) *fakeAPI {
	f.replies[op] = reply{Err: err}
	return f
}

func (f *fakeAPI) do(op, token, id string, payload any) (json.RawMessage, error) {
	call := apiCall{Op: op, ID: id, Token: token, Payload: payload}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.replyFn[op]
	r, ok := f.replies[op]
	f.mu.Unlock()

	if fn != nil {
		r, ok = fn(call), true
	}
	if !ok {
		return nil, nil
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Body == "" {
		return nil, nil
	}
	return json.RawMessage(r.Body), nil
}

func (f *fakeAPI) callsTo(op string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// SessionAPI

func (f *fakeAPI) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	return f.do("Login", "", "", map[string]string{"email": email, "password": password})
}
func (f *fakeAPI) Register(ctx context.Context, payload any) (json.RawMessage, error) {
	return f.do("Register", "", "", payload)
}
func (f *fakeAPI) ChangePassword(ctx context.Context, payload apiclient.PasswordChange) (json.RawMessage, error) {
	return f.do("ChangePassword", "", "", payload)
}
func (f *fakeAPI) Me(ctx context.Context, token string) (json.RawMessage, error) {
	return f.do("Me", token, "", nil)
}

// MembersAPI

func (f *fakeAPI) ListMembers(ctx context.Context, token string) (json.RawMessage, error) {
	return f.do("ListMembers", token, "", nil)
}
func (f *fakeAPI) CreateMember(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return f.do("CreateMember", token, "", payload)
}
func (f *fakeAPI) UpdateMember(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return f.do("UpdateMember", token, id, payload)
}
func (f *fakeAPI) DeleteMember(ctx context.Context, token, id string) (json.RawMessage, error) {
	return f.do("DeleteMember", token, id, nil)
}

// EventsAPI

func (f *fakeAPI) ListEvents(ctx context.Context, token string) (json.RawMessage, error) {
	return f.do("ListEvents", token, "", nil)
}
func (f *fakeAPI) GetEvent(ctx context.Context, token, id string) (json.RawMessage, error) {
	return f.do("GetEvent", token, id, nil)
}
func (f *fakeAPI) CreateEvent(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return f.do("CreateEvent", token, "", payload)
}
func (f *fakeAPI) UpdateEvent(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return f.do("UpdateEvent", token, id, payload)
}
func (f *fakeAPI) DeleteEvent(ctx context.Context, token, id string) (json.RawMessage, error) {
	return f.do("DeleteEvent", token, id, nil)
}

// AttendanceAPI

func (f *fakeAPI) ListDailyAttendance(ctx context.Context, token string) (json.RawMessage, error) {
	return f.do("ListDailyAttendance", token, "", nil)
}
func (f *fakeAPI) CreateDailyAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return f.do("CreateDailyAttendance", token, "", payload)
}
func (f *fakeAPI) UpdateDailyAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return f.do("UpdateDailyAttendance", token, id, payload)
}
func (f *fakeAPI) DeleteDailyAttendance(ctx context.Context, token, id string) (json.RawMessage, error) {
	return f.do("DeleteDailyAttendance", token, id, nil)
}
func (f *fakeAPI) BulkMarkDailyPresent(ctx context.Context, token string, payload apiclient.BulkPresent) (json.RawMessage, error) {
	return f.do("BulkMarkDailyPresent", token, "", payload)
}
func (f *fakeAPI) ListEventAttendance(ctx context.Context, token string) (json.RawMessage, error) {
	return f.do("ListEventAttendance", token, "", nil)
}
func (f *fakeAPI) CreateEventAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return f.do("CreateEventAttendance", token, "", payload)
}
func (f *fakeAPI) UpdateEventAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return f.do("UpdateEventAttendance", token, id, payload)
}
func (f *fakeAPI) DeleteEventAttendance(ctx context.Context, token, id string) (json.RawMessage, error) {
	return f.do("DeleteEventAttendance", token, id, nil)
}

// fakeKV is an in-memory repository.KeyValueStore.
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

// staticToken is a TokenSource with a fixed credential.
type staticToken string

func (s staticToken) Token() string { return string(s) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustJSON marshals a recorded payload so tests can compare it as text.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return string(b)
}

var errNetwork = fmt.Errorf("dial tcp: connection refused")
