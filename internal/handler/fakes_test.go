package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/handler"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/service"
)

// =========================================================================
// FAKE STORES
// =========================================================================

type fakeSession struct {
	user      *model.User
	token     string
	loginErr  error
	changeErr error
	changed   service.PasswordChangeInput
	loggedOut bool
}

func (f *fakeSession) User() *model.User           { return f.user }
func (f *fakeSession) Token() string               { return f.token }
func (f *fakeSession) State() service.SessionState { return service.StateAuthenticated }
func (f *fakeSession) LastError() string           { return "" }

func (f *fakeSession) Login(ctx context.Context, email, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.user = &model.User{Email: model.Text(email)}
	f.token = "tok"
	return nil
}

func (f *fakeSession) ChangePassword(ctx context.Context, in service.PasswordChangeInput) error {
	f.changed = in
	return f.changeErr
}

func (f *fakeSession) Logout(ctx context.Context) {
	f.loggedOut = true
	f.user, f.token = nil, ""
}

type fakeMembers struct {
	list      []model.Member
	err       string
	refreshes int

	createErr error
	created   []service.MemberInput
	image     string // body of the uploaded image, if any

	updated []service.MemberUpdate
	deleted []string
}

func (f *fakeMembers) Members() []model.Member { return f.list }
func (f *fakeMembers) Loading() bool           { return false }
func (f *fakeMembers) Err() string             { return f.err }

func (f *fakeMembers) FindByID(id string) (model.Member, bool) {
	for _, m := range f.list {
		if m.Key().Matches(id) {
			return m, true
		}
	}
	return model.Member{}, false
}

func (f *fakeMembers) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeMembers) Create(ctx context.Context, in service.MemberInput) (*model.Member, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if in.Image != nil {
		b, _ := io.ReadAll(in.Image.Content)
		f.image = string(b)
	}
	f.created = append(f.created, in)
	return &model.Member{Name: model.Text(in.Name)}, nil
}

func (f *fakeMembers) Update(ctx context.Context, id string, in service.MemberUpdate) (*model.Member, error) {
	f.updated = append(f.updated, in)
	m, _ := f.FindByID(id)
	return &m, nil
}

func (f *fakeMembers) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeEvents struct {
	list     []model.Event
	fetched  *model.Event
	fetchErr error
	created  []service.EventInput
	deleted  []string
}

func (f *fakeEvents) Events() []model.Event             { return f.list }
func (f *fakeEvents) Loading() bool                     { return false }
func (f *fakeEvents) Err() string                       { return "" }
func (f *fakeEvents) Refresh(ctx context.Context) error { return nil }

func (f *fakeEvents) FindByID(id string) (model.Event, bool) {
	for _, e := range f.list {
		if e.Key().Matches(id) {
			return e, true
		}
	}
	return model.Event{}, false
}

func (f *fakeEvents) FetchOne(ctx context.Context, id string) (*model.Event, error) {
	return f.fetched, f.fetchErr
}

func (f *fakeEvents) Create(ctx context.Context, in service.EventInput) (*model.Event, error) {
	f.created = append(f.created, in)
	return &model.Event{Name: model.Text(in.Name)}, nil
}

func (f *fakeEvents) Update(ctx context.Context, id string, in service.EventInput) (*model.Event, error) {
	return nil, nil
}

func (f *fakeEvents) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type rollCall struct {
	date    string
	present []string
	roster  []string
}

type fakeAttendance struct {
	daily   []model.DailyAttendance
	records []model.EventAttendance

	rollCalls   []rollCall
	dailyIn     []service.DailyInput
	eventIn     []service.EventAttendanceInput
	setPresent  map[string]bool
	deletedDays []string
	refreshes   int
}

func (f *fakeAttendance) Daily() []model.DailyAttendance           { return f.daily }
func (f *fakeAttendance) EventAttendance() []model.EventAttendance { return f.records }
func (f *fakeAttendance) Loading() bool                            { return false }
func (f *fakeAttendance) Err() string                              { return "" }

func (f *fakeAttendance) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeAttendance) CreateDaily(ctx context.Context, in service.DailyInput) (*model.DailyAttendance, error) {
	if in.Date == "" {
		return nil, apperror.ValidationFailed("date", "Date is required")
	}
	f.dailyIn = append(f.dailyIn, in)
	return &model.DailyAttendance{}, nil
}

func (f *fakeAttendance) SetDailyPresent(ctx context.Context, id string, present bool) (*model.DailyAttendance, error) {
	if f.setPresent == nil {
		f.setPresent = make(map[string]bool)
	}
	f.setPresent[id] = present
	return &model.DailyAttendance{}, nil
}

func (f *fakeAttendance) DeleteDaily(ctx context.Context, id string) error {
	f.deletedDays = append(f.deletedDays, id)
	return nil
}

func (f *fakeAttendance) RecordRollCall(ctx context.Context, date string, present, roster []string) error {
	f.rollCalls = append(f.rollCalls, rollCall{date: date, present: present, roster: roster})
	return nil
}

func (f *fakeAttendance) CreateEventAttendance(ctx context.Context, in service.EventAttendanceInput) (*model.EventAttendance, error) {
	f.eventIn = append(f.eventIn, in)
	return &model.EventAttendance{}, nil
}

func (f *fakeAttendance) SetAttended(ctx context.Context, id string, attended bool) (*model.EventAttendance, error) {
	return &model.EventAttendance{}, nil
}

func (f *fakeAttendance) DeleteEventAttendance(ctx context.Context, id string) error {
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRenderer(t *testing.T) *handler.Renderer {
	t.Helper()
	r, err := handler.NewRenderer(testLogger())
	require.NoError(t, err)
	return r
}

var (
	admin      = &model.User{ID: model.ParseIdent("m1"), Name: "Ada", Role: "admin"}
	superadmin = &model.User{ID: model.ParseIdent("m1"), Name: "Ada", Role: "superadmin"}
	member     = &model.User{ID: model.ParseIdent("m2"), Name: "Bo", Role: "member"}
)

func roster() []model.Member {
	return []model.Member{
		{ID: model.ParseIdent("m1"), MemberID: model.ParseIdent("7"), Name: "Ada", Role: "admin", Email: "ada@ssc.org", Points: 30},
		{ID: model.ParseIdent("m2"), MemberID: model.ParseIdent("8"), Name: "Bo", Role: "member", Email: "bo@ssc.org", Points: 10},
	}
}

// serve routes req through a one-route chi router, so URL params resolve,
// with user held as the session identity.
func serve(method, pattern string, h http.HandlerFunc, user *model.User, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	session := &fakeSession{user: user, token: "tok"}
	r.With(auth.RequireSession(session)).MethodFunc(method, pattern, h)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
