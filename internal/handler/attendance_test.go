package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ssc-portal/internal/handler"
	"github.com/sakif/ssc-portal/internal/model"
)

func newAttendanceHandler(t *testing.T, events []model.Event, attendance *fakeAttendance) *handler.AttendanceHandler {
	t.Helper()
	return handler.NewAttendanceHandler(&fakeMembers{list: roster()}, &fakeEvents{list: events}, attendance, newRenderer(t), testLogger())
}

func TestAttendanceHandler_Overview(t *testing.T) {
	attendance := &fakeAttendance{daily: []model.DailyAttendance{
		{ID: model.ParseIdent("d1"), MemberID: model.IntIdent(7), Date: "2024-03-01", Present: true},
		{ID: model.ParseIdent("d2"), MemberID: model.IntIdent(7), Date: "2024-03-02", Present: false},
	}}
	h := newAttendanceHandler(t, nil, attendance)

	rr := serve(http.MethodGet, "/attendance", h.HandleOverview, admin, httptest.NewRequest(http.MethodGet, "/attendance?q=ada", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `href="/attendance/7"`)
	assert.NotContains(t, body, `href="/attendance/8"`)
	assert.Contains(t, body, "<strong>50%</strong>")
	assert.Contains(t, body, "Take roll call")
}

func TestAttendanceHandler_RollCall(t *testing.T) {
	attendance := &fakeAttendance{}
	h := newAttendanceHandler(t, nil, attendance)

	rr := serve(http.MethodPost, "/attendance/roll-call", h.HandleRollCall, admin, postForm("/attendance/roll-call", url.Values{
		"date":    {"2024-03-01"},
		"present": {"7"},
	}))

	u := redirected(t, rr)
	assert.Equal(t, "/attendance", u.Path)
	assert.Equal(t, "Attendance recorded", u.Query().Get("notice"))
	require.Len(t, attendance.rollCalls, 1)
	assert.Equal(t, rollCall{date: "2024-03-01", present: []string{"7"}, roster: []string{"7", "8"}}, attendance.rollCalls[0])
}

func TestAttendanceHandler_Member(t *testing.T) {
	attendance := &fakeAttendance{daily: []model.DailyAttendance{
		{ID: model.ParseIdent("d1"), MemberID: model.IntIdent(7), Date: "2024-03-01", Present: true},
	}}

	t.Run("superadmin gets the record forms", func(t *testing.T) {
		h := newAttendanceHandler(t, []model.Event{expo()}, attendance)

		rr := serve(http.MethodGet, "/attendance/{id}", h.HandleMember, superadmin, httptest.NewRequest(http.MethodGet, "/attendance/7", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Ada")
		assert.Contains(t, body, `action="/attendance/7/daily"`)
		assert.Contains(t, body, `action="/attendance/daily/d1/toggle"`)
		assert.Contains(t, body, "Robotics Expo")
	})

	t.Run("admin reads only", func(t *testing.T) {
		h := newAttendanceHandler(t, nil, attendance)

		rr := serve(http.MethodGet, "/attendance/{id}", h.HandleMember, admin, httptest.NewRequest(http.MethodGet, "/attendance/m1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "/daily\"")
	})

	t.Run("unknown member", func(t *testing.T) {
		h := newAttendanceHandler(t, nil, attendance)

		rr := serve(http.MethodGet, "/attendance/{id}", h.HandleMember, admin, httptest.NewRequest(http.MethodGet, "/attendance/99", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAttendanceHandler_AddEvent(t *testing.T) {
	t.Run("event must be in the catalog", func(t *testing.T) {
		attendance := &fakeAttendance{}
		h := newAttendanceHandler(t, nil, attendance)

		rr := serve(http.MethodPost, "/attendance/{id}/events", h.HandleAddEvent, superadmin, postForm("/attendance/7/events", url.Values{"eventId": {"5"}}))

		u := redirected(t, rr)
		assert.Equal(t, "/attendance/7", u.Path)
		assert.Equal(t, "Select a valid event", u.Query().Get("error"))
		assert.Empty(t, attendance.eventIn)
	})

	t.Run("records against the attendance handle", func(t *testing.T) {
		attendance := &fakeAttendance{}
		h := newAttendanceHandler(t, []model.Event{expo()}, attendance)

		rr := serve(http.MethodPost, "/attendance/{id}/events", h.HandleAddEvent, superadmin, postForm("/attendance/7/events", url.Values{
			"eventId":  {"5"},
			"attended": {"on"},
		}))

		u := redirected(t, rr)
		assert.Equal(t, "Event attendance added", u.Query().Get("notice"))
		require.Len(t, attendance.eventIn, 1)
		assert.Equal(t, "7", attendance.eventIn[0].MemberID)
		assert.True(t, attendance.eventIn[0].Attended)
	})
}

func TestAttendanceHandler_AddDay(t *testing.T) {
	attendance := &fakeAttendance{}
	h := newAttendanceHandler(t, nil, attendance)

	rr := serve(http.MethodPost, "/attendance/{id}/daily", h.HandleAddDay, superadmin, postForm("/attendance/8/daily", url.Values{}))

	u := redirected(t, rr)
	assert.Equal(t, "/attendance/8", u.Path)
	assert.Equal(t, "Date is required", u.Query().Get("error"))
}

func TestAttendanceHandler_ToggleDayHonoursLocalNext(t *testing.T) {
	tests := []struct {
		name string
		next string
		want string
	}{
		{"local page", "/attendance/7", "/attendance/7"},
		{"protocol relative", "//evil.example", "/attendance"},
		{"backslash", "/\\evil.example", "/attendance"},
		{"absolute", "https://evil.example/x", "/attendance"},
		{"missing", "", "/attendance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attendance := &fakeAttendance{}
			h := newAttendanceHandler(t, nil, attendance)

			rr := serve(http.MethodPost, "/attendance/daily/{recordID}/toggle", h.HandleToggleDay, superadmin,
				postForm("/attendance/daily/d1/toggle", url.Values{"next": {tt.next}, "present": {"true"}}))

			assert.Equal(t, tt.want, redirected(t, rr).Path)
			assert.Equal(t, map[string]bool{"d1": true}, attendance.setPresent)
		})
	}
}
