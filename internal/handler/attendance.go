package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/projection"
	"github.com/sakif/ssc-portal/internal/service"
)

// AttendanceHandler serves the attendance overview, the roll call and the
// per-member attendance page.
type AttendanceHandler struct {
	members    Members
	events     Events
	attendance Attendance
	render     *Renderer
	logger     *slog.Logger
}

func NewAttendanceHandler(members Members, events Events, attendance Attendance, render *Renderer, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{members: members, events: events, attendance: attendance, render: render, logger: logger}
}

type attendanceView struct {
	Summaries []projection.AttendanceSummary
	Members   []model.Member // roll call checklist
	Query     string
	Sort      string
	Loading   bool
	Errors    []string
}

// HandleOverview serves GET /attendance?q=&sort=name|attendance.
func (h *AttendanceHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = projection.SortByName
	}

	members := h.members.Members()
	var errs []string
	for _, e := range []string{h.members.Err(), h.attendance.Err()} {
		if e != "" {
			errs = append(errs, e)
		}
	}

	h.render.Render(w, r, http.StatusOK, "attendance", Page{
		Title:  "Attendance",
		Active: "attendance",
		Data: attendanceView{
			Summaries: projection.AttendanceOverview(members, h.attendance.Daily(), query, sortBy),
			Members:   projection.SearchMembers(members, "", projection.SortMembersByName),
			Query:     query,
			Sort:      sortBy,
			Loading:   h.members.Loading() || h.attendance.Loading(),
			Errors:    errs,
		},
	})
}

// HandleRollCall serves POST /attendance/roll-call (admin only). Checked
// members are marked present; every other member of the roster is marked
// absent for the same date.
func (h *AttendanceHandler) HandleRollCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		done(w, r, "/attendance", err, "")
		return
	}
	date := strings.TrimSpace(r.FormValue("date"))

	members := h.members.Members()
	roster := make([]string, 0, len(members))
	for _, m := range members {
		roster = append(roster, m.JoinKey().String())
	}

	err := h.attendance.RecordRollCall(r.Context(), date, r.Form["present"], roster)
	done(w, r, "/attendance", err, "Attendance recorded")
}

type memberAttendanceView struct {
	projection.MemberAttendanceDetail
	EventChoices []model.Event
	MemberKey    string
}

// HandleMember serves GET /attendance/{id}, where id is the member's
// attendance handle (memberId, or id when it has none).
func (h *AttendanceHandler) HandleMember(w http.ResponseWriter, r *http.Request) {
	member, ok := h.memberFor(chi.URLParam(r, "id"))
	if !ok {
		h.render.NotFound(w, r, "attendance", "Member not found")
		return
	}

	events := h.events.Events()
	h.render.Render(w, r, http.StatusOK, "attendance_member", Page{
		Title:  member.Name.String(),
		Active: "attendance",
		Data: memberAttendanceView{
			MemberAttendanceDetail: projection.MemberAttendance(member, h.attendance.Daily(), h.attendance.EventAttendance(), events),
			EventChoices:           events,
			MemberKey:              member.JoinKey().String(),
		},
	})
}

// HandleAddDay serves POST /attendance/{id}/daily (superadmin only).
func (h *AttendanceHandler) HandleAddDay(w http.ResponseWriter, r *http.Request) {
	back := "/attendance/" + chi.URLParam(r, "id")
	member, ok := h.memberFor(chi.URLParam(r, "id"))
	if !ok {
		done(w, r, back, apperror.NotFound("member", chi.URLParam(r, "id")), "")
		return
	}

	_, err := h.attendance.CreateDaily(r.Context(), service.DailyInput{
		MemberID: member.JoinKey().String(),
		Date:     strings.TrimSpace(r.FormValue("date")),
		Present:  checked(r, "present"),
	})
	done(w, r, back, err, "Day added")
}

// HandleAddEvent serves POST /attendance/{id}/events (superadmin only). The
// event must be one the catalog knows.
func (h *AttendanceHandler) HandleAddEvent(w http.ResponseWriter, r *http.Request) {
	back := "/attendance/" + chi.URLParam(r, "id")
	member, ok := h.memberFor(chi.URLParam(r, "id"))
	if !ok {
		done(w, r, back, apperror.NotFound("member", chi.URLParam(r, "id")), "")
		return
	}

	eventID := strings.TrimSpace(r.FormValue("eventId"))
	if _, ok := h.events.FindByID(eventID); !ok || eventID == "" {
		done(w, r, back, apperror.ValidationFailed("eventId", "Select a valid event"), "")
		return
	}

	_, err := h.attendance.CreateEventAttendance(r.Context(), service.EventAttendanceInput{
		MemberID: member.JoinKey().String(),
		EventID:  eventID,
		Attended: checked(r, "attended"),
	})
	done(w, r, back, err, "Event attendance added")
}

// HandleToggleDay serves POST /attendance/daily/{recordID}/toggle
// (superadmin only). The form carries the value to set.
func (h *AttendanceHandler) HandleToggleDay(w http.ResponseWriter, r *http.Request) {
	_, err := h.attendance.SetDailyPresent(r.Context(), chi.URLParam(r, "recordID"), r.FormValue("present") == "true")
	done(w, r, "/attendance", err, "")
}

// HandleDeleteDay serves POST /attendance/daily/{recordID}/delete (superadmin only).
func (h *AttendanceHandler) HandleDeleteDay(w http.ResponseWriter, r *http.Request) {
	err := h.attendance.DeleteDaily(r.Context(), chi.URLParam(r, "recordID"))
	done(w, r, "/attendance", err, "Entry deleted")
}

// HandleToggleEvent serves POST /attendance/event/{recordID}/toggle (superadmin only).
func (h *AttendanceHandler) HandleToggleEvent(w http.ResponseWriter, r *http.Request) {
	_, err := h.attendance.SetAttended(r.Context(), chi.URLParam(r, "recordID"), r.FormValue("attended") == "true")
	done(w, r, "/attendance", err, "")
}

// HandleDeleteEvent serves POST /attendance/event/{recordID}/delete (superadmin only).
func (h *AttendanceHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.attendance.DeleteEventAttendance(r.Context(), chi.URLParam(r, "recordID"))
	done(w, r, "/attendance", err, "Event attendance deleted")
}

// memberFor finds a member by attendance handle first, then by record id.
func (h *AttendanceHandler) memberFor(id string) (model.Member, bool) {
	members := h.members.Members()
	for _, m := range members {
		if m.JoinKey().Matches(id) {
			return m, true
		}
	}
	return h.members.FindByID(id)
}

// checked reads a checkbox: browsers send "on", hidden inputs send "true".
func checked(r *http.Request, name string) bool {
	v := r.FormValue(name)
	return v == "on" || v == "true"
}
