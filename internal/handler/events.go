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

// EventHandler serves the event list, the event page and its roster.
type EventHandler struct {
	events     Events
	members    Members
	attendance Attendance
	render     *Renderer
	logger     *slog.Logger
}

func NewEventHandler(events Events, members Members, attendance Attendance, render *Renderer, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, members: members, attendance: attendance, render: render, logger: logger}
}

type eventsView struct {
	Events  []projection.EventWithRoster
	Members []model.Member // choices for the "assign on create" list
	Loading bool
	Err     string
}

// HandleList serves GET /events. Events and the attendance ledger are both
// refreshed before the rosters are joined.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.events.Refresh(r.Context())
	h.attendance.Refresh(r.Context())

	members := h.members.Members()
	h.render.Render(w, r, http.StatusOK, "events", Page{
		Title:  "Events",
		Active: "events",
		Data: eventsView{
			Events:  projection.EventsWithRosters(h.events.Events(), h.attendance.EventAttendance(), members),
			Members: projection.SearchMembers(members, "", projection.SortMembersByName),
			Loading: h.events.Loading(),
			Err:     h.events.Err(),
		},
	})
}

// HandleCreate serves POST /events (admin only).
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		done(w, r, "/events", err, "")
		return
	}
	_, err := h.events.Create(r.Context(), eventForm(r))
	done(w, r, "/events", err, "Event created")
}

type eventView struct {
	Event     model.Event
	Roster    []projection.RosterEntry
	Available []model.Member
	Editing   bool
}

// HandleShow serves GET /events/{id}. The event comes from the catalog when
// it is there, else from the API.
func (h *EventHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := model.ParseIdent(id).Int(); !ok {
		h.render.NotFound(w, r, "events", "Invalid event id")
		return
	}

	h.attendance.Refresh(r.Context())

	event, ok := h.events.FindByID(id)
	if !ok {
		fetched, err := h.events.FetchOne(r.Context(), id)
		if err != nil || fetched == nil {
			if err != nil {
				h.logger.Warn("event fetch failed",
					slog.String("id", id),
					slog.String("error", err.Error()),
				)
			}
			h.render.NotFound(w, r, "events", "Event not found")
			return
		}
		event = *fetched
	}

	roster := projection.EventRoster(event.Key(), h.attendance.EventAttendance(), h.members.Members())
	h.render.Render(w, r, http.StatusOK, "event", Page{
		Title:  event.Name.String(),
		Active: "events",
		Data: eventView{
			Event:     event,
			Roster:    roster,
			Available: projection.AvailableMembers(h.members.Members(), roster),
			Editing:   r.URL.Query().Get("edit") == "1",
		},
	})
}

// HandleUpdate serves POST /events/{id} (admin only).
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		done(w, r, "/events/"+id, err, "")
		return
	}
	_, err := h.events.Update(r.Context(), id, eventForm(r))
	done(w, r, "/events/"+id, err, "Event updated")
}

// HandleDelete serves POST /events/{id}/delete (admin only).
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.events.Delete(r.Context(), id); err != nil {
		redirectWith(w, r, "/events/"+id, "error", apperror.Message(err, "Failed to delete event"))
		return
	}
	redirectWith(w, r, "/events", "notice", "Event deleted")
}

// HandleAssign serves POST /events/{id}/assign (admin only).
func (h *EventHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.attendance.CreateEventAttendance(r.Context(), service.EventAttendanceInput{
		MemberID: r.FormValue("memberId"),
		EventID:  id,
		Attended: checked(r, "attended"),
	})
	done(w, r, "/events/"+id, err, "Member assigned")
}

// HandleToggleRoster serves POST /events/{id}/roster/{recordID}/toggle
// (admin only). The form carries the value to set.
func (h *EventHandler) HandleToggleRoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.attendance.SetAttended(r.Context(), chi.URLParam(r, "recordID"), r.FormValue("attended") == "true")
	done(w, r, "/events/"+id, err, "")
}

// HandleRemoveRoster serves POST /events/{id}/roster/{recordID}/delete
// (admin only).
func (h *EventHandler) HandleRemoveRoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.attendance.DeleteEventAttendance(r.Context(), chi.URLParam(r, "recordID"))
	done(w, r, "/events/"+id, err, "Member removed")
}

func eventForm(r *http.Request) service.EventInput {
	return service.EventInput{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Description:     strings.TrimSpace(r.FormValue("description")),
		Date:            strings.TrimSpace(r.FormValue("date")),
		Venue:           strings.TrimSpace(r.FormValue("venue")),
		Type:            strings.TrimSpace(r.FormValue("type")),
		AssignedMembers: r.Form["assignedMembers"],
	}
}
