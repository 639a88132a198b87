package handler

import (
	"net/http"
	"time"

	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/projection"
)

// DashboardHandler serves the dashboard and the leaderboard. Both read the
// snapshots as they are; neither triggers a refresh.
type DashboardHandler struct {
	members Members
	events  Events
	render  *Renderer
	now     func() time.Time
}

func NewDashboardHandler(members Members, events Events, render *Renderer) *DashboardHandler {
	return &DashboardHandler{members: members, events: events, render: render, now: time.Now}
}

// WithClock replaces the clock used for "today" and the default month.
func (h *DashboardHandler) WithClock(now func() time.Time) *DashboardHandler {
	h.now = now
	return h
}

// HandleDashboard serves GET /dashboard?month=YYYY-MM. A missing or
// unreadable month shows the current one.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	month := today
	if m, err := time.Parse("2006-01", r.URL.Query().Get("month")); err == nil {
		month = m
	}

	view := projection.Dashboard(
		auth.UserFromContext(r.Context()),
		h.members.Members(),
		h.events.Events(),
		month,
		today,
	)

	h.render.Render(w, r, http.StatusOK, "dashboard", Page{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   view,
	})
}

type leaderboardView struct {
	Ranked  []projection.RankedMember
	Loading bool
	Err     string
}

// HandleLeaderboard serves GET /leaderboard.
func (h *DashboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "leaderboard", Page{
		Title:  "Leaderboard",
		Active: "leaderboard",
		Data: leaderboardView{
			Ranked:  projection.Rank(h.members.Members()),
			Loading: h.members.Loading(),
			Err:     h.members.Err(),
		},
	})
}
