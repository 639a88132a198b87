// Package projection computes the read models the pages render.
//
// Everything here is a pure function over store snapshots: no I/O, no
// locks, no state. Handlers take a snapshot from each store they need,
// hand it to a projection, and render the result. Because the inputs are
// copies, a projection can never observe a store half-way through a swap.
//
// JOINS:
// Attendance and event records point at members by memberId, and at events
// by eventId. Joins compare canonical identifier text (model.Ident.Equal),
// so 7 and "7" match, and records whose member is gone are dropped.
package projection

import (
	"math"
	"sort"
	"strings"

	"github.com/sakif/ssc-portal/internal/model"
)

// Sort orders accepted by the attendance overview.
const (
	SortByName       = "name"
	SortByAttendance = "attendance"
)

// Percent is round(present / total × 100), and 0 when total is 0.
func Percent(present, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// AttendanceSummary is one member's daily attendance tally.
type AttendanceSummary struct {
	Member  model.Member
	Present int
	Total   int
	Percent int
}

// Absent is the number of recorded days the member missed.
func (s AttendanceSummary) Absent() int {
	return s.Total - s.Present
}

// dailyFor returns the daily records that belong to member, in ledger order.
func dailyFor(member model.Member, daily []model.DailyAttendance) []model.DailyAttendance {
	key := member.JoinKey()
	out := []model.DailyAttendance{}
	for _, d := range daily {
		if d.MemberID.Equal(key) {
			out = append(out, d)
		}
	}
	return out
}

func summarize(member model.Member, records []model.DailyAttendance) AttendanceSummary {
	present := 0
	for _, d := range records {
		if d.Present {
			present++
		}
	}
	return AttendanceSummary{
		Member:  member,
		Present: present,
		Total:   len(records),
		Percent: Percent(present, len(records)),
	}
}

// AttendanceOverview tallies every member, keeps the ones matching query
// (see matchesQuery) and orders them by name, or by percentage when sortBy
// is SortByAttendance.
func AttendanceOverview(members []model.Member, daily []model.DailyAttendance, query, sortBy string) []AttendanceSummary {
	out := make([]AttendanceSummary, 0, len(members))
	for _, m := range members {
		if !matchesQuery(m, query) {
			continue
		}
		out = append(out, summarize(m, dailyFor(m, daily)))
	}

	if sortBy == SortByAttendance {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
		return out
	}
	names := newNameOrder()
	sort.SliceStable(out, func(i, j int) bool {
		return names.less(out[i].Member.Name.String(), out[j].Member.Name.String())
	})
	return out
}

// MemberAttendanceDetail backs the attendance detail page.
type MemberAttendanceDetail struct {
	Summary AttendanceSummary
	Daily   []model.DailyAttendance
	Events  []EventRecord
}

// EventRecord is an event attendance record with the event it points at.
// Event is nil when the event is not in the catalog.
type EventRecord struct {
	Record model.EventAttendance
	Event  *model.Event
}

// MemberAttendance gathers one member's daily and event history.
func MemberAttendance(member model.Member, daily []model.DailyAttendance, records []model.EventAttendance, events []model.Event) MemberAttendanceDetail {
	mine := dailyFor(member, daily)

	key := member.JoinKey()
	history := []EventRecord{}
	for _, r := range records {
		if !r.MemberID.Equal(key) {
			continue
		}
		entry := EventRecord{Record: r}
		for i := range events {
			if events[i].Key().Equal(r.EventID) {
				evt := events[i]
				entry.Event = &evt
				break
			}
		}
		history = append(history, entry)
	}

	return MemberAttendanceDetail{
		Summary: summarize(member, mine),
		Daily:   mine,
		Events:  history,
	}
}

// matchesQuery is a case-insensitive substring match over name, role,
// email and memberId. An empty query matches everyone.
func matchesQuery(m model.Member, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{m.Name.String(), m.Role.String(), m.Email.String(), m.MemberID.String()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), query)
}
