package projection

import (
	"sort"

	"github.com/sakif/ssc-portal/internal/model"
)

// RosterEntry is an event attendance record joined to its member.
type RosterEntry struct {
	Record model.EventAttendance
	Member model.Member
}

// EventRoster lists the records for eventID whose member is in the roster.
// Records pointing at an unknown member are dropped.
func EventRoster(eventID model.Ident, records []model.EventAttendance, members []model.Member) []RosterEntry {
	index := memberIndex(members)
	out := []RosterEntry{}
	for _, r := range records {
		if !r.EventID.Equal(eventID) {
			continue
		}
		m, ok := index[r.MemberID.String()]
		if !ok || r.MemberID.IsZero() {
			continue
		}
		out = append(out, RosterEntry{Record: r, Member: m})
	}
	return out
}

// AvailableMembers are the members not yet on roster, sorted by name.
func AvailableMembers(members []model.Member, roster []RosterEntry) []model.Member {
	assigned := make(map[string]bool, len(roster))
	for _, e := range roster {
		assigned[e.Record.MemberID.String()] = true
	}

	out := []model.Member{}
	for _, m := range members {
		if !assigned[m.JoinKey().String()] {
			out = append(out, m)
		}
	}
	names := newNameOrder()
	sort.SliceStable(out, func(i, j int) bool {
		return names.less(out[i].Name.String(), out[j].Name.String())
	})
	return out
}

// EventWithRoster is an event card on the events page.
type EventWithRoster struct {
	model.Event
	Roster []RosterEntry
}

// EventsWithRosters attaches each event's roster, keeping catalog order.
func EventsWithRosters(events []model.Event, records []model.EventAttendance, members []model.Member) []EventWithRoster {
	out := make([]EventWithRoster, 0, len(events))
	for _, e := range events {
		out = append(out, EventWithRoster{Event: e, Roster: EventRoster(e.Key(), records, members)})
	}
	return out
}

// UpcomingEvents returns the first n events by date. Events without a
// readable date sort first, as if dated at the epoch.
func UpcomingEvents(events []model.Event, n int) []model.Event {
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return eventTime(sorted[i]).Before(eventTime(sorted[j]))
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// memberIndex maps join keys to members. The first member wins a duplicate key.
func memberIndex(members []model.Member) map[string]model.Member {
	index := make(map[string]model.Member, len(members))
	for _, m := range members {
		key := m.JoinKey()
		if key.IsZero() {
			continue
		}
		if _, dup := index[key.String()]; !dup {
			index[key.String()] = m
		}
	}
	return index
}
