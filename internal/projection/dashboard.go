package projection

import (
	"time"

	"github.com/sakif/ssc-portal/internal/model"
)

// Dashboard list sizes.
const (
	DashboardTopMembers = 7
	DashboardUpcoming   = 3
)

// BirthdaysByDay maps day-of-month to the names of members born in month.
// Members without a readable birthday are skipped; a blank name reads "Member".
func BirthdaysByDay(members []model.Member, month time.Month) map[int][]string {
	out := make(map[int][]string)
	for _, m := range members {
		t, ok := model.ParseDate(m.Birthday.String())
		if !ok || t.Month() != month {
			continue
		}
		name := m.Name.String()
		if name == "" {
			name = "Member"
		}
		out[t.Day()] = append(out[t.Day()], name)
	}
	return out
}

// CalendarCell is one square of the month grid. Day is 0 for the blank
// squares before the 1st.
type CalendarCell struct {
	Day       int
	Today     bool
	Birthdays []string
}

// Blank reports whether the cell is padding before the first day.
func (c CalendarCell) Blank() bool {
	return c.Day == 0
}

// CalendarCells lays out month as a Sunday-first grid: one blank cell per
// weekday before the 1st, then one cell per day.
func CalendarCells(month, today time.Time, birthdays map[int][]string) []CalendarCell {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]CalendarCell, 0, int(first.Weekday())+daysInMonth)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, CalendarCell{})
	}
	sameMonth := today.Year() == first.Year() && today.Month() == first.Month()
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, CalendarCell{
			Day:       day,
			Today:     sameMonth && today.Day() == day,
			Birthdays: birthdays[day],
		})
	}
	return cells
}

// DashboardView backs the dashboard page.
type DashboardView struct {
	WelcomeName    string
	Role           string
	TotalMembers   int
	TotalEvents    int
	TopMembers     []model.Member
	UpcomingEvents []model.Event

	Month      time.Time
	MonthLabel string
	TodayLabel string
	Calendar   []CalendarCell
}

// PrevMonth and NextMonth are the month query values for the calendar pager.
func (v DashboardView) PrevMonth() string { return v.Month.AddDate(0, -1, 0).Format("2006-01") }
func (v DashboardView) NextMonth() string { return v.Month.AddDate(0, 1, 0).Format("2006-01") }

// Dashboard builds the landing page for user. month selects the birthday
// calendar; only its year and month are used.
func Dashboard(user *model.User, members []model.Member, events []model.Event, month, today time.Time) DashboardView {
	current := currentMember(user, members)

	welcome := "there"
	role := "Member"
	switch {
	case current != nil && current.Name != "":
		welcome = current.Name.String()
	case user != nil && user.Name != "":
		welcome = user.Name.String()
	case user != nil && user.Email != "":
		welcome = user.Email.String()
	}
	switch {
	case current != nil && current.Role != "":
		role = current.Role.String()
	case user != nil && user.Role != "":
		role = user.Role.String()
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DashboardView{
		WelcomeName:    welcome,
		Role:           role,
		TotalMembers:   len(members),
		TotalEvents:    len(events),
		TopMembers:     TopMembers(members, DashboardTopMembers),
		UpcomingEvents: UpcomingEvents(events, DashboardUpcoming),
		Month:          monthStart,
		MonthLabel:     monthStart.Format(MonthYear),
		TodayLabel:     today.Format(LongDate),
		Calendar:       CalendarCells(monthStart, today, BirthdaysByDay(members, monthStart.Month())),
	}
}

// currentMember finds the roster entry of the signed-in user, matching either
// of the user's identifiers against either of the member's.
func currentMember(user *model.User, members []model.Member) *model.Member {
	if user == nil {
		return nil
	}
	for i := range members {
		m := members[i]
		if m.ID.Equal(user.MemberID) || m.MemberID.Equal(user.MemberID) ||
			m.ID.Equal(user.ID) || m.MemberID.Equal(user.ID) {
			return &m
		}
	}
	return nil
}
