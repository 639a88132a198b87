package projection

import (
	"time"

	"github.com/sakif/ssc-portal/internal/model"
)

// Date layouts used by the pages.
const (
	ShortDate = "Jan 02, 2006"
	LongDate  = "January 2, 2006"
	MonthYear = "January 2006"
)

// FormatDate renders s as "Jan 02, 2006", or "N/A" when it is empty or
// unreadable.
func FormatDate(s string) string {
	return FormatDateAs(s, ShortDate, "N/A")
}

// FormatDateAs renders s with layout, or fallback when it does not parse.
func FormatDateAs(s, layout, fallback string) string {
	t, ok := model.ParseDate(s)
	if !ok {
		return fallback
	}
	return t.Format(layout)
}

// DateInputValue renders s as YYYY-MM-DD for an <input type="date">, or "".
func DateInputValue(s string) string {
	t, ok := model.ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(time.DateOnly)
}

func createdAt(m model.Member) time.Time {
	t, _ := model.ParseDate(m.CreatedAt.String())
	return t
}

func eventTime(e model.Event) time.Time {
	t, _ := model.ParseDate(e.Date.String())
	return t
}
