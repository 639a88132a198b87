package model

import (
	"encoding/json"
	"strings"
	"time"
)

// DailyAttendance records whether a member was present on a given day.
type DailyAttendance struct {
	ID       Ident `json:"id"`
	MemberID Ident `json:"memberId"`
	Date     Text  `json:"date"`
	Present  Bool  `json:"present"`
}

func (d *DailyAttendance) UnmarshalJSON(b []byte) error {
	type plain DailyAttendance
	aux := struct {
		*plain
		MongoID Ident `json:"_id"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if d.ID.IsZero() {
		d.ID = aux.MongoID
	}
	return nil
}

// MergeKey identifies the record inside the bulk-present merge. Records the
// server returned without an id fall back to "memberId-date".
func (d DailyAttendance) MergeKey() string {
	if !d.ID.IsZero() {
		return d.ID.String()
	}
	return d.MemberID.String() + "-" + d.Date.String()
}

// Day returns the calendar day of the record as YYYY-MM-DD, so that
// "2024-03-01" and "2024-03-01T00:00:00.000Z" compare equal.
func (d DailyAttendance) Day() string {
	return DayOf(d.Date.String())
}

// Merge overlays an update response onto d.
func (d DailyAttendance) Merge(raw json.RawMessage) (DailyAttendance, error) {
	return overlay(d, raw, "attendance")
}

// EventAttendance records whether a member attended an event.
type EventAttendance struct {
	ID       Ident `json:"id"`
	MemberID Ident `json:"memberId"`
	EventID  Ident `json:"eventId"`
	Attended Bool  `json:"attended"`
}

func (a *EventAttendance) UnmarshalJSON(b []byte) error {
	type plain EventAttendance
	aux := struct {
		*plain
		MongoID Ident `json:"_id"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if a.ID.IsZero() {
		a.ID = aux.MongoID
	}
	return nil
}

// Merge overlays an update response onto a.
func (a EventAttendance) Merge(raw json.RawMessage) (EventAttendance, error) {
	return overlay(a, raw, "attendance")
}

func DecodeDailyRecord(raw json.RawMessage) (*DailyAttendance, error) {
	return decodeOne[DailyAttendance](raw, "attendance")
}

func DecodeDailyRecords(raw json.RawMessage) ([]DailyAttendance, error) {
	return decodeMany[DailyAttendance](raw, "attendance")
}

func DecodeEventRecord(raw json.RawMessage) (*EventAttendance, error) {
	return decodeOne[EventAttendance](raw, "attendance")
}

func DecodeEventRecords(raw json.RawMessage) ([]EventAttendance, error) {
	return decodeMany[EventAttendance](raw, "attendance")
}

var dayLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate reads the date formats the API is known to send. Times are
// interpreted in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DayOf normalizes s to YYYY-MM-DD, or returns it unchanged when unparseable.
func DayOf(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(time.DateOnly)
	}
	return strings.TrimSpace(s)
}
