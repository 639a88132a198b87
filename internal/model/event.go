package model

import "encoding/json"

// Event is a society event. EventID is the join key for event attendance.
type Event struct {
	EventID     Ident `json:"eventId"`
	ID          Ident `json:"id"`
	Name        Text  `json:"name"`
	Description Text  `json:"description"`
	Date        Text  `json:"date"`
	Venue       Text  `json:"venue"`
	Type        Text  `json:"type"`
}

func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	aux := struct {
		*plain
		MongoID Ident `json:"_id"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.ID.IsZero() {
		e.ID = aux.MongoID
	}
	if e.EventID.IsZero() {
		e.EventID = e.ID
	}
	return nil
}

// Key is the canonical identifier of the event.
func (e Event) Key() Ident {
	if !e.EventID.IsZero() {
		return e.EventID
	}
	return e.ID
}

// Merge overlays an update or fetch response onto e.
func (e Event) Merge(raw json.RawMessage) (Event, error) {
	return overlay(e, raw, "event")
}

// DecodeEvent accepts {"event": {...}} or a bare event object.
func DecodeEvent(raw json.RawMessage) (*Event, error) {
	return decodeOne[Event](raw, "event")
}

// DecodeEvents accepts a bare array or {"events": [...]}.
func DecodeEvents(raw json.RawMessage) ([]Event, error) {
	return decodeMany[Event](raw, "events")
}
