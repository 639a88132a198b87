package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/model"
)

// EventInput is the event create/edit form.
type EventInput struct {
	Name            string
	Description     string
	Date            string
	Venue           string
	Type            string
	AssignedMembers []string
}

// EventCatalog owns the in-memory event list.
type EventCatalog struct {
	api    EventsAPI
	tokens TokenSource
	logger *slog.Logger
	status

	mu     sync.RWMutex
	events []model.Event
}

func NewEventCatalog(api EventsAPI, tokens TokenSource, logger *slog.Logger) *EventCatalog {
	return &EventCatalog{
		api:    api,
		tokens: tokens,
		logger: logger,
		events: []model.Event{},
	}
}

// Refresh replaces the snapshot; a failure empties it and records Err.
func (c *EventCatalog) Refresh(ctx context.Context) error {
	defer c.begin()()
	c.setErr("")

	raw, err := c.api.ListEvents(ctx, c.tokens.Token())
	var events []model.Event
	if err == nil {
		events, err = model.DecodeEvents(raw)
		err = invalidResponse(err)
	}
	if err != nil {
		c.setErr(apperror.Message(err, "Failed to fetch events"))
		c.mu.Lock()
		c.events = []model.Event{}
		c.mu.Unlock()
		c.logger.Error("refreshing events", slog.String("error", err.Error()))
		return err
	}

	c.mu.Lock()
	c.events = events
	c.mu.Unlock()
	return nil
}

// Reset drops the snapshot and the error.
func (c *EventCatalog) Reset() {
	c.setErr("")
	c.mu.Lock()
	c.events = []model.Event{}
	c.mu.Unlock()
}

func (c *EventCatalog) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Event(nil), c.events...)
}

// FindByID looks an event up by its canonical id. No network call.
func (c *EventCatalog) FindByID(id string) (model.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e.Key().Matches(id) {
			return e, true
		}
	}
	return model.Event{}, false
}

// FetchOne loads a single event and merges it into the list: an event with
// the same id is replaced where it stands, otherwise it is appended.
func (c *EventCatalog) FetchOne(ctx context.Context, id string) (*model.Event, error) {
	defer c.begin()()

	raw, err := c.api.GetEvent(ctx, c.tokens.Token(), id)
	if err != nil {
		return nil, err
	}
	evt, err := model.DecodeEvent(raw)
	err = invalidResponse(err)
	if err != nil || evt == nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.events {
		if e.Key().Equal(evt.Key()) {
			c.events[i] = *evt
			return evt, nil
		}
	}
	c.events = append(c.events, *evt)
	return evt, nil
}

// Create validates the form and appends the created event.
func (c *EventCatalog) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Venue) == "" {
		return nil, apperror.ValidationFailed("name", "Name, date, and venue are required")
	}

	defer c.begin()()

	raw, err := c.api.CreateEvent(ctx, c.tokens.Token(), eventPayload(in))
	if err != nil {
		return nil, err
	}
	created, err := model.DecodeEvent(raw)
	err = invalidResponse(err)
	if err != nil || created == nil {
		return nil, err
	}

	c.mu.Lock()
	c.events = append(c.events, *created)
	c.mu.Unlock()

	c.logger.Info("event created", slog.String("eventId", created.Key().String()))
	return created, nil
}

// Update sends the form and merges the response into the matching event.
func (c *EventCatalog) Update(ctx context.Context, id string, in EventInput) (*model.Event, error) {
	defer c.begin()()

	raw, err := c.api.UpdateEvent(ctx, c.tokens.Token(), id, eventPayload(in))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var merged *model.Event
	for i, e := range c.events {
		if !e.Key().Matches(id) {
			continue
		}
		next, err := e.Merge(raw)
		err = invalidResponse(err)
		if err != nil {
			return nil, err
		}
		c.events[i] = next
		merged = &next
	}
	return merged, nil
}

// Delete removes the event on the server, then locally.
func (c *EventCatalog) Delete(ctx context.Context, id string) error {
	defer c.begin()()

	if _, err := c.api.DeleteEvent(ctx, c.tokens.Token(), id); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.events[:0:0]
	for _, e := range c.events {
		if !e.Key().Matches(id) {
			kept = append(kept, e)
		}
	}
	c.events = kept
	c.mu.Unlock()
	return nil
}

func eventPayload(in EventInput) map[string]any {
	assigned := []int64{}
	for _, raw := range in.AssignedMembers {
		if n, ok := model.ParseIdent(raw).Int(); ok {
			assigned = append(assigned, n)
		}
	}
	body := map[string]any{
		"name":            in.Name,
		"description":     in.Description,
		"date":            in.Date,
		"venue":           in.Venue,
		"assignedMembers": assigned,
	}
	if in.Type != "" {
		body["type"] = in.Type
	}
	return body
}
