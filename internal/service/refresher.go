package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Store is a snapshot owner that can reload from the API and drop its data.
type Store interface {
	Refresh(ctx context.Context) error
	Reset()
}

// refreshTimeout bounds one scheduled refresh of every store.
const refreshTimeout = 30 * time.Second

// Refresher keeps the stores in step with the session: a login refreshes
// them all, a logout empties them all, and an optional cron schedule
// refreshes them while the session is authenticated.
type Refresher struct {
	session *SessionService
	stores  []Store
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewRefresher registers itself as a session listener.
func NewRefresher(session *SessionService, logger *slog.Logger, stores ...Store) *Refresher {
	r := &Refresher{session: session, stores: stores, logger: logger}
	session.OnChange(r.onSessionChange)
	return r
}

func (r *Refresher) onSessionChange(ctx context.Context, state SessionState) {
	if state == StateAuthenticated {
		r.RefreshAll(ctx)
		return
	}
	r.ResetAll()
}

// RefreshAll refreshes every store concurrently. A store that fails keeps
// its own error for its pages; the others are not affected. The first
// error is returned.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range r.stores {
		g.Go(func() error { return s.Refresh(ctx) })
	}
	err := g.Wait()
	if err != nil {
		r.logger.Warn("store refresh incomplete", slog.String("error", err.Error()))
	}
	return err
}

// ResetAll empties every store.
func (r *Refresher) ResetAll() {
	for _, s := range r.stores {
		s.Reset()
	}
}

// Start runs RefreshAll on spec (robfig/cron syntax, e.g. "@every 5m").
// Runs are skipped while no session is held. An empty spec does nothing.
func (r *Refresher) Start(spec string) error {
	if spec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, r.tick); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logger.Info("background refresh scheduled", slog.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *Refresher) tick() {
	if r.session.State() != StateAuthenticated {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	r.RefreshAll(ctx)
}
