// Package service holds the portal's stores: the session and the three
// entity snapshots (members, events, attendance).
//
// Each store is the only writer of its snapshot. Network calls are made with
// no lock held, and the snapshot is swapped under the lock once the response
// is in, so the last response to arrive wins. Every response is decoded with
// the model package right after the call, before it touches a snapshot.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/apperror"
)

// TokenSource supplies the bearer credential for store calls.
type TokenSource interface {
	Token() string
}

// MembersAPI is the member half of the REST surface.
type MembersAPI interface {
	ListMembers(ctx context.Context, token string) (json.RawMessage, error)
	CreateMember(ctx context.Context, token string, payload any) (json.RawMessage, error)
	UpdateMember(ctx context.Context, token, id string, payload any) (json.RawMessage, error)
	DeleteMember(ctx context.Context, token, id string) (json.RawMessage, error)
}

// EventsAPI is the event half of the REST surface.
type EventsAPI interface {
	ListEvents(ctx context.Context, token string) (json.RawMessage, error)
	GetEvent(ctx context.Context, token, id string) (json.RawMessage, error)
	CreateEvent(ctx context.Context, token string, payload any) (json.RawMessage, error)
	UpdateEvent(ctx context.Context, token, id string, payload any) (json.RawMessage, error)
	DeleteEvent(ctx context.Context, token, id string) (json.RawMessage, error)
}

// AttendanceAPI covers both attendance record sets.
type AttendanceAPI interface {
	ListDailyAttendance(ctx context.Context, token string) (json.RawMessage, error)
	CreateDailyAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error)
	UpdateDailyAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error)
	DeleteDailyAttendance(ctx context.Context, token, id string) (json.RawMessage, error)
	BulkMarkDailyPresent(ctx context.Context, token string, payload apiclient.BulkPresent) (json.RawMessage, error)
	ListEventAttendance(ctx context.Context, token string) (json.RawMessage, error)
	CreateEventAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error)
	UpdateEventAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error)
	DeleteEventAttendance(ctx context.Context, token, id string) (json.RawMessage, error)
}

// SessionAPI is the auth half of the REST surface.
type SessionAPI interface {
	Login(ctx context.Context, email, password string) (json.RawMessage, error)
	Register(ctx context.Context, payload any) (json.RawMessage, error)
	ChangePassword(ctx context.Context, payload apiclient.PasswordChange) (json.RawMessage, error)
	Me(ctx context.Context, token string) (json.RawMessage, error)
}

// compile-time check that the real client satisfies every store
var (
	_ MembersAPI    = (*apiclient.Client)(nil)
	_ EventsAPI     = (*apiclient.Client)(nil)
	_ AttendanceAPI = (*apiclient.Client)(nil)
	_ SessionAPI    = (*apiclient.Client)(nil)
)

// invalidResponse turns a failure to decode a 2xx body into a request error,
// so pages show a fixed message instead of the decoder's text.
func invalidResponse(err error) error {
	if err == nil {
		return nil
	}
	return apperror.RequestFailed(0, "Invalid response from server", err)
}

// status is the per-store loading flag and last refresh error.
// Loading is true while any operation of the store is in flight.
type status struct {
	inflight atomic.Int32

	mu  sync.RWMutex
	err string
}

// begin marks an operation as in flight; call the returned func when it ends.
func (s *status) begin() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

// Loading reports whether an operation of the store is in flight.
func (s *status) Loading() bool {
	return s.inflight.Load() > 0
}

// Err returns the message of the last failed refresh, or "".
func (s *status) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *status) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}
