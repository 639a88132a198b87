package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/model"
)

// rollCallConcurrency caps the absent fan-out of RecordRollCall.
const rollCallConcurrency = 8

// AttendanceLedger owns the daily and the event attendance record sets.
type AttendanceLedger struct {
	api    AttendanceAPI
	tokens TokenSource
	logger *slog.Logger
	status

	mu     sync.RWMutex
	daily  []model.DailyAttendance
	events []model.EventAttendance
}

func NewAttendanceLedger(api AttendanceAPI, tokens TokenSource, logger *slog.Logger) *AttendanceLedger {
	return &AttendanceLedger{
		api:    api,
		tokens: tokens,
		logger: logger,
		daily:  []model.DailyAttendance{},
		events: []model.EventAttendance{},
	}
}

// Refresh fetches both record sets concurrently. Each half that fails is
// emptied; the first failure is returned.
func (l *AttendanceLedger) Refresh(ctx context.Context) error {
	l.setErr("")
	var g errgroup.Group
	g.Go(func() error { return l.loadDaily(ctx) })
	g.Go(func() error { return l.loadEventAttendance(ctx) })
	return g.Wait()
}

// RefreshDaily replaces the daily record set.
func (l *AttendanceLedger) RefreshDaily(ctx context.Context) error {
	l.setErr("")
	return l.loadDaily(ctx)
}

// RefreshEventAttendance replaces the event record set.
func (l *AttendanceLedger) RefreshEventAttendance(ctx context.Context) error {
	l.setErr("")
	return l.loadEventAttendance(ctx)
}

func (l *AttendanceLedger) loadDaily(ctx context.Context) error {
	defer l.begin()()

	raw, err := l.api.ListDailyAttendance(ctx, l.tokens.Token())
	var records []model.DailyAttendance
	if err == nil {
		records, err = model.DecodeDailyRecords(raw)
		err = invalidResponse(err)
	}
	if err != nil {
		l.setErr(apperror.Message(err, "Failed to fetch daily attendance"))
		records = []model.DailyAttendance{}
		l.logger.Error("refreshing daily attendance", slog.String("error", err.Error()))
	}

	l.mu.Lock()
	l.daily = records
	l.mu.Unlock()
	return err
}

func (l *AttendanceLedger) loadEventAttendance(ctx context.Context) error {
	defer l.begin()()

	raw, err := l.api.ListEventAttendance(ctx, l.tokens.Token())
	var records []model.EventAttendance
	if err == nil {
		records, err = model.DecodeEventRecords(raw)
		err = invalidResponse(err)
	}
	if err != nil {
		l.setErr(apperror.Message(err, "Failed to fetch event attendance"))
		records = []model.EventAttendance{}
		l.logger.Error("refreshing event attendance", slog.String("error", err.Error()))
	}

	l.mu.Lock()
	l.events = records
	l.mu.Unlock()
	return err
}

// Reset drops both record sets and the error.
func (l *AttendanceLedger) Reset() {
	l.setErr("")
	l.mu.Lock()
	l.daily = []model.DailyAttendance{}
	l.events = []model.EventAttendance{}
	l.mu.Unlock()
}

func (l *AttendanceLedger) Daily() []model.DailyAttendance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.DailyAttendance(nil), l.daily...)
}

func (l *AttendanceLedger) EventAttendance() []model.EventAttendance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.EventAttendance(nil), l.events...)
}

// =========================================================================
// DAILY RECORDS
// =========================================================================

// DailyInput is one daily attendance entry.
type DailyInput struct {
	MemberID string
	Date     string
	Present  bool
}

func (l *AttendanceLedger) CreateDaily(ctx context.Context, in DailyInput) (*model.DailyAttendance, error) {
	if strings.TrimSpace(in.Date) == "" {
		return nil, apperror.ValidationFailed("date", "Date is required")
	}
	memberID, ok := model.ParseIdent(in.MemberID).Int()
	if !ok {
		return nil, apperror.ValidationFailed("memberId", "Member ID must be a number")
	}

	defer l.begin()()

	raw, err := l.api.CreateDailyAttendance(ctx, l.tokens.Token(), map[string]any{
		"memberId": memberID,
		"date":     in.Date,
		"present":  in.Present,
	})
	if err != nil {
		return nil, err
	}
	created, err := model.DecodeDailyRecord(raw)
	err = invalidResponse(err)
	if err != nil || created == nil {
		return nil, err
	}

	l.mu.Lock()
	l.daily = append(l.daily, *created)
	l.mu.Unlock()
	return created, nil
}

// SetDailyPresent updates the present flag of one record.
func (l *AttendanceLedger) SetDailyPresent(ctx context.Context, id string, present bool) (*model.DailyAttendance, error) {
	return l.UpdateDaily(ctx, id, map[string]any{"present": present})
}

// UpdateDaily sends payload and merges the response into the matching record.
func (l *AttendanceLedger) UpdateDaily(ctx context.Context, id string, payload map[string]any) (*model.DailyAttendance, error) {
	if model.ParseIdent(id).IsZero() {
		return nil, apperror.ValidationFailed("id", "Invalid attendance record")
	}
	defer l.begin()()

	raw, err := l.api.UpdateDailyAttendance(ctx, l.tokens.Token(), id, payload)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var merged *model.DailyAttendance
	for i, r := range l.daily {
		if !r.ID.Matches(id) {
			continue
		}
		next, err := r.Merge(raw)
		err = invalidResponse(err)
		if err != nil {
			return nil, err
		}
		l.daily[i] = next
		merged = &next
	}
	return merged, nil
}

func (l *AttendanceLedger) DeleteDaily(ctx context.Context, id string) error {
	if model.ParseIdent(id).IsZero() {
		return apperror.ValidationFailed("id", "Invalid attendance record")
	}
	defer l.begin()()

	if _, err := l.api.DeleteDailyAttendance(ctx, l.tokens.Token(), id); err != nil {
		return err
	}

	l.mu.Lock()
	kept := l.daily[:0:0]
	for _, r := range l.daily {
		if !r.ID.Matches(id) {
			kept = append(kept, r)
		}
	}
	l.daily = kept
	l.mu.Unlock()
	return nil
}

// BulkMarkDailyPresent marks every member in memberIDs present on date with a
// single call. Non-numeric ids are dropped before sending. The returned
// records are merged into the daily set (see mergeDaily); an empty result
// leaves the set alone.
func (l *AttendanceLedger) BulkMarkDailyPresent(ctx context.Context, date string, memberIDs []string) ([]model.DailyAttendance, error) {
	if strings.TrimSpace(date) == "" {
		return nil, apperror.ValidationFailed("date", "Date is required")
	}

	numeric := make([]int64, 0, len(memberIDs))
	for _, raw := range memberIDs {
		if n, ok := model.ParseIdent(raw).Int(); ok {
			numeric = append(numeric, n)
		}
	}

	defer l.begin()()

	raw, err := l.api.BulkMarkDailyPresent(ctx, l.tokens.Token(), apiclient.BulkPresent{Date: date, MemberIDs: numeric})
	if err != nil {
		return nil, err
	}
	records, err := model.DecodeDailyRecords(raw)
	err = invalidResponse(err)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	l.mu.Lock()
	l.daily = mergeDaily(l.daily, records)
	l.mu.Unlock()
	return records, nil
}

// mergeDaily folds incoming into existing, keyed by MergeKey. An existing
// record keeps its position when an incoming one shares its key; new keys
// are appended in arrival order.
//
// Records also collapse per (member, day): an existing record for a pair
// that incoming covers under a different key is dropped, so repeating a bulk
// call never leaves two records for one member on one day.
func mergeDaily(existing, incoming []model.DailyAttendance) []model.DailyAttendance {
	incomingKeys := make(map[string]int, len(incoming))
	incomingPairs := make(map[string]bool, len(incoming))
	for i, r := range incoming {
		incomingKeys[r.MergeKey()] = i
		if pair, ok := dayPair(r); ok {
			incomingPairs[pair] = true
		}
	}

	out := make([]model.DailyAttendance, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	put := func(r model.DailyAttendance) {
		key := r.MergeKey()
		if i, ok := index[key]; ok {
			out[i] = r
			return
		}
		index[key] = len(out)
		out = append(out, r)
	}

	for _, r := range existing {
		if i, ok := incomingKeys[r.MergeKey()]; ok {
			put(incoming[i])
			continue
		}
		if pair, ok := dayPair(r); ok && incomingPairs[pair] {
			continue
		}
		put(r)
	}
	for _, r := range incoming {
		put(r)
	}
	return out
}

func dayPair(r model.DailyAttendance) (string, bool) {
	if r.MemberID.IsZero() || r.Date == "" {
		return "", false
	}
	return r.MemberID.String() + "|" + r.Day(), true
}

// RecordRollCall takes the roll for one day: the members in present are
// bulk-marked present, then every other member of roster gets an absent
// record, created concurrently. The first failure aborts the roll call with
// its message; records already created stay in the ledger.
func (l *AttendanceLedger) RecordRollCall(ctx context.Context, date string, present, roster []string) error {
	if strings.TrimSpace(date) == "" {
		return apperror.ValidationFailed("date", "Date is required")
	}

	presentSet := make(map[string]bool, len(present))
	for _, id := range present {
		presentSet[model.ParseIdent(id).String()] = true
	}

	if len(present) > 0 {
		if _, err := l.BulkMarkDailyPresent(ctx, date, present); err != nil {
			return err
		}
	}

	var absent []string
	for _, id := range roster {
		canon := model.ParseIdent(id)
		if _, ok := canon.Int(); !ok || presentSet[canon.String()] {
			continue
		}
		absent = append(absent, canon.String())
	}

	// In-flight creations are not canceled when one fails.
	var g errgroup.Group
	g.SetLimit(rollCallConcurrency)
	for _, id := range absent {
		g.Go(func() error {
			_, err := l.CreateDaily(ctx, DailyInput{MemberID: id, Date: date, Present: false})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Error("roll call aborted",
			slog.String("date", date),
			slog.String("error", err.Error()),
		)
		return err
	}

	l.logger.Info("roll call recorded",
		slog.String("date", date),
		slog.Int("present", len(presentSet)),
		slog.Int("absent", len(absent)),
	)
	return nil
}

// =========================================================================
// EVENT RECORDS
// =========================================================================

// EventAttendanceInput assigns a member to an event.
type EventAttendanceInput struct {
	MemberID string
	EventID  string
	Attended bool
}

// CreateEventAttendance requires a non-zero numeric member id and a numeric event id.
func (l *AttendanceLedger) CreateEventAttendance(ctx context.Context, in EventAttendanceInput) (*model.EventAttendance, error) {
	memberID, ok := model.ParseIdent(in.MemberID).Int()
	if !ok || memberID == 0 {
		return nil, apperror.ValidationFailed("memberId", "Select valid member")
	}
	eventID, ok := model.ParseIdent(in.EventID).Int()
	if !ok || eventID == 0 {
		return nil, apperror.ValidationFailed("eventId", "Select a valid event")
	}

	defer l.begin()()

	raw, err := l.api.CreateEventAttendance(ctx, l.tokens.Token(), map[string]any{
		"memberId": memberID,
		"eventId":  eventID,
		"attended": in.Attended,
	})
	if err != nil {
		return nil, err
	}
	created, err := model.DecodeEventRecord(raw)
	err = invalidResponse(err)
	if err != nil || created == nil {
		return nil, err
	}

	l.mu.Lock()
	l.events = append(l.events, *created)
	l.mu.Unlock()
	return created, nil
}

// SetAttended updates the attended flag of one record.
func (l *AttendanceLedger) SetAttended(ctx context.Context, id string, attended bool) (*model.EventAttendance, error) {
	return l.UpdateEventAttendance(ctx, id, map[string]any{"attended": attended})
}

func (l *AttendanceLedger) UpdateEventAttendance(ctx context.Context, id string, payload map[string]any) (*model.EventAttendance, error) {
	if model.ParseIdent(id).IsZero() {
		return nil, apperror.ValidationFailed("id", "Invalid attendance record")
	}
	defer l.begin()()

	raw, err := l.api.UpdateEventAttendance(ctx, l.tokens.Token(), id, payload)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var merged *model.EventAttendance
	for i, r := range l.events {
		if !r.ID.Matches(id) {
			continue
		}
		next, err := r.Merge(raw)
		err = invalidResponse(err)
		if err != nil {
			return nil, err
		}
		l.events[i] = next
		merged = &next
	}
	return merged, nil
}

func (l *AttendanceLedger) DeleteEventAttendance(ctx context.Context, id string) error {
	if model.ParseIdent(id).IsZero() {
		return apperror.ValidationFailed("id", "Invalid attendance record")
	}
	defer l.begin()()

	if _, err := l.api.DeleteEventAttendance(ctx, l.tokens.Token(), id); err != nil {
		return err
	}

	l.mu.Lock()
	kept := l.events[:0:0]
	for _, r := range l.events {
		if !r.ID.Matches(id) {
			kept = append(kept, r)
		}
	}
	l.events = kept
	l.mu.Unlock()
	return nil
}
