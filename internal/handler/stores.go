package handler

import (
	"context"

	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/service"
)

// The interfaces below are the parts of each store the pages call.
// *service.SessionService, *service.MemberDirectory, *service.EventCatalog
// and *service.AttendanceLedger satisfy them.

type Session interface {
	auth.SessionReader
	State() service.SessionState
	LastError() string
	Login(ctx context.Context, email, password string) error
	ChangePassword(ctx context.Context, in service.PasswordChangeInput) error
	Logout(ctx context.Context)
}

type Members interface {
	Members() []model.Member
	FindByID(id string) (model.Member, bool)
	Refresh(ctx context.Context) error
	Create(ctx context.Context, in service.MemberInput) (*model.Member, error)
	Update(ctx context.Context, id string, in service.MemberUpdate) (*model.Member, error)
	Delete(ctx context.Context, id string) error
	Loading() bool
	Err() string
}

type Events interface {
	Events() []model.Event
	FindByID(id string) (model.Event, bool)
	Refresh(ctx context.Context) error
	FetchOne(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, in service.EventInput) (*model.Event, error)
	Update(ctx context.Context, id string, in service.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	Loading() bool
	Err() string
}

type Attendance interface {
	Daily() []model.DailyAttendance
	EventAttendance() []model.EventAttendance
	Refresh(ctx context.Context) error
	CreateDaily(ctx context.Context, in service.DailyInput) (*model.DailyAttendance, error)
	SetDailyPresent(ctx context.Context, id string, present bool) (*model.DailyAttendance, error)
	DeleteDaily(ctx context.Context, id string) error
	RecordRollCall(ctx context.Context, date string, present, roster []string) error
	CreateEventAttendance(ctx context.Context, in service.EventAttendanceInput) (*model.EventAttendance, error)
	SetAttended(ctx context.Context, id string, attended bool) (*model.EventAttendance, error)
	DeleteEventAttendance(ctx context.Context, id string) error
	Loading() bool
	Err() string
}

var (
	_ Session    = (*service.SessionService)(nil)
	_ Members    = (*service.MemberDirectory)(nil)
	_ Events     = (*service.EventCatalog)(nil)
	_ Attendance = (*service.AttendanceLedger)(nil)
)
