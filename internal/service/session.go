package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/repository"
)

// Keys of the two durable session entries.
const (
	TokenKey = "ssc_token"
	UserKey  = "ssc_user"
)

// SessionState is where the session sits in its lifecycle:
//
//	Unknown → (Bootstrap) → Authenticated | Anonymous
//	Authenticated → (Logout) → Anonymous
//	Any → (Login/Register/ChangePassword success) → Authenticated
type SessionState int

const (
	StateUnknown SessionState = iota
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionListener runs after every session change, with the new state.
type SessionListener func(ctx context.Context, state SessionState)

// PasswordChangeInput is the change-password form.
type PasswordChangeInput struct {
	Email           string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// MinPasswordLength is the shortest new password accepted before calling the API.
const MinPasswordLength = 6

// SessionService owns the authenticated identity and its bearer token.
//
// DEPENDENCIES (injected via NewSessionService):
//   - api     SessionAPI                → login/register/change-password/me
//   - store   repository.KeyValueStore  → durable token + identity
//   - logger  *slog.Logger
//
// INVARIANT: token and user are set together or cleared together, in memory
// and in the store.
type SessionService struct {
	api    SessionAPI
	store  repository.KeyValueStore
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	state     SessionState
	token     string
	user      *model.User
	lastError string
	listeners []SessionListener
}

func NewSessionService(api SessionAPI, store repository.KeyValueStore, logger *slog.Logger) *SessionService {
	return &SessionService{
		api:    api,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// OnChange registers a listener. Listeners run synchronously, in order.
func (s *SessionService) OnChange(l SessionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionService) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *SessionService) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError is the message of the last failed auth call, cleared when the
// next one starts.
func (s *SessionService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Bootstrap restores a persisted session. It always ends Authenticated or
// Anonymous, never Unknown.
//
// A persisted JWT whose exp has passed is dropped without asking the server.
// Any other token is checked against /api/auth/me; a failure of any kind
// clears the session.
func (s *SessionService) Bootstrap(ctx context.Context) SessionState {
	token, found, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Error("reading persisted session", slog.String("error", err.Error()))
	}
	if !found || token == "" {
		s.clear(ctx)
		return s.State()
	}

	if auth.Expired(token, s.now()) {
		s.logger.Info("persisted token expired, clearing session")
		s.clear(ctx)
		return s.State()
	}

	me, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Info("persisted token rejected", slog.String("error", err.Error()))
		s.clear(ctx)
		return s.State()
	}
	user, err := model.DecodeUser(me)
	if err != nil || user == nil {
		s.logger.Warn("identity response unusable, clearing session")
		s.clear(ctx)
		return s.State()
	}

	s.adopt(ctx, user, token)
	return s.State()
}

// Login exchanges credentials for a session. On failure the prior session is
// left untouched and the message is kept in LastError.
func (s *SessionService) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "Invalid credentials", func() (json.RawMessage, error) {
		return s.api.Login(ctx, email, password)
	})
}

// Register creates an account and adopts the session the server returns.
func (s *SessionService) Register(ctx context.Context, payload map[string]any) error {
	return s.authenticate(ctx, "Registration failed", func() (json.RawMessage, error) {
		return s.api.Register(ctx, payload)
	})
}

// ChangePassword validates the form, then replaces the session with the one
// the server issues for the new password.
func (s *SessionService) ChangePassword(ctx context.Context, in PasswordChangeInput) error {
	if err := validatePasswordChange(in); err != nil {
		s.setLastError(err.Error())
		return err
	}
	return s.authenticate(ctx, "Password change failed", func() (json.RawMessage, error) {
		return s.api.ChangePassword(ctx, apiclient.PasswordChange{
			Email:           in.Email,
			OldPassword:     in.OldPassword,
			NewPassword:     in.NewPassword,
			ConfirmPassword: in.ConfirmPassword,
		})
	})
}

// Logout clears the session in memory and in the store. It cannot fail.
func (s *SessionService) Logout(ctx context.Context) {
	s.clear(ctx)
}

func validatePasswordChange(in PasswordChangeInput) error {
	switch {
	case in.Email == "" || in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "":
		return apperror.ValidationFailed("password", "All fields are required")
	case in.NewPassword != in.ConfirmPassword:
		return apperror.ValidationFailed("confirmPassword", "New passwords do not match")
	case len(in.NewPassword) < MinPasswordLength:
		return apperror.ValidationFailed("newPassword", "New password must be at least 6 characters")
	}
	return nil
}

// authenticate runs one auth exchange. fallback is the message used when the
// failure carries none of its own.
func (s *SessionService) authenticate(ctx context.Context, fallback string, call func() (json.RawMessage, error)) error {
	s.setLastError("")

	res, err := call()
	if err != nil {
		msg := apperror.Message(err, fallback)
		s.setLastError(msg)
		return apperror.AuthFailed(msg, err)
	}

	token, user, err := model.DecodeAuthResponse(res)
	if err != nil {
		s.setLastError(fallback)
		return apperror.AuthFailed(fallback, err)
	}
	if token == "" {
		const msg = "Missing token from server"
		s.setLastError(msg)
		return apperror.AuthFailed(msg, nil)
	}

	if user == nil {
		// The token is good but the body carried no identity; ask for it.
		me, err := s.api.Me(ctx, token)
		if err == nil {
			user, err = model.DecodeUser(me)
		}
		if err != nil || user == nil {
			const msg = "Missing user from server"
			s.setLastError(msg)
			return apperror.AuthFailed(msg, err)
		}
	}

	s.adopt(ctx, user, token)
	s.logger.Info("session established",
		slog.String("user", user.Email.String()),
		slog.String("role", user.Role.String()),
	)
	return nil
}

func (s *SessionService) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// adopt replaces the session and persists it. Persistence failures are
// logged; the in-memory session still takes effect.
func (s *SessionService) adopt(ctx context.Context, user *model.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.state = StateAuthenticated
	s.mu.Unlock()

	if err := s.persist(ctx, user, token); err != nil {
		s.logger.Error("persisting session", slog.String("error", err.Error()))
	}
	s.notify(ctx, StateAuthenticated)
}

func (s *SessionService) persist(ctx context.Context, user *model.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return err
	}
	return s.store.Set(ctx, UserKey, string(raw))
}

func (s *SessionService) clear(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.state = StateAnonymous
	s.mu.Unlock()

	if err := s.store.Delete(ctx, TokenKey, UserKey); err != nil {
		s.logger.Error("clearing persisted session", slog.String("error", err.Error()))
	}
	s.notify(ctx, StateAnonymous)
}

func (s *SessionService) notify(ctx context.Context, state SessionState) {
	s.mu.RLock()
	listeners := append([]SessionListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, state)
	}
}
