package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/ssc-portal/internal/model"
)

type fakeSession struct {
	user  *model.User
	token string
}

func (f fakeSession) User() *model.User { return f.user }
func (f fakeSession) Token() string     { return f.token }

func TestRequireSession(t *testing.T) {
	admin := &model.User{Name: "Admin", Role: "admin"}

	tests := []struct {
		name         string
		session      fakeSession
		accept       string
		wantStatus   int
		wantLocation string
		wantUser     bool
	}{
		{name: "authenticated passes", session: fakeSession{user: admin, token: "t"}, wantStatus: http.StatusOK, wantUser: true},
		{name: "anonymous is redirected", session: fakeSession{}, wantStatus: http.StatusSeeOther, wantLocation: LoginPath},
		{name: "token without user is anonymous", session: fakeSession{token: "t"}, wantStatus: http.StatusSeeOther, wantLocation: LoginPath},
		{name: "json client gets 401", session: fakeSession{}, accept: "application/json", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sawUser *model.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawUser = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/members", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rr := httptest.NewRecorder()
			RequireSession(tt.session)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && rr.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rr.Header().Get("Location"), tt.wantLocation)
			}
			if tt.wantUser && sawUser != admin {
				t.Error("handler did not receive the session user in its context")
			}
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	mw := RedirectIfAuthenticated(fakeSession{user: &model.User{}, token: "t"}, "/dashboard")
	mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, LoginPath, nil))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Errorf("got %d to %q, want 303 to /dashboard", rr.Code, rr.Header().Get("Location"))
	}

	rr = httptest.NewRecorder()
	mw = RedirectIfAuthenticated(fakeSession{}, "/dashboard")
	mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, LoginPath, nil))
	if rr.Code != http.StatusOK {
		t.Errorf("anonymous visitor got %d, want 200", rr.Code)
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if UserFromContext(req.Context()) != nil {
		t.Error("UserFromContext() on a bare context should be nil")
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		mw         func(SessionReader) func(http.Handler) http.Handler
		role       string
		wantStatus int
	}{
		{name: "admin passes admin gate", mw: RequireAdmin, role: "admin", wantStatus: http.StatusOK},
		{name: "superadmin passes admin gate", mw: RequireAdmin, role: "superadmin", wantStatus: http.StatusOK},
		{name: "member is forbidden", mw: RequireAdmin, role: "member", wantStatus: http.StatusForbidden},
		{name: "admin fails superadmin gate", mw: RequireSuperAdmin, role: "admin", wantStatus: http.StatusForbidden},
		{name: "superadmin passes superadmin gate", mw: RequireSuperAdmin, role: "superadmin", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			session := fakeSession{user: &model.User{Role: "member"}, token: "t"}
			user := &model.User{Role: model.Text(tt.role)}

			// RequireSession puts the user in the context; the role gate reads it from there.
			stack := RequireSession(fakeSession{user: user, token: "t"})(tt.mw(session)(next))
			rr := httptest.NewRecorder()
			stack.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/members", nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
