package auth

import (
	"context"
	"net/http"

	"github.com/sakif/ssc-portal/internal/model"
)

// contextKey keeps this package's context values private. A plain string key
// could be read or shadowed by any other package.
type contextKey string

const userKey contextKey = "user"

// SessionReader is the part of the session the middleware needs.
type SessionReader interface {
	User() *model.User
	Token() string
}

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

// RequireSession lets a request through only while a session is held, and
// stores the identity in the request context for the page to read.
//
// Browsers get a 303 to the login page. Requests that ask for JSON get a 401
// instead, since a redirect would hand them an HTML form.
func RequireSession(session SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := session.User()
			if user == nil || session.Token() == "" {
				if r.Header.Get("Accept") == "application/json" {
					http.Error(w, `{"error":"unauthorized","message":"login required"}`, http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated sends a visitor who already holds a session away
// from the login page.
func RedirectIfAuthenticated(session SessionReader, to string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && session.User() != nil && session.Token() != "" {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the identity stored by RequireSession, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// RequireRole rejects, with 403, a request whose session user fails allow.
// Mount it inside RequireSession.
func RequireRole(session SessionReader, allow func(*model.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				user = session.User()
			}
			if !allow(user) {
				if r.Header.Get("Accept") == "application/json" {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte(`{"error":"forbidden","message":"admin role required"}`))
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows admins and superadmins.
func RequireAdmin(session SessionReader) func(http.Handler) http.Handler {
	return RequireRole(session, (*model.User).IsAdmin)
}

// RequireSuperAdmin allows superadmins only.
func RequireSuperAdmin(session SessionReader) func(http.Handler) http.Handler {
	return RequireRole(session, (*model.User).IsSuperAdmin)
}
