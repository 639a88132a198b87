package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
)

// SecurityHeaders sets the headers every page response carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	Key            []byte // 32 bytes
	Secure         bool   // cookie over HTTPS only
	TrustedOrigins []string
}

// CSRF protects every unsafe form post with a gorilla/csrf token. Requests
// that send JSON bodies are exempt; the portal has none that change state.
//
// gorilla/csrf assumes HTTPS and checks the Referer of every post. When
// Secure is off the portal runs over plain HTTP, so that check is disabled
// with PlaintextHTTPRequest.
func CSRF(opts CSRFOptions) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		opts.Key,
		csrf.Secure(opts.Secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(opts.TrustedOrigins),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if !opts.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}
