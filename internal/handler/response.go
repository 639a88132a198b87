package handler

// RESPONSE HELPERS:
// Pages answer a form post in one of two ways:
//   - redirect back to the page that sent it, with ?notice=... or ?error=...
//   - re-render the same page with the error inline (login, change password)
//
// The message shown is always apperror.Message(err), never err.Error() of
// an unknown error, so transport details never reach the browser.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/ssc-portal/internal/apperror"
)

// ErrorResponse is the JSON error shape of the few JSON endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends data as JSON with status. Headers go out before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a store error to the status of the re-rendered page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrRequest):
		if s := apperror.StatusOf(err); s >= 400 && s < 500 {
			return s
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// localPath returns next when it is a path on this site, else fallback.
// "//host" and "/\host" are rejected because browsers treat them as
// another origin.
func localPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// redirectWith sends a 303 to target with one query message added.
func redirectWith(w http.ResponseWriter, r *http.Request, target, key, msg string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: target}
	}
	if msg != "" {
		q := u.Query()
		q.Set(key, msg)
		u.RawQuery = q.Encode()
	}
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// done redirects to the form's "next" field (or fallback) with a notice,
// or with the error message when err is set.
func done(w http.ResponseWriter, r *http.Request, fallback string, err error, notice string) {
	target := localPath(r.FormValue("next"), fallback)
	if err != nil {
		redirectWith(w, r, target, "error", apperror.Message(err, "Request failed"))
		return
	}
	redirectWith(w, r, target, "notice", notice)
}
