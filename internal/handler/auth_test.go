package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/handler"
)

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// redirected asserts a 303 and returns the parsed Location.
func redirected(t *testing.T, rr *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	u, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	return u
}

func TestAuthHandler_Login(t *testing.T) {
	render := newRenderer(t)

	t.Run("success goes to the dashboard", func(t *testing.T) {
		session := &fakeSession{}
		h := handler.NewAuthHandler(session, render, testLogger())

		rr := httptest.NewRecorder()
		h.HandleLogin(rr, postForm("/login", url.Values{"email": {" ada@ssc.org "}, "password": {"pw"}}))

		assert.Equal(t, "/dashboard", redirected(t, rr).Path)
		assert.Equal(t, "ada@ssc.org", session.user.Email.String())
	})

	t.Run("failure re-renders with the API message", func(t *testing.T) {
		session := &fakeSession{loginErr: apperror.RequestFailed(http.StatusUnauthorized, "Invalid credentials", nil)}
		h := handler.NewAuthHandler(session, render, testLogger())

		rr := httptest.NewRecorder()
		h.HandleLogin(rr, postForm("/login", url.Values{"email": {"ada@ssc.org"}, "password": {"nope"}}))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials")
		assert.Contains(t, rr.Body.String(), `value="ada@ssc.org"`)
	})

	t.Run("unreachable API is a bad gateway", func(t *testing.T) {
		session := &fakeSession{loginErr: apperror.RequestFailed(0, "Network Error", nil)}
		h := handler.NewAuthHandler(session, render, testLogger())

		rr := httptest.NewRecorder()
		h.HandleLogin(rr, postForm("/login", url.Values{"email": {"a@x.com"}}))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "Network Error")
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	render := newRenderer(t)

	t.Run("mismatch keeps the form open", func(t *testing.T) {
		session := &fakeSession{changeErr: apperror.ValidationFailed("confirmPassword", "New passwords do not match")}
		h := handler.NewAuthHandler(session, render, testLogger())

		rr := httptest.NewRecorder()
		h.HandleChangePassword(rr, postForm("/login/password", url.Values{
			"email":           {"ada@ssc.org"},
			"oldPassword":     {"old"},
			"newPassword":     {"secret1"},
			"confirmPassword": {"secret2"},
		}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "New passwords do not match")
		assert.Contains(t, body, `<details class="card" open>`)
		assert.Equal(t, "secret2", session.changed.ConfirmPassword)
	})

	t.Run("success lands on the dashboard with a notice", func(t *testing.T) {
		h := handler.NewAuthHandler(&fakeSession{}, render, testLogger())

		rr := httptest.NewRecorder()
		h.HandleChangePassword(rr, postForm("/login/password", url.Values{"email": {"ada@ssc.org"}}))

		u := redirected(t, rr)
		assert.Equal(t, "/dashboard", u.Path)
		assert.Equal(t, "Password updated and session refreshed.", u.Query().Get("notice"))
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	session := &fakeSession{user: admin, token: "tok"}
	h := handler.NewAuthHandler(session, newRenderer(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, postForm("/logout", nil))

	assert.Equal(t, "/login", redirected(t, rr).Path)
	assert.True(t, session.loggedOut)
}

func TestAuthHandler_LoginPagePrefillsEmail(t *testing.T) {
	h := handler.NewAuthHandler(&fakeSession{}, newRenderer(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleLoginPage(rr, httptest.NewRequest(http.MethodGet, "/login?email=bo%40ssc.org", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="bo@ssc.org"`)
	assert.NotContains(t, rr.Body.String(), "Logout", "no nav without a session")
}
