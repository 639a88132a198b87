package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ssc-portal/internal/config"
	sqliteRepo "github.com/sakif/ssc-portal/internal/repository/sqlite"
)

// newSSCAPI stands in for the SSC API. Logins succeed as a user with role.
func newSSCAPI(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"token": "tok", "user": {"id": "u1", "memberId": 7, "name": "Ada", "email": "ada@ssc.org", "role": "`+role+`"}}`)
	})
	mux.HandleFunc("GET /api/members", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": "u1", "memberId": 7, "name": "Ada", "role": "`+role+`", "points": 30}]`)
	})
	for _, path := range []string{"/api/events", "/api/attendance/daily", "/api/attendance/event"} {
		mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `[]`)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPortal(t *testing.T, role string) (*Server, *httptest.Server) {
	t.Helper()
	api := newSSCAPI(t, role)

	store, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{
		APIBaseURL:     api.URL,
		APITimeout:     5 * time.Second,
		SessionBackend: config.BackendSQLite,
		CSRFKey:        []byte(strings.Repeat("k", 32)),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := NewWithStore(cfg, store, logger)
	require.NoError(t, err)

	portal := httptest.NewServer(s.Handler())
	t.Cleanup(portal.Close)
	return s, portal
}

// browser keeps cookies and does not follow redirects.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

var csrfField = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// login fetches the login page for its token and signs in.
func login(t *testing.T, c *http.Client, portal string) string {
	t.Helper()
	_, page := get(t, c, portal+"/login")
	m := csrfField.FindStringSubmatch(page)
	require.Len(t, m, 2, "login page carries a CSRF token")
	token := m[1]

	resp, err := c.PostForm(portal+"/login", url.Values{
		"gorilla.csrf.Token": {token},
		"email":              {"ada@ssc.org"},
		"password":           {"pw"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
	return token
}

func TestServer_PublicRoutes(t *testing.T) {
	_, portal := newTestPortal(t, "member")
	c := browser(t)

	t.Run("healthz", func(t *testing.T) {
		resp, body := get(t, c, portal.URL+"/healthz")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"session":"unknown"`)
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, body := get(t, c, portal.URL+"/metrics")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "go_goroutines")
	})

	t.Run("pages need a session", func(t *testing.T) {
		resp, _ := get(t, c, portal.URL+"/members")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("unknown paths go to the dashboard", func(t *testing.T) {
		resp, _ := get(t, c, portal.URL+"/no/such/page")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	})

	t.Run("posts without a CSRF token are rejected", func(t *testing.T) {
		resp, err := c.PostForm(portal.URL+"/login", url.Values{"email": {"ada@ssc.org"}, "password": {"pw"}})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestServer_LoginFlow(t *testing.T) {
	s, portal := newTestPortal(t, "admin")
	c := browser(t)

	login(t, c, portal.URL)
	require.NotNil(t, s.Session().User())

	resp, body := get(t, c, portal.URL+"/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, Ada")
	assert.Contains(t, body, "Total members")

	resp, body = get(t, c, portal.URL+"/members")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Add member")

	resp, _ = get(t, c, portal.URL+"/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "a held session skips the login page")

	_, page := get(t, c, portal.URL+"/dashboard")
	token := csrfField.FindStringSubmatch(page)[1]
	resp, err := c.PostForm(portal.URL+"/logout", url.Values{"gorilla.csrf.Token": {token}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Nil(t, s.Session().User())
}

func TestServer_AdminRoutesRejectMembers(t *testing.T) {
	_, portal := newTestPortal(t, "member")
	c := browser(t)
	login(t, c, portal.URL)

	_, page := get(t, c, portal.URL+"/members")
	token := csrfField.FindStringSubmatch(page)[1]

	resp, err := c.PostForm(portal.URL+"/attendance/roll-call", url.Values{
		"gorilla.csrf.Token": {token},
		"date":               {"2024-03-01"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
