package handler

import (
	"net/http"
)

// Pinger is a backing store that can report whether it is reachable.
type Pinger interface {
	Ping() error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	session    Session
	store      Pinger
	apiBaseURL string
}

func NewHealthHandler(session Session, store Pinger, apiBaseURL string) *HealthHandler {
	return &HealthHandler{session: session, store: store, apiBaseURL: apiBaseURL}
}

type healthResponse struct {
	Status     string `json:"status"`
	Session    string `json:"session"`
	Store      string `json:"store"`
	APIBaseURL string `json:"apiBaseUrl"`
}

// HandleHealth reports the session state and whether the session store
// answers. An unreachable store is a 503, since logins could not persist.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Session:    h.session.State().String(),
		Store:      "ok",
		APIBaseURL: h.apiBaseURL,
	}
	status := http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Store = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
