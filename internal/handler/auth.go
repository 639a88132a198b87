package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/service"
)

// AuthHandler serves the login page, which also carries the change-password
// form, and the logout action.
type AuthHandler struct {
	session Session
	render  *Renderer
	logger  *slog.Logger
}

func NewAuthHandler(session Session, render *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{session: session, render: render, logger: logger}
}

// loginView backs templates/login.html. The two forms keep separate errors
// so a failed password change does not show up under the login form.
type loginView struct {
	Email        string
	ChangeEmail  string
	ShowChange   bool
	ChangeError  string
	ChangeNotice string
}

// HandleLoginPage serves GET /login.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "login", Page{
		Title: "Login",
		Data:  loginView{Email: r.URL.Query().Get("email")},
	})
}

// HandleLogin serves POST /login. Success goes to the dashboard; failure
// re-renders the form with the message.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if err := h.session.Login(r.Context(), email, password); err != nil {
		h.logger.Info("login rejected",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		h.render.Render(w, r, statusFor(err), "login", Page{
			Title: "Login",
			Error: apperror.Message(err, "Invalid credentials"),
			Data:  loginView{Email: email},
		})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleChangePassword serves POST /login/password. The API issues a fresh
// session for the new password, so success lands on the dashboard as well.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	in := service.PasswordChangeInput{
		Email:           strings.TrimSpace(r.FormValue("email")),
		OldPassword:     r.FormValue("oldPassword"),
		NewPassword:     r.FormValue("newPassword"),
		ConfirmPassword: r.FormValue("confirmPassword"),
	}

	if err := h.session.ChangePassword(r.Context(), in); err != nil {
		h.render.Render(w, r, statusFor(err), "login", Page{
			Title: "Login",
			Data: loginView{
				ChangeEmail: in.Email,
				ShowChange:  true,
				ChangeError: apperror.Message(err, "Password change failed"),
			},
		})
		return
	}

	redirectWith(w, r, "/dashboard", "notice", "Password updated and session refreshed.")
}

// HandleLogout serves POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
