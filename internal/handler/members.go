package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/model"
	"github.com/sakif/ssc-portal/internal/projection"
	"github.com/sakif/ssc-portal/internal/service"
)

// maxUploadSize caps a member form including the profile image.
const maxUploadSize = 10 << 20

// MemberHandler serves the member list and the member profile.
type MemberHandler struct {
	members Members
	render  *Renderer
	logger  *slog.Logger
}

func NewMemberHandler(members Members, render *Renderer, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, render: render, logger: logger}
}

type membersView struct {
	Members []model.Member
	Query   string
	Sort    string
	Loading bool
	Err     string
}

// HandleList serves GET /members?q=&sort=. The roster is refreshed on every
// visit; a failed refresh shows its message above an empty list.
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.members.Refresh(r.Context())

	query := r.URL.Query().Get("q")
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = projection.SortMembersByName
	}

	h.render.Render(w, r, http.StatusOK, "members", Page{
		Title:  "Members",
		Active: "members",
		Data: membersView{
			Members: projection.SearchMembers(h.members.Members(), query, sortBy),
			Query:   query,
			Sort:    sortBy,
			Loading: h.members.Loading(),
			Err:     h.members.Err(),
		},
	})
}

// HandleCreate serves POST /members (admin only). The form is multipart so
// it can carry the optional "img" file.
func (h *MemberHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	image, cleanup, err := formImage(r)
	if err != nil {
		done(w, r, "/members", err, "")
		return
	}
	defer cleanup()

	created, err := h.members.Create(r.Context(), service.MemberInput{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Role:     strings.TrimSpace(r.FormValue("role")),
		MemberID: strings.TrimSpace(r.FormValue("memberId")),
		Password: r.FormValue("password"),
		Image:    image,
	})
	if err != nil {
		done(w, r, "/members", err, "")
		return
	}

	notice := "Member created"
	if created == nil {
		notice = "Member submitted; refresh to see it"
	}
	done(w, r, "/members", nil, notice)
}

type memberView struct {
	Member  model.Member
	CanEdit bool
	Editing bool
}

// HandleShow serves GET /members/{id}. A member missing from the snapshot
// triggers one refresh before the page gives up.
func (h *MemberHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	member, ok := h.members.FindByID(id)
	if !ok {
		h.members.Refresh(r.Context())
		member, ok = h.members.FindByID(id)
	}
	if !ok {
		msg := "Member not found"
		if e := h.members.Err(); e != "" {
			msg = e
		}
		h.render.NotFound(w, r, "members", msg)
		return
	}

	h.render.Render(w, r, http.StatusOK, "member", Page{
		Title:  member.Name.String(),
		Active: "members",
		Data: memberView{
			Member:  member,
			CanEdit: canEditMember(auth.UserFromContext(r.Context()), member),
			Editing: r.URL.Query().Get("edit") == "1",
		},
	})
}

// HandleUpdate serves POST /members/{id}. Admins may edit anyone; a member
// may edit their own profile.
func (h *MemberHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/members/" + id

	member, ok := h.members.FindByID(id)
	if !ok {
		h.render.NotFound(w, r, "members", "Member not found")
		return
	}
	if !canEditMember(auth.UserFromContext(r.Context()), member) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	image, cleanup, err := formImage(r)
	if err != nil {
		done(w, r, back, err, "")
		return
	}
	defer cleanup()

	_, err = h.members.Update(r.Context(), id, service.MemberUpdate{
		Name:      strings.TrimSpace(r.FormValue("name")),
		Role:      strings.TrimSpace(r.FormValue("role")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Points:    strings.TrimSpace(r.FormValue("points")),
		Birthday:  strings.TrimSpace(r.FormValue("birthday")),
		Year:      strings.TrimSpace(r.FormValue("year")),
		Course:    strings.TrimSpace(r.FormValue("course")),
		Instagram: strings.TrimSpace(r.FormValue("instagram")),
		Bio:       r.FormValue("bio"),
		Branch:    strings.TrimSpace(r.FormValue("branch")),
		Roll:      strings.TrimSpace(r.FormValue("roll")),
		MemberID:  strings.TrimSpace(r.FormValue("memberId")),
		Image:     image,
	})
	if err != nil {
		h.logger.Warn("member update failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		done(w, r, back, err, "")
		return
	}
	done(w, r, back, nil, "Member updated")
}

// HandleDelete serves POST /members/{id}/delete (admin only).
func (h *MemberHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.members.Delete(r.Context(), id); err != nil {
		done(w, r, "/members", err, "")
		return
	}
	redirectWith(w, r, "/members", "notice", "Member deleted")
}

func canEditMember(user *model.User, m model.Member) bool {
	if user.IsAdmin() {
		return true
	}
	return user != nil && !user.ID.IsZero() && user.ID.Equal(m.ID)
}

// formImage parses a multipart form and returns its "img" part, or nil when
// the form has none. cleanup closes the upload and removes temporary files.
func formImage(r *http.Request) (*apiclient.File, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, noop, nil
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, noop, apperror.ValidationFailed("img", "Upload is too large or malformed")
	}
	removeAll := func() { r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("img")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, removeAll, nil
		}
		return nil, removeAll, apperror.ValidationFailed("img", "Could not read the uploaded image")
	}
	cleanup := func() {
		file.Close()
		removeAll()
	}
	if header.Size == 0 {
		return nil, cleanup, nil
	}
	return &apiclient.File{Field: "img", Filename: header.Filename, Content: file}, cleanup, nil
}
