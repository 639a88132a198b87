package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/apperror"
	"github.com/sakif/ssc-portal/internal/model"
)

// MemberInput is the "add member" form.
type MemberInput struct {
	Name     string
	Email    string
	Role     string
	MemberID string
	Password string
	Image    *apiclient.File
}

// MemberUpdate is the member edit form. Every field is sent; MemberID only
// when it is numeric.
type MemberUpdate struct {
	Name      string
	Role      string
	Email     string
	Points    string
	Birthday  string
	Year      string
	Course    string
	Instagram string
	Bio       string
	Branch    string
	Roll      string
	MemberID  string
	Image     *apiclient.File
}

// MemberDirectory owns the in-memory roster.
type MemberDirectory struct {
	api    MembersAPI
	tokens TokenSource
	logger *slog.Logger
	status

	mu      sync.RWMutex
	members []model.Member
}

func NewMemberDirectory(api MembersAPI, tokens TokenSource, logger *slog.Logger) *MemberDirectory {
	return &MemberDirectory{
		api:     api,
		tokens:  tokens,
		logger:  logger,
		members: []model.Member{},
	}
}

// Refresh replaces the snapshot with the server roster. On failure the
// snapshot is emptied and Err carries the message, so an empty list with an
// error reads as "failed", never as "no members".
func (d *MemberDirectory) Refresh(ctx context.Context) error {
	defer d.begin()()
	d.setErr("")

	raw, err := d.api.ListMembers(ctx, d.tokens.Token())
	var members []model.Member
	if err == nil {
		members, err = model.DecodeMembers(raw)
		err = invalidResponse(err)
	}
	if err != nil {
		d.fail(apperror.Message(err, "Failed to fetch members"))
		d.logger.Error("refreshing members", slog.String("error", err.Error()))
		return err
	}

	d.mu.Lock()
	d.members = members
	d.mu.Unlock()
	return nil
}

func (d *MemberDirectory) fail(msg string) {
	d.setErr(msg)
	d.mu.Lock()
	d.members = []model.Member{}
	d.mu.Unlock()
}

// Reset drops the snapshot and the error, as after a logout.
func (d *MemberDirectory) Reset() {
	d.setErr("")
	d.mu.Lock()
	d.members = []model.Member{}
	d.mu.Unlock()
}

// Members returns a copy of the current snapshot.
func (d *MemberDirectory) Members() []model.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Member(nil), d.members...)
}

// FindByID looks a member up by its CRUD key. No network call.
func (d *MemberDirectory) FindByID(id string) (model.Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, m := range d.members {
		if m.Key().Matches(id) {
			return m, true
		}
	}
	return model.Member{}, false
}

// Create validates the form, sends it (multipart when an image is attached)
// and appends the created record. A response without a record appends
// nothing and returns nil.
func (d *MemberDirectory) Create(ctx context.Context, in MemberInput) (*model.Member, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return nil, apperror.ValidationFailed("name", "Name and email are required")
	}
	if strings.TrimSpace(in.MemberID) == "" {
		return nil, apperror.ValidationFailed("memberId", "Member ID is required")
	}
	memberID, ok := model.ParseIdent(in.MemberID).Int()
	if !ok {
		return nil, apperror.ValidationFailed("memberId", "Member ID must be a number")
	}
	if in.Role == "" {
		in.Role = "member"
	}

	defer d.begin()()

	var payload any
	if in.Image != nil {
		form := apiclient.NewForm().
			Set("name", in.Name).
			Set("email", in.Email).
			Set("role", in.Role).
			Set("memberId", strconv.FormatInt(memberID, 10))
		if in.Password != "" {
			form.Set("password", in.Password)
		}
		payload = form.Attach(*in.Image)
	} else {
		body := map[string]any{
			"name":     in.Name,
			"email":    in.Email,
			"role":     in.Role,
			"memberId": memberID,
		}
		if in.Password != "" {
			body["password"] = in.Password
		}
		payload = body
	}

	raw, err := d.api.CreateMember(ctx, d.tokens.Token(), payload)
	if err != nil {
		return nil, err
	}
	created, err := model.DecodeMember(raw)
	err = invalidResponse(err)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, nil
	}

	d.mu.Lock()
	d.members = append(d.members, *created)
	d.mu.Unlock()

	d.logger.Info("member created", slog.String("memberId", created.MemberID.String()))
	return created, nil
}

// Update sends the edit form and merges the response into the matching
// record. The stored image survives when the response omits one. The merged
// record is returned; it is nil when no local record matched.
func (d *MemberDirectory) Update(ctx context.Context, id string, in MemberUpdate) (*model.Member, error) {
	defer d.begin()()

	raw, err := d.api.UpdateMember(ctx, d.tokens.Token(), id, updatePayload(in))
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var merged *model.Member
	for i, m := range d.members {
		if !m.Key().Matches(id) {
			continue
		}
		next, err := m.Merge(raw)
		err = invalidResponse(err)
		if err != nil {
			return nil, err
		}
		d.members[i] = next
		merged = &next
	}
	return merged, nil
}

func updatePayload(in MemberUpdate) any {
	memberID, numeric := model.ParseIdent(in.MemberID).Int()

	if in.Image != nil {
		form := apiclient.NewForm().
			Set("name", in.Name).
			Set("role", in.Role).
			Set("email", in.Email).
			Set("points", in.Points).
			Set("birthday", in.Birthday).
			Set("year", in.Year).
			Set("course", in.Course).
			Set("instagram", in.Instagram).
			Set("bio", in.Bio).
			Set("branch", in.Branch).
			Set("roll", in.Roll)
		if numeric {
			form.Set("memberId", strconv.FormatInt(memberID, 10))
		}
		return form.Attach(*in.Image)
	}

	body := map[string]any{
		"name":      in.Name,
		"role":      in.Role,
		"email":     in.Email,
		"points":    pointsValue(in.Points),
		"birthday":  in.Birthday,
		"year":      in.Year,
		"course":    in.Course,
		"instagram": in.Instagram,
		"bio":       in.Bio,
		"branch":    in.Branch,
		"roll":      in.Roll,
	}
	if numeric {
		body["memberId"] = memberID
	}
	return body
}

// pointsValue sends numeric points as a number and anything else verbatim.
func pointsValue(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if s == "" {
		return 0
	}
	return s
}

// Delete removes the member on the server, then locally.
func (d *MemberDirectory) Delete(ctx context.Context, id string) error {
	defer d.begin()()

	if _, err := d.api.DeleteMember(ctx, d.tokens.Token(), id); err != nil {
		return err
	}

	d.mu.Lock()
	kept := d.members[:0:0]
	for _, m := range d.members {
		if !m.Key().Matches(id) {
			kept = append(kept, m)
		}
	}
	d.members = kept
	d.mu.Unlock()
	return nil
}
