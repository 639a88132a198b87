package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// The methods below map one-to-one onto the REST surface. They return the
// raw parsed body; callers decode it with the model package.

func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/auth/login", CallOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "password": password},
	})
}

func (c *Client) Register(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/auth/register", CallOptions{Method: http.MethodPost, Body: payload})
}

// PasswordChange is the change-password request body.
type PasswordChange struct {
	Email           string `json:"email"`
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (c *Client) ChangePassword(ctx context.Context, payload PasswordChange) (json.RawMessage, error) {
	return c.Call(ctx, "/api/auth/change-password", CallOptions{Method: http.MethodPost, Body: payload})
}

func (c *Client) Me(ctx context.Context, token string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/auth/me", CallOptions{Token: token})
}

// AdminCreateMember creates a login-capable member account.
func (c *Client) AdminCreateMember(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/auth/admin/create-member", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

// Members

func (c *Client) ListMembers(ctx context.Context, token string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/members", CallOptions{Token: token})
}

func (c *Client) CreateMember(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/members/create", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

func (c *Client) UpdateMember(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/members/"+url.PathEscape(id), CallOptions{Method: http.MethodPut, Body: payload, Token: token})
}

func (c *Client) DeleteMember(ctx context.Context, token, id string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/members/"+url.PathEscape(id), CallOptions{Method: http.MethodDelete, Token: token})
}

// Events

func (c *Client) ListEvents(ctx context.Context, token string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/events", CallOptions{Token: token})
}

func (c *Client) GetEvent(ctx context.Context, token, id string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/events/"+url.PathEscape(id), CallOptions{Token: token})
}

func (c *Client) CreateEvent(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/events", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

func (c *Client) UpdateEvent(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/events/"+url.PathEscape(id), CallOptions{Method: http.MethodPut, Body: payload, Token: token})
}

func (c *Client) DeleteEvent(ctx context.Context, token, id string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/events/"+url.PathEscape(id), CallOptions{Method: http.MethodDelete, Token: token})
}

// Daily attendance

func (c *Client) ListDailyAttendance(ctx context.Context, token string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/daily", CallOptions{Token: token})
}

func (c *Client) CreateDailyAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/daily", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

func (c *Client) UpdateDailyAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/daily/"+url.PathEscape(id), CallOptions{Method: http.MethodPut, Body: payload, Token: token})
}

func (c *Client) DeleteDailyAttendance(ctx context.Context, token, id string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/daily/"+url.PathEscape(id), CallOptions{Method: http.MethodDelete, Token: token})
}

// BulkPresent is the bulk-present request body.
type BulkPresent struct {
	Date      string  `json:"date"`
	MemberIDs []int64 `json:"memberIds"`
}

func (c *Client) BulkMarkDailyPresent(ctx context.Context, token string, payload BulkPresent) (json.RawMessage, error) {
	if payload.MemberIDs == nil {
		payload.MemberIDs = []int64{}
	}
	return c.Call(ctx, "/api/attendance/daily/bulk-present", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

// Event attendance

func (c *Client) ListEventAttendance(ctx context.Context, token string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/event", CallOptions{Token: token})
}

func (c *Client) CreateEventAttendance(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/event", CallOptions{Method: http.MethodPost, Body: payload, Token: token})
}

func (c *Client) UpdateEventAttendance(ctx context.Context, token, id string, payload any) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/event/"+url.PathEscape(id), CallOptions{Method: http.MethodPut, Body: payload, Token: token})
}

func (c *Client) DeleteEventAttendance(ctx context.Context, token, id string) (json.RawMessage, error) {
	return c.Call(ctx, "/api/attendance/event/"+url.PathEscape(id), CallOptions{Method: http.MethodDelete, Token: token})
}
