package model

import (
	"bytes"
	"encoding/json"
)

// User is the authenticated identity. The API owns its shape, so the raw
// record is kept next to the few fields the portal reads and is what gets
// persisted.
type User struct {
	ID       Ident `json:"id"`
	MemberID Ident `json:"memberId"`
	Name     Text  `json:"name"`
	Email    Text  `json:"email"`
	Role     Text  `json:"role"`

	raw json.RawMessage
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		MongoID Ident `json:"_id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if u.ID.IsZero() {
		u.ID = aux.MongoID
	}
	u.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

// MarshalJSON writes back the record exactly as the server sent it.
func (u User) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}
	type plain User
	return json.Marshal(plain(u))
}

// IsAdmin reports whether the user may see administrative actions.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == "admin" || u.Role == "superadmin"
}

// IsSuperAdmin gates the destructive attendance actions.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == "superadmin"
}

// DecodeUser accepts {"user": {...}} or a bare identity object.
func DecodeUser(raw json.RawMessage) (*User, error) {
	return decodeOne[User](raw, "user")
}

// AuthResponse is the body returned by login, register and change-password.
type AuthResponse struct {
	Token Text            `json:"token"`
	User  json.RawMessage `json:"user"`
}

// DecodeAuthResponse reads the token and the identity out of an auth body.
// A missing user decodes to nil; a missing token is left for the caller.
func DecodeAuthResponse(raw json.RawMessage) (string, *User, error) {
	if isEmpty(raw) {
		return "", nil, nil
	}
	var res AuthResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", nil, nil
	}
	if isEmpty(res.User) || isFalsy(res.User) {
		return res.Token.String(), nil, nil
	}
	var u User
	if err := json.Unmarshal(res.User, &u); err != nil {
		return "", nil, err
	}
	return res.Token.String(), &u, nil
}
