package model

import "encoding/json"

// Member is one entry of the society roster.
//
// ID addresses the record for CRUD calls. MemberID is the numeric handle
// that attendance and event records point at.
type Member struct {
	ID        Ident `json:"id"`
	MemberID  Ident `json:"memberId"`
	Name      Text  `json:"name"`
	Role      Text  `json:"role"`
	Email     Text  `json:"email"`
	Points    Int   `json:"points"`
	Birthday  Text  `json:"birthday"`
	Year      Text  `json:"year"`
	Course    Text  `json:"course"`
	Branch    Text  `json:"branch"`
	Roll      Text  `json:"roll"`
	Instagram Text  `json:"instagram"`
	Bio       Text  `json:"bio"`
	Img       Text  `json:"img"`
	CreatedAt Text  `json:"createdAt"`
}

func (m *Member) UnmarshalJSON(b []byte) error {
	type plain Member
	aux := struct {
		*plain
		MongoID Ident `json:"_id"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if m.ID.IsZero() {
		m.ID = aux.MongoID
	}
	return nil
}

// Key is the identifier used to address the member in CRUD calls.
func (m Member) Key() Ident {
	if !m.ID.IsZero() {
		return m.ID
	}
	return m.MemberID
}

// JoinKey is the identifier attendance records reference.
func (m Member) JoinKey() Ident {
	if !m.MemberID.IsZero() {
		return m.MemberID
	}
	return m.ID
}

// Merge overlays an update response onto m. The image URL is kept when the
// response leaves it out or blanks it.
func (m Member) Merge(raw json.RawMessage) (Member, error) {
	merged, err := overlay(m, raw, "member")
	if err != nil {
		return m, err
	}
	if merged.Img == "" {
		merged.Img = m.Img
	}
	return merged, nil
}

// DecodeMember accepts {"member": {...}} or a bare member object.
func DecodeMember(raw json.RawMessage) (*Member, error) {
	return decodeOne[Member](raw, "member")
}

// DecodeMembers accepts a bare array or {"members": [...]}.
func DecodeMembers(raw json.RawMessage) ([]Member, error) {
	return decodeMany[Member](raw, "members")
}
