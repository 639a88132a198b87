// Package model defines the canonical in-memory shape of every record the
// portal receives from the SSC API.
//
// THE NORMALIZATION BOUNDARY:
// The API is loose about shapes. Identifiers arrive as numbers or strings,
// records have "id" or "_id", and responses are either bare or wrapped under
// a named key ({"members": [...]}). Everything in this package exists so that
// code above it never has to care: one Decode function per entity maps
// "whatever the wire sent" into a single struct, and it is called right after
// every network response.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Ident is an identifier that may travel as a JSON number or a JSON string.
//
// When the text parses as an integer the Ident is numeric and joins compare
// by value ("7" and 7 are the same member). Anything else is kept verbatim,
// never dropped, so a Mongo-style "_id" survives a round trip.
type Ident struct {
	raw     string
	num     int64
	numeric bool
}

// ParseIdent builds an Ident from user or wire text. Empty text is the zero Ident.
func ParseIdent(s string) Ident {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ident{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Ident{raw: s, num: n, numeric: true}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return Ident{raw: s, num: int64(f), numeric: true}
	}
	return Ident{raw: s}
}

// IntIdent returns a numeric Ident.
func IntIdent(n int64) Ident {
	return Ident{raw: strconv.FormatInt(n, 10), num: n, numeric: true}
}

// IsZero reports whether the identifier is absent.
func (id Ident) IsZero() bool {
	return id.raw == "" && !id.numeric
}

// Int returns the numeric value and whether the identifier is numeric.
func (id Ident) Int() (int64, bool) {
	return id.num, id.numeric
}

// String renders numeric identifiers canonically ("07" becomes "7").
func (id Ident) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.raw
}

// Equal compares two present identifiers by their canonical text.
func (id Ident) Equal(other Ident) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	return id.String() == other.String()
}

// Matches compares the identifier with raw text from a URL or a form.
func (id Ident) Matches(s string) bool {
	return id.Equal(ParseIdent(s))
}

func (id Ident) MarshalJSON() ([]byte, error) {
	switch {
	case id.numeric:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case id.raw == "":
		return []byte("null"), nil
	default:
		return json.Marshal(id.raw)
	}
}

func (id *Ident) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = Ident{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ParseIdent(s)
	default:
		*id = ParseIdent(string(b))
	}
	return nil
}

// Text is a string field that tolerates numbers and booleans on the wire
// ("year": 2 and "year": "2" both decode to "2").
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{' || b[0] == '[':
		// Nested structures are not text; leave the field empty.
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

// String returns the underlying text.
func (t Text) String() string {
	return string(t)
}

// Int is an integer field that tolerates numeric strings and fractions.
// Unparseable input decodes to 0, matching how the pages treat missing points.
type Int int64

func (n *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*n = Int(parseLooseInt(s))
	return nil
}

func parseLooseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(f) < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

// Bool is a flag field that tolerates "true"/"false", 1/0 and their quoted
// forms. Anything else, null included, decodes to false.
type Bool bool

func (v *Bool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		*v = true
	default:
		*v = false
	}
	return nil
}
