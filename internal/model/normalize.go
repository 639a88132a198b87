package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// isEmpty reports whether a response carried no usable JSON value.
func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// unwrapObject returns raw[key] when raw is an object holding a non-null key,
// otherwise raw itself. It accepts both {"member": {...}} and a bare {...}.
func unwrapObject(raw json.RawMessage, key string) json.RawMessage {
	if isEmpty(raw) {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] != '{' {
		return trimmed
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return trimmed
	}
	if inner, ok := fields[key]; ok && !isEmpty(inner) && !isFalsy(inner) {
		return inner
	}
	return trimmed
}

// unwrapList returns the array found either bare or under key.
// Any other shape is an empty list, never an error.
func unwrapList(raw json.RawMessage, key string) json.RawMessage {
	if isEmpty(raw) {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '[':
		return trimmed
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil
		}
		inner := bytes.TrimSpace(fields[key])
		if len(inner) > 0 && inner[0] == '[' {
			return inner
		}
	}
	return nil
}

// isFalsy mirrors the wire values a client would treat as "no record".
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "false", "0", `""`:
		return true
	}
	return false
}

// decodeOne unwraps and decodes a single record. A missing record is (nil, nil).
func decodeOne[T any](raw json.RawMessage, key string) (*T, error) {
	inner := unwrapObject(raw, key)
	if inner == nil {
		return nil, nil
	}
	if inner[0] != '{' {
		return nil, fmt.Errorf("model: expected %s object, got %.20s", key, string(inner))
	}
	var v T
	if err := json.Unmarshal(inner, &v); err != nil {
		return nil, fmt.Errorf("model: decoding %s: %w", key, err)
	}
	return &v, nil
}

// decodeMany unwraps and decodes a list. Null entries are skipped.
func decodeMany[T any](raw json.RawMessage, key string) ([]T, error) {
	inner := unwrapList(raw, key)
	if inner == nil {
		return []T{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("model: decoding %s list: %w", key, err)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		if isEmpty(item) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("model: decoding %s[%d]: %w", key, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// overlay decodes the fields present in raw onto a copy of base.
// Absent fields keep their old values, the same way an object spread would.
func overlay[T any](base T, raw json.RawMessage, key string) (T, error) {
	inner := unwrapObject(raw, key)
	if inner == nil || inner[0] != '{' {
		return base, nil
	}
	merged := base
	if err := json.Unmarshal(inner, &merged); err != nil {
		return base, fmt.Errorf("model: merging %s: %w", key, err)
	}
	return merged, nil
}
