package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a response does not have the expected shape.
var ErrMalformed = errors.New("malformed bridge response")

// Unwrap returns the inner value of a {"value": x} wrapper, or raw unchanged
// when raw is not such a wrapper. A wrapper is any JSON object that has a
// "value" key; sibling keys such as "name" and "type" are ignored.
func Unwrap(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return raw
	}
	if inner, ok := obj["value"]; ok {
		return inner
	}
	return raw
}

// Object unwraps raw and decodes it as a JSON object.
func Object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(Unwrap(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: expected object: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected object, got null", ErrMalformed)
	}
	return obj, nil
}

// Field returns obj[key] with any value wrapper removed.
func Field(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	return Unwrap(raw), true
}

// Payload extracts the unwrapped payload value from a complete response body.
func Payload(body []byte) (json.RawMessage, error) {
	obj, err := Object(body)
	if err != nil {
		return nil, err
	}
	payload, ok := Field(obj, "payload")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	return payload, nil
}

// Embedded returns the JSON document carried by raw. Calibration and quilt
// blobs arrive as JSON text inside a string; newer daemons inline them.
func Embedded(raw json.RawMessage) (json.RawMessage, error) {
	raw = Unwrap(raw)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return json.RawMessage(text), nil
	}
	return trimmed, nil
}

// String decodes a wrapped or bare string. Numbers and booleans are
// rendered with their JSON text.
func String(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(Unwrap(raw))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing string", ErrMalformed)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return s, nil
	}
	if raw[0] == '{' || raw[0] == '[' {
		return "", fmt.Errorf("%w: expected string, got %s", ErrMalformed, kind(raw))
	}
	return string(raw), nil
}

// Float decodes a wrapped or bare number. Numeric strings are accepted.
func Float(raw json.RawMessage) (float64, error) {
	s, err := scalar(raw)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformed, s)
	}
	return f, nil
}

// Int decodes a wrapped or bare integer. Fractional values are truncated.
func Int(raw json.RawMessage) (int, error) {
	s, err := scalar(raw)
	if err != nil {
		return 0, err
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformed, s)
	}
	return int(f), nil
}

// Bool decodes a wrapped or bare boolean. Strings such as "True" and
// numbers are accepted; any nonzero number is true.
func Bool(raw json.RawMessage) (bool, error) {
	s, err := scalar(raw)
	if err != nil {
		return false, err
	}
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return b, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrMalformed, s)
}

// scalar returns the textual form of a string, number or boolean.
func scalar(raw json.RawMessage) (string, error) {
	s, err := String(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func kind(raw []byte) string {
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return "scalar"
	}
}
