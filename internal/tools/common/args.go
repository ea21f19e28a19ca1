package common

import (
	"math"
	"strings"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// RequiredString returns a non-empty string argument.
func RequiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", &ticktick.ValidationError{Field: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ticktick.ValidationError{Field: key, Reason: "must be a string"}
	}
	if strings.TrimSpace(s) == "" {
		return "", &ticktick.ValidationError{Field: key}
	}
	return s, nil
}

// OptionalString returns nil when the argument is absent.
func OptionalString(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &ticktick.ValidationError{Field: key, Reason: "must be a string"}
	}
	return &s, nil
}

// StringOr returns the string argument or def when it is absent or empty.
func StringOr(args map[string]any, key, def string) (string, error) {
	s, err := OptionalString(args, key)
	if err != nil {
		return "", err
	}
	if s == nil || *s == "" {
		return def, nil
	}
	return *s, nil
}

// OptionalInt returns nil when the argument is absent. JSON numbers arrive
// as float64 and must be integral.
func OptionalInt(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, &ticktick.ValidationError{Field: key, Reason: "must be an integer"}
		}
		n = int(x)
	case int:
		n = x
	case int64:
		n = int(x)
	default:
		return nil, &ticktick.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return &n, nil
}

// OptionalBool returns nil when the argument is absent.
func OptionalBool(args map[string]any, key string) (*bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, &ticktick.ValidationError{Field: key, Reason: "must be a boolean"}
	}
	return &b, nil
}

// OptionalStringSlice accepts an array of strings or a comma separated
// string. Blank and repeated entries are dropped, keeping first-seen order.
// It returns nil when the argument is absent.
func OptionalStringSlice(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	var raw []string
	switch x := v.(type) {
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, &ticktick.ValidationError{Field: key, Reason: "must contain only strings"}
			}
			raw = append(raw, s)
		}
	case string:
		raw = strings.Split(x, ",")
	default:
		return nil, &ticktick.ValidationError{Field: key, Reason: "must be an array of strings"}
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
