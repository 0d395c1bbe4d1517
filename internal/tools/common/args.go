package common

import (
	"fmt"
	"math"
)

// RequiredString extracts a required string argument from the tool arguments.
func RequiredString(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

// OptionalString extracts an optional string argument. The second return
// value reports whether a non-empty value was present.
func OptionalString(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// OptionalBool extracts an optional boolean argument.
func OptionalBool(args map[string]any, key string) (bool, bool) {
	value, ok := args[key].(bool)
	return value, ok
}

// OptionalInt extracts an optional integer argument. JSON numbers arrive
// as float64, so both representations are accepted; a fractional value is
// rejected rather than truncated.
func OptionalInt(args map[string]any, key string) (int, bool, error) {
	switch v := args[key].(type) {
	case int:
		return v, true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), true, nil
	default:
		return 0, false, nil
	}
}
