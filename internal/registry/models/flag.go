package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Flag is an activity checkbox normalized to a boolean at the ingestion
// boundary. HTML forms post "on" for a ticked box and nothing otherwise.
type Flag bool

// ParseFlag reads a multipart form value. "on", "true", "1" and "yes" are
// true regardless of case; anything else is false.
func ParseFlag(v string) Flag {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// UnmarshalJSON accepts JSON booleans as well as the string forms produced
// by older clients ("on"/"off"/"true"/"false").
func (f *Flag) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flag: expected boolean or string, got %s", data)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		*f = true
	case "", "off", "false", "0", "no":
		*f = false
	default:
		return fmt.Errorf("flag: unrecognized value %q", s)
	}
	return nil
}
