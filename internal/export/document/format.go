package document

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Locale carries every user-visible literal of a rendered sheet.
type Locale struct {
	Yes        string
	No         string
	NA         string
	DateLayout string
	// Generated formats the footer timestamp.
	Generated string
}

// French is the only locale the authority issues documents in.
var French = Locale{
	Yes:        "Oui",
	No:         "Non",
	NA:         "N/A",
	DateLayout: "02/01/2006",
	Generated:  "02/01/2006 à 15:04",
}

var dateInputLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// FormatValue renders a field value for display. Booleans and the legacy
// "on"/"off" strings become Yes/No, empty values become NA, and keys
// starting with "date" are printed as a calendar date when they parse.
func FormatValue(key string, v any, loc Locale) string {
	switch val := v.(type) {
	case nil:
		return loc.NA
	case bool:
		if val {
			return loc.Yes
		}
		return loc.No
	case *string:
		if val == nil {
			return loc.NA
		}
		return FormatValue(key, *val, loc)
	case time.Time:
		if val.IsZero() {
			return loc.NA
		}
		return val.UTC().Format(loc.DateLayout)
	case *time.Time:
		if val == nil {
			return loc.NA
		}
		return FormatValue(key, *val, loc)
	case string:
		return formatString(key, val, loc)
	case fmt.Stringer:
		return formatString(key, val.String(), loc)
	default:
		return fmt.Sprint(v)
	}
}

func formatString(key, s string, loc Locale) string {
	switch s {
	case "":
		return loc.NA
	case "on":
		return loc.Yes
	case "off":
		return loc.No
	}
	if strings.HasPrefix(key, "date") {
		if d, ok := parseDate(s); ok {
			return d.Format(loc.DateLayout)
		}
	}
	return s
}

// parseDate keeps only the calendar date written in s. An offset never
// moves the day: "2024-03-05T00:00:00+02:00" is the 5th, like "2024-03-05".
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// FormatKey turns a camelCase key into a label: "nomPrenom" → "Nom Prenom".
func FormatKey(key string) string {
	var words []string
	var cur []rune
	for _, r := range key {
		if unicode.IsUpper(r) && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
