// Package filter selects the records an export operates on.
package filter

import (
	"strings"
	"time"
)

// ActivityAll disables the activity criterion, as does the empty string.
const ActivityAll = "all"

// DateLayout is the accepted format of Criteria.Date.
const DateLayout = "2006-01-02"

// Record is what the filter needs to know about a registration sheet.
type Record interface {
	DisplayName() string
	AssociationName() string
	Category() string
	RegisteredOn() time.Time
	// Activity reports whether the flag is set and whether the key exists.
	Activity(key string) (set bool, known bool)
}

// Criteria is a conjunction of optional conditions. Zero values match all.
type Criteria struct {
	Name        string
	Association string
	Date        string
	Activity    string
	Category    string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.normalized() == Criteria{}
}

func (c Criteria) normalized() Criteria {
	c.Name = strings.TrimSpace(c.Name)
	c.Association = strings.TrimSpace(c.Association)
	c.Date = strings.TrimSpace(c.Date)
	c.Activity = strings.TrimSpace(c.Activity)
	if c.Activity == ActivityAll {
		c.Activity = ""
	}
	c.Category = strings.TrimSpace(c.Category)
	if c.Category == ActivityAll {
		c.Category = ""
	}
	return c
}

// Apply returns the records satisfying every criterion, in input order.
// The input slice is not modified.
func Apply[T Record](records []T, c Criteria) []T {
	c = c.normalized()
	out := make([]T, 0, len(records))
	for _, r := range records {
		if Match(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// Match evaluates a single record.
func Match(r Record, c Criteria) bool {
	c = c.normalized()
	if c.Name != "" && !containsFold(r.DisplayName(), c.Name) {
		return false
	}
	if c.Association != "" && !containsFold(r.AssociationName(), c.Association) {
		return false
	}
	if c.Date != "" && r.RegisteredOn().UTC().Format(DateLayout) != c.Date {
		return false
	}
	if c.Activity != "" {
		if set, known := r.Activity(c.Activity); !known || !set {
			return false
		}
	}
	if c.Category != "" && r.Category() != c.Category {
		return false
	}
	return true
}

// ValidDate reports whether s is empty or a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
