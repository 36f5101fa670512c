// Package dates parses the date and datetime forms accepted as query
// operands and stored in date_time columns.
package dates

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// layouts are the accepted absolute formats, most specific first. Values
// without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse parses an absolute date or datetime and returns it in UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("invalid datetime: empty")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Newf("invalid datetime: %q", s)
}

// ParseOperand parses a query operand. Besides the absolute forms it accepts
// "today", "yesterday" and "tomorrow", which resolve to the start of that day
// in UTC relative to now.
func ParseOperand(s string, now time.Time) (time.Time, error) {
	if t, ok := resolveKeyword(s, now); ok {
		return t, nil
	}
	t, err := Parse(s)
	if err != nil {
		return time.Time{}, errors.WithHint(err, "use YYYY-MM-DD, RFC 3339 or today/yesterday/tomorrow")
	}
	return t, nil
}

func resolveKeyword(s string, now time.Time) (time.Time, bool) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}
	return time.Time{}, false
}
