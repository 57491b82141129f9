package jira

import (
	"fmt"
	"time"
)

// jqlTimeLayout is the literal format Jira's JQL parser accepts for
// timestamp comparisons. Minute precision: combined with ">=" this can
// only re-deliver issues, never skip them.
const jqlTimeLayout = "2006-01-02 15:04"

// ParseTimestamp parses Jira's timestamp format into a time.Time.
// Jira uses ISO 8601 with timezone: 2024-01-15T10:30:00.000+0000 or
// 2024-01-15T10:30:00.000Z, depending on deployment.
func ParseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	formats := []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", ts)
}

// FormatJQLTime renders t as a quoted JQL timestamp literal, in UTC.
//
// Jira evaluates bare JQL timestamp literals in the API account's
// configured timezone, so the account used for syncing must have its
// profile timezone set to UTC. With a non-UTC account the comparison
// window shifts by the account's offset, which can skip issues rather
// than merely re-deliver them.
func FormatJQLTime(t time.Time) string {
	return fmt.Sprintf("%q", t.UTC().Format(jqlTimeLayout))
}
