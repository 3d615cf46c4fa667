// Package connector holds helpers shared by the slotfeed connector
// implementations. The connectors themselves live in the subpackages:
// local, httpindex, s3 and sftp.
package connector

import (
	"regexp"
	"time"
)

// Defaults for slot timestamps embedded in names: an ISO date anywhere in
// the name, as in transactions-2024-03-01.csv.gz.
const (
	DefaultTimePattern = `\d{4}-\d{2}-\d{2}`
	DefaultTimeLayout  = "2006-01-02"
)

// NameTimer derives a slot timestamp from a slot name: the first match of
// a regular expression, parsed with a time layout. Every bundled connector
// uses one, so feeds that date their files by name need no configuration
// beyond the defaults.
type NameTimer struct {
	re     *regexp.Regexp
	layout string
}

// NewNameTimer compiles a NameTimer. Empty arguments select the defaults.
func NewNameTimer(pattern, layout string) (*NameTimer, error) {
	if pattern == "" {
		pattern = DefaultTimePattern
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &NameTimer{re: re, layout: layout}, nil
}

// Time extracts the timestamp embedded in name. ok is false when the name
// carries no parseable timestamp; callers fall back to metadata like file
// modification times.
func (n *NameTimer) Time(name string) (t time.Time, ok bool) {
	m := n.re.FindString(name)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(n.layout, m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
