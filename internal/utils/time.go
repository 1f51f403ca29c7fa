package util

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timestamp is a point in time as the MCQ backend writes it: RFC 3339, or an
// ISO 8601 string without a zone, which is read as UTC.
type Timestamp struct {
	time.Time
}

const displayLayout = "02 Jan 2006 15:04"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var (
	locMu           sync.RWMutex
	displayLocation = time.UTC
)

// SetDisplayLocation selects the zone timestamps are shown in.
func SetDisplayLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	locMu.Lock()
	displayLocation = loc
	locMu.Unlock()
	return nil
}

func DisplayLocation() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return displayLocation
}

func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", raw)
}

// FormatTimestamp renders raw in the display zone. Unparseable input is
// returned as is.
func FormatTimestamp(raw string) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return t.In(DisplayLocation()).Format(displayLayout)
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + ts.UTC().Format(time.RFC3339Nano) + `"`), nil
}
