package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTimezone is the deployment zone used when none is configured.
const DefaultTimezone = "Asia/Kolkata"

// LocalClock resolves wall-clock values in the single fixed zone the whole
// scheduling model runs in. Date keys and HH:MM comparisons are only
// meaningful inside this zone, never in UTC.
type LocalClock struct {
	loc *time.Location
}

// New loads the given IANA timezone. An empty name falls back to
// DefaultTimezone.
func New(timezone string) (*LocalClock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &LocalClock{loc: loc}, nil
}

// NewFixed builds a clock for an already-resolved location. Used by tests.
func NewFixed(loc *time.Location) *LocalClock {
	return &LocalClock{loc: loc}
}

// Now returns the current instant expressed in the deployment zone.
func (c *LocalClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// DateKey formats t as the YYYY-MM-DD calendar-day key in the deployment zone.
func (c *LocalClock) DateKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// HHMM formats t as a 24h "15:04" string in the deployment zone.
func (c *LocalClock) HHMM(t time.Time) string {
	return t.In(c.loc).Format("15:04")
}

// MinutesFromMidnight converts an "HH:MM" string to minutes since local
// midnight. Returns -1 for an empty or malformed value so callers can treat
// "not configured" and "unparseable" alike.
func MinutesFromMidnight(hhmm string) int {
	if hhmm == "" {
		return -1
	}
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return -1
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}
