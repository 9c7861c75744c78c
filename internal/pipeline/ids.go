package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the ISO-8601 form used for submitted_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clock supplies the submission time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// IDSource assigns record ids.
type IDSource interface {
	NextID(now time.Time) string
}

// MillisIDs issues exp_<unix-millis> ids. Two ids requested within the same
// millisecond, or with a clock that moved backwards, get consecutive values.
type MillisIDs struct {
	mu   sync.Mutex
	last int64
}

// NewMillisIDs returns an id source that never issues an id at or below floor.
func NewMillisIDs(floor int64) *MillisIDs {
	return &MillisIDs{last: floor}
}

func (m *MillisIDs) NextID(now time.Time) string {
	ms := now.UnixMilli()

	m.mu.Lock()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	m.mu.Unlock()

	return fmt.Sprintf("exp_%d", ms)
}

// ParseMillisID returns the millisecond value of an exp_<unix-millis> id.
func ParseMillisID(id string) (int64, bool) {
	digits, ok := strings.CutPrefix(id, "exp_")
	if !ok || digits == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || ms < 0 {
		return 0, false
	}
	return ms, true
}

// MaxMillisID returns the highest exp_ value among ids, or 0 when none parse.
func MaxMillisID(ids []string) int64 {
	var floor int64
	for _, id := range ids {
		if ms, ok := ParseMillisID(id); ok && ms > floor {
			floor = ms
		}
	}
	return floor
}
