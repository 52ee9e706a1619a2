package valueobject

import (
	"errors"
	"time"
)

// TimeRange represents a query window over capture times (Value Object)
// Immutable once constructed
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange creates a new TimeRange with validation
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("start and end times cannot be zero")
	}

	if start.After(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}

	return TimeRange{
		start: start.UTC(),
		end:   end.UTC(),
	}, nil
}

// NewTimeRangeFromDuration creates a TimeRange ending now and starting duration ago
func NewTimeRangeFromDuration(duration time.Duration) (TimeRange, error) {
	if duration <= 0 {
		return TimeRange{}, errors.New("duration must be positive")
	}

	now := time.Now().UTC()

	return TimeRange{
		start: now.Add(-duration),
		end:   now,
	}, nil
}

// Start returns the start of the range
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End returns the end of the range
func (tr TimeRange) End() time.Time {
	return tr.end
}

// Duration returns the length of the range
func (tr TimeRange) Duration() time.Duration {
	return tr.end.Sub(tr.start)
}

// Contains reports whether t falls within the range
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.start) && !t.After(tr.end)
}

// IsZero reports whether the range is unset
func (tr TimeRange) IsZero() bool {
	return tr.start.IsZero() && tr.end.IsZero()
}
