package valueobject

import "errors"

// Unit represents the unit of a benchmark measurement (Value Object)
type Unit string

const (
	Seconds      Unit = "seconds"
	Milliseconds Unit = "milliseconds"
	Microseconds Unit = "microseconds"
	Nanoseconds  Unit = "nanoseconds"
	BytesPerSec  Unit = "bytes/sec"
	OpsPerSec    Unit = "ops/sec"
)

// Validate checks that the unit belongs to the known set
func (u Unit) Validate() error {
	switch u {
	case Seconds, Milliseconds, Microseconds, Nanoseconds, BytesPerSec, OpsPerSec:
		return nil
	default:
		return errors.New("unknown measurement unit")
	}
}

// String returns the string representation of the unit
func (u Unit) String() string {
	return string(u)
}

// IsDuration reports whether the unit measures elapsed time
func (u Unit) IsDuration() bool {
	switch u {
	case Seconds, Milliseconds, Microseconds, Nanoseconds:
		return true
	default:
		return false
	}
}

// AllUnits returns the list of all known units
func AllUnits() []Unit {
	return []Unit{Seconds, Milliseconds, Microseconds, Nanoseconds, BytesPerSec, OpsPerSec}
}
