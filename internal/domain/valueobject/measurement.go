package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Measurement represents a single named benchmark result (Value Object)
// Immutable once constructed
type Measurement struct {
	name  string
	value float64
	unit  Unit
}

// NewMeasurement creates a new Measurement with validation
func NewMeasurement(name string, value float64, unit Unit) (Measurement, error) {
	if strings.TrimSpace(name) == "" {
		return Measurement{}, errors.New("measurement name cannot be empty")
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Measurement{}, errors.New("measurement value must be finite")
	}

	if value < 0 {
		return Measurement{}, errors.New("measurement value cannot be negative")
	}

	if err := unit.Validate(); err != nil {
		return Measurement{}, err
	}

	return Measurement{
		name:  name,
		value: value,
		unit:  unit,
	}, nil
}

// Name returns the metric name (the latency scenario identifier)
func (m Measurement) Name() string {
	return m.name
}

// Value returns the numeric value
func (m Measurement) Value() float64 {
	return m.value
}

// Unit returns the measurement unit
func (m Measurement) Unit() Unit {
	return m.unit
}

// String returns the string representation
func (m Measurement) String() string {
	return fmt.Sprintf("%s: %g %s", m.name, m.value, m.unit)
}

// Equals compares two Measurements
func (m Measurement) Equals(other Measurement) bool {
	return m.name == other.name && m.value == other.value && m.unit == other.unit
}
