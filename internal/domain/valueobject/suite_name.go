package valueobject

import (
	"errors"
	"strings"
)

const maxSuiteNameLength = 128

// SuiteName identifies a benchmark suite (Value Object)
// Suites partition the history document into independent time series
type SuiteName string

// NewSuiteName creates a validated SuiteName
func NewSuiteName(raw string) (SuiteName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("suite name cannot be empty")
	}

	if len(trimmed) > maxSuiteNameLength {
		return "", errors.New("suite name is too long")
	}

	return SuiteName(trimmed), nil
}

// String returns the string representation of the suite name
func (s SuiteName) String() string {
	return string(s)
}

// Validate checks the suite name invariants
func (s SuiteName) Validate() error {
	_, err := NewSuiteName(string(s))
	return err
}
