package domain

import (
	"fmt"
	"strings"
)

// InvalidParameterError reports a driver parameter that makes a formula
// undefined, such as a zero denominator.
type InvalidParameterError struct {
	DriverType DriverType
	Parameter  string
	Reason     string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("driver %s: invalid %s: %s", e.DriverType, e.Parameter, e.Reason)
}

// LockedCellError reports a write to an actualised grid cell.
type LockedCellError struct {
	AccountCode string
	Period      MonthYear
}

func (e *LockedCellError) Error() string {
	return fmt.Sprintf("cell %s %s is locked by an actual amount", e.AccountCode, e.Period)
}

// MissingDriverTemplateError reports an unknown driver type.
type MissingDriverTemplateError struct {
	DriverType string
}

func (e *MissingDriverTemplateError) Error() string {
	if e.DriverType == "" {
		return "missing driver type"
	}
	return fmt.Sprintf("unknown driver type: %s", e.DriverType)
}

// ValidationError collects every human-readable problem found before a
// calculation runs.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return "validation failed: " + e.Messages[0]
	}
	return fmt.Sprintf("validation failed with %d problems:\n  - %s",
		len(e.Messages), strings.Join(e.Messages, "\n  - "))
}

// NewValidationError returns nil when messages is empty.
func NewValidationError(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: messages}
}
