// Package transform edits scenarios through composable, validated steps:
// adding, updating and removing drivers, toggling them, and resetting the
// base revenue. Templates bundle steps under a name.
package transform

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
)

// ScenarioTransform is one what-if edit. Apply returns a modified copy and
// never mutates base.
type ScenarioTransform interface {
	Apply(base *domain.Scenario) (*domain.Scenario, error)

	// Name returns a short identifier (e.g. "add_driver").
	Name() string

	Description() string

	// Validate checks the transform against base without applying it.
	Validate(base *domain.Scenario) error
}

// Sequence runs transforms in order, each seeing the previous output.
type Sequence []ScenarioTransform

func (s Sequence) Name() string {
	return "sequence"
}

func (s Sequence) Description() string {
	parts := make([]string, 0, len(s))
	for _, t := range s {
		if t != nil {
			parts = append(parts, t.Description())
		}
	}
	return strings.Join(parts, "; ")
}

// Validate only checks the first step; later steps are validated against
// their actual input while applying.
func (s Sequence) Validate(base *domain.Scenario) error {
	if base == nil {
		return fmt.Errorf("base scenario cannot be nil")
	}
	for i, t := range s {
		if t == nil {
			return fmt.Errorf("transform at index %d is nil", i)
		}
	}
	if len(s) == 0 {
		return nil
	}
	return s[0].Validate(base)
}

func (s Sequence) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}

	current := base.DeepCopy()
	for i, t := range s {
		if t == nil {
			return nil, fmt.Errorf("transform at index %d is nil", i)
		}
		if err := t.Validate(current); err != nil {
			return nil, fmt.Errorf("transform %s validation failed: %w", t.Name(), err)
		}
		next, err := t.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("transform %s failed: %w", t.Name(), err)
		}
		current = next
	}
	return current, nil
}

// ApplyTransforms applies transforms in order to a copy of base.
func ApplyTransforms(base *domain.Scenario, transforms []ScenarioTransform) (*domain.Scenario, error) {
	return Sequence(transforms).Apply(base)
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError creates a new TransformError.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}
