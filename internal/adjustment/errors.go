package adjustment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("adjustment not found")
	ErrInvalidTransition = errors.New("invalid adjustment state transition")
	ErrNilGrid           = errors.New("forecast grid is required")
)

// TransitionError reports a lifecycle step that is not allowed from the
// adjustment's current state.
type TransitionError struct {
	ID     string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s adjustment %s while %s", e.Action, e.ID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
