package receiving

import (
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/validation"
)

// InputError is a malformed or missing value; the step is shown again
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func inputErrorf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// RuleError is a business-rule breach that blocks the step and is audited
type RuleError struct {
	Message   string
	Violation validation.Violation
}

func (e *RuleError) Error() string { return e.Message }

// DataError is stored data that contradicts the flow, such as a pallet of
// another batch. The operator is sent back to Step.
type DataError struct {
	Message string
	Step    Step
}

func (e *DataError) Error() string { return e.Message }

func dataErrorf(step Step, format string, args ...any) error {
	return &DataError{Message: fmt.Sprintf(format, args...), Step: step}
}
