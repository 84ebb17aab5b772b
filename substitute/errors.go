package substitute

import (
	"errors"
	"fmt"
)

// ErrComputation reports that substitutes could not be computed. It is
// distinct from an empty result, which means nothing matched.
var ErrComputation = errors.New("substitute computation failed")

// ComputationError tags a failure with the operation and medicine involved
type ComputationError struct {
	Op         string
	MedicineID string
	Err        error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Op, e.MedicineID, e.Err)
}

// Unwrap exposes both ErrComputation and the underlying cause to errors.Is
func (e *ComputationError) Unwrap() []error {
	return []error{ErrComputation, e.Err}
}

func newComputationError(op, medicineID string, err error) *ComputationError {
	return &ComputationError{Op: op, MedicineID: medicineID, Err: err}
}
