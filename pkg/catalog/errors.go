package catalog

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
)

var ErrNotFound = errors.New("catalog: not found")

// KeyAssociations is the error path used when a delete is blocked by
// incoming relationships.
const KeyAssociations = "associations"

const (
	MsgInvalidDate       = "Value must be a valid date (YYYY-MM-DD)"
	MsgEndBeforeStart    = "End date must not be before start date"
	MsgCeremonyNameTaken = "Award already has a ceremony with this name"
	MsgInvalidValue      = "Value is invalid"
)

// ValidationError carries field errors for input that was rejected before
// anything was written.
type ValidationError struct {
	Errors common.FieldErrors
}

func (e *ValidationError) Error() string {
	return "catalog: validation failed: " + e.Errors.String()
}

func invalid(errs common.FieldErrors) error {
	return &ValidationError{Errors: errs}
}

// StoreFailure wraps any unexpected graph store error.
type StoreFailure struct {
	Op  string
	Err error
}

func (e *StoreFailure) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *StoreFailure) Unwrap() error {
	return e.Err
}

// classify leaves catalog errors untouched and wraps everything else.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreFailure{Op: op, Err: err}
}
