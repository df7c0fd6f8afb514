package descriptor

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindMissing Kind = iota + 1
	KindMalformed
	KindWrongDimensionality
	KindNonNumericElement
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing_descriptor"
	case KindMalformed:
		return "malformed_descriptor"
	case KindWrongDimensionality:
		return "wrong_dimensionality"
	case KindNonNumericElement:
		return "non_numeric_element"
	default:
		return "unknown"
	}
}

var (
	ErrMissingDescriptor   = &ValidationError{Kind: KindMissing}
	ErrMalformedDescriptor = &ValidationError{Kind: KindMalformed}
	ErrWrongDimensionality = &ValidationError{Kind: KindWrongDimensionality}
	ErrNonNumericElement   = &ValidationError{Kind: KindNonNumericElement}

	errNotSequence = errors.New("descriptor is not an array")
)

// ValidationError is the single failure type of Decode and Encode. It matches
// the sentinel of its Kind under errors.Is.
type ValidationError struct {
	Kind     Kind
	Expected int
	Actual   int
	Index    int
	Err      error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissing:
		return "face descriptor is required"
	case KindMalformed:
		if e.Err != nil {
			return fmt.Sprintf("malformed face descriptor: %v", e.Err)
		}
		return "malformed face descriptor"
	case KindWrongDimensionality:
		return fmt.Sprintf("expected array of length %d, got %d", e.Expected, e.Actual)
	case KindNonNumericElement:
		return fmt.Sprintf("face descriptor element %d is not a finite number", e.Index)
	default:
		return "invalid face descriptor"
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func missing() error {
	return &ValidationError{Kind: KindMissing}
}

func malformed(err error) error {
	return &ValidationError{Kind: KindMalformed, Err: err}
}

func wrongDimensionality(actual int) error {
	return &ValidationError{Kind: KindWrongDimensionality, Expected: Length, Actual: actual}
}

func nonNumeric(index int) error {
	return &ValidationError{Kind: KindNonNumericElement, Index: index}
}
