// Package domain defines the immutable cube model, query contracts, and errors
// for the semantic compiler.
package domain

import "fmt"

// ValidationKind classifies schema-load validation failures.
type ValidationKind string

const (
	ValidationDuplicateName          ValidationKind = "DUPLICATE_NAME"
	ValidationDanglingReference      ValidationKind = "DANGLING_REFERENCE"
	ValidationMissingPrimaryKey      ValidationKind = "MISSING_PRIMARY_KEY"
	ValidationInvalidAggregationKind ValidationKind = "INVALID_AGGREGATION_KIND"
	ValidationInvalidValueType       ValidationKind = "INVALID_VALUE_TYPE"
	ValidationInvalidRelationship    ValidationKind = "INVALID_RELATIONSHIP"
	ValidationInvalidInput           ValidationKind = "INVALID_INPUT"
)

// ValidationError indicates a malformed cube declaration or request.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// UnknownFieldError indicates a query referenced a measure or dimension that
// does not exist on the cube.
type UnknownFieldError struct {
	Cube  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q on cube %q", e.Field, e.Cube)
}

// UnknownSegmentError indicates a query referenced a segment that does not
// exist on the cube.
type UnknownSegmentError struct {
	Cube    string
	Segment string
}

func (e *UnknownSegmentError) Error() string {
	return fmt.Sprintf("unknown segment %q on cube %q", e.Segment, e.Cube)
}

// TypeMismatchError indicates a filter or time operation was applied to a
// field of an incompatible value type.
type TypeMismatchError struct {
	Field   string
	Message string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on field %q: %s", e.Field, e.Message)
}

// UnresolvedTokenError indicates a macro token survived resolution. This is a
// wiring bug, not a user-facing condition.
type UnresolvedTokenError struct {
	Cube     string
	Template string
}

func (e *UnresolvedTokenError) Error() string {
	return fmt.Sprintf("no alias mapping for cube %q while resolving %q", e.Cube, e.Template)
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(kind ValidationKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
