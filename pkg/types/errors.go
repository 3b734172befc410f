package types

import (
	"fmt"
	"strings"
)

// Error tag constants classifying evaluation failures.
const (
	TagTypeError              = "TypeError"
	TagValueError             = "ValueError"
	TagKeyError               = "KeyError"
	TagIndexError             = "IndexError"
	TagZeroDivisionError      = "ZeroDivisionError"
	TagUnknownIdentifierError = "UnknownIdentifierError"
	TagMalformedExpression    = "MalformedExpressionError"
)

// EvalError represents an evaluation failure with a message and tags.
// During interpretation these flow through the value stack as deferred
// values so short-circuit constructs can bypass them; one that reaches the
// final stack slot surfaces as the result of the whole call.
type EvalError struct {
	Message string
	Tags    []string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("%s (tags=[%s])", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error has the specified tag.
func (e *EvalError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NewTypeError creates a TypeError for coercion and comparison failures.
func NewTypeError(msg string) *EvalError {
	return &EvalError{Message: msg, Tags: []string{TagTypeError}}
}

// NewValueError creates a ValueError for out-of-domain operands.
func NewValueError(msg string) *EvalError {
	return &EvalError{Message: msg, Tags: []string{TagValueError}}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *EvalError {
	return &EvalError{Message: "division by zero", Tags: []string{TagZeroDivisionError}}
}

// NewKeyError creates a KeyError for missing namespace members.
func NewKeyError(msg string) *EvalError {
	return &EvalError{Message: msg, Tags: []string{TagKeyError}}
}

// NewIndexError creates an IndexError for out-of-range subscripts.
func NewIndexError(msg string) *EvalError {
	return &EvalError{Message: msg, Tags: []string{TagIndexError}}
}

// NewUnknownIdentifierError creates the failure for an identifier absent
// from the assignments mapping.
func NewUnknownIdentifierError(name string) *EvalError {
	return &EvalError{
		Message: fmt.Sprintf("unknown identifier %s", name),
		Tags:    []string{TagUnknownIdentifierError, TagKeyError},
	}
}

// NewMalformedExpressionError creates the failure for leftover stack values
// after interpretation; it indicates a parser or arity bug, not bad input.
func NewMalformedExpressionError(msg string) *EvalError {
	return &EvalError{Message: msg, Tags: []string{TagMalformedExpression}}
}
