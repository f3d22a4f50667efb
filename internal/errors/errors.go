package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	ErrInvalidTransition
	ErrDuplicateScenarioOrder
	ErrInsufficientTokens
	ErrUnknownMechanismHyperparameter
)

var kindNames = map[Kind]string{
	ErrInternal:                       "internal",
	ErrNotFound:                       "not_found",
	ErrValidation:                     "validation",
	ErrConflict:                       "conflict",
	ErrInvalidInput:                   "invalid_input",
	ErrInvalidTransition:              "invalid_transition",
	ErrDuplicateScenarioOrder:         "duplicate_scenario_order",
	ErrInsufficientTokens:             "insufficient_tokens",
	ErrUnknownMechanismHyperparameter: "unknown_mechanism_hyperparameter",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an application-level error with a kind for classification.
// Details carries the state a caller needs to correct its input, e.g. the
// remaining token balance on an insufficient-tokens rejection.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With returns the error with key set in its details.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// KindOf reports the kind of the first *Error in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// DuplicateScenarioOrder reports that order is already taken within a campaign.
func DuplicateScenarioOrder(campaignID string, order int) *Error {
	return (&Error{
		Kind:    ErrDuplicateScenarioOrder,
		Message: fmt.Sprintf("campaign %s already has a scenario at order %d", campaignID, order),
	}).With("campaign_id", campaignID).With("order", order)
}

// InsufficientTokens reports a rejected debit along with the balance that
// was available when it was attempted.
func InsufficientTokens(requested, available int) *Error {
	return (&Error{
		Kind:    ErrInsufficientTokens,
		Message: fmt.Sprintf("insufficient tokens: requested %d, available %d", requested, available),
	}).With("requested_tokens", requested).With("remaining_tokens", available)
}

func UnknownHyperparameterf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrUnknownMechanismHyperparameter, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
