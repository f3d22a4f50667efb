package errors

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// Test Error Types and Constructors
// =============================================================================

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("campaign %s not found", "c-1")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "campaign c-1 not found" {
		t.Errorf("expected Message to be 'campaign c-1 not found', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected Err to be nil, got %v", err.Err)
	}
}

func TestValidation(t *testing.T) {
	err := Validation("options must be unique")

	if err.Kind != ErrValidation {
		t.Errorf("expected Kind to be ErrValidation (%d), got %d", ErrValidation, err.Kind)
	}
	if err.Message != "options must be unique" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestInvalidTransitionf(t *testing.T) {
	err := InvalidTransitionf("campaign is %s", "Setup")

	if err.Kind != ErrInvalidTransition {
		t.Errorf("expected Kind to be ErrInvalidTransition, got %v", err.Kind)
	}
	if err.Message != "campaign is Setup" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestDuplicateScenarioOrder(t *testing.T) {
	err := DuplicateScenarioOrder("c-1", 2)

	if err.Kind != ErrDuplicateScenarioOrder {
		t.Errorf("expected Kind to be ErrDuplicateScenarioOrder, got %v", err.Kind)
	}
	if err.Details["order"] != 2 {
		t.Errorf("expected order detail 2, got %v", err.Details["order"])
	}
	if err.Details["campaign_id"] != "c-1" {
		t.Errorf("expected campaign_id detail c-1, got %v", err.Details["campaign_id"])
	}
}

func TestInsufficientTokens(t *testing.T) {
	err := InsufficientTokens(30, 12)

	if err.Kind != ErrInsufficientTokens {
		t.Errorf("expected Kind to be ErrInsufficientTokens, got %v", err.Kind)
	}
	if err.Details["remaining_tokens"] != 12 {
		t.Errorf("expected remaining_tokens 12, got %v", err.Details["remaining_tokens"])
	}
	if err.Details["requested_tokens"] != 30 {
		t.Errorf("expected requested_tokens 30, got %v", err.Details["requested_tokens"])
	}
	if err.Error() != "insufficient tokens: requested 30, available 12" {
		t.Errorf("unexpected message '%s'", err.Error())
	}
}

func TestUnknownHyperparameterf(t *testing.T) {
	err := UnknownHyperparameterf("unknown key %q", "quorum")

	if err.Kind != ErrUnknownMechanismHyperparameter {
		t.Errorf("expected Kind to be ErrUnknownMechanismHyperparameter, got %v", err.Kind)
	}
}

func TestInternal(t *testing.T) {
	underlying := errors.New("database connection failed")
	err := Internal(underlying)

	if err.Kind != ErrInternal {
		t.Errorf("expected Kind to be ErrInternal (%d), got %d", ErrInternal, err.Kind)
	}
	if err.Message != "internal error" {
		t.Errorf("expected Message to be 'internal error', got '%s'", err.Message)
	}
	if err.Err != underlying {
		t.Errorf("expected Err to be underlying error, got %v", err.Err)
	}
}

// =============================================================================
// Test Error and Unwrap Methods
// =============================================================================

func TestErrorMethod_WithWrappedError(t *testing.T) {
	err := Wrap(errors.New("disk full"), ErrInternal, "failed to save vote")

	expected := "failed to save vote: disk full"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	underlying := errors.New("underlying")
	err := Wrap(underlying, ErrNotFound, "wrapper")

	if !errors.Is(err, underlying) {
		t.Error("expected errors.Is to find the underlying error")
	}
}

func TestWith_InitializesDetails(t *testing.T) {
	err := Validation("bad").With("field", "options")

	if err.Details["field"] != "options" {
		t.Errorf("expected field detail, got %v", err.Details)
	}
}

// =============================================================================
// Test Classification Helpers
// =============================================================================

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", InsufficientTokens(1, 0), ErrInsufficientTokens},
		{"wrapped", fmt.Errorf("cast vote: %w", DuplicateScenarioOrder("c", 1)), ErrDuplicateScenarioOrder},
		{"plain", errors.New("boom"), ErrInternal},
		{"nil", nil, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidTransitionf("scenario is Closed"))

	if !Is(err, ErrInvalidTransition) {
		t.Error("expected Is to match ErrInvalidTransition")
	}
	if Is(err, ErrNotFound) {
		t.Error("expected Is not to match ErrNotFound")
	}
	if Is(nil, ErrInternal) {
		t.Error("expected Is(nil) to be false")
	}
}

func TestKindString(t *testing.T) {
	if ErrInsufficientTokens.String() != "insufficient_tokens" {
		t.Errorf("unexpected name %q", ErrInsufficientTokens.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Errorf("unexpected name for unknown kind %q", Kind(99).String())
	}
}
