package handlers_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/handlers"
)

func TestAPIError_Error(t *testing.T) {
	err := handlers.NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "test message")

	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got %q", err.Error())
	}
	if err.Code != "BAD_REQUEST" {
		t.Errorf("expected code 'BAD_REQUEST', got %q", err.Code)
	}
}

func TestToAPIError_Kinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errors.NotFoundf("campaign %s not found", "c1"), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"validation", errors.Validation("title is required"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"conflict", errors.Conflict("busy"), http.StatusConflict, handlers.ErrCodeConflict},
		{"invalid transition", errors.InvalidTransitionf("scenario is Closed"), http.StatusConflict, handlers.ErrCodeInvalidTransition},
		{"duplicate order", errors.DuplicateScenarioOrder("c1", 2), http.StatusConflict, handlers.ErrCodeDuplicateScenarioOrder},
		{"insufficient tokens", errors.InsufficientTokens(50, 20), http.StatusUnprocessableEntity, handlers.ErrCodeInsufficientTokens},
		{"unknown hyperparameter", errors.UnknownHyperparameterf("unknown key %q", "seats"), http.StatusBadRequest, handlers.ErrCodeUnknownMechanismHyperparameter},
		{"internal", errors.Internal(stderrors.New("disk full")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"api error", handlers.BadRequest("bad"), http.StatusBadRequest, handlers.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handlers.ToAPIError(tt.err)
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, apiErr.Code)
			}
		})
	}
}

func TestToAPIError_CarriesDetails(t *testing.T) {
	err := fmt.Errorf("cast vote: %w", errors.InsufficientTokens(50, 20))

	apiErr := handlers.ToAPIError(err)

	if apiErr.Details["remaining_tokens"] != 20 || apiErr.Details["requested_tokens"] != 50 {
		t.Errorf("expected balance details, got %v", apiErr.Details)
	}
}

func TestToAPIError_HidesInternalMessage(t *testing.T) {
	apiErr := handlers.ToAPIError(errors.Internal(stderrors.New("database is locked")))

	if apiErr.Message != "Internal server error" {
		t.Errorf("expected generic message, got %q", apiErr.Message)
	}
}
