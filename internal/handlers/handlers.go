package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/services"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Campaigns services.CampaignServicer
	Voting    services.VotingServicer
	Results   services.ResultsServicer
	Ledger    services.LedgerServicer
	Clock     services.Clock
	Store     Pinger
	Log       logger.Logger

	// Optional; the routes are only mounted when set
	Events  http.Handler
	Metrics http.Handler
}

// New creates a new Handlers instance with all dependencies
func New(
	campaigns services.CampaignServicer,
	voting services.VotingServicer,
	results services.ResultsServicer,
	ledger services.LedgerServicer,
	clock services.Clock,
	store Pinger,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Campaigns: campaigns,
		Voting:    voting,
		Results:   results,
		Ledger:    ledger,
		Clock:     clock,
		Store:     store,
		Log:       log,
	}
}

// handleHealth reports liveness and database reachability
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Warn("Health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, NewAPIError(http.StatusServiceUnavailable, ErrCodeUnavailable, "database unavailable"))
		return
	}
	respondOK(w, HealthResponse{Status: "ok"})
}
