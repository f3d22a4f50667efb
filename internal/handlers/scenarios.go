package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/services"
)

// ==================== Definition ====================

func (h *Handlers) handleDefineCampaignScenario(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.defineScenario(w, r, &id)
}

func (h *Handlers) handleDefineStandaloneScenario(w http.ResponseWriter, r *http.Request) {
	h.defineScenario(w, r, nil)
}

func (h *Handlers) defineScenario(w http.ResponseWriter, r *http.Request, campaignID *string) {
	var req ScenarioDefineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	sc, err := h.Campaigns.DefineScenario(r.Context(), services.ScenarioInput{
		CampaignID:      campaignID,
		Order:           req.Order,
		Title:           req.Title,
		Description:     req.Description,
		Options:         req.Options,
		Mechanism:       req.Mechanism,
		Hyperparameters: req.Hyperparameters,
		Deadline:        req.Deadline,
		ProposerID:      req.ProposerID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, sc)
}

// ==================== Lifecycle ====================

func (h *Handlers) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioAction(w, r, h.Campaigns.GetScenario)
}

func (h *Handlers) handleApproveScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioAction(w, r, h.Campaigns.ApproveScenario)
}

func (h *Handlers) handleRejectScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioAction(w, r, h.Campaigns.RejectScenario)
}

func (h *Handlers) handleStartScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioAction(w, r, h.Campaigns.StartScenario)
}

func (h *Handlers) scenarioAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*models.Scenario, error)) {
	id, err := pathParam(r, "scenarioID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sc, err := op(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, sc)
}

// ==================== Voting ====================

func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "scenarioID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req VoteSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	receipt, err := h.Voting.CastVote(r.Context(), services.VoteRequest{
		ScenarioID:     id,
		VoterID:        req.VoterID,
		Ballot:         req.Ballot,
		TokensInvested: req.TokensInvested,
		Abstain:        req.IsAbstain,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, receipt)
}

func (h *Handlers) handleGetVote(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := pathParam(r, "scenarioID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	voterID, err := pathParam(r, "voterID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	v, err := h.Voting.GetVote(r.Context(), scenarioID, voterID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, v)
}

// ==================== Results ====================

func (h *Handlers) handleCloseScenario(w http.ResponseWriter, r *http.Request) {
	h.resultAction(w, r, h.Results.CloseScenario)
}

func (h *Handlers) handleGetResult(w http.ResponseWriter, r *http.Request) {
	h.resultAction(w, r, h.Results.GetResult)
}

func (h *Handlers) resultAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*models.Result, error)) {
	id, err := pathParam(r, "scenarioID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := op(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	now := req.Now
	if now.IsZero() {
		now = h.Clock.Now()
	}

	closed, err := h.Results.CloseExpired(r.Context(), now)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if closed == nil {
		closed = []string{}
	}
	respondOK(w, SweepResponse{Closed: closed})
}
