package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/services"
)

// ==================== Campaigns ====================

func (h *Handlers) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Campaigns.ListCampaigns(r.Context(), r.URL.Query().Get("group_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	respondOK(w, CampaignsResponse{Campaigns: campaigns})
}

func (h *Handlers) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CampaignCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.Campaigns.CreateCampaign(r.Context(), services.CampaignInput{
		GroupID:              req.GroupID,
		CreatorID:            req.CreatorID,
		Title:                req.Title,
		Description:          req.Description,
		TokensPerParticipant: req.TokensPerParticipant,
		ExpectedScenarios:    req.ExpectedScenarios,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, c)
}

func (h *Handlers) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	h.campaignAction(w, r, h.Campaigns.GetCampaign)
}

func (h *Handlers) handleApproveCampaign(w http.ResponseWriter, r *http.Request) {
	h.campaignAction(w, r, h.Campaigns.ApproveCampaign)
}

func (h *Handlers) handleRejectCampaign(w http.ResponseWriter, r *http.Request) {
	h.campaignAction(w, r, h.Campaigns.RejectCampaign)
}

func (h *Handlers) handleArchiveCampaign(w http.ResponseWriter, r *http.Request) {
	h.campaignAction(w, r, h.Campaigns.ArchiveCampaign)
}

// campaignAction runs a single-campaign operation keyed by the URL id
func (h *Handlers) campaignAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*models.Campaign, error)) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := op(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, c)
}

// ==================== Stages ====================

func (h *Handlers) handleStartNextStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	started, err := h.Campaigns.StartNextStage(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, StageResponse{Started: started})
}

func (h *Handlers) handleActiveStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	scenarios, err := h.Campaigns.ActiveStage(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	respondOK(w, ScenariosResponse{Scenarios: scenarios})
}

// ==================== Campaign reads ====================

func (h *Handlers) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	scenarios, err := h.Campaigns.ListScenarios(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	respondOK(w, ScenariosResponse{Scenarios: scenarios})
}

func (h *Handlers) handleGetAggregate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	agg, err := h.Results.GetCampaignAggregate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, agg)
}

func (h *Handlers) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	participantID, err := pathParam(r, "participantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.Ledger.Balance(r.Context(), campaignID, participantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, p)
}

func (h *Handlers) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "campaignID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	png, err := h.Campaigns.InviteQR(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
