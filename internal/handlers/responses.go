package handlers

import "github.com/abrezinsky/tokenvote/internal/models"

// HealthResponse is the JSON response for the health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StageResponse lists the scenarios a stage operation moved to Voting
type StageResponse struct {
	Started []models.Scenario `json:"started"`
}

// ScenariosResponse wraps a list of scenarios
type ScenariosResponse struct {
	Scenarios []models.Scenario `json:"scenarios"`
}

// CampaignsResponse wraps a list of campaigns
type CampaignsResponse struct {
	Campaigns []models.Campaign `json:"campaigns"`
}

// SweepResponse lists the scenarios a deadline sweep closed
type SweepResponse struct {
	Closed []string `json:"closed"`
}
