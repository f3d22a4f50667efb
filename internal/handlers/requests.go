package handlers

import (
	"time"

	"github.com/abrezinsky/tokenvote/internal/tally"
)

// CampaignCreateRequest represents a request to create a campaign
type CampaignCreateRequest struct {
	GroupID              string `json:"group_id"`
	CreatorID            string `json:"creator_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	TokensPerParticipant int    `json:"total_tokens_per_participant"`
	ExpectedScenarios    int    `json:"expected_scenario_count"`
}

// ScenarioDefineRequest represents a request to define a scenario. The
// campaign comes from the URL; standalone scenarios carry no order.
type ScenarioDefineRequest struct {
	Order           int            `json:"order"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Options         []string       `json:"options"`
	Mechanism       string         `json:"mechanism"`
	Hyperparameters map[string]any `json:"hyperparameters"`
	Deadline        time.Time      `json:"deadline"`
	ProposerID      string         `json:"proposer_id"`
}

// VoteSubmitRequest represents a request to cast or replace a vote
type VoteSubmitRequest struct {
	VoterID        string       `json:"voter_id"`
	Ballot         tally.Ballot `json:"ballot"`
	TokensInvested int          `json:"tokens_invested"`
	IsAbstain      bool         `json:"is_abstain"`
}

// SweepRequest represents a request to close expired scenarios. A zero Now
// uses the server clock.
type SweepRequest struct {
	Now time.Time `json:"now"`
}
