package models

import (
	"time"

	"github.com/abrezinsky/tokenvote/internal/tally"
)

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignPendingApproval CampaignStatus = "PendingApproval"
	CampaignSetup           CampaignStatus = "Setup"
	CampaignActive          CampaignStatus = "Active"
	CampaignCompleted       CampaignStatus = "Completed"
	CampaignRejected        CampaignStatus = "Rejected"
	CampaignArchived        CampaignStatus = "Archived"
)

// Frozen reports whether child scenarios of a campaign in this state may no
// longer change.
func (s CampaignStatus) Frozen() bool {
	return s == CampaignRejected || s == CampaignArchived
}

// ScenarioStatus is the lifecycle state of a scenario
type ScenarioStatus string

const (
	ScenarioPendingApproval ScenarioStatus = "PendingApproval"
	ScenarioApproved        ScenarioStatus = "ApprovedScenario"
	ScenarioVoting          ScenarioStatus = "Voting"
	ScenarioClosed          ScenarioStatus = "Closed"
)

// Campaign groups an ordered sequence of scenarios sharing a token budget
type Campaign struct {
	ID                    string         `json:"id"`
	GroupID               string         `json:"group_id"`
	CreatorID             string         `json:"creator_id"`
	Title                 string         `json:"title"`
	Description           string         `json:"description"`
	TokensPerParticipant  int            `json:"total_tokens_per_participant"`
	ExpectedScenarioCount int            `json:"expected_scenario_count"`
	DefinedScenarioCount  int            `json:"defined_scenario_count"`
	Status                CampaignStatus `json:"status"`
	CurrentStage          int            `json:"current_stage"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// Scenario is one votable question, inside a campaign or standalone
type Scenario struct {
	ID          string          `json:"id"`
	CampaignID  *string         `json:"campaign_id"`
	ProposerID  string          `json:"proposer_id"`
	Order       int             `json:"order"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Options     []string        `json:"options"`
	Mechanism   tally.Mechanism `json:"mechanism"`
	Params      tally.Params    `json:"-"`
	Deadline    time.Time       `json:"deadline"`
	Status      ScenarioStatus  `json:"status"`
	Stage       int             `json:"stage,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}

// Hyperparameters returns the canonical hyperparameter map
func (s *Scenario) Hyperparameters() map[string]any {
	if s.Params == nil {
		return map[string]any{}
	}
	return s.Params.Map()
}

// CampaignScoped reports whether votes on the scenario spend campaign tokens
func (s *Scenario) CampaignScoped() bool {
	return s.CampaignID != nil
}

// Participation is a participant's token balance within a campaign
type Participation struct {
	CampaignID      string    `json:"campaign_id"`
	ParticipantID   string    `json:"participant_id"`
	TotalTokens     int       `json:"total_tokens"`
	RemainingTokens int       `json:"remaining_tokens"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Vote is the current ballot of one voter on one scenario
type Vote struct {
	ID             string       `json:"id"`
	ScenarioID     string       `json:"scenario_id"`
	VoterID        string       `json:"voter_id"`
	Ballot         tally.Ballot `json:"ballot"`
	TokensInvested int          `json:"tokens_invested"`
	IsAbstain      bool         `json:"is_abstain"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// VoteReceipt is returned to a voter after a successful submission
type VoteReceipt struct {
	Accepted        bool   `json:"accepted"`
	VoteID          string `json:"vote_id"`
	Replaced        bool   `json:"replaced"`
	TokensInvested  int    `json:"tokens_invested"`
	RemainingTokens int    `json:"remaining_tokens"`
}

// Result is the immutable outcome stored when a scenario closes
type Result struct {
	ScenarioID string    `json:"scenario_id"`
	ClosedAt   time.Time `json:"closed_at"`
	tally.Result
}

// ScenarioOutcome summarizes one scenario for a campaign aggregate
type ScenarioOutcome struct {
	ScenarioID  string         `json:"scenario_id"`
	Order       int            `json:"order"`
	Title       string         `json:"title"`
	Status      ScenarioStatus `json:"status"`
	Outcome     tally.Outcome  `json:"outcome,omitempty"`
	Winner      string         `json:"winner,omitempty"`
	TiedOptions []string       `json:"tied_options,omitempty"`
	Seats       map[string]int `json:"seats,omitempty"`
	TotalVotes  int            `json:"total_votes"`
	Abstains    int            `json:"abstains"`
}

// TokenStats summarizes token usage across a campaign
type TokenStats struct {
	Participants int   `json:"participants"`
	Allocated    int64 `json:"allocated"`
	Invested     int64 `json:"invested"`
	Unused       int64 `json:"unused"`
}

// AggregateStats is the campaign-wide read-only summary
type AggregateStats struct {
	CampaignID    string            `json:"campaign_id"`
	Status        CampaignStatus    `json:"status"`
	Completed     bool              `json:"completed"`
	TokensByVoter map[string]int64  `json:"tokens_by_participant"`
	Scenarios     []ScenarioOutcome `json:"scenarios"`
	TotalVotes    int               `json:"total_votes"`
	TotalAbstains int               `json:"total_abstains"`
	Tokens        TokenStats        `json:"tokens"`
	ComputedAt    time.Time         `json:"computed_at"`
}

// Event is a domain notification pushed to subscribers
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types
const (
	EventCampaignStatus    = "campaign_status"
	EventScenarioStarted   = "scenario_started"
	EventScenarioClosed    = "scenario_closed"
	EventCampaignCompleted = "campaign_completed"
)
