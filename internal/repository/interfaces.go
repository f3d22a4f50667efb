package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// CampaignRepository defines campaign data operations
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, groupID string) ([]models.Campaign, error)
	// UpdateCampaignStatus moves the campaign to `to` only if its current
	// status is one of from. It reports whether the row changed.
	UpdateCampaignStatus(ctx context.Context, id string, from []models.CampaignStatus, to models.CampaignStatus, at time.Time) (bool, error)
	IncrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error)
	DecrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error)
	NextStage(ctx context.Context, id string) (int, error)
}

// ScenarioRepository defines scenario data operations
type ScenarioRepository interface {
	CreateScenario(ctx context.Context, s *models.Scenario) error
	GetScenario(ctx context.Context, id string) (*models.Scenario, error)
	ListScenarios(ctx context.Context, campaignID string) ([]models.Scenario, error)
	ListScenariosByOrderRange(ctx context.Context, campaignID string, from, to int) ([]models.Scenario, error)
	ListScenariosByStatus(ctx context.Context, campaignID string, status models.ScenarioStatus) ([]models.Scenario, error)
	ListExpiredScenarios(ctx context.Context, now time.Time) ([]models.Scenario, error)
	// TransitionScenario is a compare-and-swap on status. stage is recorded
	// when entering Voting.
	TransitionScenario(ctx context.Context, id string, from, to models.ScenarioStatus, stage int, at time.Time) (bool, error)
	// DeleteScenario removes the scenario only while it has the given status.
	DeleteScenario(ctx context.Context, id string, status models.ScenarioStatus) (bool, error)
}

// ParticipationRepository defines token ledger data operations
type ParticipationRepository interface {
	InsertParticipationIgnore(ctx context.Context, p *models.Participation) error
	GetParticipation(ctx context.Context, campaignID, participantID string) (*models.Participation, error)
	ListParticipations(ctx context.Context, campaignID string) ([]models.Participation, error)
	// DebitTokens subtracts amount in a single conditional statement and
	// returns the new balance, or ok=false if the balance was too low.
	DebitTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (balance int, ok bool, err error)
	// CreditTokens adds amount, capped at the participation's total.
	CreditTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (int, error)
}

// VoteRepository defines vote data operations
type VoteRepository interface {
	GetVote(ctx context.Context, scenarioID, voterID string) (*models.Vote, error)
	UpsertVote(ctx context.Context, v *models.Vote) error
	ListVotes(ctx context.Context, scenarioID string) ([]models.Vote, error)
}

// ResultRepository defines write-once result data operations
type ResultRepository interface {
	// SaveResult stores r unless a result already exists for the scenario.
	SaveResult(ctx context.Context, r *models.Result) (bool, error)
	GetResult(ctx context.Context, scenarioID string) (*models.Result, error)
	SaveAggregate(ctx context.Context, a *models.AggregateStats) (bool, error)
	GetAggregate(ctx context.Context, campaignID string) (*models.AggregateStats, error)
}

// Store combines all record operations. It is served both by the
// Repository itself and by the transaction handed to InTx.
type Store interface {
	CampaignRepository
	ScenarioRepository
	ParticipationRepository
	VoteRepository
	ResultRepository
}

// Transactor runs fn inside a single transaction. fn must use only the
// Store it is given; the transaction commits if fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	Store
	Transactor
	Ping(ctx context.Context) error
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
