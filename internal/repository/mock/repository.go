package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
)

// Errors holds the errors to inject, one per store method. A nil field lets
// the call through to the wrapped store.
type Errors struct {
	// ===== Campaign Errors =====
	CreateCampaignError            error
	GetCampaignError               error
	ListCampaignsError             error
	UpdateCampaignStatusError      error
	IncrementDefinedScenariosError error
	DecrementDefinedScenariosError error
	NextStageError                 error

	// ===== Scenario Errors =====
	CreateScenarioError            error
	GetScenarioError               error
	ListScenariosError             error
	ListScenariosByOrderRangeError error
	ListScenariosByStatusError     error
	ListExpiredScenariosError      error
	TransitionScenarioError        error
	DeleteScenarioError            error

	// ===== Ledger Errors =====
	InsertParticipationIgnoreError error
	GetParticipationError          error
	ListParticipationsError        error
	DebitTokensError               error
	CreditTokensError              error

	// ===== Vote Errors =====
	GetVoteError    error
	UpsertVoteError error
	ListVotesError  error

	// ===== Results Errors =====
	SaveResultError    error
	GetResultError     error
	SaveAggregateError error
	GetAggregateError  error
}

// Store wraps a repository.Store and injects the configured errors
type Store struct {
	repository.Store
	*Errors
}

// Repository wraps a real repository and allows injecting errors for testing.
// Injected errors also apply to the Store handed to InTx callbacks, so error
// paths inside a transaction are reachable.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.DebitTokensError = errors.New("database error")
//	svc := services.NewVotingService(log, mockRepo, ledger, clock)
//	_, err := svc.CastVote(ctx, req)
//	// err will now contain the injected error
type Repository struct {
	*Store
	real repository.FullRepository

	InTxError error
	PingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		Store: &Store{Store: real, Errors: &Errors{}},
		real:  real,
	}
}

// InTx runs fn in a real transaction with a Store that shares this mock's
// injected errors
func (m *Repository) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if m.InTxError != nil {
		return m.InTxError
	}
	return m.real.InTx(ctx, func(s repository.Store) error {
		return fn(&Store{Store: s, Errors: m.Errors})
	})
}

func (m *Repository) Ping(ctx context.Context) error {
	if m.PingError != nil {
		return m.PingError
	}
	return m.real.Ping(ctx)
}

// ===== Campaign Methods =====

func (m *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	if m.CreateCampaignError != nil {
		return m.CreateCampaignError
	}
	return m.Store.CreateCampaign(ctx, c)
}

func (m *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if m.GetCampaignError != nil {
		return nil, m.GetCampaignError
	}
	return m.Store.GetCampaign(ctx, id)
}

func (m *Store) ListCampaigns(ctx context.Context, groupID string) ([]models.Campaign, error) {
	if m.ListCampaignsError != nil {
		return nil, m.ListCampaignsError
	}
	return m.Store.ListCampaigns(ctx, groupID)
}

func (m *Store) UpdateCampaignStatus(ctx context.Context, id string, from []models.CampaignStatus, to models.CampaignStatus, at time.Time) (bool, error) {
	if m.UpdateCampaignStatusError != nil {
		return false, m.UpdateCampaignStatusError
	}
	return m.Store.UpdateCampaignStatus(ctx, id, from, to, at)
}

func (m *Store) IncrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.IncrementDefinedScenariosError != nil {
		return false, m.IncrementDefinedScenariosError
	}
	return m.Store.IncrementDefinedScenarios(ctx, id, at)
}

func (m *Store) DecrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.DecrementDefinedScenariosError != nil {
		return false, m.DecrementDefinedScenariosError
	}
	return m.Store.DecrementDefinedScenarios(ctx, id, at)
}

func (m *Store) NextStage(ctx context.Context, id string) (int, error) {
	if m.NextStageError != nil {
		return 0, m.NextStageError
	}
	return m.Store.NextStage(ctx, id)
}

// ===== Scenario Methods =====

func (m *Store) CreateScenario(ctx context.Context, s *models.Scenario) error {
	if m.CreateScenarioError != nil {
		return m.CreateScenarioError
	}
	return m.Store.CreateScenario(ctx, s)
}

func (m *Store) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	if m.GetScenarioError != nil {
		return nil, m.GetScenarioError
	}
	return m.Store.GetScenario(ctx, id)
}

func (m *Store) ListScenarios(ctx context.Context, campaignID string) ([]models.Scenario, error) {
	if m.ListScenariosError != nil {
		return nil, m.ListScenariosError
	}
	return m.Store.ListScenarios(ctx, campaignID)
}

func (m *Store) ListScenariosByOrderRange(ctx context.Context, campaignID string, from, to int) ([]models.Scenario, error) {
	if m.ListScenariosByOrderRangeError != nil {
		return nil, m.ListScenariosByOrderRangeError
	}
	return m.Store.ListScenariosByOrderRange(ctx, campaignID, from, to)
}

func (m *Store) ListScenariosByStatus(ctx context.Context, campaignID string, status models.ScenarioStatus) ([]models.Scenario, error) {
	if m.ListScenariosByStatusError != nil {
		return nil, m.ListScenariosByStatusError
	}
	return m.Store.ListScenariosByStatus(ctx, campaignID, status)
}

func (m *Store) ListExpiredScenarios(ctx context.Context, now time.Time) ([]models.Scenario, error) {
	if m.ListExpiredScenariosError != nil {
		return nil, m.ListExpiredScenariosError
	}
	return m.Store.ListExpiredScenarios(ctx, now)
}

func (m *Store) TransitionScenario(ctx context.Context, id string, from, to models.ScenarioStatus, stage int, at time.Time) (bool, error) {
	if m.TransitionScenarioError != nil {
		return false, m.TransitionScenarioError
	}
	return m.Store.TransitionScenario(ctx, id, from, to, stage, at)
}

func (m *Store) DeleteScenario(ctx context.Context, id string, status models.ScenarioStatus) (bool, error) {
	if m.DeleteScenarioError != nil {
		return false, m.DeleteScenarioError
	}
	return m.Store.DeleteScenario(ctx, id, status)
}

// ===== Ledger Methods =====

func (m *Store) InsertParticipationIgnore(ctx context.Context, p *models.Participation) error {
	if m.InsertParticipationIgnoreError != nil {
		return m.InsertParticipationIgnoreError
	}
	return m.Store.InsertParticipationIgnore(ctx, p)
}

func (m *Store) GetParticipation(ctx context.Context, campaignID, participantID string) (*models.Participation, error) {
	if m.GetParticipationError != nil {
		return nil, m.GetParticipationError
	}
	return m.Store.GetParticipation(ctx, campaignID, participantID)
}

func (m *Store) ListParticipations(ctx context.Context, campaignID string) ([]models.Participation, error) {
	if m.ListParticipationsError != nil {
		return nil, m.ListParticipationsError
	}
	return m.Store.ListParticipations(ctx, campaignID)
}

func (m *Store) DebitTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (int, bool, error) {
	if m.DebitTokensError != nil {
		return 0, false, m.DebitTokensError
	}
	return m.Store.DebitTokens(ctx, campaignID, participantID, amount, at)
}

func (m *Store) CreditTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (int, error) {
	if m.CreditTokensError != nil {
		return 0, m.CreditTokensError
	}
	return m.Store.CreditTokens(ctx, campaignID, participantID, amount, at)
}

// ===== Vote Methods =====

func (m *Store) GetVote(ctx context.Context, scenarioID, voterID string) (*models.Vote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.Store.GetVote(ctx, scenarioID, voterID)
}

func (m *Store) UpsertVote(ctx context.Context, v *models.Vote) error {
	if m.UpsertVoteError != nil {
		return m.UpsertVoteError
	}
	return m.Store.UpsertVote(ctx, v)
}

func (m *Store) ListVotes(ctx context.Context, scenarioID string) ([]models.Vote, error) {
	if m.ListVotesError != nil {
		return nil, m.ListVotesError
	}
	return m.Store.ListVotes(ctx, scenarioID)
}

// ===== Results Methods =====

func (m *Store) SaveResult(ctx context.Context, r *models.Result) (bool, error) {
	if m.SaveResultError != nil {
		return false, m.SaveResultError
	}
	return m.Store.SaveResult(ctx, r)
}

func (m *Store) GetResult(ctx context.Context, scenarioID string) (*models.Result, error) {
	if m.GetResultError != nil {
		return nil, m.GetResultError
	}
	return m.Store.GetResult(ctx, scenarioID)
}

func (m *Store) SaveAggregate(ctx context.Context, a *models.AggregateStats) (bool, error) {
	if m.SaveAggregateError != nil {
		return false, m.SaveAggregateError
	}
	return m.Store.SaveAggregate(ctx, a)
}

func (m *Store) GetAggregate(ctx context.Context, campaignID string) (*models.AggregateStats, error) {
	if m.GetAggregateError != nil {
		return nil, m.GetAggregateError
	}
	return m.Store.GetAggregate(ctx, campaignID)
}

var _ repository.FullRepository = (*Repository)(nil)
