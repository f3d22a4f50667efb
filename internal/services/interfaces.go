package services

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// Clock supplies the current time. Services never read the wall clock
// directly so deadlines can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// Broadcaster defines the interface for pushing domain events to clients
type Broadcaster interface {
	Broadcast(event models.Event)
}

// LedgerServicer defines the interface for token ledger operations
type LedgerServicer interface {
	InitializeParticipant(ctx context.Context, campaignID, participantID string) (*models.Participation, error)
	ReserveAndDebit(ctx context.Context, campaignID, participantID string, amount int) (int, error)
	Refund(ctx context.Context, campaignID, participantID string, amount int) (int, error)
	Balance(ctx context.Context, campaignID, participantID string) (*models.Participation, error)
}

// CampaignServicer defines the interface for campaign and scenario lifecycle operations
type CampaignServicer interface {
	CreateCampaign(ctx context.Context, in CampaignInput) (*models.Campaign, error)
	ApproveCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)
	RejectCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)
	ArchiveCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, groupID string) ([]models.Campaign, error)
	DefineScenario(ctx context.Context, in ScenarioInput) (*models.Scenario, error)
	ApproveScenario(ctx context.Context, scenarioID string) (*models.Scenario, error)
	RejectScenario(ctx context.Context, scenarioID string) (*models.Scenario, error)
	StartScenario(ctx context.Context, scenarioID string) (*models.Scenario, error)
	StartNextStage(ctx context.Context, campaignID string) ([]models.Scenario, error)
	GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error)
	ListScenarios(ctx context.Context, campaignID string) ([]models.Scenario, error)
	ActiveStage(ctx context.Context, campaignID string) ([]models.Scenario, error)
	InviteURL(ctx context.Context, campaignID string) (string, error)
	InviteQR(ctx context.Context, campaignID string) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// VotingServicer defines the interface for voting operations
type VotingServicer interface {
	CastVote(ctx context.Context, req VoteRequest) (*models.VoteReceipt, error)
	GetVote(ctx context.Context, scenarioID, voterID string) (*models.Vote, error)
}

// ResultsServicer defines the interface for closing and results operations
type ResultsServicer interface {
	CloseScenario(ctx context.Context, scenarioID string) (*models.Result, error)
	CloseExpired(ctx context.Context, now time.Time) ([]string, error)
	GetResult(ctx context.Context, scenarioID string) (*models.Result, error)
	GetCampaignAggregate(ctx context.Context, campaignID string) (*models.AggregateStats, error)
	SetBroadcaster(b Broadcaster)
}

// Ensure concrete types implement interfaces
var (
	_ LedgerServicer   = (*LedgerService)(nil)
	_ CampaignServicer = (*CampaignService)(nil)
	_ VotingServicer   = (*VotingService)(nil)
	_ ResultsServicer  = (*ResultsService)(nil)
)
