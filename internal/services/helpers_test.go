package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
	"github.com/abrezinsky/tokenvote/internal/services"
	"github.com/abrezinsky/tokenvote/internal/tally"
	"github.com/abrezinsky/tokenvote/internal/testutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// recorder is a Broadcaster that keeps every event
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Broadcast(e models.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(eventType string) int {
	n := 0
	for _, t := range r.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

// fixture bundles the services over one repository
type fixture struct {
	repo      repository.FullRepository
	clock     *testutil.Clock
	ledger    *services.LedgerService
	campaigns *services.CampaignService
	voting    *services.VotingService
	results   *services.ResultsService
	events    *recorder
}

// setupServices wires every service over repo
func setupServices(t *testing.T, repo repository.FullRepository, autoAdvance bool) *fixture {
	t.Helper()
	log := logger.New()
	clock := testutil.NewClock(t0)
	f := &fixture{
		repo:      repo,
		clock:     clock,
		ledger:    services.NewLedgerService(log, repo, clock),
		campaigns: services.NewCampaignService(log, repo, clock, nil),
		voting:    services.NewVotingService(log, repo, clock, nil),
		results:   services.NewResultsService(log, repo, clock, nil, autoAdvance),
		events:    &recorder{},
	}
	f.campaigns.SetBroadcaster(f.events)
	f.results.SetBroadcaster(f.events)
	return f
}

// setup creates a fixture over a fresh in-memory database
func setup(t *testing.T) *fixture {
	t.Helper()
	return setupServices(t, testutil.NewTestRepository(t), true)
}

// setupManual creates a fixture that never starts stages on its own
func setupManual(t *testing.T) *fixture {
	t.Helper()
	return setupServices(t, testutil.NewTestRepository(t), false)
}

func (f *fixture) createCampaign(t *testing.T, tokens, expected int) *models.Campaign {
	t.Helper()
	c, err := f.campaigns.CreateCampaign(context.Background(), services.CampaignInput{
		GroupID:              "guild-1",
		CreatorID:            "alice",
		Title:                "Budget 2026",
		TokensPerParticipant: tokens,
		ExpectedScenarios:    expected,
	})
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}
	return c
}

// setupCampaign creates an approved campaign in Setup
func (f *fixture) setupCampaign(t *testing.T, tokens, expected int) *models.Campaign {
	t.Helper()
	c := f.createCampaign(t, tokens, expected)
	c, err := f.campaigns.ApproveCampaign(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("ApproveCampaign failed: %v", err)
	}
	return c
}

func (f *fixture) define(t *testing.T, campaignID string, order int, mech tally.Mechanism, params map[string]any) *models.Scenario {
	t.Helper()
	sc, err := f.campaigns.DefineScenario(context.Background(), scenarioInput(campaignID, order, mech, params))
	if err != nil {
		t.Fatalf("DefineScenario(order %d) failed: %v", order, err)
	}
	return sc
}

func scenarioInput(campaignID string, order int, mech tally.Mechanism, params map[string]any) services.ScenarioInput {
	in := services.ScenarioInput{
		Order:           order,
		Title:           "Where should the money go?",
		Options:         []string{"A", "B", "C"},
		Mechanism:       string(mech),
		Hyperparameters: params,
		Deadline:        t0.Add(time.Hour),
		ProposerID:      "bob",
	}
	if campaignID != "" {
		in.CampaignID = &campaignID
	}
	return in
}

// activeCampaign creates a campaign with expected scenarios, all plurality,
// and starts the first stage
func (f *fixture) activeCampaign(t *testing.T, tokens, expected int) (*models.Campaign, []*models.Scenario) {
	t.Helper()
	c := f.setupCampaign(t, tokens, expected)
	var scenarios []*models.Scenario
	for i := 1; i <= expected; i++ {
		scenarios = append(scenarios, f.define(t, c.ID, i, tally.Plurality, nil))
	}
	if _, err := f.campaigns.StartNextStage(context.Background(), c.ID); err != nil {
		t.Fatalf("StartNextStage failed: %v", err)
	}
	return c, scenarios
}

func (f *fixture) vote(t *testing.T, scenarioID, voter, option string, tokens int) *models.VoteReceipt {
	t.Helper()
	r, err := f.voting.CastVote(context.Background(), services.VoteRequest{
		ScenarioID:     scenarioID,
		VoterID:        voter,
		Ballot:         tally.Ballot{Option: option},
		TokensInvested: tokens,
	})
	if err != nil {
		t.Fatalf("CastVote(%s, %s) failed: %v", voter, option, err)
	}
	return r
}

func (f *fixture) scenarioStatus(t *testing.T, id string) models.ScenarioStatus {
	t.Helper()
	sc, err := f.campaigns.GetScenario(context.Background(), id)
	if err != nil {
		t.Fatalf("GetScenario failed: %v", err)
	}
	return sc.Status
}

func (f *fixture) campaignStatus(t *testing.T, id string) models.CampaignStatus {
	t.Helper()
	c, err := f.campaigns.GetCampaign(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	return c.Status
}

func (f *fixture) balance(t *testing.T, campaignID, voter string) int {
	t.Helper()
	p, err := f.ledger.Balance(context.Background(), campaignID, voter)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return p.RemainingTokens
}

func assertKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := errors.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func detail(t *testing.T, err error, key string) any {
	t.Helper()
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	v, ok := appErr.Details[key]
	if !ok {
		t.Fatalf("expected detail %q in %v", key, appErr.Details)
	}
	return v
}
