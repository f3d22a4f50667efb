package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

func TestCloseScenario_RacesDeadlineSweep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c, scenarios := f.activeCampaign(t, 100, 1)
	f.vote(t, scenarios[0].ID, "v1", "A", 10)
	f.vote(t, scenarios[0].ID, "v2", "B", 4)

	const n = 10
	var wg sync.WaitGroup
	var swept atomic.Int64
	results := make(chan *models.Result, n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := f.results.CloseScenario(ctx, scenarios[0].ID)
			if err != nil {
				t.Errorf("CloseScenario failed: %v", err)
				return
			}
			results <- r
		}()
		go func() {
			defer wg.Done()
			closed, err := f.results.CloseExpired(ctx, t0.Add(2*time.Hour))
			if err != nil {
				t.Errorf("CloseExpired failed: %v", err)
				return
			}
			swept.Add(int64(len(closed)))
		}()
	}
	wg.Wait()
	close(results)

	if got := f.events.count(models.EventScenarioClosed); got != 1 {
		t.Errorf("expected exactly one scenario_closed event, got %d", got)
	}
	if got := f.events.count(models.EventCampaignCompleted); got != 1 {
		t.Errorf("expected exactly one campaign_completed event, got %d", got)
	}
	if swept.Load() > 1 {
		t.Errorf("expected the sweep to report the close at most once, got %d", swept.Load())
	}

	stored, err := f.results.GetResult(ctx, scenarios[0].ID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	for r := range results {
		if r.Winner != stored.Winner || !r.ClosedAt.Equal(stored.ClosedAt) {
			t.Errorf("expected every close to report the stored result, got %+v want %+v", r, stored)
		}
	}
	if got := f.campaignStatus(t, c.ID); got != models.CampaignCompleted {
		t.Errorf("expected Completed, got %s", got)
	}
}

func TestDefineScenario_ConcurrentSameOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 100, 3)

	const n = 8
	var wg sync.WaitGroup
	var created, duplicates atomic.Int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.campaigns.DefineScenario(ctx, scenarioInput(c.ID, 2, tally.Plurality, nil))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, errors.ErrDuplicateScenarioOrder):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 || duplicates.Load() != n-1 {
		t.Errorf("expected 1 created and %d duplicates, got %d and %d", n-1, created.Load(), duplicates.Load())
	}
	got, err := f.campaigns.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if got.DefinedScenarioCount != 1 {
		t.Errorf("expected defined count 1, got %d", got.DefinedScenarioCount)
	}
	scenarios, _ := f.campaigns.ListScenarios(ctx, c.ID)
	if len(scenarios) != 1 {
		t.Errorf("expected one stored scenario, got %d", len(scenarios))
	}
}

func TestStartNextStage_Concurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 100, 2)
	first := f.define(t, c.ID, 1, tally.Plurality, nil)
	second := f.define(t, c.ID, 2, tally.Plurality, nil)

	const n = 8
	var wg sync.WaitGroup
	var started atomic.Int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.campaigns.StartNextStage(ctx, c.ID)
			if err == nil {
				started.Add(int64(len(out)))
				return
			}
			if !errors.Is(err, errors.ErrInvalidTransition) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if started.Load() != 1 {
		t.Errorf("expected exactly one scenario started, got %d", started.Load())
	}
	if got := f.scenarioStatus(t, first.ID); got != models.ScenarioVoting {
		t.Errorf("expected order 1 Voting, got %s", got)
	}
	if got := f.scenarioStatus(t, second.ID); got != models.ScenarioApproved {
		t.Errorf("expected order 2 to stay queued, got %s", got)
	}
	if got := f.events.count(models.EventScenarioStarted); got != 1 {
		t.Errorf("expected one scenario_started event, got %d", got)
	}
}
