package services

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
)

// nextOpenOrder returns the lowest order in 1..expected whose scenario is not
// Closed, with that scenario if it is defined. It returns 0 when every
// expected order is Closed.
func nextOpenOrder(ctx context.Context, st repository.Store, c *models.Campaign) (int, *models.Scenario, error) {
	scenarios, err := st.ListScenariosByOrderRange(ctx, c.ID, 1, c.ExpectedScenarioCount)
	if err != nil {
		return 0, nil, err
	}
	byOrder := make(map[int]*models.Scenario, len(scenarios))
	for i := range scenarios {
		byOrder[scenarios[i].Order] = &scenarios[i]
	}
	for order := 1; order <= c.ExpectedScenarioCount; order++ {
		sc, ok := byOrder[order]
		if !ok {
			return order, nil, nil
		}
		if sc.Status != models.ScenarioClosed {
			return order, sc, nil
		}
	}
	return 0, nil, nil
}

// stageFor returns the stage a scenario starting now joins: the current
// stage while any sibling is Voting, otherwise a fresh one.
func stageFor(ctx context.Context, st repository.Store, c *models.Campaign) (int, error) {
	voting, err := st.ListScenariosByStatus(ctx, c.ID, models.ScenarioVoting)
	if err != nil {
		return 0, err
	}
	if len(voting) > 0 && c.CurrentStage > 0 {
		return c.CurrentStage, nil
	}
	return st.NextStage(ctx, c.ID)
}

// startScenarios moves each scenario from ApprovedScenario to Voting
// under stage. A scenario that is no longer ApprovedScenario fails the batch.
func startScenarios(ctx context.Context, st repository.Store, batch []models.Scenario, stage int, now time.Time) ([]models.Scenario, error) {
	started := make([]models.Scenario, 0, len(batch))
	for _, sc := range batch {
		ok, err := st.TransitionScenario(ctx, sc.ID, models.ScenarioApproved, models.ScenarioVoting, stage, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.InvalidTransitionf("scenario %s is not approved", sc.ID).
				With("scenario_id", sc.ID)
		}
		sc.Status = models.ScenarioVoting
		sc.Stage = stage
		at := now
		sc.StartedAt = &at
		started = append(started, sc)
	}
	return started, nil
}

func scenarioEvents(eventType string, scenarios []models.Scenario) []models.Event {
	events := make([]models.Event, 0, len(scenarios))
	for i := range scenarios {
		events = append(events, models.Event{Type: eventType, Payload: scenarios[i]})
	}
	return events
}

func campaignStatusEvent(c *models.Campaign) models.Event {
	return models.Event{
		Type: models.EventCampaignStatus,
		Payload: map[string]any{
			"campaign_id": c.ID,
			"status":      c.Status,
		},
	}
}

func publish(b Broadcaster, events []models.Event) {
	if b == nil {
		return
	}
	for _, e := range events {
		b.Broadcast(e)
	}
}
