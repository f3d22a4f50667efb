package services

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/metrics"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

// ResultsService closes scenarios, stores their results and detects
// campaign completion
type ResultsService struct {
	log         logger.Logger
	repo        repository.FullRepository
	clock       Clock
	metrics     *metrics.Metrics
	broadcaster Broadcaster
	autoAdvance bool
}

// NewResultsService creates a new ResultsService. With autoAdvance set, the
// next approved stage starts when the last Voting scenario of a campaign
// closes.
func NewResultsService(log logger.Logger, repo repository.FullRepository, clock Clock, m *metrics.Metrics, autoAdvance bool) *ResultsService {
	return &ResultsService{log: log, repo: repo, clock: clock, metrics: m, autoAdvance: autoAdvance}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *ResultsService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// closeOutcome is what one close transaction did
type closeOutcome struct {
	result    *models.Result
	closedNow bool
	completed *models.AggregateStats
	started   []models.Scenario
}

// CloseScenario closes a Voting scenario and returns its result. Closing a
// Closed scenario returns the stored result and changes nothing.
func (s *ResultsService) CloseScenario(ctx context.Context, scenarioID string) (*models.Result, error) {
	out, err := s.closeScenario(ctx, scenarioID, s.clock.Now(), metrics.TriggerManual)
	if err != nil {
		return nil, err
	}
	return out.result, nil
}

// CloseExpired closes every Voting scenario whose deadline is at or before
// now and returns the IDs it closed. A scenario that fails to close is
// logged and skipped; the last such error is returned after the sweep.
func (s *ResultsService) CloseExpired(ctx context.Context, now time.Time) ([]string, error) {
	expired, err := s.repo.ListExpiredScenarios(ctx, now)
	if err != nil {
		return nil, err
	}

	var closed []string
	var lastErr error
	for _, sc := range expired {
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		out, err := s.closeScenario(ctx, sc.ID, now, metrics.TriggerDeadline)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidTransition) {
				s.log.Debug("Skipped expired scenario", "scenario_id", sc.ID, "error", err)
				continue
			}
			s.log.Error("Failed to close expired scenario", "scenario_id", sc.ID, "error", err)
			lastErr = err
			continue
		}
		if out.closedNow {
			closed = append(closed, sc.ID)
		}
	}
	if len(closed) > 0 {
		s.log.Info("Deadline sweep closed scenarios", "count", len(closed))
	}
	return closed, lastErr
}

func (s *ResultsService) closeScenario(ctx context.Context, scenarioID string, now time.Time, trigger string) (*closeOutcome, error) {
	out := &closeOutcome{}
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		sc, err := loadScenario(ctx, st, scenarioID)
		if err != nil {
			return err
		}
		switch sc.Status {
		case models.ScenarioClosed:
			out.result, err = storedResult(ctx, st, sc.ID)
			return err
		case models.ScenarioVoting:
		default:
			return errors.InvalidTransitionf("scenario %s is %s and cannot be closed", sc.ID, sc.Status).
				With("scenario_status", sc.Status)
		}

		var c *models.Campaign
		if sc.CampaignID != nil {
			if c, err = loadCampaign(ctx, st, *sc.CampaignID); err != nil {
				return err
			}
			if c.Status.Frozen() {
				return errors.InvalidTransitionf("campaign %s is %s", c.ID, c.Status).
					With("campaign_status", c.Status)
			}
		}

		ok, err := st.TransitionScenario(ctx, sc.ID, models.ScenarioVoting, models.ScenarioClosed, 0, now)
		if err != nil {
			return err
		}
		if !ok {
			out.result, err = storedResult(ctx, st, sc.ID)
			return err
		}

		r, err := s.tallyScenario(ctx, st, sc, now)
		if err != nil {
			return err
		}
		if _, err := st.SaveResult(ctx, r); err != nil {
			return err
		}
		// Return what was stored so every close reports the same result
		if out.result, err = storedResult(ctx, st, sc.ID); err != nil {
			return err
		}
		out.closedNow = true

		if c == nil {
			return nil
		}
		if out.completed, err = s.completeIfDone(ctx, st, c, now); err != nil {
			return err
		}
		if out.completed == nil && s.autoAdvance {
			out.started, err = advance(ctx, st, c, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.closedNow {
		s.announce(scenarioID, trigger, out)
	}
	return out, nil
}

func (s *ResultsService) announce(scenarioID, trigger string, out *closeOutcome) {
	s.metrics.ScenarioClosed(trigger)
	s.log.Info("Scenario closed", "scenario_id", scenarioID, "trigger", trigger,
		"outcome", out.result.Outcome, "winner", out.result.Winner)

	events := []models.Event{{Type: models.EventScenarioClosed, Payload: out.result}}
	if out.completed != nil {
		s.metrics.CampaignCompleted()
		s.log.Info("Campaign completed", "campaign_id", out.completed.CampaignID, "total_votes", out.completed.TotalVotes)
		events = append(events, models.Event{Type: models.EventCampaignCompleted, Payload: out.completed})
	}
	if len(out.started) > 0 {
		for range out.started {
			s.metrics.ScenarioStarted()
		}
		s.log.Info("Next stage started", "scenario_id", out.started[0].ID, "stage", out.started[0].Stage)
		events = append(events, scenarioEvents(models.EventScenarioStarted, out.started)...)
	}
	publish(s.broadcaster, events)
}

func (s *ResultsService) tallyScenario(ctx context.Context, st repository.Store, sc *models.Scenario, now time.Time) (*models.Result, error) {
	votes, err := st.ListVotes(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	in := tally.Input{
		Options:        sc.Options,
		CampaignScoped: sc.CampaignScoped(),
		Votes:          make([]tally.Vote, 0, len(votes)),
	}
	for _, v := range votes {
		in.Votes = append(in.Votes, tally.Vote{Ballot: v.Ballot, Tokens: v.TokensInvested, Abstain: v.IsAbstain})
	}

	params := sc.Params
	if params == nil {
		params = tally.DefaultParams(sc.Mechanism)
	}
	start := time.Now()
	r := tally.Tally(params, in)
	s.metrics.ObserveTally(string(sc.Mechanism), start)

	return &models.Result{ScenarioID: sc.ID, ClosedAt: now, Result: *r}, nil
}

// completeIfDone marks the campaign Completed once orders 1..expected are
// all Closed, and stores the aggregate snapshot. It returns nil when the
// campaign is not complete or was already completed.
func (s *ResultsService) completeIfDone(ctx context.Context, st repository.Store, c *models.Campaign, now time.Time) (*models.AggregateStats, error) {
	order, _, err := nextOpenOrder(ctx, st, c)
	if err != nil || order != 0 {
		return nil, err
	}
	ok, err := st.UpdateCampaignStatus(ctx, c.ID, []models.CampaignStatus{models.CampaignActive}, models.CampaignCompleted, now)
	if err != nil || !ok {
		return nil, err
	}
	c.Status = models.CampaignCompleted

	agg, err := aggregate(ctx, st, c, now)
	if err != nil {
		return nil, err
	}
	if _, err := st.SaveAggregate(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// advance starts the next stage once nothing in the campaign is Voting and
// the scenario at the next open order is approved
func advance(ctx context.Context, st repository.Store, c *models.Campaign, now time.Time) ([]models.Scenario, error) {
	voting, err := st.ListScenariosByStatus(ctx, c.ID, models.ScenarioVoting)
	if err != nil || len(voting) > 0 {
		return nil, err
	}
	_, next, err := nextOpenOrder(ctx, st, c)
	if err != nil || next == nil || next.Status != models.ScenarioApproved {
		return nil, err
	}
	stage, err := st.NextStage(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return startScenarios(ctx, st, []models.Scenario{*next}, stage, now)
}

func storedResult(ctx context.Context, st repository.Store, scenarioID string) (*models.Result, error) {
	r, err := st.GetResult(ctx, scenarioID)
	if err == repository.ErrNotFound {
		return nil, errors.Internalf("closed scenario %s has no stored result", scenarioID)
	}
	return r, err
}

// ==================== Reads ====================

// GetResult returns the stored result of a closed scenario
func (s *ResultsService) GetResult(ctx context.Context, scenarioID string) (*models.Result, error) {
	sc, err := loadScenario(ctx, s.repo, scenarioID)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.GetResult(ctx, scenarioID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("scenario %s has no result yet", scenarioID).
			With("scenario_status", sc.Status)
	}
	return r, err
}

// GetCampaignAggregate returns the completion snapshot of a Completed
// campaign, or a live summary of one still in progress. Both are read in one
// transaction so a concurrent close cannot split the totals.
func (s *ResultsService) GetCampaignAggregate(ctx context.Context, campaignID string) (*models.AggregateStats, error) {
	var agg *models.AggregateStats
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := loadCampaign(ctx, st, campaignID)
		if err != nil {
			return err
		}
		if c.Status == models.CampaignCompleted || c.Status == models.CampaignArchived {
			snap, err := st.GetAggregate(ctx, campaignID)
			if err == nil {
				snap.Status = c.Status
				agg = snap
				return nil
			}
			if err != repository.ErrNotFound {
				return err
			}
		}
		agg, err = aggregate(ctx, st, c, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}
