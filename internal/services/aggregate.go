package services

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
)

// aggregate summarizes a campaign from the store. It only reads.
func aggregate(ctx context.Context, st repository.Store, c *models.Campaign, now time.Time) (*models.AggregateStats, error) {
	agg := &models.AggregateStats{
		CampaignID:    c.ID,
		Status:        c.Status,
		Completed:     c.Status == models.CampaignCompleted,
		TokensByVoter: map[string]int64{},
		Scenarios:     []models.ScenarioOutcome{},
		ComputedAt:    now,
	}

	participations, err := st.ListParticipations(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range participations {
		agg.TokensByVoter[p.ParticipantID] = 0
		agg.Tokens.Allocated += int64(p.TotalTokens)
		agg.Tokens.Unused += int64(p.RemainingTokens)
	}
	agg.Tokens.Participants = len(participations)

	scenarios, err := st.ListScenarios(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, sc := range scenarios {
		outcome := models.ScenarioOutcome{
			ScenarioID: sc.ID,
			Order:      sc.Order,
			Title:      sc.Title,
			Status:     sc.Status,
		}

		votes, err := st.ListVotes(ctx, sc.ID)
		if err != nil {
			return nil, err
		}
		for _, v := range votes {
			agg.TokensByVoter[v.VoterID] += int64(v.TokensInvested)
			agg.Tokens.Invested += int64(v.TokensInvested)
			if v.IsAbstain {
				outcome.Abstains++
			} else {
				outcome.TotalVotes++
			}
		}
		agg.TotalVotes += outcome.TotalVotes
		agg.TotalAbstains += outcome.Abstains

		if sc.Status == models.ScenarioClosed {
			r, err := st.GetResult(ctx, sc.ID)
			if err != nil && err != repository.ErrNotFound {
				return nil, err
			}
			if r != nil {
				outcome.Outcome = r.Outcome
				outcome.Winner = r.Winner
				outcome.TiedOptions = r.TiedOptions
				outcome.Seats = r.Seats
			}
		}
		agg.Scenarios = append(agg.Scenarios, outcome)
	}
	return agg, nil
}
