package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/metrics"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

// VotingService handles vote submission
type VotingService struct {
	log     logger.Logger
	repo    repository.FullRepository
	clock   Clock
	metrics *metrics.Metrics
}

// NewVotingService creates a new VotingService
func NewVotingService(log logger.Logger, repo repository.FullRepository, clock Clock, m *metrics.Metrics) *VotingService {
	return &VotingService{log: log, repo: repo, clock: clock, metrics: m}
}

// VoteRequest is one ballot submission
type VoteRequest struct {
	ScenarioID     string       `json:"scenario_id"`
	VoterID        string       `json:"voter_id"`
	Ballot         tally.Ballot `json:"ballot"`
	TokensInvested int          `json:"tokens_invested"`
	Abstain        bool         `json:"is_abstain"`
}

// CastVote records or replaces a voter's ballot. On a campaign scenario the
// prior investment is refunded and the new one debited in the same
// transaction as the vote write, so a rejected debit leaves the prior vote
// and balance exactly as they were.
func (s *VotingService) CastVote(ctx context.Context, req VoteRequest) (*models.VoteReceipt, error) {
	if req.VoterID == "" {
		return nil, errors.Validation("voter id is required")
	}
	if req.TokensInvested < 0 {
		return nil, errors.Validation("tokens invested must not be negative").
			With("tokens_invested", req.TokensInvested)
	}

	var mechanism tally.Mechanism
	receipt := &models.VoteReceipt{TokensInvested: req.TokensInvested}
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		sc, err := loadScenario(ctx, st, req.ScenarioID)
		if err != nil {
			return err
		}
		mechanism = sc.Mechanism
		now := s.clock.Now()

		if sc.Status != models.ScenarioVoting {
			return errors.InvalidTransitionf("scenario %s is %s, not open for voting", sc.ID, sc.Status).
				With("scenario_status", sc.Status)
		}
		if !now.Before(sc.Deadline) {
			return errors.InvalidTransitionf("voting on scenario %s closed at %s", sc.ID, sc.Deadline.Format("2006-01-02 15:04:05Z07:00")).
				With("deadline", sc.Deadline)
		}

		ballot := req.Ballot
		if req.Abstain {
			if !sc.Params.Base().AllowAbstain {
				return errors.Validation("abstaining is not allowed on this scenario")
			}
			ballot = tally.Ballot{}
		} else if err := tally.ValidateBallot(sc.Mechanism, sc.Options, ballot); err != nil {
			return err
		}

		prior, err := st.GetVote(ctx, sc.ID, req.VoterID)
		if err != nil && err != repository.ErrNotFound {
			return err
		}

		if sc.CampaignID == nil {
			if req.TokensInvested != 0 {
				return errors.Validation("standalone scenarios do not take tokens").
					With("tokens_invested", req.TokensInvested)
			}
		} else {
			c, err := loadCampaign(ctx, st, *sc.CampaignID)
			if err != nil {
				return err
			}
			if c.Status.Frozen() {
				return errors.InvalidTransitionf("campaign %s is %s", c.ID, c.Status).
					With("campaign_status", c.Status)
			}
			if receipt.RemainingTokens, err = s.spend(ctx, st, c, req, prior); err != nil {
				return err
			}
		}

		vote := &models.Vote{
			ID:             uuid.NewString(),
			ScenarioID:     sc.ID,
			VoterID:        req.VoterID,
			Ballot:         ballot,
			TokensInvested: req.TokensInvested,
			IsAbstain:      req.Abstain,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if prior != nil {
			vote.ID = prior.ID
			vote.CreatedAt = prior.CreatedAt
			receipt.Replaced = true
		}
		receipt.VoteID = vote.ID
		return st.UpsertVote(ctx, vote)
	})
	if err != nil {
		s.metrics.VoteRejected(errors.KindOf(err).String())
		s.log.Warn("Vote rejected", "scenario_id", req.ScenarioID, "voter_id", req.VoterID, "tokens", req.TokensInvested, "error", err)
		return nil, err
	}

	receipt.Accepted = true
	s.metrics.VoteCast(string(mechanism))
	s.log.Info("Vote recorded", "scenario_id", req.ScenarioID, "voter_id", req.VoterID, "tokens", req.TokensInvested,
		"abstain", req.Abstain, "replaced", receipt.Replaced)
	return receipt, nil
}

// spend settles the token side of a submission: refund the prior
// investment, then debit the new one. It returns the resulting balance.
func (s *VotingService) spend(ctx context.Context, st repository.Store, c *models.Campaign, req VoteRequest, prior *models.Vote) (int, error) {
	now := s.clock.Now()
	p, err := initializeParticipant(ctx, st, c, req.VoterID, now)
	if err != nil {
		return 0, err
	}
	balance := p.RemainingTokens
	if prior != nil && prior.TokensInvested > 0 {
		if balance, err = refund(ctx, st, c.ID, req.VoterID, prior.TokensInvested, now); err != nil {
			return 0, err
		}
	}
	if req.TokensInvested == 0 {
		return balance, nil
	}
	return debit(ctx, st, c.ID, req.VoterID, req.TokensInvested, now)
}

// GetVote returns the current vote of a voter on a scenario
func (s *VotingService) GetVote(ctx context.Context, scenarioID, voterID string) (*models.Vote, error) {
	v, err := s.repo.GetVote(ctx, scenarioID, voterID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no vote by %s on scenario %s", voterID, scenarioID)
	}
	return v, err
}
