package services

import (
	"context"
	"time"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
)

// LedgerService owns per-participant token balances. Balances only change
// through the fused debit and the bounded refund below; there is no way for
// a caller to read a balance and then write it.
type LedgerService struct {
	log   logger.Logger
	repo  repository.FullRepository
	clock Clock
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(log logger.Logger, repo repository.FullRepository, clock Clock) *LedgerService {
	return &LedgerService{log: log, repo: repo, clock: clock}
}

// InitializeParticipant creates the participant's participation with the
// full campaign budget, or returns the existing one unchanged
func (s *LedgerService) InitializeParticipant(ctx context.Context, campaignID, participantID string) (*models.Participation, error) {
	if participantID == "" {
		return nil, errors.Validation("participant id is required")
	}
	var p *models.Participation
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := loadCampaign(ctx, st, campaignID)
		if err != nil {
			return err
		}
		p, err = initializeParticipant(ctx, st, c, participantID, s.clock.Now())
		return err
	})
	return p, err
}

// ReserveAndDebit atomically checks and decrements the balance, returning
// the new balance or an InsufficientTokens error
func (s *LedgerService) ReserveAndDebit(ctx context.Context, campaignID, participantID string, amount int) (int, error) {
	if amount < 0 {
		return 0, errors.Validation("amount must not be negative")
	}
	if participantID == "" {
		return 0, errors.Validation("participant id is required")
	}
	var balance int
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := loadCampaign(ctx, st, campaignID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if _, err := initializeParticipant(ctx, st, c, participantID, now); err != nil {
			return err
		}
		balance, err = debit(ctx, st, campaignID, participantID, amount, now)
		return err
	})
	if err != nil {
		s.log.Debug("Debit rejected", "campaign_id", campaignID, "participant_id", participantID, "tokens", amount, "error", err)
		return 0, err
	}
	return balance, nil
}

// Refund returns tokens to an existing participation, never above its total
func (s *LedgerService) Refund(ctx context.Context, campaignID, participantID string, amount int) (int, error) {
	if amount < 0 {
		return 0, errors.Validation("amount must not be negative")
	}
	var balance int
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		balance, err = refund(ctx, st, campaignID, participantID, amount, s.clock.Now())
		return err
	})
	return balance, err
}

// Balance returns the participant's participation, creating it lazily
func (s *LedgerService) Balance(ctx context.Context, campaignID, participantID string) (*models.Participation, error) {
	return s.InitializeParticipant(ctx, campaignID, participantID)
}

// ==================== Store-scoped ledger steps ====================
// These run inside a caller's transaction so a vote's refund, debit and
// write commit or roll back together.

func initializeParticipant(ctx context.Context, st repository.Store, c *models.Campaign, participantID string, now time.Time) (*models.Participation, error) {
	err := st.InsertParticipationIgnore(ctx, &models.Participation{
		CampaignID:      c.ID,
		ParticipantID:   participantID,
		TotalTokens:     c.TokensPerParticipant,
		RemainingTokens: c.TokensPerParticipant,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	return st.GetParticipation(ctx, c.ID, participantID)
}

func debit(ctx context.Context, st repository.Store, campaignID, participantID string, amount int, now time.Time) (int, error) {
	balance, ok, err := st.DebitTokens(ctx, campaignID, participantID, amount, now)
	if err != nil {
		return 0, err
	}
	if ok {
		return balance, nil
	}
	p, err := st.GetParticipation(ctx, campaignID, participantID)
	if err == repository.ErrNotFound {
		return 0, errors.NotFoundf("participant %s has no balance in campaign %s", participantID, campaignID)
	}
	if err != nil {
		return 0, err
	}
	return 0, errors.InsufficientTokens(amount, p.RemainingTokens)
}

func refund(ctx context.Context, st repository.Store, campaignID, participantID string, amount int, now time.Time) (int, error) {
	balance, err := st.CreditTokens(ctx, campaignID, participantID, amount, now)
	if err == repository.ErrNotFound {
		return 0, errors.NotFoundf("participant %s has no balance in campaign %s", participantID, campaignID)
	}
	return balance, err
}

func loadCampaign(ctx context.Context, st repository.Store, campaignID string) (*models.Campaign, error) {
	c, err := st.GetCampaign(ctx, campaignID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("campaign %s not found", campaignID)
	}
	return c, err
}

func loadScenario(ctx context.Context, st repository.Store, scenarioID string) (*models.Scenario, error) {
	sc, err := st.GetScenario(ctx, scenarioID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("scenario %s not found", scenarioID)
	}
	return sc, err
}
