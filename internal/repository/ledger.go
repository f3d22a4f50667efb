package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// ==================== Participation Methods ====================

func scanParticipation(row rowScanner) (*models.Participation, error) {
	var p models.Participation
	var updatedAt int64
	if err := row.Scan(&p.CampaignID, &p.ParticipantID, &p.TotalTokens, &p.RemainingTokens, &updatedAt); err != nil {
		return nil, err
	}
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

// InsertParticipationIgnore creates the participation if it does not exist
func (s *store) InsertParticipationIgnore(ctx context.Context, p *models.Participation) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO participations (campaign_id, participant_id, total_tokens, remaining_tokens, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.CampaignID, p.ParticipantID, p.TotalTokens, p.RemainingTokens, toUnix(p.UpdatedAt))
	return err
}

// GetParticipation returns the participation for a (campaign, participant) key
func (s *store) GetParticipation(ctx context.Context, campaignID, participantID string) (*models.Participation, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT campaign_id, participant_id, total_tokens, remaining_tokens, updated_at
		FROM participations
		WHERE campaign_id = ? AND participant_id = ?
	`, campaignID, participantID)
	p, err := scanParticipation(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListParticipations returns every participation of a campaign
func (s *store) ListParticipations(ctx context.Context, campaignID string) ([]models.Participation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT campaign_id, participant_id, total_tokens, remaining_tokens, updated_at
		FROM participations
		WHERE campaign_id = ?
		ORDER BY participant_id
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DebitTokens checks and decrements the balance in one statement, so two
// concurrent debits can never both pass against the same balance.
func (s *store) DebitTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (int, bool, error) {
	var balance int
	err := s.q.QueryRowContext(ctx, `
		UPDATE participations
		SET remaining_tokens = remaining_tokens - ?, updated_at = ?
		WHERE campaign_id = ? AND participant_id = ? AND remaining_tokens >= ?
		RETURNING remaining_tokens
	`, amount, toUnix(at), campaignID, participantID, amount).Scan(&balance)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

// CreditTokens returns tokens to a participant, never above the total budget
func (s *store) CreditTokens(ctx context.Context, campaignID, participantID string, amount int, at time.Time) (int, error) {
	var balance int
	err := s.q.QueryRowContext(ctx, `
		UPDATE participations
		SET remaining_tokens = MIN(total_tokens, remaining_tokens + ?), updated_at = ?
		WHERE campaign_id = ? AND participant_id = ?
		RETURNING remaining_tokens
	`, amount, toUnix(at), campaignID, participantID).Scan(&balance)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}
