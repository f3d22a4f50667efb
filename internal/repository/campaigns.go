package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// ==================== Campaign Methods ====================

const campaignColumns = `id, group_id, creator_id, title, description, tokens_per_participant,
	expected_scenarios, defined_scenarios, status, current_stage, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	var status string
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.GroupID, &c.CreatorID, &c.Title, &c.Description, &c.TokensPerParticipant,
		&c.ExpectedScenarioCount, &c.DefinedScenarioCount, &status, &c.CurrentStage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.CampaignStatus(status)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return &c, nil
}

// CreateCampaign inserts a new campaign
func (s *store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.GroupID, c.CreatorID, c.Title, c.Description, c.TokensPerParticipant,
		c.ExpectedScenarioCount, c.DefinedScenarioCount, string(c.Status), c.CurrentStage,
		toUnix(c.CreatedAt), toUnix(c.UpdatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetCampaign returns a campaign by ID
func (s *store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListCampaigns returns campaigns, newest first. An empty groupID lists all.
func (s *store) ListCampaigns(ctx context.Context, groupID string) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	var args []any
	if groupID != "" {
		query += ` WHERE group_id = ?`
		args = append(args, groupID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// UpdateCampaignStatus is a compare-and-swap on the campaign status
func (s *store) UpdateCampaignStatus(ctx context.Context, id string, from []models.CampaignStatus, to models.CampaignStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{string(to), toUnix(at), id}
	for _, f := range from {
		args = append(args, string(f))
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE campaigns SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// IncrementDefinedScenarios bumps defined_scenarios unless it already equals
// expected_scenarios
func (s *store) IncrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE campaigns SET defined_scenarios = defined_scenarios + 1, updated_at = ?
		WHERE id = ? AND defined_scenarios < expected_scenarios
	`, toUnix(at), id)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// DecrementDefinedScenarios releases one defined slot
func (s *store) DecrementDefinedScenarios(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE campaigns SET defined_scenarios = defined_scenarios - 1, updated_at = ?
		WHERE id = ? AND defined_scenarios > 0
	`, toUnix(at), id)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// NextStage increments and returns the campaign's stage counter
func (s *store) NextStage(ctx context.Context, id string) (int, error) {
	var stage int
	err := s.q.QueryRowContext(ctx, `
		UPDATE campaigns SET current_stage = current_stage + 1
		WHERE id = ?
		RETURNING current_stage
	`, id).Scan(&stage)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return stage, err
}
