package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// ==================== Result Methods ====================

// SaveResult stores a scenario result. Results are write-once: a second save
// for the same scenario leaves the first in place and returns false.
func (s *store) SaveResult(ctx context.Context, r *models.Result) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO results (scenario_id, payload, closed_at) VALUES (?, ?, ?)
	`, r.ScenarioID, string(payload), toUnix(r.ClosedAt))
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// GetResult returns the stored result of a scenario
func (s *store) GetResult(ctx context.Context, scenarioID string) (*models.Result, error) {
	var payload string
	err := s.q.QueryRowContext(ctx, `SELECT payload FROM results WHERE scenario_id = ?`, scenarioID).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var r models.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ==================== Aggregate Methods ====================

// SaveAggregate stores the completion snapshot of a campaign, once
func (s *store) SaveAggregate(ctx context.Context, a *models.AggregateStats) (bool, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO campaign_aggregates (campaign_id, payload, computed_at) VALUES (?, ?, ?)
	`, a.CampaignID, string(payload), toUnix(a.ComputedAt))
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// GetAggregate returns the stored completion snapshot of a campaign
func (s *store) GetAggregate(ctx context.Context, campaignID string) (*models.AggregateStats, error) {
	var payload string
	err := s.q.QueryRowContext(ctx, `SELECT payload FROM campaign_aggregates WHERE campaign_id = ?`, campaignID).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var a models.AggregateStats
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
