package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

// ==================== Scenario Methods ====================

const scenarioColumns = `id, campaign_id, proposer_id, position, title, description, options, mechanism,
	hyperparameters, deadline, status, stage, created_at, started_at, closed_at`

func scanScenario(row rowScanner) (*models.Scenario, error) {
	var sc models.Scenario
	var campaignID sql.NullString
	var options, mechanism, params, status string
	var deadline, createdAt int64
	var startedAt, closedAt sql.NullInt64

	err := row.Scan(&sc.ID, &campaignID, &sc.ProposerID, &sc.Order, &sc.Title, &sc.Description,
		&options, &mechanism, &params, &deadline, &status, &sc.Stage, &createdAt, &startedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	if campaignID.Valid {
		id := campaignID.String
		sc.CampaignID = &id
	}
	if err := json.Unmarshal([]byte(options), &sc.Options); err != nil {
		return nil, fmt.Errorf("decode options of scenario %s: %w", sc.ID, err)
	}
	sc.Mechanism = tally.Mechanism(mechanism)
	if sc.Params, err = tally.DecodeParams(sc.Mechanism, []byte(params)); err != nil {
		return nil, fmt.Errorf("decode hyperparameters of scenario %s: %w", sc.ID, err)
	}
	sc.Deadline = fromUnix(deadline)
	sc.Status = models.ScenarioStatus(status)
	sc.CreatedAt = fromUnix(createdAt)
	sc.StartedAt = fromNullUnix(startedAt)
	sc.ClosedAt = fromNullUnix(closedAt)
	return &sc, nil
}

func (s *store) queryScenarios(ctx context.Context, query string, args ...any) ([]models.Scenario, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []models.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, rows.Err()
}

// CreateScenario inserts a scenario. A second scenario at the same order in
// one campaign returns ErrDuplicate.
func (s *store) CreateScenario(ctx context.Context, sc *models.Scenario) error {
	options, err := json.Marshal(sc.Options)
	if err != nil {
		return err
	}
	params := []byte("{}")
	if sc.Params != nil {
		if params, err = tally.EncodeParams(sc.Params); err != nil {
			return err
		}
	}

	var campaignID any
	if sc.CampaignID != nil {
		campaignID = *sc.CampaignID
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO scenarios (id, campaign_id, proposer_id, position, title, description, options,
			mechanism, hyperparameters, deadline, status, stage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sc.ID, campaignID, sc.ProposerID, sc.Order, sc.Title, sc.Description, string(options),
		string(sc.Mechanism), string(params), toUnix(sc.Deadline), string(sc.Status), sc.Stage, toUnix(sc.CreatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetScenario returns a scenario by ID
func (s *store) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id)
	sc, err := scanScenario(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sc, err
}

// ListScenarios returns a campaign's scenarios by order
func (s *store) ListScenarios(ctx context.Context, campaignID string) ([]models.Scenario, error) {
	return s.queryScenarios(ctx, `
		SELECT `+scenarioColumns+` FROM scenarios
		WHERE campaign_id = ?
		ORDER BY position, created_at
	`, campaignID)
}

// ListScenariosByOrderRange returns a campaign's scenarios with from <= order <= to
func (s *store) ListScenariosByOrderRange(ctx context.Context, campaignID string, from, to int) ([]models.Scenario, error) {
	return s.queryScenarios(ctx, `
		SELECT `+scenarioColumns+` FROM scenarios
		WHERE campaign_id = ? AND position BETWEEN ? AND ?
		ORDER BY position
	`, campaignID, from, to)
}

// ListScenariosByStatus returns a campaign's scenarios in the given status
func (s *store) ListScenariosByStatus(ctx context.Context, campaignID string, status models.ScenarioStatus) ([]models.Scenario, error) {
	return s.queryScenarios(ctx, `
		SELECT `+scenarioColumns+` FROM scenarios
		WHERE campaign_id = ? AND status = ?
		ORDER BY position
	`, campaignID, string(status))
}

// ListExpiredScenarios returns Voting scenarios whose deadline is at or
// before now, skipping those whose campaign is frozen
func (s *store) ListExpiredScenarios(ctx context.Context, now time.Time) ([]models.Scenario, error) {
	return s.queryScenarios(ctx, `
		SELECT `+scenarioColumns+` FROM scenarios
		WHERE status = ? AND deadline <= ?
		AND (campaign_id IS NULL OR campaign_id NOT IN (
			SELECT id FROM campaigns WHERE status IN (?, ?)
		))
		ORDER BY deadline, id
	`, string(models.ScenarioVoting), toUnix(now),
		string(models.CampaignRejected), string(models.CampaignArchived))
}

// TransitionScenario is a compare-and-swap on the scenario status
func (s *store) TransitionScenario(ctx context.Context, id string, from, to models.ScenarioStatus, stage int, at time.Time) (bool, error) {
	var res sql.Result
	var err error
	switch to {
	case models.ScenarioVoting:
		res, err = s.q.ExecContext(ctx, `
			UPDATE scenarios SET status = ?, stage = ?, started_at = ?
			WHERE id = ? AND status = ?
		`, string(to), stage, toUnix(at), id, string(from))
	case models.ScenarioClosed:
		res, err = s.q.ExecContext(ctx, `
			UPDATE scenarios SET status = ?, closed_at = ?
			WHERE id = ? AND status = ?
		`, string(to), toUnix(at), id, string(from))
	default:
		res, err = s.q.ExecContext(ctx, `
			UPDATE scenarios SET status = ?
			WHERE id = ? AND status = ?
		`, string(to), id, string(from))
	}
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// DeleteScenario removes a scenario that is still in status
func (s *store) DeleteScenario(ctx context.Context, id string, status models.ScenarioStatus) (bool, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ? AND status = ?`, id, string(status))
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}
