package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/abrezinsky/tokenvote/internal/models"
)

// ==================== Vote Methods ====================

const voteColumns = `id, scenario_id, voter_id, ballot, tokens_invested, is_abstain, created_at, updated_at`

func scanVote(row rowScanner) (*models.Vote, error) {
	var v models.Vote
	var ballot string
	var createdAt, updatedAt int64
	if err := row.Scan(&v.ID, &v.ScenarioID, &v.VoterID, &ballot, &v.TokensInvested, &v.IsAbstain, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ballot), &v.Ballot); err != nil {
		return nil, fmt.Errorf("decode ballot of vote %s: %w", v.ID, err)
	}
	v.CreatedAt = fromUnix(createdAt)
	v.UpdatedAt = fromUnix(updatedAt)
	return &v, nil
}

// GetVote returns the current vote of a voter on a scenario
func (s *store) GetVote(ctx context.Context, scenarioID, voterID string) (*models.Vote, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE scenario_id = ? AND voter_id = ?
	`, scenarioID, voterID)
	v, err := scanVote(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// UpsertVote inserts a vote or replaces the prior vote of the same voter in
// place, keeping its ID and creation time
func (s *store) UpsertVote(ctx context.Context, v *models.Vote) error {
	ballot, err := json.Marshal(v.Ballot)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO votes (`+voteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id, voter_id) DO UPDATE SET
			ballot = excluded.ballot,
			tokens_invested = excluded.tokens_invested,
			is_abstain = excluded.is_abstain,
			updated_at = excluded.updated_at
	`, v.ID, v.ScenarioID, v.VoterID, string(ballot), v.TokensInvested, v.IsAbstain,
		toUnix(v.CreatedAt), toUnix(v.UpdatedAt))
	return err
}

// ListVotes returns all votes on a scenario in submission order
func (s *store) ListVotes(ctx context.Context, scenarioID string) ([]models.Vote, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE scenario_id = ? ORDER BY created_at, id
	`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *v)
	}
	return votes, rows.Err()
}
