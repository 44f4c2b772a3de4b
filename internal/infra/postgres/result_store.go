package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"

	"assessment-service/internal/domain"
)

// ResultStore appends scored attempts. Results are immutable, so a second
// write for the same attempt is ignored.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, r domain.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return eris.Wrapf(err, "postgres: encode result %s", r.ID)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO results (id, attempt_id, assessment_id, score, band, flagged, data, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		ON CONFLICT (attempt_id) DO NOTHING`,
		r.ID, r.AttemptID, r.AssessmentID, r.Score, r.Band, len(r.RiskFlags) > 0, string(data), r.CompletedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: store result for attempt %s", r.AttemptID)
	}
	return nil
}

// LoadResult returns the stored result for an attempt.
func (s *ResultStore) LoadResult(ctx context.Context, attemptID string) (domain.Result, error) {
	var raw []byte
	if err := s.pool.QueryRow(ctx, `SELECT data FROM results WHERE attempt_id=$1`, attemptID).Scan(&raw); err != nil {
		return domain.Result{}, eris.Wrapf(err, "postgres: load result for attempt %s", attemptID)
	}
	var r domain.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Result{}, eris.Wrapf(err, "postgres: decode result for attempt %s", attemptID)
	}
	return r, nil
}
