package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"

	"assessment-service/internal/domain"
)

// AssessmentStore keeps assessment documents as JSONB in Postgres.
type AssessmentStore struct {
	pool *pgxpool.Pool
}

func NewAssessmentStore(pool *pgxpool.Pool) *AssessmentStore {
	return &AssessmentStore{pool: pool}
}

func (s *AssessmentStore) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM assessments WHERE id=$1`, assessmentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, eris.Wrapf(err, "postgres: load assessment %s", assessmentID)
	}
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Assessment{}, eris.Wrapf(err, "postgres: decode assessment %s", assessmentID)
	}
	return a, nil
}

func (s *AssessmentStore) StoreAssessment(ctx context.Context, a domain.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return eris.Wrapf(err, "postgres: encode assessment %s", a.ID)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessments (id, title, data, updated_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		a.ID, a.Title, string(data), a.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: store assessment %s", a.ID)
	}
	return nil
}
