package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rockstar/internal/domain"
)

// RunStorePG implements domain.RunStore using PostgreSQL. The pending set is
// a flag on the run row; the sent claim is a conditional update so exactly
// one caller wins.
type RunStorePG struct {
	pool *pgxpool.Pool
}

// NewRunStorePG constructs a new run store backed by the given pool.
func NewRunStorePG(pool *pgxpool.Pool) *RunStorePG {
	return &RunStorePG{pool: pool}
}

// SaveRun inserts the record and marks it pending. A replayed save for the
// same id refreshes the contact fields and re-arms pending.
func (s *RunStorePG) SaveRun(ctx context.Context, run domain.Run) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO runs (id, nombre, apellido, email, escena, pending, sent, created_at)
VALUES ($1, $2, $3, $4, $5, TRUE, FALSE, now())
ON CONFLICT (id) DO UPDATE
SET nombre = EXCLUDED.nombre,
    apellido = EXCLUDED.apellido,
    email = EXCLUDED.email,
    escena = EXCLUDED.escena,
    pending = TRUE;
`, run.ID, run.Nombre, run.Apellido, run.Email, run.Escena)
	return err
}

func (s *RunStorePG) GetRun(ctx context.Context, runID string) (domain.Run, error) {
	var run domain.Run
	err := s.pool.QueryRow(ctx, `
SELECT id, nombre, apellido, email, escena, sent, created_at
FROM runs
WHERE id = $1;
`, runID).Scan(&run.ID, &run.Nombre, &run.Apellido, &run.Email, &run.Escena, &run.Sent, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Run{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

func (s *RunStorePG) PendingRuns(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id FROM runs WHERE pending ORDER BY created_at ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *RunStorePG) RemovePending(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE runs SET pending = FALSE WHERE id = $1;
`, runID)
	return err
}

func (s *RunStorePG) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, `
DELETE FROM runs WHERE id = $1;
`, runID)
	return err
}

// MarkSent claims the notification for the run. The conditional update makes
// the claim atomic across processes and across both delivery paths.
func (s *RunStorePG) MarkSent(ctx context.Context, runID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE runs SET sent = TRUE WHERE id = $1 AND NOT sent;
`, runID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *RunStorePG) ClearSent(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE runs SET sent = FALSE WHERE id = $1;
`, runID)
	return err
}

var _ domain.RunStore = (*RunStorePG)(nil)
