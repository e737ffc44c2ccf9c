package chips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/dbx"
	"github.com/atelierhq/chipverify/internal/server/models"
)

// PostgresRepository implements chip storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByTagID(ctx context.Context, tagID string) (*models.Chip, error) {
	query :=
		`SELECT id, tag_id, secret, counter, active, created_at FROM chips
		 WHERE tag_id = $1
		 `

	chip := &models.Chip{}
	var secret sql.NullString
	err := r.db.QueryRowContext(ctx, query, tagID).
		Scan(&chip.ID, &chip.TagID, &secret, &chip.Counter, &chip.Active, &chip.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	chip.Secret = secret.String
	return chip, nil
}

// AdvanceCounter moves the stored counter from expected to next as a single
// conditional UPDATE. Zero rows affected means the stored counter was not the
// expected value (a concurrent scan won the race, or a replay) and yields
// common.ErrCounterConflict.
func (r *PostgresRepository) AdvanceCounter(ctx context.Context, chipID string, expected, next int64) error {
	query :=
		`UPDATE chips SET counter = $3
		 WHERE id = $1 AND counter = $2
		 `

	res, err := r.db.ExecContext(ctx, query, chipID, expected, next)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrCounterConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
