package artworks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOwnerHandle(ctx context.Context, artworkID string) (string, error) {
	query :=
		`SELECT owner_handle FROM artworks
		 WHERE id = $1
		 `

	var handle sql.NullString
	err := r.db.QueryRowContext(ctx, query, artworkID).Scan(&handle)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return handle.String, nil
}
