package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/dbx"
	"github.com/atelierhq/chipverify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByChipID(ctx context.Context, chipID string) (*models.ChipArtworkLink, error) {
	query :=
		`SELECT chip_id, artwork_id, created_at FROM chip_artwork_links
		 WHERE chip_id = $1
		 `

	link := &models.ChipArtworkLink{}
	err := r.db.QueryRowContext(ctx, query, chipID).
		Scan(&link.ChipID, &link.ArtworkID, &link.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}
