package scans

import (
	"context"
	"fmt"

	"github.com/atelierhq/chipverify/internal/dbx"
	"github.com/atelierhq/chipverify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.ScanEvent) error {
	query :=
		`INSERT INTO scan_events (chip_id, artwork_id, state, ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		event.ChipID, event.ArtworkID, string(event.State), event.IP, event.UserAgent).
		Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*models.ScanEvent, error) {
	query :=
		`SELECT id, chip_id, artwork_id, state, ip, user_agent, created_at FROM scan_events
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ScanEvent
	for rows.Next() {
		var item models.ScanEvent
		var state string
		if err := rows.Scan(
			&item.ID, &item.ChipID, &item.ArtworkID, &state, &item.IP, &item.UserAgent, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.State = models.ScanState(state)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
