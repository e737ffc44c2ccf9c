// Package scans persists the append-only audit trail of verification
// attempts. Every request that reaches the orchestrator produces exactly one
// event; the trail must never have gaps.
package scans

import (
	"context"

	"github.com/atelierhq/chipverify/internal/server/models"
)

type Repository interface {
	// Create appends one scan event and fills in its ID and CreatedAt.
	Create(ctx context.Context, event *models.ScanEvent) error

	// ListAfter returns up to limit events with ID greater than afterID,
	// ordered by ID. Used by the archive exporter.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*models.ScanEvent, error)
}
