// Package links resolves chip-to-artwork bindings. Links are created during
// physical affixing, outside this service; reads only.
package links

import (
	"context"

	"github.com/atelierhq/chipverify/internal/server/models"
)

type Repository interface {
	// GetByChipID returns the chip's active link, or common.ErrorNotFound
	// when the chip is not yet bound to any artwork.
	GetByChipID(ctx context.Context, chipID string) (*models.ChipArtworkLink, error)
}
