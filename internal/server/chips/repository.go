// Package chips provides lookup and counter mutation for registered chips.
package chips

import (
	"context"

	"github.com/atelierhq/chipverify/internal/server/models"
)

// Repository is the chip registry accessor.
//
// AdvanceCounter must be an atomic conditional update: the stored counter
// moves from expected to next in a single statement, and the call fails with
// common.ErrCounterConflict when the stored value is no longer expected.
// Concurrent verifications for one chip therefore cannot both be accepted
// against the same stale counter.
type Repository interface {
	GetByTagID(ctx context.Context, tagID string) (*models.Chip, error)
	AdvanceCounter(ctx context.Context, chipID string, expected, next int64) error
}
