// Package artworks reads display data from the marketplace's artwork table.
// This is enrichment only; nothing here influences classification.
package artworks

import "context"

type Repository interface {
	// GetOwnerHandle returns the current owner handle of an artwork, or
	// common.ErrorNotFound when the artwork is unknown.
	GetOwnerHandle(ctx context.Context, artworkID string) (string, error)
}
