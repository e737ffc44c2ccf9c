package models

import "time"

// ChipArtworkLink binds a chip to the artwork it authenticates. At most one
// active link exists per chip; links are created when a chip is physically
// affixed to an artwork and are read-only from this service's perspective.
type ChipArtworkLink struct {
	ChipID    string
	ArtworkID string
	CreatedAt time.Time
}
