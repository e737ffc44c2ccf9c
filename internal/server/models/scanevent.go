package models

import "time"

// ScanState is the terminal classification of one verification attempt.
type ScanState string

const (
	// ScanStateInvalid: unknown tag, deactivated chip, or failed signature.
	ScanStateInvalid ScanState = "invalid"
	// ScanStateCloned: replay or counter-rollback signal.
	ScanStateCloned ScanState = "cloned"
	// ScanStateMismatch: chip is genuine but bound to a different artwork.
	ScanStateMismatch ScanState = "mismatch"
	// ScanStateAuthentic: signature, counter and artwork link all agree.
	ScanStateAuthentic ScanState = "authentic"
)

// ScanEvent is the immutable audit record of one verification attempt.
// ChipID is nil when the presented tag id did not resolve to a known chip.
// Events are append-only; they are never updated or deleted.
type ScanEvent struct {
	ID        int64     `json:"id"`
	ChipID    *string   `json:"chip_id"`
	ArtworkID *string   `json:"artwork_id"`
	State     ScanState `json:"state"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
