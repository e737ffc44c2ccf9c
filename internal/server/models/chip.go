// Package models defines the server-side domain types: chips, their artwork
// links, and the append-only scan events they generate.
package models

import "time"

// Chip is the identity and trust anchor for a physical NFC/RFID tag.
//
// Secret is the pre-shared symmetric key used to validate signatures; it is
// empty for unit/dev chips and must never leave the registry. Counter is the
// last accepted monotonic counter value and is mutated only through the
// conditional counter advance on a successful verification. A compromised
// chip is deactivated, not deleted, to preserve audit history.
type Chip struct {
	ID        string
	TagID     string
	Secret    string
	Counter   int64
	Active    bool
	CreatedAt time.Time
}
