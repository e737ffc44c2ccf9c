// Package verification implements the chip authenticity check: signature
// validation against the pre-shared secret, monotonic-counter replay
// protection, chip-to-artwork link resolution, and the audit trail every
// attempt leaves behind.
package verification

import (
	"context"
	"errors"
	"strconv"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/logging"
	"github.com/atelierhq/chipverify/internal/server/artworks"
	"github.com/atelierhq/chipverify/internal/server/chips"
	"github.com/atelierhq/chipverify/internal/server/links"
	"github.com/atelierhq/chipverify/internal/server/models"
	"github.com/atelierhq/chipverify/internal/server/scans"
)

// Request carries the raw, unvalidated inputs of one scan attempt. Counter is
// kept as the presented string: it is part of the signed message and is only
// parsed after the signature checks out.
type Request struct {
	TagID     string
	Signature string
	Counter   string
	KeyID     string // optional key identifier, pass-through, currently unused
	ArtworkID string // artwork the caller believes the chip is attached to
	IP        string
	UserAgent string
}

// Result is the classified outcome of an attempt. LinkedArtworkID and
// OwnerHandle are populated only on the accept path (authentic/mismatch).
type Result struct {
	State           models.ScanState
	LinkedArtworkID *string
	OwnerHandle     *string
}

type Service struct {
	chips    chips.Repository
	links    links.Repository
	artworks artworks.Repository
	scans    scans.Repository
	verifier Verifier
	logger   logging.Logger
}

func NewService(c chips.Repository, l links.Repository, a artworks.Repository, s scans.Repository,
	v Verifier, logger logging.Logger) *Service {
	return &Service{
		chips:    c,
		links:    l,
		artworks: a,
		scans:    s,
		verifier: v,
		logger:   logger.With("module", "verification"),
	}
}

// Verify runs the state machine for one attempt. First matching rule wins:
//
//  1. missing tag id, signature or counter -> common.ErrMissingParams
//     (an invalid event is still recorded for fraud-pattern visibility)
//  2. unknown or deactivated chip -> invalid
//  3. signature failure            -> invalid
//  4. unparseable counter          -> common.ErrBadCounter (no event)
//  5. counter not strictly greater -> cloned
//  6. accept: resolve link         -> authentic or mismatch; counter advances
//
// Every path except 4 writes exactly one scan event; a failed event write
// surfaces as common.ErrorInternal, never as a different verdict.
func (s *Service) Verify(ctx context.Context, req Request) (*Result, error) {

	if req.TagID == "" || req.Signature == "" || req.Counter == "" {
		if _, err := s.record(ctx, nil, optional(req.ArtworkID), models.ScanStateInvalid, req); err != nil {
			return nil, err
		}
		return nil, common.ErrMissingParams
	}

	chip, err := s.chips.GetByTagID(ctx, req.TagID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.record(ctx, nil, optional(req.ArtworkID), models.ScanStateInvalid, req)
		}
		s.logger.Error(ctx, "chip lookup failed", "tag_id", req.TagID, "error", err)
		return nil, common.ErrorInternal
	}

	// deactivated chips verify like unknown tags, but keep the chip id on
	// the audit event
	if !chip.Active {
		return s.record(ctx, &chip.ID, optional(req.ArtworkID), models.ScanStateInvalid, req)
	}

	if !s.verifier.Verify(chip, req.TagID, req.Counter, req.Signature) {
		return s.record(ctx, &chip.ID, optional(req.ArtworkID), models.ScanStateInvalid, req)
	}

	presented, err := strconv.ParseInt(req.Counter, 10, 64)
	if err != nil || presented < 0 {
		return nil, common.ErrBadCounter
	}

	if presented <= chip.Counter {
		return s.record(ctx, &chip.ID, optional(req.ArtworkID), models.ScanStateCloned, req)
	}

	linked, state, err := s.resolveLink(ctx, chip.ID, req.ArtworkID)
	if err != nil {
		return nil, err
	}

	if err := s.chips.AdvanceCounter(ctx, chip.ID, chip.Counter, presented); err != nil {
		if errors.Is(err, common.ErrCounterConflict) {
			// lost the race to a concurrent scan: the stored counter
			// already moved past what we read
			return s.record(ctx, &chip.ID, optional(req.ArtworkID), models.ScanStateCloned, req)
		}
		s.logger.Error(ctx, "counter advance failed", "chip_id", chip.ID, "error", err)
		return nil, common.ErrorInternal
	}

	eventArtwork := optional(req.ArtworkID)
	if eventArtwork == nil {
		eventArtwork = linked
	}
	result, err := s.record(ctx, &chip.ID, eventArtwork, state, req)
	if err != nil {
		return nil, err
	}

	result.LinkedArtworkID = linked
	result.OwnerHandle = s.ownerHandle(ctx, linked)
	return result, nil
}

// resolveLink classifies agreement between the chip's bound artwork and the
// one asserted by the caller. An unbound chip is a registration-in-progress
// state, not a failure: signature and replay checks already succeeded.
func (s *Service) resolveLink(ctx context.Context, chipID, assertedArtworkID string) (*string, models.ScanState, error) {
	link, err := s.links.GetByChipID(ctx, chipID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, models.ScanStateAuthentic, nil
		}
		s.logger.Error(ctx, "link lookup failed", "chip_id", chipID, "error", err)
		return nil, "", common.ErrorInternal
	}

	if assertedArtworkID != "" && assertedArtworkID != link.ArtworkID {
		return &link.ArtworkID, models.ScanStateMismatch, nil
	}
	return &link.ArtworkID, models.ScanStateAuthentic, nil
}

// record appends the scan event for this attempt. The audit trail is a
// compliance requirement: a failed write surfaces as a server error even
// though the classification was already computed.
func (s *Service) record(ctx context.Context, chipID, artworkID *string, state models.ScanState, req Request) (*Result, error) {
	event := &models.ScanEvent{
		ChipID:    chipID,
		ArtworkID: artworkID,
		State:     state,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.scans.Create(ctx, event); err != nil {
		s.logger.Error(ctx, "scan event write failed", "state", string(state), "error", err)
		return nil, common.ErrorInternal
	}
	return &Result{State: state}, nil
}

// ownerHandle looks up the current owner of the linked artwork for UI
// display. Read-only enrichment: failures are logged and ignored.
func (s *Service) ownerHandle(ctx context.Context, artworkID *string) *string {
	if artworkID == nil {
		return nil
	}
	handle, err := s.artworks.GetOwnerHandle(ctx, *artworkID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "owner lookup failed", "artwork_id", *artworkID, "error", err)
		}
		return nil
	}
	if handle == "" {
		return nil
	}
	return &handle
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
