package db

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/server/artworks"
	"github.com/atelierhq/chipverify/internal/server/chips"
	"github.com/atelierhq/chipverify/internal/server/links"
	"github.com/atelierhq/chipverify/internal/server/models"
	"github.com/atelierhq/chipverify/internal/server/scans"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager is a mutex-guarded in-process implementation of
// the repository set. It keeps the same linearizability guarantee as the
// Postgres conditional UPDATE: the counter advance is a compare-and-swap
// under the store lock. Used by service tests and local development.
type InMemoryRepositoryManager struct {
	mu     sync.Mutex
	chips  map[string]*models.Chip // by chip ID
	tags   map[string]string       // tag_id -> chip ID
	links  map[string]*models.ChipArtworkLink
	owners map[string]string // artwork_id -> owner handle
	events []*models.ScanEvent
	nextID int64
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		chips:  make(map[string]*models.Chip),
		tags:   make(map[string]string),
		links:  make(map[string]*models.ChipArtworkLink),
		owners: make(map[string]string),
	}
}

func (m *InMemoryRepositoryManager) Conn() *sql.DB { return nil }

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Chips() chips.Repository       { return &memChips{m} }
func (m *InMemoryRepositoryManager) Links() links.Repository       { return &memLinks{m} }
func (m *InMemoryRepositoryManager) Artworks() artworks.Repository { return &memArtworks{m} }
func (m *InMemoryRepositoryManager) Scans() scans.Repository       { return &memScans{m} }

// AddChip registers a chip and returns its generated id.
func (m *InMemoryRepositoryManager) AddChip(tagID, secret string, counter int64, active bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.chips[id] = &models.Chip{
		ID:        id,
		TagID:     tagID,
		Secret:    secret,
		Counter:   counter,
		Active:    active,
		CreatedAt: time.Now(),
	}
	m.tags[tagID] = id
	return id
}

// AddLink binds a chip to an artwork.
func (m *InMemoryRepositoryManager) AddLink(chipID, artworkID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[chipID] = &models.ChipArtworkLink{ChipID: chipID, ArtworkID: artworkID, CreatedAt: time.Now()}
}

// AddArtwork registers an artwork owner handle.
func (m *InMemoryRepositoryManager) AddArtwork(artworkID, ownerHandle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[artworkID] = ownerHandle
}

// Events returns a copy of the recorded scan events.
func (m *InMemoryRepositoryManager) Events() []*models.ScanEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ScanEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ChipCounter reads the current stored counter of a chip, or -1 if unknown.
func (m *InMemoryRepositoryManager) ChipCounter(chipID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.chips[chipID]; ok {
		return c.Counter
	}
	return -1
}

type memChips struct{ m *InMemoryRepositoryManager }

func (r *memChips) GetByTagID(ctx context.Context, tagID string) (*models.Chip, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	id, ok := r.m.tags[tagID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	chip := *r.m.chips[id]
	return &chip, nil
}

func (r *memChips) AdvanceCounter(ctx context.Context, chipID string, expected, next int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	chip, ok := r.m.chips[chipID]
	if !ok || chip.Counter != expected {
		return common.ErrCounterConflict
	}
	chip.Counter = next
	return nil
}

type memLinks struct{ m *InMemoryRepositoryManager }

func (r *memLinks) GetByChipID(ctx context.Context, chipID string) (*models.ChipArtworkLink, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	link, ok := r.m.links[chipID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *link
	return &out, nil
}

type memArtworks struct{ m *InMemoryRepositoryManager }

func (r *memArtworks) GetOwnerHandle(ctx context.Context, artworkID string) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	handle, ok := r.m.owners[artworkID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return handle, nil
}

type memScans struct{ m *InMemoryRepositoryManager }

func (r *memScans) Create(ctx context.Context, event *models.ScanEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextID++
	event.ID = r.m.nextID
	event.CreatedAt = time.Now()
	stored := *event
	r.m.events = append(r.m.events, &stored)
	return nil
}

func (r *memScans) ListAfter(ctx context.Context, afterID int64, limit int) ([]*models.ScanEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.ScanEvent
	for _, e := range r.m.events {
		if e.ID > afterID {
			copied := *e
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
