// Package catalog is the product ("piece") store.
//
// The store keeps the whole catalog in memory, in insertion order, and
// writes a snapshot through kv.Store after every mutation. A mutation is
// applied to a copy first; the copy only becomes visible after the write
// succeeded, so a failed write never leaves a half-applied change behind.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const schemaVersion = 1

// CopySuffix marks the name of a duplicated piece.
const CopySuffix = " (Copy)"

type snapshot struct {
	Version     int     `json:"version"`
	Initialized bool    `json:"initialized"`
	Pieces      []Piece `json:"pieces"`
}

type Store struct {
	mu          sync.Mutex
	db          kv.Store
	logger      *slog.Logger
	pieces      []Piece
	initialized bool

	Now func() time.Time
}

func NewStore(db kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, Now: time.Now}
}

// Load replaces the in-memory catalog with the persisted snapshot, if any.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap snapshot
	found, err := kv.GetJSON(ctx, s.db, kv.KeyCatalog, &snap)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if !found {
		return nil
	}
	if snap.Version > schemaVersion {
		return fmt.Errorf("load catalog: unsupported schema version %d", snap.Version)
	}
	s.pieces = snap.Pieces
	s.initialized = snap.Initialized
	return nil
}

// Seed populates the catalog from the embedded dataset the first time it is
// called against a never-initialized store. It reports whether it seeded.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return false, nil
	}
	pieces, err := SeedPieces()
	if err != nil {
		return false, err
	}
	now := s.Now().UTC()
	for i := range pieces {
		pieces[i].CreatedAt = now
	}
	next := append(s.cloneAll(), pieces...)
	if err := s.commit(ctx, next, true); err != nil {
		return false, err
	}
	s.logger.Info("catalog seeded", "pieces", len(pieces))
	return true, nil
}

func (s *Store) AddProduct(ctx context.Context, d Draft) (Piece, error) {
	if strings.TrimSpace(d.Name) == "" {
		return Piece{}, ErrNameRequired
	}
	if d.Price.IsNegative() {
		return Piece{}, ErrNegativePrice
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Piece{
		ID:          uuid.NewString(),
		Name:        d.Name,
		Description: d.Description,
		Vibe:        d.Vibe,
		Era:         d.Era,
		Origin:      d.Origin,
		Material:    d.Material,
		Condition:   d.Condition,
		Story:       d.Story,
		Sizes:       append([]string(nil), d.Sizes...),
		Price:       d.Price,
		Category:    d.Category,
		Available:   d.Available,
		CreatedAt:   s.Now().UTC(),
	}
	if err := s.commit(ctx, append(s.cloneAll(), p), s.initialized); err != nil {
		return Piece{}, err
	}
	return p.clone(), nil
}

// UpdateProduct merges patch into the piece. Unknown ids report false.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch Patch) (bool, error) {
	if patch.Price != nil && patch.Price.IsNegative() {
		return false, ErrNegativePrice
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return false, ErrNameRequired
	}
	return s.mutate(ctx, id, func(p *Piece) { patch.apply(p) })
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	next := s.cloneAll()
	next = append(next[:i], next[i+1:]...)
	if err := s.commit(ctx, next, s.initialized); err != nil {
		return false, err
	}
	return true, nil
}

// DuplicateProduct appends a copy of the piece under a new id with its
// popularity counters reset.
func (s *Store) DuplicateProduct(ctx context.Context, id string) (Piece, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Piece{}, false, nil
	}
	cp := s.pieces[i].clone()
	cp.ID = uuid.NewString()
	cp.Name += CopySuffix
	cp.Views, cp.Hearts, cp.Inquiries = 0, 0, 0
	cp.CreatedAt = s.Now().UTC()
	if err := s.commit(ctx, append(s.cloneAll(), cp), s.initialized); err != nil {
		return Piece{}, false, err
	}
	return cp.clone(), true, nil
}

func (s *Store) ToggleAvailability(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, id, func(p *Piece) { p.Available = !p.Available })
}

func (s *Store) RecordView(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, id, func(p *Piece) { p.Views++ })
}

func (s *Store) RecordInquiry(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, id, func(p *Piece) { p.Inquiries++ })
}

// AdjustHearts adds delta to the heart counter, never going below zero.
func (s *Store) AdjustHearts(ctx context.Context, id string, delta int) (bool, error) {
	return s.mutate(ctx, id, func(p *Piece) {
		p.Hearts = max(p.Hearts+delta, 0)
	})
}

func (s *Store) GetByID(id string) (Piece, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Piece{}, false
	}
	return s.pieces[i].clone(), true
}

// GetAll returns a snapshot of the catalog in insertion order.
func (s *Store) GetAll() []Piece {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneAll()
}

// PriceOf lets the cart price its lines without seeing the catalog.
func (s *Store) PriceOf(id string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return decimal.Zero, false
	}
	return s.pieces[i].Price, true
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Store) mutate(ctx context.Context, id string, fn func(*Piece)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	next := s.cloneAll()
	fn(&next[i])
	if err := s.commit(ctx, next, s.initialized); err != nil {
		return false, err
	}
	return true, nil
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, pieces []Piece, initialized bool) error {
	snap := snapshot{Version: schemaVersion, Initialized: initialized, Pieces: pieces}
	if err := kv.PutJSON(ctx, s.db, kv.KeyCatalog, snap); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	s.pieces = pieces
	s.initialized = initialized
	return nil
}

func (s *Store) index(id string) int {
	for i := range s.pieces {
		if s.pieces[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) cloneAll() []Piece {
	out := make([]Piece, len(s.pieces))
	for i, p := range s.pieces {
		out[i] = p.clone()
	}
	return out
}
