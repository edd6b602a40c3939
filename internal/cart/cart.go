// Package cart holds the shopping cart and the rest of the visitor's
// journey (favorites, hearts, search history, preferences). Everything is
// persisted as one blob under kv.KeyJourney.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/shopspring/decimal"
)

const (
	schemaVersion = 1

	// MaxSearchHistory bounds the remembered queries.
	MaxSearchHistory = 10
)

// Item is one cart line, keyed by (PieceID, Size). Quantity is always >= 1.
type Item struct {
	PieceID  string `json:"pieceId"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Preferences are the answers a visitor gave to the style questionnaire.
type Preferences struct {
	Vibes  []string         `json:"vibes,omitempty"`
	Sizes  []string         `json:"sizes,omitempty"`
	Budget *decimal.Decimal `json:"budget,omitempty"`
}

type Journey struct {
	Items         []Item      `json:"cart"`
	Favorites     []string    `json:"favorites"`
	SearchHistory []string    `json:"searchHistory"`
	Hearted       []string    `json:"hearted"`
	Preferences   Preferences `json:"preferences"`
}

func (j Journey) clone() Journey {
	j.Items = slices.Clone(j.Items)
	j.Favorites = slices.Clone(j.Favorites)
	j.SearchHistory = slices.Clone(j.SearchHistory)
	j.Hearted = slices.Clone(j.Hearted)
	j.Preferences.Vibes = slices.Clone(j.Preferences.Vibes)
	j.Preferences.Sizes = slices.Clone(j.Preferences.Sizes)
	return j
}

type snapshot struct {
	Version int `json:"version"`
	Journey
}

// PriceLookup resolves the current price of a piece.
// Consumers define this interface; the catalog store satisfies it.
type PriceLookup interface {
	PriceOf(pieceID string) (decimal.Decimal, bool)
}

type Store struct {
	mu      sync.Mutex
	db      kv.Store
	prices  PriceLookup
	logger  *slog.Logger
	journey Journey
}

func NewStore(db kv.Store, prices PriceLookup, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, prices: prices, logger: logger}
}

func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap snapshot
	found, err := kv.GetJSON(ctx, s.db, kv.KeyJourney, &snap)
	if err != nil {
		return fmt.Errorf("load journey: %w", err)
	}
	if !found {
		return nil
	}
	if snap.Version > schemaVersion {
		return fmt.Errorf("load journey: unsupported schema version %d", snap.Version)
	}
	// Quantities are never persisted below one by this store; a hand-edited
	// blob is normalized on the way in.
	snap.Items = slices.DeleteFunc(snap.Items, func(it Item) bool { return it.Quantity <= 0 })
	s.journey = snap.Journey
	return nil
}

// AddToCart increments the (pieceID, size) line, appending it with quantity
// one when absent. There is no stock check here.
func (s *Store) AddToCart(ctx context.Context, pieceID, size string) error {
	return s.update(ctx, func(j *Journey) {
		if i := indexOf(j.Items, pieceID, size); i >= 0 {
			j.Items[i].Quantity++
			return
		}
		j.Items = append(j.Items, Item{PieceID: pieceID, Size: size, Quantity: 1})
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, pieceID, size string) error {
	return s.update(ctx, func(j *Journey) {
		if i := indexOf(j.Items, pieceID, size); i >= 0 {
			j.Items = slices.Delete(j.Items, i, i+1)
		}
	})
}

// UpdateQuantity sets an absolute quantity. qty <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, pieceID, size string, qty int) error {
	if qty <= 0 {
		return s.RemoveFromCart(ctx, pieceID, size)
	}
	return s.update(ctx, func(j *Journey) {
		if i := indexOf(j.Items, pieceID, size); i >= 0 {
			j.Items[i].Quantity = qty
		}
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.update(ctx, func(j *Journey) { j.Items = nil })
}

// Items returns the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.journey.Items)
}

// Count is the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.journey.Items {
		n += it.Quantity
	}
	return n
}

// Total prices every line at the current catalog price. Lines whose piece
// no longer exists count as zero but stay in the cart.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.journey.Items {
		price, ok := s.prices.PriceOf(it.PieceID)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// update applies fn to a copy of the journey and swaps it in once the
// snapshot is written.
func (s *Store) update(ctx context.Context, fn func(*Journey)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.journey.clone()
	fn(&next)
	if err := kv.PutJSON(ctx, s.db, kv.KeyJourney, snapshot{Version: schemaVersion, Journey: next}); err != nil {
		return fmt.Errorf("save journey: %w", err)
	}
	s.journey = next
	return nil
}

func indexOf(items []Item, pieceID, size string) int {
	return slices.IndexFunc(items, func(it Item) bool {
		return it.PieceID == pieceID && it.Size == size
	})
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
