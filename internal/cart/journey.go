package cart

import (
	"context"
	"slices"
	"strings"
)

// ToggleFavorite flips the favorite mark and reports the new state.
func (s *Store) ToggleFavorite(ctx context.Context, pieceID string) (bool, error) {
	var on bool
	err := s.update(ctx, func(j *Journey) {
		j.Favorites, on = toggle(j.Favorites, pieceID)
	})
	return on, err
}

func (s *Store) IsFavorite(pieceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.journey.Favorites, pieceID)
}

// ToggleHeart flips the heart mark and reports the new state. Keeping the
// catalog's heart counter in step is the caller's job.
func (s *Store) ToggleHeart(ctx context.Context, pieceID string) (bool, error) {
	var on bool
	err := s.update(ctx, func(j *Journey) {
		j.Hearted, on = toggle(j.Hearted, pieceID)
	})
	return on, err
}

func (s *Store) IsHearted(pieceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.journey.Hearted, pieceID)
}

// RecordSearch puts query at the front of the history, dropping an earlier
// case-insensitive duplicate. Blank queries are ignored.
func (s *Store) RecordSearch(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	norm := normalizeQuery(q)
	return s.update(ctx, func(j *Journey) {
		j.SearchHistory = slices.DeleteFunc(j.SearchHistory, func(h string) bool {
			return normalizeQuery(h) == norm
		})
		j.SearchHistory = append([]string{q}, j.SearchHistory...)
		if len(j.SearchHistory) > MaxSearchHistory {
			j.SearchHistory = j.SearchHistory[:MaxSearchHistory]
		}
	})
}

func (s *Store) ClearSearchHistory(ctx context.Context) error {
	return s.update(ctx, func(j *Journey) { j.SearchHistory = nil })
}

func (s *Store) SetPreferences(ctx context.Context, p Preferences) error {
	return s.update(ctx, func(j *Journey) {
		j.Preferences = Preferences{
			Vibes:  slices.Clone(p.Vibes),
			Sizes:  slices.Clone(p.Sizes),
			Budget: p.Budget,
		}
	})
}

// Journey returns a snapshot of the whole blob.
func (s *Store) Journey() Journey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journey.clone()
}

func toggle(set []string, id string) ([]string, bool) {
	if i := slices.Index(set, id); i >= 0 {
		return slices.Delete(set, i, i+1), false
	}
	return append(set, id), true
}
