package browse

import (
	"cmp"
	"slices"

	"github.com/ariefcatur/go-storefront/internal/catalog"
)

type SortOrder string

const (
	SortPriceLow    SortOrder = "price-low"
	SortPriceHigh   SortOrder = "price-high"
	SortMostPopular SortOrder = "most-popular"
	SortMostViewed  SortOrder = "most-viewed"
	// SortNewest keeps insertion order; pieces carry no reliable timestamp
	// once imported or seeded.
	SortNewest SortOrder = "newest"
)

// ParseSortOrder maps unknown or empty input to SortNewest.
func ParseSortOrder(s string) SortOrder {
	switch o := SortOrder(s); o {
	case SortPriceLow, SortPriceHigh, SortMostPopular, SortMostViewed, SortNewest:
		return o
	}
	return SortNewest
}

// Sort returns a stably sorted copy.
func Sort(pieces []catalog.Piece, order SortOrder) []catalog.Piece {
	out := slices.Clone(pieces)
	var less func(a, b catalog.Piece) int
	switch order {
	case SortPriceLow:
		less = func(a, b catalog.Piece) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		less = func(a, b catalog.Piece) int { return b.Price.Cmp(a.Price) }
	case SortMostPopular:
		less = func(a, b catalog.Piece) int { return cmp.Compare(b.Hearts, a.Hearts) }
	case SortMostViewed:
		less = func(a, b catalog.Piece) int { return cmp.Compare(b.Views, a.Views) }
	default:
		return out
	}
	slices.SortStableFunc(out, less)
	return out
}
