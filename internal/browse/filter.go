// Package browse derives filtered, sorted and summarized views of a
// catalog snapshot. Every function is pure: inputs are never modified and
// the result is a new slice.
package browse

import (
	"slices"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// Criteria bundles every filter plus the sort order. Zero values do not
// restrict anything.
type Criteria struct {
	Query         string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Vibes         []string
	Categories    []string
	AvailableOnly bool
	MinHearts     int
	Sort          SortOrder
}

// Apply runs every filter (conjunction) and then sorts.
func Apply(pieces []catalog.Piece, c Criteria) []catalog.Piece {
	out := Search(pieces, c.Query)
	out = ByPriceRange(out, c.MinPrice, c.MaxPrice)
	out = ByVibes(out, c.Vibes)
	out = ByCategories(out, c.Categories)
	if c.AvailableOnly {
		out = AvailableOnly(out)
	}
	out = MinHearts(out, c.MinHearts)
	return Sort(out, c.Sort)
}

// Search keeps pieces where query is a case-insensitive substring of one of
// the descriptive fields. An empty query keeps everything.
func Search(pieces []catalog.Piece, query string) []catalog.Piece {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(pieces)
	}
	return keep(pieces, func(p catalog.Piece) bool {
		for _, f := range []string{p.Name, p.Description, p.Vibe, p.Era, p.Origin, p.Material, p.Story, p.Category} {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	})
}

// ByPriceRange keeps prices within [min, max]; a nil bound is open.
func ByPriceRange(pieces []catalog.Piece, lo, hi *decimal.Decimal) []catalog.Piece {
	return keep(pieces, func(p catalog.Piece) bool {
		if lo != nil && p.Price.LessThan(*lo) {
			return false
		}
		if hi != nil && p.Price.GreaterThan(*hi) {
			return false
		}
		return true
	})
}

func ByVibes(pieces []catalog.Piece, vibes []string) []catalog.Piece {
	return byMembership(pieces, vibes, func(p catalog.Piece) string { return p.Vibe })
}

func ByCategories(pieces []catalog.Piece, categories []string) []catalog.Piece {
	return byMembership(pieces, categories, func(p catalog.Piece) string { return p.Category })
}

func AvailableOnly(pieces []catalog.Piece) []catalog.Piece {
	return keep(pieces, func(p catalog.Piece) bool { return p.Available })
}

// MinHearts keeps pieces with at least n hearts; n <= 0 keeps everything.
func MinHearts(pieces []catalog.Piece, n int) []catalog.Piece {
	return keep(pieces, func(p catalog.Piece) bool { return n <= 0 || p.Hearts >= n })
}

func byMembership(pieces []catalog.Piece, set []string, field func(catalog.Piece) string) []catalog.Piece {
	wanted := make(map[string]struct{}, len(set))
	for _, v := range set {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			wanted[v] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return slices.Clone(pieces)
	}
	return keep(pieces, func(p catalog.Piece) bool {
		_, ok := wanted[strings.ToLower(field(p))]
		return ok
	})
}

func keep(pieces []catalog.Piece, pred func(catalog.Piece) bool) []catalog.Piece {
	out := make([]catalog.Piece, 0, len(pieces))
	for _, p := range pieces {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
