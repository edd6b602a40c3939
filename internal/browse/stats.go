package browse

import (
	"slices"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

type Stats struct {
	Count          int             `json:"count"`
	AvailableCount int             `json:"availableCount"`
	AveragePrice   decimal.Decimal `json:"averagePrice"`
	MinPrice       decimal.Decimal `json:"minPrice"`
	MaxPrice       decimal.Decimal `json:"maxPrice"`
	TotalHearts    int             `json:"totalHearts"`
	TotalViews     int             `json:"totalViews"`
	TotalInquiries int             `json:"totalInquiries"`
}

// Summarize reduces a snapshot. On empty input every field is zero.
func Summarize(pieces []catalog.Piece) Stats {
	st := Stats{
		AveragePrice: decimal.Zero,
		MinPrice:     decimal.Zero,
		MaxPrice:     decimal.Zero,
	}
	if len(pieces) == 0 {
		return st
	}
	sum := decimal.Zero
	st.MinPrice = pieces[0].Price
	st.MaxPrice = pieces[0].Price
	for _, p := range pieces {
		st.Count++
		if p.Available {
			st.AvailableCount++
		}
		sum = sum.Add(p.Price)
		st.MinPrice = decimal.Min(st.MinPrice, p.Price)
		st.MaxPrice = decimal.Max(st.MaxPrice, p.Price)
		st.TotalHearts += p.Hearts
		st.TotalViews += p.Views
		st.TotalInquiries += p.Inquiries
	}
	st.AveragePrice = sum.Div(decimal.NewFromInt(int64(st.Count))).Round(2)
	return st
}

// Vibes lists the distinct non-empty vibes, sorted.
func Vibes(pieces []catalog.Piece) []string {
	return distinct(pieces, func(p catalog.Piece) string { return p.Vibe })
}

// Categories lists the distinct non-empty categories, sorted.
func Categories(pieces []catalog.Piece) []string {
	return distinct(pieces, func(p catalog.Piece) string { return p.Category })
}

func distinct(pieces []catalog.Piece, field func(catalog.Piece) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range pieces {
		v := strings.TrimSpace(field(p))
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
