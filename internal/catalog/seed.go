package catalog

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedPiece struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Vibe        string   `yaml:"vibe"`
	Era         string   `yaml:"era"`
	Origin      string   `yaml:"origin"`
	Material    string   `yaml:"material"`
	Condition   string   `yaml:"condition"`
	Story       string   `yaml:"story"`
	Sizes       []string `yaml:"sizes"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	Available   bool     `yaml:"available"`
	Views       int      `yaml:"views"`
	Hearts      int      `yaml:"hearts"`
	Inquiries   int      `yaml:"inquiries"`
}

// SeedPieces decodes the embedded first-run dataset.
func SeedPieces() ([]Piece, error) {
	return parseSeed(seedYAML)
}

func parseSeed(data []byte) ([]Piece, error) {
	var raw []seedPiece
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	out := make([]Piece, 0, len(raw))
	for _, r := range raw {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("seed piece %s: price %q: %w", r.ID, r.Price, err)
		}
		out = append(out, Piece{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Vibe:        r.Vibe,
			Era:         r.Era,
			Origin:      r.Origin,
			Material:    r.Material,
			Condition:   r.Condition,
			Story:       r.Story,
			Sizes:       r.Sizes,
			Price:       price,
			Category:    r.Category,
			Available:   r.Available,
			Views:       r.Views,
			Hearts:      r.Hearts,
			Inquiries:   r.Inquiries,
		})
	}
	return out, nil
}
