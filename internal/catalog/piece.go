package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Piece struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Vibe        string          `json:"vibe,omitempty"`
	Era         string          `json:"era,omitempty"`
	Origin      string          `json:"origin,omitempty"`
	Material    string          `json:"material,omitempty"`
	Condition   string          `json:"condition,omitempty"`
	Story       string          `json:"story,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Available   bool            `json:"available"`
	Views       int             `json:"views"`
	Hearts      int             `json:"hearts"`
	Inquiries   int             `json:"inquiries"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (p Piece) clone() Piece {
	if p.Sizes != nil {
		p.Sizes = append([]string(nil), p.Sizes...)
	}
	return p
}

// Draft carries the admin-editable fields of a new piece.
type Draft struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Vibe        string          `json:"vibe"`
	Era         string          `json:"era"`
	Origin      string          `json:"origin"`
	Material    string          `json:"material"`
	Condition   string          `json:"condition"`
	Story       string          `json:"story"`
	Sizes       []string        `json:"sizes"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
}

// Patch is a merge-patch: nil fields are left untouched.
type Patch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Vibe        *string          `json:"vibe,omitempty"`
	Era         *string          `json:"era,omitempty"`
	Origin      *string          `json:"origin,omitempty"`
	Material    *string          `json:"material,omitempty"`
	Condition   *string          `json:"condition,omitempty"`
	Story       *string          `json:"story,omitempty"`
	Sizes       []string         `json:"sizes,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

func (p Patch) apply(dst *Piece) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&dst.Name, p.Name)
	set(&dst.Description, p.Description)
	set(&dst.Vibe, p.Vibe)
	set(&dst.Era, p.Era)
	set(&dst.Origin, p.Origin)
	set(&dst.Material, p.Material)
	set(&dst.Condition, p.Condition)
	set(&dst.Story, p.Story)
	set(&dst.Category, p.Category)
	if p.Sizes != nil {
		dst.Sizes = append([]string(nil), p.Sizes...)
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Available != nil {
		dst.Available = *p.Available
	}
}
