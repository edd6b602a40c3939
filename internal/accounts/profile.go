package accounts

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProfilePatch struct {
	Name                    *string                  `json:"name,omitempty"`
	Email                   *string                  `json:"email,omitempty"`
	Phone                   *string                  `json:"phone,omitempty"`
	Address                 *Address                 `json:"address,omitempty"`
	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty"`
}

// UpdateProfile merges patch into the account. A changed email must stay
// unique and resets verification.
func (s *Store) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return validationError("name is required")
	}
	if patch.Email != nil {
		if err := s.validate.Var(normalizeEmail(*patch.Email), "required,email"); err != nil {
			return validationError("email must be a valid email address")
		}
	}
	return s.mutateUser(ctx, id, func(next []User, u *User) error {
		if patch.Email != nil {
			email := normalizeEmail(*patch.Email)
			if j := indexByEmail(next, email); j >= 0 && next[j].ID != id {
				return ErrDuplicateEmail
			}
			if email != u.Email {
				u.Email = email
				u.EmailVerified = false
			}
		}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.Address != nil {
			a := *patch.Address
			u.Address = &a
		}
		if patch.NotificationPreferences != nil {
			u.NotificationPreferences = *patch.NotificationPreferences
		}
		return nil
	})
}

type OrderDraft struct {
	Items           []OrderLine
	ShippingAddress *Address
}

// AddOrder appends a pending order. The total is derived from the lines.
func (s *Store) AddOrder(ctx context.Context, userID string, d OrderDraft) (Order, error) {
	if len(d.Items) == 0 {
		return Order{}, validationError("order has no items")
	}
	total := decimal.Zero
	for _, l := range d.Items {
		if l.Quantity <= 0 {
			return Order{}, validationError("order line quantity must be positive")
		}
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	now := s.Now().UTC()
	o := Order{
		ID:        uuid.NewString(),
		Items:     slices.Clone(d.Items),
		Total:     total,
		Status:    OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.ShippingAddress != nil {
		a := *d.ShippingAddress
		o.ShippingAddress = &a
	}
	err := s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		u.Orders = append(u.Orders, o)
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// UpdateOrderStatus sets any known status; no transition table applies.
func (s *Store) UpdateOrderStatus(ctx context.Context, userID, orderID string, status OrderStatus) (Order, error) {
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	var out Order
	err := s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		i := slices.IndexFunc(u.Orders, func(o Order) bool { return o.ID == orderID })
		if i < 0 {
			return ErrOrderNotFound
		}
		u.Orders[i].Status = status
		u.Orders[i].UpdatedAt = s.Now().UTC()
		out = u.Orders[i]
		return nil
	})
	return out, err
}

func (s *Store) Orders(userID string) ([]Order, error) {
	u, ok := s.GetUser(userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Orders, nil
}

// ToggleFavorite flips pieceID in the user's favorites and reports the new
// state.
func (s *Store) ToggleFavorite(ctx context.Context, userID, pieceID string) (bool, error) {
	var on bool
	err := s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		if i := slices.Index(u.Favorites, pieceID); i >= 0 {
			u.Favorites = slices.Delete(u.Favorites, i, i+1)
			on = false
			return nil
		}
		u.Favorites = append(u.Favorites, pieceID)
		on = true
		return nil
	})
	return on, err
}

type TryOnDraft struct {
	PieceID       string     `json:"pieceId"`
	Size          string     `json:"size"`
	PreferredDate *time.Time `json:"preferredDate"`
	Notes         string     `json:"notes"`
}

func (s *Store) AddTryOnRequest(ctx context.Context, userID string, d TryOnDraft) (TryOnRequest, error) {
	if strings.TrimSpace(d.PieceID) == "" {
		return TryOnRequest{}, validationError("pieceId is required")
	}
	r := TryOnRequest{
		ID:            uuid.NewString(),
		PieceID:       d.PieceID,
		Size:          d.Size,
		PreferredDate: d.PreferredDate,
		Notes:         d.Notes,
		Status:        TryOnRequested,
		CreatedAt:     s.Now().UTC(),
	}
	err := s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		u.TryOnRequests = append(u.TryOnRequests, r)
		return nil
	})
	if err != nil {
		return TryOnRequest{}, err
	}
	return r, nil
}

func (s *Store) UpdateTryOnStatus(ctx context.Context, userID, requestID string, status TryOnStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		i := slices.IndexFunc(u.TryOnRequests, func(r TryOnRequest) bool { return r.ID == requestID })
		if i < 0 {
			return ErrTryOnNotFound
		}
		u.TryOnRequests[i].Status = status
		return nil
	})
}
