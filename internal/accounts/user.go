package accounts

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type NotificationPreferences struct {
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
	NewArrival bool `json:"newArrivals"`
	Promotions bool `json:"promotions"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status. Transitions between known
// statuses are not restricted.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderLine is a snapshot of a cart line at checkout time.
type OrderLine struct {
	PieceID  string          `json:"pieceId"`
	Name     string          `json:"name"`
	Size     string          `json:"size,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID              string          `json:"id"`
	Items           []OrderLine     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type TryOnStatus string

const (
	TryOnRequested TryOnStatus = "requested"
	TryOnScheduled TryOnStatus = "scheduled"
	TryOnCompleted TryOnStatus = "completed"
	TryOnCancelled TryOnStatus = "cancelled"
)

func (s TryOnStatus) Valid() bool {
	switch s {
	case TryOnRequested, TryOnScheduled, TryOnCompleted, TryOnCancelled:
		return true
	}
	return false
}

type TryOnRequest struct {
	ID            string      `json:"id"`
	PieceID       string      `json:"pieceId"`
	Size          string      `json:"size,omitempty"`
	PreferredDate *time.Time  `json:"preferredDate,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Status        TryOnStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// User is the stored account. PasswordHash only ever holds a digest and is
// blanked on every value handed out by the store.
type User struct {
	ID                      string                  `json:"id"`
	Email                   string                  `json:"email"`
	PasswordHash            string                  `json:"passwordHash,omitempty"`
	Name                    string                  `json:"name"`
	Role                    Role                    `json:"role"`
	IsActive                bool                    `json:"isActive"`
	EmailVerified           bool                    `json:"emailVerified"`
	Phone                   string                  `json:"phone,omitempty"`
	Address                 *Address                `json:"address,omitempty"`
	Orders                  []Order                 `json:"orders"`
	Favorites               []string                `json:"favorites"`
	TryOnRequests           []TryOnRequest          `json:"tryOnRequests"`
	JoinDate                time.Time               `json:"joinDate"`
	LastLogin               *time.Time              `json:"lastLogin,omitempty"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) clone() User {
	if u.Address != nil {
		a := *u.Address
		u.Address = &a
	}
	u.Orders = slices.Clone(u.Orders)
	for i := range u.Orders {
		u.Orders[i].Items = slices.Clone(u.Orders[i].Items)
	}
	u.Favorites = slices.Clone(u.Favorites)
	u.TryOnRequests = slices.Clone(u.TryOnRequests)
	return u
}

// public is the copy handed to callers.
func (u User) public() User {
	u = u.clone()
	u.PasswordHash = ""
	return u
}
