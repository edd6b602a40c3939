// Package events defines the order events the storefront emits and the
// envelope they travel in.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"

	Version = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type Line struct {
	PieceID  string          `json:"piece_id"`
	Size     string          `json:"size,omitempty"`
	Quantity int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

type OrderPlaced struct {
	OrderID string          `json:"order_id"`
	UserID  string          `json:"user_id"`
	Status  string          `json:"status"`
	Items   []Line          `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
}

// Publisher hands an envelope to the transport. Implementations must not
// block on the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// New wraps payload in a fresh envelope correlated to orderID.
func New(eventType, producer, orderID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  Version,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return t, nil
}
