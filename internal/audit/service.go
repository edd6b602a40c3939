// Package audit consumes order events and keeps an append-only trail of
// them in Postgres.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/metrics"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Recorder persists entries; Repo is the Postgres one.
type Recorder interface {
	Record(ctx context.Context, e Entry) (bool, error)
}

type Service struct {
	Repo        Recorder
	Redis       *redis.Client
	ServiceName string
	Logger      *slog.Logger
}

// HandleMessage is the consumer handler for the order topics. Unknown or
// already seen events are acknowledged without work.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	result, err := s.handle(ctx, m)
	if err != nil {
		result = "error"
	}
	metrics.AuditEvents.WithLabelValues(result).Inc()
	return err
}

func (s *Service) handle(ctx context.Context, m kafkago.Message) (string, error) {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		// A poison message would otherwise block the partition.
		s.logger().Warn("skipping undecodable message", "topic", m.Topic, "offset", m.Offset, "err", err)
		return "ignored", nil
	}
	entry, ok, err := toEntry(env)
	if err != nil {
		s.logger().Warn("skipping bad payload", "event_id", env.EventID, "event_type", env.EventType, "err", err)
		return "ignored", nil
	}
	if !ok {
		return "ignored", nil
	}

	first, err := redisx.Claim(ctx, s.Redis, s.ServiceName, env.EventID)
	if err != nil {
		return "", fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return "duplicate", nil
	}

	inserted, err := s.Repo.Record(ctx, entry)
	if err != nil {
		if rerr := redisx.Release(ctx, s.Redis, s.ServiceName, env.EventID); rerr != nil {
			s.logger().Error("release dedup claim", "event_id", env.EventID, "err", rerr)
		}
		return "", err
	}
	if !inserted {
		return "duplicate", nil
	}
	s.logger().Info("order event audited", "event_id", env.EventID, "event_type", env.EventType, "order_id", entry.OrderID)
	return "recorded", nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func toEntry(env events.Envelope) (Entry, bool, error) {
	e := Entry{
		EventID:    env.EventID,
		EventType:  env.EventType,
		OrderID:    env.CorrelationID,
		Producer:   env.Producer,
		OccurredAt: env.OccurredAt,
	}
	switch env.EventType {
	case events.EventOrderPlaced:
		p, err := events.Decode[events.OrderPlaced](env)
		if err != nil {
			return Entry{}, false, err
		}
		total := p.Total
		e.OrderID, e.UserID, e.Status, e.Total = p.OrderID, p.UserID, p.Status, &total
	case events.EventOrderStatusChanged:
		p, err := events.Decode[events.OrderStatusChanged](env)
		if err != nil {
			return Entry{}, false, err
		}
		e.OrderID, e.UserID, e.Status = p.OrderID, p.UserID, p.Status
	default:
		return Entry{}, false, nil
	}
	if e.EventID == "" || e.OrderID == "" {
		return Entry{}, false, fmt.Errorf("event %q is missing its id or order id", env.EventType)
	}
	return e, true, nil
}
