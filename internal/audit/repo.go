package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const createAuditTable = `
CREATE TABLE IF NOT EXISTS order_audit (
	event_id    TEXT        PRIMARY KEY,
	event_type  TEXT        NOT NULL,
	order_id    TEXT        NOT NULL,
	user_id     TEXT        NOT NULL,
	status      TEXT        NOT NULL DEFAULT '',
	total       NUMERIC(12,2),
	producer    TEXT        NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS order_audit_order_idx ON order_audit (order_id, occurred_at)`

// Entry is one audited order event.
type Entry struct {
	EventID    string
	EventType  string
	OrderID    string
	UserID     string
	Status     string
	Total      *decimal.Decimal
	Producer   string
	OccurredAt time.Time
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, createAuditTable); err != nil {
		return fmt.Errorf("create order_audit: %w", err)
	}
	return nil
}

// Record inserts e once; a replayed event id is a no-op reported as false.
func (r *Repo) Record(ctx context.Context, e Entry) (bool, error) {
	var total any
	if e.Total != nil {
		total = e.Total.String()
	}
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO order_audit(event_id, event_type, order_id, user_id, status, total, producer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.EventType, e.OrderID, e.UserID, e.Status, total, e.Producer, e.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order_audit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ByOrder lists the audited events of one order, oldest first.
func (r *Repo) ByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT event_id, event_type, order_id, user_id, status, total::TEXT, producer, occurred_at
		FROM order_audit WHERE order_id=$1 ORDER BY occurred_at, event_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			total *string
		)
		if err := rows.Scan(&e.EventID, &e.EventType, &e.OrderID, &e.UserID, &e.Status, &total, &e.Producer, &e.OccurredAt); err != nil {
			return nil, err
		}
		if total != nil {
			d, err := decimal.NewFromString(*total)
			if err != nil {
				return nil, fmt.Errorf("order_audit total %q: %w", *total, err)
			}
			e.Total = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
