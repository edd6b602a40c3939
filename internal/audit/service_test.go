package audit

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	entries map[string]Entry
	fail    error
}

func (r *memRecorder) Record(_ context.Context, e Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return false, r.fail
	}
	if r.entries == nil {
		r.entries = map[string]Entry{}
	}
	if _, ok := r.entries[e.EventID]; ok {
		return false, nil
	}
	r.entries[e.EventID] = e
	return true, nil
}

func setup(t *testing.T) (*Service, *memRecorder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	rec := &memRecorder{}
	return &Service{Repo: rec, Redis: rdb, ServiceName: "audit"}, rec, mr
}

func message(t *testing.T, eventType string, payload any) (kafkago.Message, events.Envelope) {
	t.Helper()
	env, err := events.New(eventType, "storefront", "o-1", payload)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicFor(eventType), Value: kafkax.MustMarshal(env)}, env
}

func TestHandleMessage_RecordsOnce(t *testing.T) {
	ctx := context.Background()
	svc, rec, mr := setup(t)

	m, env := message(t, events.EventOrderPlaced, events.OrderPlaced{
		OrderID: "o-1", UserID: "u-1", Status: "pending", Total: decimal.RequireFromString("350.00"),
	})
	require.NoError(t, svc.HandleMessage(ctx, m))
	require.NoError(t, svc.HandleMessage(ctx, m))

	require.Len(t, rec.entries, 1)
	e := rec.entries[env.EventID]
	assert.Equal(t, "o-1", e.OrderID)
	assert.Equal(t, "u-1", e.UserID)
	assert.Equal(t, "pending", e.Status)
	require.NotNil(t, e.Total)
	assert.True(t, e.Total.Equal(decimal.NewFromInt(350)))
	assert.True(t, mr.Exists("dedup:audit:"+env.EventID))
}

func TestHandleMessage_StatusChanged(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := setup(t)

	m, env := message(t, events.EventOrderStatusChanged, events.OrderStatusChanged{
		OrderID: "o-1", UserID: "u-1", Status: "shipped",
	})
	require.NoError(t, svc.HandleMessage(ctx, m))
	e := rec.entries[env.EventID]
	assert.Equal(t, "shipped", e.Status)
	assert.Nil(t, e.Total)
}

func TestHandleMessage_IgnoresNoise(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := setup(t)

	require.NoError(t, svc.HandleMessage(ctx, kafkago.Message{Value: []byte("not json")}))

	unknown, _ := message(t, "PieceViewed", map[string]string{"piece_id": "piece-1"})
	require.NoError(t, svc.HandleMessage(ctx, unknown))

	bad := events.Envelope{EventID: uuid.NewString(), EventType: events.EventOrderPlaced, Payload: []byte(`"oops"`)}
	require.NoError(t, svc.HandleMessage(ctx, kafkago.Message{Value: kafkax.MustMarshal(bad)}))

	assert.Empty(t, rec.entries)
}

func TestHandleMessage_FailedRecordCanRetry(t *testing.T) {
	ctx := context.Background()
	svc, rec, mr := setup(t)
	rec.fail = errors.New("db down")

	m, env := message(t, events.EventOrderPlaced, events.OrderPlaced{OrderID: "o-1", UserID: "u-1"})
	assert.Error(t, svc.HandleMessage(ctx, m))
	assert.False(t, mr.Exists("dedup:audit:"+env.EventID))

	rec.fail = nil
	require.NoError(t, svc.HandleMessage(ctx, m))
	assert.Len(t, rec.entries, 1)
}

func TestHandleMessage_RedisDown(t *testing.T) {
	svc, rec, mr := setup(t)
	mr.Close()

	m, _ := message(t, events.EventOrderPlaced, events.OrderPlaced{OrderID: "o-1", UserID: "u-1"})
	assert.Error(t, svc.HandleMessage(context.Background(), m), "the offset must not be committed")
	assert.Empty(t, rec.entries)
}

func TestRepo(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := &Repo{DB: pool}
	require.NoError(t, repo.EnsureSchema(ctx))

	orderID := uuid.NewString()
	total := decimal.RequireFromString("99.50")
	placed := Entry{EventID: uuid.NewString(), EventType: events.EventOrderPlaced, OrderID: orderID, UserID: "u-1",
		Status: "pending", Total: &total, Producer: "test", OccurredAt: time.Now().UTC().Add(-time.Minute)}
	shipped := Entry{EventID: uuid.NewString(), EventType: events.EventOrderStatusChanged, OrderID: orderID, UserID: "u-1",
		Status: "shipped", Producer: "test", OccurredAt: time.Now().UTC()}

	ok, err := repo.Record(ctx, placed)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Record(ctx, placed)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = repo.Record(ctx, shipped)
	require.NoError(t, err)

	got, err := repo.ByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pending", got[0].Status)
	require.NotNil(t, got[0].Total)
	assert.True(t, got[0].Total.Equal(total))
	assert.Nil(t, got[1].Total)
}
