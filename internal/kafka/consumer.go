package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset
// may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultAttempts = 5
	defaultBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

type Consumer struct {
	r       messageReader
	workers int
	logger  *slog.Logger

	// attempts bounds handler calls per message; backoff is the first
	// retry delay and doubles up to maxBackoff.
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, group string, topics []string, workers int, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commits are explicit
	})
	return newConsumer(r, workers, logger)
}

func newConsumer(r messageReader, workers int, logger *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{r: r, workers: workers, logger: logger, attempts: defaultAttempts, backoff: defaultBackoff}
}

// Start fetches until ctx is cancelled. Each partition is pinned to one
// worker so its messages are handled in offset order, and a message is
// committed only after h succeeds. A message that still fails after the
// retries stops the consumer with that error; nothing past it is committed,
// so the group resumes from it on restart. Cancellation is a clean exit.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once    sync.Once
		failure error
	)
	fail := func(err error) {
		once.Do(func() {
			failure = err
			cancel()
		})
	}

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := c.process(ctx, id, h, m); err != nil && ctx.Err() == nil {
					c.logger.Error("handler gave up", "worker", id, "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
					fail(err)
				}
			}
		}(i, lanes[i])
	}

	err := c.dispatch(ctx, lanes)
	for _, l := range lanes {
		close(l)
	}
	wg.Wait()
	if failure != nil {
		return failure
	}
	return err
}

func (c *Consumer) process(ctx context.Context, worker int, h Handler, m kafka.Message) error {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if attempt >= c.attempts {
			return fmt.Errorf("%s/%d offset %d: %w", m.Topic, m.Partition, m.Offset, err)
		}
		c.logger.Warn("handler failed, retrying", "worker", worker, "topic", m.Topic, "offset", m.Offset, "attempt", attempt, "err", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, maxBackoff)
	}
	// a lost commit is covered by the next one on the partition
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.logger.Error("commit failed", "worker", worker, "topic", m.Topic, "offset", m.Offset, "err", err)
	}
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, lanes []chan kafka.Message) error {
	ids := make([]int, len(lanes))
	for i := range ids {
		ids[i] = i
	}
	var pick kafka.Hash
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		key := kafka.Message{Key: []byte(m.Topic + "/" + strconv.Itoa(m.Partition))}
		select {
		case lanes[pick.Balance(key, ids...)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}
