// Package session tracks the single signed-in session of this process.
//
// A session is a convenience record, not a trust boundary: validation is a
// token comparison plus an expiry check. Expiry is evaluated lazily when the
// record is read, never by a background timer.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/security"
)

const DefaultTTL = 24 * time.Hour

type Session struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Manager owns the session record in a session-scope store, one that does
// not outlive the process (see kv.Memory).
type Manager struct {
	mu  sync.Mutex
	db  kv.Store
	ttl time.Duration

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewManager(db kv.Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{db: db, ttl: ttl, Now: time.Now}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Create opens a session for userID, silently replacing any previous one.
func (m *Manager) Create(ctx context.Context, userID string) (Session, error) {
	token, err := security.NewToken()
	if err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	s := Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := kv.PutJSON(ctx, m.db, kv.KeySession, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Validate reports whether token belongs to the live session. A stale
// record is removed as a side effect.
func (m *Manager) Validate(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok, err := m.load(ctx)
	if err != nil || !ok {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) == 1, nil
}

// Extend slides the expiry to now+TTL. It does nothing, and reports false,
// when there is no live session.
func (m *Manager) Extend(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok, err := m.load(ctx)
	if err != nil || !ok {
		return false, err
	}
	s.ExpiresAt = m.Now().Add(m.ttl)
	if err := kv.PutJSON(ctx, m.db, kv.KeySession, s); err != nil {
		return false, fmt.Errorf("save session: %w", err)
	}
	return true, nil
}

// Current returns the live session, if any.
func (m *Manager) Current(ctx context.Context) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.db.Remove(ctx, kv.KeySession); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// load must be called with mu held.
func (m *Manager) load(ctx context.Context) (Session, bool, error) {
	var s Session
	found, err := kv.GetJSON(ctx, m.db, kv.KeySession, &s)
	if err != nil || !found {
		return Session{}, false, err
	}
	if s.expired(m.Now()) {
		if err := m.db.Remove(ctx, kv.KeySession); err != nil {
			return Session{}, false, fmt.Errorf("remove expired session: %w", err)
		}
		return Session{}, false, nil
	}
	return s, true, nil
}
