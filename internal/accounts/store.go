// Package accounts is the user/account store: authentication, roles,
// profiles and per-user collections.
//
// The store enforces two invariants on its own: emails are unique
// (case-insensitive) and the set of active admins never becomes empty
// through a store operation. Who may call the admin operations is not the
// store's concern; see package policy.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/security"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	schemaVersion = 1

	MinPasswordLength = 6

	// DefaultImportPassword is the placeholder every imported account
	// starts with. It has to be reset before real use.
	DefaultImportPassword = "changeme123"
)

type snapshot struct {
	Version int    `json:"version"`
	Users   []User `json:"users"`
}

type Options struct {
	Hasher         security.Hasher
	Logger         *slog.Logger
	ImportPassword string
}

type Store struct {
	mu       sync.Mutex
	db       kv.Store
	sessions *session.Manager
	hasher   security.Hasher
	logger   *slog.Logger
	validate *validator.Validate
	users    []User

	importPassword string

	Now func() time.Time
}

func NewStore(db kv.Store, sessions *session.Manager, opts Options) *Store {
	if opts.Hasher == nil {
		opts.Hasher = security.SHA256{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ImportPassword == "" {
		opts.ImportPassword = DefaultImportPassword
	}
	return &Store{
		db:             db,
		sessions:       sessions,
		hasher:         opts.Hasher,
		logger:         opts.Logger,
		validate:       validator.New(),
		importPassword: opts.ImportPassword,
		Now:            time.Now,
	}
}

func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap snapshot
	found, err := kv.GetJSON(ctx, s.db, kv.KeyAccounts, &snap)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if !found {
		return nil
	}
	if snap.Version > schemaVersion {
		return fmt.Errorf("load accounts: unsupported schema version %d", snap.Version)
	}
	s.users = snap.Users
	return nil
}

// EnsureAdmin creates (or promotes and reactivates) the given account when
// the store has no active admin. It reports whether anything changed.
func (s *Store) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if len([]rune(password)) < MinPasswordLength {
		return false, ErrPasswordTooShort
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if activeAdmins(s.users) > 0 {
		return false, nil
	}
	next := s.cloneAll()
	if i := indexByEmail(next, email); i >= 0 {
		next[i].Role = RoleAdmin
		next[i].IsActive = true
	} else {
		u := s.newUser(normalizeEmail(email), name, digest)
		u.Role = RoleAdmin
		u.EmailVerified = true
		next = append(next, u)
	}
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin ensured", "email", normalizeEmail(email))
	return true, nil
}

func (s *Store) GetUser(id string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.users, id)
	if i < 0 {
		return User{}, false
	}
	return s.users[i].public(), true
}

func (s *Store) GetUserByEmail(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByEmail(s.users, email)
	if i < 0 {
		return User{}, false
	}
	return s.users[i].public(), true
}

func (s *Store) ListUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, len(s.users))
	for i, u := range s.users {
		out[i] = u.public()
	}
	return out
}

type Stats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Admins       int `json:"admins"`
	ActiveAdmins int `json:"activeAdmins"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	for _, u := range s.users {
		st.Total++
		if u.IsActive {
			st.Active++
		}
		if u.IsAdmin() {
			st.Admins++
		}
	}
	st.ActiveAdmins = activeAdmins(s.users)
	return st
}

// commit must be called with mu held. The new slice becomes visible only
// after the snapshot is written.
func (s *Store) commit(ctx context.Context, users []User) error {
	if err := kv.PutJSON(ctx, s.db, kv.KeyAccounts, snapshot{Version: schemaVersion, Users: users}); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	s.users = users
	return nil
}

// mutateUser applies fn to a copy of the user with the given id and commits
// unless fn fails.
func (s *Store) mutateUser(ctx context.Context, id string, fn func(next []User, u *User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.users, id)
	if i < 0 {
		return ErrUserNotFound
	}
	next := s.cloneAll()
	if err := fn(next, &next[i]); err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *Store) newUser(email, name, digest string) User {
	return User{
		ID:                      uuid.NewString(),
		Email:                   email,
		PasswordHash:            digest,
		Name:                    name,
		Role:                    RoleUser,
		IsActive:                true,
		Orders:                  []Order{},
		Favorites:               []string{},
		TryOnRequests:           []TryOnRequest{},
		JoinDate:                s.Now().UTC(),
		NotificationPreferences: NotificationPreferences{Email: true, NewArrival: true},
	}
}

func (s *Store) cloneAll() []User {
	out := make([]User, len(s.users))
	for i, u := range s.users {
		out[i] = u.clone()
	}
	return out
}

// activeAdmins is always computed from the slice at hand, never cached.
func activeAdmins(users []User) int {
	n := 0
	for _, u := range users {
		if u.IsAdmin() && u.IsActive {
			n++
		}
	}
	return n
}

// dropsLastAdmin reports whether going from cur to next removes the last
// active admin. A store that already has none is not blocked.
func dropsLastAdmin(cur, next []User) bool {
	return activeAdmins(cur) > 0 && activeAdmins(next) == 0
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func indexByEmail(users []User, email string) int {
	e := normalizeEmail(email)
	for i := range users {
		if normalizeEmail(users[i].Email) == e {
			return i
		}
	}
	return -1
}

func indexByID(users []User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
