// Package kv is the persistence boundary of the storefront stores.
//
// Every store keeps its state in memory and writes a JSON snapshot of it
// under a single key after each mutation. Store is deliberately small so
// the same store logic runs against an in-process map in tests and against
// Badger, Redis or Postgres in deployments.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Blob keys. Each key holds one independently versioned snapshot.
const (
	KeyJourney  = "journey"
	KeyCatalog  = "catalog"
	KeyAccounts = "accounts"
	KeySession  = "session"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the capability every persistence backend provides.
// Remove of a missing key is not an error. Clear removes every key the
// store owns (its namespace), nothing else.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// GetJSON decodes the value under key into out. It reports false, with a nil
// error, when the key does not exist.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	b, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("kv decode %s: %w", key, err)
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, b); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}
