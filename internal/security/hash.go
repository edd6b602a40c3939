// Package security provides password digests and random tokens.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a password into a digest and checks a password against one.
// Callers must never compare digests themselves.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// SHA256 is the unsalted hex SHA-256 scheme existing account blobs were
// written with. It is fast and unsalted; Bcrypt is the stronger choice when
// digest compatibility does not matter.
type SHA256 struct{}

func (SHA256) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256) Verify(password, digest string) (bool, error) {
	got, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1, nil
}

type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(out), nil
}

// Verify treats any malformed digest, such as a legacy SHA-256 one, as a
// mismatch.
func (Bcrypt) Verify(password, digest string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// NewHasher maps a config name to a Hasher.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", "sha256":
		return SHA256{}, nil
	case "bcrypt":
		return Bcrypt{}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
