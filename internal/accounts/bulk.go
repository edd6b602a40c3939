package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Record is the bulk exchange shape of an account. It never carries a
// password digest.
type Record struct {
	Email                   string                   `json:"email" validate:"required"`
	Name                    string                   `json:"name" validate:"required"`
	Role                    Role                     `json:"role,omitempty"`
	Phone                   string                   `json:"phone,omitempty"`
	Address                 *Address                 `json:"address,omitempty"`
	Orders                  []Order                  `json:"orders,omitempty"`
	Favorites               []string                 `json:"favorites,omitempty"`
	TryOnRequests           []TryOnRequest           `json:"tryOnRequests,omitempty"`
	JoinDate                *time.Time               `json:"joinDate,omitempty"`
	IsActive                *bool                    `json:"isActive,omitempty"`
	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty"`
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ExportUsers serializes every account without password digests.
func (s *Store) ExportUsers() ([]byte, error) {
	s.mu.Lock()
	records := make([]Record, 0, len(s.users))
	for _, u := range s.users {
		u = u.clone()
		join := u.JoinDate
		active := u.IsActive
		prefs := u.NotificationPreferences
		records = append(records, Record{
			Email:                   u.Email,
			Name:                    u.Name,
			Role:                    u.Role,
			Phone:                   u.Phone,
			Address:                 u.Address,
			Orders:                  u.Orders,
			Favorites:               u.Favorites,
			TryOnRequests:           u.TryOnRequests,
			JoinDate:                &join,
			IsActive:                &active,
			NotificationPreferences: &prefs,
		})
	}
	s.mu.Unlock()

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	return b, nil
}

// ImportUsers adds every acceptable entry of a JSON array. Only an
// unparsable payload fails the call; bad or duplicate entries are skipped
// and reported in the result. Accepted entries share the placeholder
// password digest.
func (s *Store) ImportUsers(ctx context.Context, data []byte) (ImportResult, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	digest, err := s.hasher.Hash(s.importPassword)
	if err != nil {
		return ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := ImportResult{Errors: []string{}}
	next := s.cloneAll()
	for n, rec := range records {
		rec.Email = normalizeEmail(rec.Email)
		rec.Name = strings.TrimSpace(rec.Name)
		if err := s.validate.Struct(rec); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("entry %d: %s", n+1, missingFields(err)))
			continue
		}
		if indexByEmail(next, rec.Email) >= 0 {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("entry %d: %s already exists", n+1, rec.Email))
			continue
		}
		next = append(next, s.fromRecord(rec, digest))
		res.Imported++
	}
	if res.Imported == 0 {
		return res, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("users imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func (s *Store) fromRecord(rec Record, digest string) User {
	u := s.newUser(rec.Email, rec.Name, digest)
	if strings.EqualFold(string(rec.Role), string(RoleAdmin)) {
		u.Role = RoleAdmin
	}
	u.Phone = rec.Phone
	if rec.Address != nil {
		a := *rec.Address
		u.Address = &a
	}
	if rec.Orders != nil {
		u.Orders = slices.Clone(rec.Orders)
	}
	if rec.Favorites != nil {
		u.Favorites = slices.Clone(rec.Favorites)
	}
	if rec.TryOnRequests != nil {
		u.TryOnRequests = slices.Clone(rec.TryOnRequests)
	}
	if rec.JoinDate != nil {
		u.JoinDate = rec.JoinDate.UTC()
	}
	if rec.IsActive != nil {
		u.IsActive = *rec.IsActive
	}
	if rec.NotificationPreferences != nil {
		u.NotificationPreferences = *rec.NotificationPreferences
	}
	return u
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "missing " + strings.Join(fields, " and ")
}
