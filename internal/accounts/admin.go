package accounts

import (
	"context"
	"slices"
)

// DeleteUser removes an account. It refuses the signed-in account and the
// last active admin.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	sess, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if ok && sess.UserID == id {
		return ErrSelfDelete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.users, id)
	if i < 0 {
		return ErrUserNotFound
	}
	next := s.cloneAll()
	next = slices.Delete(next, i, i+1)
	if dropsLastAdmin(s.users, next) {
		return ErrLastAdmin
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// ToggleUserStatus flips IsActive. Deactivating the last active admin fails.
func (s *Store) ToggleUserStatus(ctx context.Context, id string) error {
	return s.changeUser(ctx, id, func(u *User) { u.IsActive = !u.IsActive })
}

func (s *Store) PromoteToAdmin(ctx context.Context, id string) error {
	return s.changeUser(ctx, id, func(u *User) { u.Role = RoleAdmin })
}

// DemoteFromAdmin fails when it would leave no active admin.
func (s *Store) DemoteFromAdmin(ctx context.Context, id string) error {
	return s.changeUser(ctx, id, func(u *User) { u.Role = RoleUser })
}

// changeUser applies fn and rejects the result if it empties the active
// admin set.
func (s *Store) changeUser(ctx context.Context, id string, fn func(*User)) error {
	err := s.mutateUser(ctx, id, func(next []User, u *User) error {
		fn(u)
		if dropsLastAdmin(s.users, next) {
			return ErrLastAdmin
		}
		return nil
	})
	if err == nil {
		s.logger.Info("user updated", "user_id", id)
	}
	return err
}
