package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/go-playground/validator/v10"
)

type registration struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required"`
}

// Register creates an active, unverified user account.
func (s *Store) Register(ctx context.Context, email, password, name string) (User, error) {
	reg := registration{Email: normalizeEmail(email), Name: strings.TrimSpace(name)}
	if err := s.validate.Struct(reg); err != nil {
		return User{}, describeValidation(err)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return User{}, ErrPasswordTooShort
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexByEmail(s.users, reg.Email) >= 0 {
		return User{}, ErrDuplicateEmail
	}
	u := s.newUser(reg.Email, reg.Name, digest)
	if err := s.commit(ctx, append(s.cloneAll(), u)); err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", "user_id", u.ID)
	return u.public(), nil
}

// Authenticate checks the credentials and opens a session. Unknown email,
// wrong password and inactive account all yield ErrInvalidCredentials.
// The digest is verified outside the lock; the account is re-checked before
// LastLogin is written, and the session is dropped again if that write fails.
func (s *Store) Authenticate(ctx context.Context, email, password string) (session.Session, User, error) {
	s.mu.Lock()
	i := indexByEmail(s.users, email)
	if i < 0 || !s.users[i].IsActive {
		s.mu.Unlock()
		return session.Session{}, User{}, ErrInvalidCredentials
	}
	id, digest := s.users[i].ID, s.users[i].PasswordHash
	s.mu.Unlock()

	ok, err := s.hasher.Verify(password, digest)
	if err != nil {
		return session.Session{}, User{}, err
	}
	if !ok {
		return session.Session{}, User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i = indexByID(s.users, id)
	if i < 0 || !s.users[i].IsActive || s.users[i].PasswordHash != digest {
		return session.Session{}, User{}, ErrInvalidCredentials
	}
	sess, err := s.sessions.Create(ctx, id)
	if err != nil {
		return session.Session{}, User{}, err
	}
	next := s.cloneAll()
	now := s.Now().UTC()
	next[i].LastLogin = &now
	if err := s.commit(ctx, next); err != nil {
		if cerr := s.sessions.Clear(ctx); cerr != nil {
			s.logger.Error("drop session after failed login", "user_id", id, "err", cerr)
		}
		return session.Session{}, User{}, err
	}
	return sess, next[i].public(), nil
}

func (s *Store) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// CurrentUser resolves the live session to an active account.
func (s *Store) CurrentUser(ctx context.Context) (User, bool, error) {
	sess, ok, err := s.sessions.Current(ctx)
	if err != nil || !ok {
		return User{}, false, err
	}
	u, ok := s.GetUser(sess.UserID)
	if !ok || !u.IsActive {
		return User{}, false, nil
	}
	return u, true, nil
}

func (s *Store) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		ok, err := s.hasher.Verify(oldPassword, u.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCredentials
		}
		u.PasswordHash = digest
		return nil
	})
}

// ResetPassword sets a new password without the old one. The store does
// not check who is asking.
func (s *Store) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.mutateUser(ctx, userID, func(_ []User, u *User) error {
		u.PasswordHash = digest
		return nil
	})
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError(err.Error())
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return validationError(field + " is required")
	case "email":
		return validationError(field + " must be a valid email address")
	}
	return validationError(fmt.Sprintf("%s is invalid", field))
}
