// Package apperr holds the error categories shared by every store.
//
// Concrete errors wrap one of the categories with %w, so callers can
// branch on either the concrete error or its category with errors.Is.
package apperr

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrPermission     = errors.New("permission denied")
	ErrConstraint     = errors.New("constraint violation")
	ErrNotFound       = errors.New("not found")
)

// Category returns the category sentinel err belongs to, or nil when err is
// not categorized (storage failures, programming errors).
func Category(err error) error {
	for _, c := range []error{ErrValidation, ErrAuthentication, ErrPermission, ErrConstraint, ErrNotFound} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
