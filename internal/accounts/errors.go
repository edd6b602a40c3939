package accounts

import (
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

var (
	ErrDuplicateEmail     = fmt.Errorf("%w: an account with this email already exists", apperr.ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, MinPasswordLength)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown status", apperr.ErrValidation)
	ErrMalformedImport    = fmt.Errorf("%w: import payload is not a JSON array of users", apperr.ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrAuthentication)
	ErrLastAdmin          = fmt.Errorf("%w: at least one active admin must remain", apperr.ErrConstraint)
	ErrSelfDelete         = fmt.Errorf("%w: the signed-in account cannot be deleted", apperr.ErrConstraint)
	ErrUserNotFound       = fmt.Errorf("%w: user", apperr.ErrNotFound)
	ErrOrderNotFound      = fmt.Errorf("%w: order", apperr.ErrNotFound)
	ErrTryOnNotFound      = fmt.Errorf("%w: try-on request", apperr.ErrNotFound)
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, msg)
}
