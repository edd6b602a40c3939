package catalog

import (
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

var (
	ErrNameRequired  = fmt.Errorf("%w: piece name is required", apperr.ErrValidation)
	ErrNegativePrice = fmt.Errorf("%w: price must not be negative", apperr.ErrValidation)
)
