package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/policy"
)

type userKey struct{}

// requireSession admits requests whose token matches the live session and
// slides its expiry. The resolved user rides in the request context.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := r.Header.Get(TokenHeader)
		if token == "" {
			h.writeError(w, r, policy.ErrUnauthenticated)
			return
		}
		ok, err := h.Sessions.Validate(ctx, token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !ok {
			h.writeError(w, r, policy.ErrUnauthenticated)
			return
		}
		if _, err := h.Sessions.Extend(ctx); err != nil {
			h.writeError(w, r, err)
			return
		}
		u, ok, err := h.Accounts.CurrentUser(ctx)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !ok {
			h.writeError(w, r, policy.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userKey{}, u)))
	})
}

func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.Guard.RequireAdmin(r.Context()); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) accounts.User {
	u, _ := ctx.Value(userKey{}).(accounts.User)
	return u
}
