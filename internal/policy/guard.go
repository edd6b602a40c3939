// Package policy gates the admin operations of the account store behind the
// current session's role.
package policy

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/metrics"
)

var (
	ErrUnauthenticated = fmt.Errorf("%w: sign in required", apperr.ErrAuthentication)
	ErrForbidden       = fmt.Errorf("%w: admin role required", apperr.ErrPermission)
)

// OrderStatusUpdater changes an order's status. The account store satisfies
// it; the checkout service does too and also emits an event.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, userID, orderID string, status accounts.OrderStatus) (accounts.Order, error)
}

type Guard struct {
	Accounts *accounts.Store
	Orders   OrderStatusUpdater
}

func New(store *accounts.Store, orders OrderStatusUpdater) *Guard {
	if orders == nil {
		orders = store
	}
	return &Guard{Accounts: store, Orders: orders}
}

// RequireAdmin returns the signed-in user when it is an active admin.
func (g *Guard) RequireAdmin(ctx context.Context) (accounts.User, error) {
	u, ok, err := g.Accounts.CurrentUser(ctx)
	if err != nil {
		return accounts.User{}, err
	}
	if !ok {
		return accounts.User{}, ErrUnauthenticated
	}
	if !u.IsAdmin() {
		return accounts.User{}, ErrForbidden
	}
	return u, nil
}

func (g *Guard) run(ctx context.Context, op string, fn func() error) error {
	if _, err := g.RequireAdmin(ctx); err != nil {
		metrics.AdminActions.WithLabelValues(op, metrics.Result(err)).Inc()
		return err
	}
	err := fn()
	metrics.AdminActions.WithLabelValues(op, metrics.Result(err)).Inc()
	return err
}

func (g *Guard) ResetPassword(ctx context.Context, userID, newPassword string) error {
	return g.run(ctx, "reset_password", func() error {
		return g.Accounts.ResetPassword(ctx, userID, newPassword)
	})
}

func (g *Guard) DeleteUser(ctx context.Context, userID string) error {
	return g.run(ctx, "delete_user", func() error {
		return g.Accounts.DeleteUser(ctx, userID)
	})
}

func (g *Guard) ToggleUserStatus(ctx context.Context, userID string) error {
	return g.run(ctx, "toggle_status", func() error {
		return g.Accounts.ToggleUserStatus(ctx, userID)
	})
}

func (g *Guard) PromoteToAdmin(ctx context.Context, userID string) error {
	return g.run(ctx, "promote", func() error {
		return g.Accounts.PromoteToAdmin(ctx, userID)
	})
}

func (g *Guard) DemoteFromAdmin(ctx context.Context, userID string) error {
	return g.run(ctx, "demote", func() error {
		return g.Accounts.DemoteFromAdmin(ctx, userID)
	})
}

func (g *Guard) ListUsers(ctx context.Context) ([]accounts.User, error) {
	var out []accounts.User
	err := g.run(ctx, "list_users", func() error {
		out = g.Accounts.ListUsers()
		return nil
	})
	return out, err
}

func (g *Guard) ExportUsers(ctx context.Context) ([]byte, error) {
	var out []byte
	err := g.run(ctx, "export", func() (err error) {
		out, err = g.Accounts.ExportUsers()
		return err
	})
	return out, err
}

func (g *Guard) ImportUsers(ctx context.Context, data []byte) (accounts.ImportResult, error) {
	var out accounts.ImportResult
	err := g.run(ctx, "import", func() (err error) {
		out, err = g.Accounts.ImportUsers(ctx, data)
		return err
	})
	return out, err
}

func (g *Guard) UpdateOrderStatus(ctx context.Context, userID, orderID string, status accounts.OrderStatus) (accounts.Order, error) {
	var out accounts.Order
	err := g.run(ctx, "order_status", func() (err error) {
		out, err = g.Orders.UpdateOrderStatus(ctx, userID, orderID, status)
		return err
	})
	return out, err
}
