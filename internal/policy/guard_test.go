package policy

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	guard *Guard
	store *accounts.Store
	admin accounts.User
	user  accounts.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := accounts.NewStore(kv.NewMemory(), session.NewManager(kv.NewMemory(), time.Hour), accounts.Options{})
	admin, err := store.Register(ctx, "boss@example.com", "secret1", "Boss")
	require.NoError(t, err)
	require.NoError(t, store.PromoteToAdmin(ctx, admin.ID))
	user, err := store.Register(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	return fixture{guard: New(store, nil), store: store, admin: admin, user: user}
}

func (f fixture) signIn(t *testing.T, email string) {
	t.Helper()
	_, _, err := f.store.Authenticate(context.Background(), email, "secret1")
	require.NoError(t, err)
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.guard.RequireAdmin(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	f.signIn(t, "ada@example.com")
	_, err = f.guard.RequireAdmin(ctx)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	f.signIn(t, "boss@example.com")
	u, err := f.guard.RequireAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, u.ID)
}

func TestWrappers_RejectNonAdmin(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.signIn(t, "ada@example.com")

	assert.ErrorIs(t, f.guard.PromoteToAdmin(ctx, f.user.ID), ErrForbidden)
	assert.ErrorIs(t, f.guard.DeleteUser(ctx, f.admin.ID), ErrForbidden)
	assert.ErrorIs(t, f.guard.ToggleUserStatus(ctx, f.admin.ID), ErrForbidden)
	assert.ErrorIs(t, f.guard.DemoteFromAdmin(ctx, f.admin.ID), ErrForbidden)
	assert.ErrorIs(t, f.guard.ResetPassword(ctx, f.admin.ID, "hijacked"), ErrForbidden)
	_, err := f.guard.ExportUsers(ctx)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.guard.ImportUsers(ctx, []byte(`[]`))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.guard.ListUsers(ctx)
	assert.ErrorIs(t, err, ErrForbidden)

	got, _ := f.store.GetUser(f.user.ID)
	assert.Equal(t, accounts.RoleUser, got.Role)
	_, _, err = f.store.Authenticate(ctx, "boss@example.com", "secret1")
	assert.NoError(t, err, "password must be untouched")
}

func TestWrappers_AdminPassesThrough(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.signIn(t, "boss@example.com")

	require.NoError(t, f.guard.PromoteToAdmin(ctx, f.user.ID))
	require.NoError(t, f.guard.DemoteFromAdmin(ctx, f.user.ID))
	require.NoError(t, f.guard.ResetPassword(ctx, f.user.ID, "newsecret"))

	// The store invariants still apply behind the guard.
	assert.ErrorIs(t, f.guard.DemoteFromAdmin(ctx, f.admin.ID), accounts.ErrLastAdmin)
	assert.ErrorIs(t, f.guard.DeleteUser(ctx, f.admin.ID), accounts.ErrSelfDelete)

	users, err := f.guard.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	data, err := f.guard.ExportUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ada@example.com")

	res, err := f.guard.ImportUsers(ctx, []byte(`[{"email":"new@example.com","name":"New"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	order, err := f.store.AddOrder(ctx, f.user.ID, accounts.OrderDraft{Items: []accounts.OrderLine{
		{PieceID: "piece-1", Name: "Blazer", Price: decimal.NewFromInt(150), Quantity: 1},
	}})
	require.NoError(t, err)
	updated, err := f.guard.UpdateOrderStatus(ctx, f.user.ID, order.ID, accounts.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, accounts.OrderShipped, updated.Status)

	require.NoError(t, f.guard.DeleteUser(ctx, f.user.ID))
}

func TestRequireAdmin_InactiveAdminSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.store.PromoteToAdmin(ctx, f.user.ID))
	f.signIn(t, "ada@example.com")
	require.NoError(t, f.store.ToggleUserStatus(ctx, f.user.ID))

	_, err := f.guard.RequireAdmin(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
