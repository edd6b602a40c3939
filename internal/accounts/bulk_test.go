package accounts

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/security"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emailsAndNames(users []User) [][2]string {
	out := make([][2]string, 0, len(users))
	for _, u := range users {
		out = append(out, [2]string{u.Email, u.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestExportUsers_NoDigests(t *testing.T) {
	f := setup(t)
	f.admin(t, "boss@example.com")
	f.register(t, "ada@example.com")

	data, err := f.store.ExportUsers()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "passwordHash")
	digest, _ := security.SHA256{}.Hash("secret1")
	assert.NotContains(t, string(data), digest)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "admin", raw[0]["role"])
	assert.NotContains(t, raw[0], "id")
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setup(t)
	src.admin(t, "boss@example.com")
	u := src.register(t, "ada@example.com")
	_, err := src.store.ToggleFavorite(ctx, u.ID, "piece-3")
	require.NoError(t, err)

	data, err := src.store.ExportUsers()
	require.NoError(t, err)

	dst := NewStore(kv.NewMemory(), session.NewManager(kv.NewMemory(), time.Hour), Options{})
	res, err := dst.ImportUsers(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Errors)

	assert.Equal(t, emailsAndNames(src.store.ListUsers()), emailsAndNames(dst.ListUsers()))

	imported, ok := dst.GetUserByEmail("ada@example.com")
	require.True(t, ok)
	assert.NotEqual(t, u.ID, imported.ID, "imported accounts get fresh ids")
	assert.Equal(t, []string{"piece-3"}, imported.Favorites)

	_, _, err = dst.Authenticate(ctx, "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "digests are not carried over")
	_, _, err = dst.Authenticate(ctx, "ada@example.com", DefaultImportPassword)
	assert.NoError(t, err)
}

func TestImportUsers_PartialFailures(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.register(t, "existing@example.com")

	payload := `[
		{"email": "new@example.com", "name": "New"},
		{"email": "", "name": "No Email"},
		{"email": "noname@example.com"},
		{"email": "EXISTING@example.com", "name": "Dup"},
		{"email": "new@example.com", "name": "Dup In Batch"},
		{"email": "boss@example.com", "name": "Boss", "role": "ADMIN", "isActive": false, "phone": "555"}
	]`
	res, err := f.store.ImportUsers(ctx, []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 4, res.Skipped)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "entry 2: missing email")
	assert.Contains(t, res.Errors[1], "entry 3: missing name")
	assert.Contains(t, res.Errors[2], "entry 4")
	assert.Contains(t, res.Errors[3], "entry 5")

	boss, ok := f.store.GetUserByEmail("boss@example.com")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, boss.Role)
	assert.False(t, boss.IsActive)
	assert.Equal(t, "555", boss.Phone)
	assert.Len(t, f.store.ListUsers(), 3)
}

func TestImportUsers_Malformed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for _, payload := range []string{`not json`, `{"email": "a@b.co"}`, `[{"email": 5}]`} {
		_, err := f.store.ImportUsers(ctx, []byte(payload))
		assert.ErrorIs(t, err, ErrMalformedImport, payload)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Empty(t, f.store.ListUsers())
}

func TestImportUsers_EmptyArray(t *testing.T) {
	f := setup(t)
	res, err := f.store.ImportUsers(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.NotNil(t, res.Errors)
}
