package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/app"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t   *testing.T
	app *app.App
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	a, err := app.New(ctx, config.Config{
		ServiceName:    "storefront-test",
		StoreBackend:   config.BackendMemory,
		SeedCatalog:    true,
		SessionTTL:     time.Hour,
		PasswordHasher: "sha256",
		AdminEmail:     "boss@example.com",
		AdminPassword:  "secret1",
		AdminName:      "Boss",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	r := NewRouter()
	h := &Handler{
		Sessions: a.Sessions,
		Catalog:  a.Catalog,
		Cart:     a.Cart,
		Accounts: a.Accounts,
		Checkout: a.Checkout,
		Guard:    a.Guard,
	}
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{t: t, app: a, srv: srv}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (s *testServer) do(method, path, token string, body, out any) int {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	var resp loginResp
	code := s.do(http.MethodPost, "/auth/login", "", credentials{Email: email, Password: password}, &resp)
	require.Equal(s.t, http.StatusOK, code)
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func (s *testServer) registerAndLogin(email string) (accounts.User, string) {
	s.t.Helper()
	var u accounts.User
	code := s.do(http.MethodPost, "/auth/register", "", credentials{Email: email, Password: "secret1", Name: "Shopper"}, &u)
	require.Equal(s.t, http.StatusCreated, code)
	return u, s.login(email, "secret1")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: x", apperr.ErrValidation):     http.StatusBadRequest,
		fmt.Errorf("%w: x", apperr.ErrAuthentication): http.StatusUnauthorized,
		fmt.Errorf("%w: x", apperr.ErrPermission):     http.StatusForbidden,
		fmt.Errorf("%w: x", apperr.ErrNotFound):       http.StatusNotFound,
		accounts.ErrLastAdmin:                         http.StatusConflict,
		errors.New("disk on fire"):                    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-1", Size: "M"}, nil)
	resp, err = http.Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "storefront_cart_mutations_total")
}

func TestCatalogBrowse(t *testing.T) {
	s := newTestServer(t)

	var all []catalog.Piece
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/pieces", "", nil, &all))
	assert.Len(t, all, len(s.app.Catalog.GetAll()))

	var cheap []catalog.Piece
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/pieces?maxPrice=150&sort=price-high", "", nil, &cheap))
	require.NotEmpty(t, cheap)
	for i, p := range cheap {
		assert.True(t, p.Price.LessThanOrEqual(catalogPrice(150)), p.ID)
		if i > 0 {
			assert.True(t, cheap[i-1].Price.GreaterThanOrEqual(p.Price))
		}
	}

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/pieces?minPrice=cheap", "", nil, &errBody))
	assert.Contains(t, errBody["error"], "minPrice")

	var found []catalog.Piece
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/pieces?q=JACKET", "", nil, &found))
	assert.NotEmpty(t, found)
	assert.Equal(t, []string{"JACKET"}, s.app.Cart.Journey().SearchHistory)

	var p catalog.Piece
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/pieces/piece-1", "", nil, &p))
	assert.Equal(t, "piece-1", p.ID)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/pieces/nope", "", nil, nil))

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/pieces/piece-1/views", "", nil, nil))
	got, _ := s.app.Catalog.GetByID("piece-1")
	assert.Equal(t, p.Views+1, got.Views)

	var stats map[string]json.RawMessage
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/pieces/stats", "", nil, &stats))
	assert.Contains(t, stats, "vibes")
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)

	var view cartView
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-1", Size: "M"}, &view))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-1", Size: "M"}, &view))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-2", Size: "L"}, &view))
	assert.Equal(t, 3, view.Count)
	assert.True(t, view.Total.Equal(catalogPrice(500)), view.Total.String())

	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/cart/items", "", cartLine{PieceID: "piece-1", Size: "M", Quantity: 0}, &view))
	assert.Equal(t, 1, view.Count)
	assert.True(t, view.Total.Equal(catalogPrice(200)))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "ghost"}, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/cart", "", nil, &view))
	assert.Zero(t, view.Count)
	assert.Empty(t, view.Items)
}

func TestToggleHeartMovesCounter(t *testing.T) {
	s := newTestServer(t)
	before, _ := s.app.Catalog.GetByID("piece-1")

	var resp struct {
		Hearted bool `json:"hearted"`
		Hearts  int  `json:"hearts"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/hearts/piece-1", "", nil, &resp))
	assert.True(t, resp.Hearted)
	assert.Equal(t, before.Hearts+1, resp.Hearts)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/hearts/piece-1", "", nil, &resp))
	assert.False(t, resp.Hearted)
	assert.Equal(t, before.Hearts, resp.Hearts)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/hearts/ghost", "", nil, nil))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", "bogus", nil, nil))

	var errBody map[string]string
	code := s.do(http.MethodPost, "/auth/register", "", credentials{Email: "x@example.com", Password: "123", Name: "X"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, errBody["error"])

	u, token := s.registerAndLogin("ada@example.com")
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/auth/register", "",
		credentials{Email: "ADA@example.com", Password: "secret1", Name: "Dup"}, nil))

	var me accounts.User
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me", token, nil, &me))
	assert.Equal(t, u.ID, me.ID)
	assert.Empty(t, me.PasswordHash)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/login", "",
		credentials{Email: "ada@example.com", Password: "wrong!"}, nil))

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", token, nil, nil))
}

func TestSessionExpiry(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLogin("ada@example.com")

	s.app.Sessions.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", token, nil, nil))
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-2", Size: "S"}, nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/checkout", "", nil, nil))

	_, token := s.registerAndLogin("ada@example.com")
	var o accounts.Order
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/checkout", token, nil, &o))
	assert.Equal(t, accounts.OrderPending, o.Status)
	assert.True(t, o.Total.Equal(catalogPrice(200)))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/checkout", token, nil, nil), "cart is empty now")

	var orders []accounts.Order
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me/orders", token, nil, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	ada, userToken := s.registerAndLogin("ada@example.com")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/users", userToken, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/admin/users", "", nil, nil))

	adminToken := s.login("boss@example.com", "secret1")
	boss, _ := s.app.Accounts.GetUserByEmail("boss@example.com")

	var users []accounts.User
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/users", adminToken, nil, &users))
	assert.Len(t, users, 2)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/admin/users/"+boss.ID+"/demote", adminToken, nil, nil))
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/admin/users/"+boss.ID, adminToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/admin/users/nope/promote", adminToken, nil, nil))

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/admin/users/"+ada.ID+"/promote", adminToken, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/admin/users/"+boss.ID+"/demote", adminToken, nil, nil))

	// boss is no longer an admin; its session now fails the admin check
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/users", adminToken, nil, nil))
}

func TestAdminExportImport(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin("ada@example.com")
	adminToken := s.login("boss@example.com", "secret1")

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/admin/users/export", nil)
	require.NoError(t, err)
	req.Header.Set(TokenHeader, adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(data), "passwordHash")

	var res accounts.ImportResult
	payload := []map[string]any{{"email": "new@example.com", "name": "New"}, {"email": "ada@example.com", "name": "Dup"}, {"name": "No Email"}}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/admin/users/import", adminToken, payload, &res))
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	req, err = http.NewRequest(http.MethodPost, s.srv.URL+"/admin/users/import", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	req.Header.Set(TokenHeader, adminToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminCatalogAndOrders(t *testing.T) {
	s := newTestServer(t)
	ada, userToken := s.registerAndLogin("ada@example.com")
	s.do(http.MethodPost, "/cart/items", "", cartLine{PieceID: "piece-1", Size: "M"}, nil)
	var o accounts.Order
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/checkout", userToken, nil, &o))

	adminToken := s.login("boss@example.com", "secret1")

	var created catalog.Piece
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/admin/pieces", adminToken,
		map[string]any{"name": "Silk Scarf", "price": "45.00", "available": true}, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/admin/pieces", adminToken,
		map[string]any{"name": "Broken", "price": "-1"}, nil))

	var dup catalog.Piece
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/admin/pieces/"+created.ID+"/duplicate", adminToken, nil, &dup))
	assert.Equal(t, "Silk Scarf"+catalog.CopySuffix, dup.Name)

	var patched catalog.Piece
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/admin/pieces/"+created.ID, adminToken, map[string]any{"price": "50"}, &patched))
	assert.True(t, patched.Price.Equal(catalogPrice(50)))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/admin/pieces/nope", adminToken, map[string]any{"price": "50"}, nil))
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/admin/pieces/"+dup.ID, adminToken, nil, nil))

	var updated accounts.Order
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/admin/users/"+ada.ID+"/orders/"+o.ID, adminToken,
		statusReq{Status: "shipped"}, &updated))
	assert.Equal(t, accounts.OrderShipped, updated.Status)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/admin/users/"+ada.ID+"/orders/"+o.ID, adminToken,
		statusReq{Status: "lost"}, nil))
}

func catalogPrice(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
