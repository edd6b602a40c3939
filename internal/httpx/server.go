package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/policy"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Session-Token"

const maxBodyBytes = 4 << 20

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Handler exposes the storefront stores over HTTP.
type Handler struct {
	Sessions *session.Manager
	Catalog  *catalog.Store
	Cart     *cart.Store
	Accounts *accounts.Store
	Checkout *checkout.Service
	Guard    *policy.Guard
	Logger   *slog.Logger
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/pieces", func(r chi.Router) {
		r.Get("/", h.listPieces)
		r.Get("/stats", h.pieceStats)
		r.Get("/{id}", h.getPiece)
		r.Post("/{id}/views", h.recordView)
		r.Post("/{id}/inquiries", h.recordInquiry)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addToCart)
		r.Patch("/items", h.updateQuantity)
		r.Delete("/items", h.removeFromCart)
	})
	r.Get("/journey", h.getJourney)
	r.Post("/favorites/{id}", h.toggleFavorite)
	r.Post("/hearts/{id}", h.toggleHeart)
	r.Post("/searches", h.recordSearch)
	r.Delete("/searches", h.clearSearches)
	r.Put("/preferences", h.setPreferences)

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Post("/auth/logout", h.logout)
		r.Get("/me", h.me)
		r.Patch("/me", h.updateProfile)
		r.Post("/me/password", h.changePassword)
		r.Get("/me/orders", h.myOrders)
		r.Post("/me/favorites/{id}", h.toggleAccountFavorite)
		r.Post("/me/try-ons", h.requestTryOn)
		r.Post("/checkout", h.checkout)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireSession, h.adminOnly)
		r.Get("/users", h.listUsers)
		r.Get("/users/stats", h.userStats)
		r.Get("/users/export", h.exportUsers)
		r.Post("/users/import", h.importUsers)
		r.Delete("/users/{id}", h.deleteUser)
		r.Post("/users/{id}/reset-password", h.resetPassword)
		r.Post("/users/{id}/toggle-status", h.toggleUserStatus)
		r.Post("/users/{id}/promote", h.promote)
		r.Post("/users/{id}/demote", h.demote)
		r.Patch("/users/{id}/orders/{orderID}", h.updateOrderStatus)
		r.Patch("/users/{id}/try-ons/{requestID}", h.updateTryOnStatus)

		r.Post("/pieces", h.addPiece)
		r.Patch("/pieces/{id}", h.updatePiece)
		r.Delete("/pieces/{id}", h.deletePiece)
		r.Post("/pieces/{id}/duplicate", h.duplicatePiece)
		r.Post("/pieces/{id}/toggle-availability", h.toggleAvailability)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error to its HTTP status by category.
func StatusFor(err error) int {
	switch apperr.Category(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrAuthentication:
		return http.StatusUnauthorized
	case apperr.ErrPermission:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConstraint:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.logger().Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

var errInvalidJSON = fmt.Errorf("%w: invalid json", apperr.ErrValidation)

func decode(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body too large", apperr.ErrValidation)
		}
		return errInvalidJSON
	}
	return nil
}

var errPieceNotFound = fmt.Errorf("%w: piece", apperr.ErrNotFound)

// found turns the boolean result of a catalog operation into an error.
func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errPieceNotFound
	}
	return nil
}
