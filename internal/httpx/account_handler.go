package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginResp struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      accounts.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Accounts.Register(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, u, err := h.Accounts.Authenticate(r.Context(), in.Email, in.Password)
	metrics.AuthAttempts.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: u})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch accounts.ProfilePatch
	if err := decode(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := currentUser(r.Context()).ID
	if err := h.Accounts.UpdateProfile(r.Context(), id, patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, _ := h.Accounts.GetUser(id)
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Current string `json:"currentPassword"`
		New     string `json:"newPassword"`
	}
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Accounts.ChangePassword(r.Context(), currentUser(r.Context()).ID, in.Current, in.New); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Accounts.Orders(currentUser(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []accounts.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) toggleAccountFavorite(w http.ResponseWriter, r *http.Request) {
	on, err := h.Accounts.ToggleFavorite(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": on})
}

func (h *Handler) requestTryOn(w http.ResponseWriter, r *http.Request) {
	var d accounts.TryOnDraft
	if err := decode(w, r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.Accounts.AddTryOnRequest(r.Context(), currentUser(r.Context()).ID, d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	o, err := h.Checkout.Checkout(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}
