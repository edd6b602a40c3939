package httpx

import (
	"context"
	"io"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Guard.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Accounts.Stats())
}

func (h *Handler) exportUsers(w http.ResponseWriter, r *http.Request) {
	data, err := h.Guard.ExportUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="users.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) importUsers(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, errInvalidJSON)
		return
	}
	res, err := h.Guard.ImportUsers(r.Context(), data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// userAction runs an admin operation on the {id} account.
func (h *Handler) userAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	if err := fn(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Guard.DeleteUser)
}

func (h *Handler) toggleUserStatus(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Guard.ToggleUserStatus)
}

func (h *Handler) promote(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Guard.PromoteToAdmin)
}

func (h *Handler) demote(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Guard.DemoteFromAdmin)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.userAction(w, r, func(ctx context.Context, id string) error {
		return h.Guard.ResetPassword(ctx, id, in.Password)
	})
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in statusReq
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Guard.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "orderID"), accounts.OrderStatus(in.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) updateTryOnStatus(w http.ResponseWriter, r *http.Request) {
	var in statusReq
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := h.Accounts.UpdateTryOnStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "requestID"), accounts.TryOnStatus(in.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
