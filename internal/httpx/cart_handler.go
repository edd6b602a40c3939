package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cartView struct {
	Items []cart.Item     `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type cartLine struct {
	PieceID  string `json:"pieceId"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) cartView() cartView {
	items := h.Cart.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{Items: items, Count: h.Cart.Count(), Total: h.Cart.Total()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartView())
}

// mutateCart runs fn and answers with the resulting cart.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, op string, fn func() error) {
	if err := fn(); err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.CartMutations.WithLabelValues(op).Inc()
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var in cartLine
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, ok := h.Catalog.GetByID(in.PieceID); !ok {
		h.writeError(w, r, errPieceNotFound)
		return
	}
	h.mutateCart(w, r, "add", func() error { return h.Cart.AddToCart(r.Context(), in.PieceID, in.Size) })
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var in cartLine
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, "update", func() error {
		return h.Cart.UpdateQuantity(r.Context(), in.PieceID, in.Size, in.Quantity)
	})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.mutateCart(w, r, "remove", func() error {
		return h.Cart.RemoveFromCart(r.Context(), q.Get("pieceId"), q.Get("size"))
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, "clear", func() error { return h.Cart.ClearCart(r.Context()) })
}

func (h *Handler) getJourney(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Cart.Journey())
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	on, err := h.Cart.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": on})
}

// toggleHeart flips the visitor's heart and moves the piece's public heart
// count with it.
func (h *Handler) toggleHeart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, ok := h.Catalog.GetByID(id); !ok {
		h.writeError(w, r, errPieceNotFound)
		return
	}
	on, err := h.Cart.ToggleHeart(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	delta := -1
	if on {
		delta = 1
	}
	if err := found(h.Catalog.AdjustHearts(ctx, id, delta)); err != nil {
		if _, rerr := h.Cart.ToggleHeart(ctx, id); rerr != nil {
			h.logger().Error("revert heart", "piece_id", id, "err", rerr)
		}
		h.writeError(w, r, err)
		return
	}
	p, _ := h.Catalog.GetByID(id)
	writeJSON(w, http.StatusOK, map[string]any{"hearted": on, "hearts": p.Hearts})
}

func (h *Handler) recordSearch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Cart.RecordSearch(r.Context(), in.Query); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Cart.Journey().SearchHistory)
}

func (h *Handler) clearSearches(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.ClearSearchHistory(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPreferences(w http.ResponseWriter, r *http.Request) {
	var p cart.Preferences
	if err := decode(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Cart.SetPreferences(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Cart.Journey().Preferences)
}
