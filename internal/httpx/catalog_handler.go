package httpx

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/browse"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// criteriaFromQuery reads ?q, minPrice, maxPrice, vibe, category,
// available, minHearts and sort. vibe and category repeat or take CSV.
func criteriaFromQuery(q url.Values) (browse.Criteria, error) {
	c := browse.Criteria{
		Query:      q.Get("q"),
		Vibes:      multi(q["vibe"]),
		Categories: multi(q["category"]),
		Sort:       browse.ParseSortOrder(q.Get("sort")),
	}
	var err error
	if c.MinPrice, err = optionalDecimal(q, "minPrice"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = optionalDecimal(q, "maxPrice"); err != nil {
		return c, err
	}
	if v := q.Get("available"); v != "" {
		if c.AvailableOnly, err = strconv.ParseBool(v); err != nil {
			return c, fmt.Errorf("%w: available must be a boolean", apperr.ErrValidation)
		}
	}
	if v := q.Get("minHearts"); v != "" {
		if c.MinHearts, err = strconv.Atoi(v); err != nil {
			return c, fmt.Errorf("%w: minHearts must be an integer", apperr.ErrValidation)
		}
	}
	return c, nil
}

func optionalDecimal(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", apperr.ErrValidation, key)
	}
	return &d, nil
}

func multi(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (h *Handler) listPieces(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c.Query != "" {
		if err := h.Cart.RecordSearch(r.Context(), c.Query); err != nil {
			h.logger().Warn("record search", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, browse.Apply(h.Catalog.GetAll(), c))
}

func (h *Handler) pieceStats(w http.ResponseWriter, r *http.Request) {
	all := h.Catalog.GetAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":      browse.Summarize(all),
		"vibes":      browse.Vibes(all),
		"categories": browse.Categories(all),
	})
}

func (h *Handler) getPiece(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Catalog.GetByID(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, r, errPieceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	if err := found(h.Catalog.RecordView(r.Context(), chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordInquiry(w http.ResponseWriter, r *http.Request) {
	if err := found(h.Catalog.RecordInquiry(r.Context(), chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addPiece(w http.ResponseWriter, r *http.Request) {
	var d catalog.Draft
	if err := decode(w, r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Catalog.AddProduct(r.Context(), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePiece(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if err := decode(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := found(h.Catalog.UpdateProduct(r.Context(), id, patch)); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, _ := h.Catalog.GetByID(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deletePiece(w http.ResponseWriter, r *http.Request) {
	if err := found(h.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicatePiece(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.Catalog.DuplicateProduct(r.Context(), chi.URLParam(r, "id"))
	if err := found(ok, err); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := found(h.Catalog.ToggleAvailability(r.Context(), id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, _ := h.Catalog.GetByID(id)
	writeJSON(w, http.StatusOK, p)
}
