package receipt

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// Handler serves rendered receipts over HTTP.
type Handler struct {
	Worker *Worker
}

// Get handles GET /api/v1/sales/{id}/receipt. It prefers the cached
// render and falls back to rendering from live data.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	text, ok := h.Worker.Cached(r.Context(), id)
	if !ok {
		text, err = h.Worker.Build(r.Context(), id)
		if err != nil {
			if errors.Is(err, sale.ErrNotFound) {
				err = common.NotFound("sale", id)
			}
			common.WriteError(w, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// Routes mounts the receipt endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/sales/{id}/receipt", h.Get)
}
