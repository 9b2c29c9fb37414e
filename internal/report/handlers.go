package report

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the report endpoints.
type Handler struct {
	Svc *Service
}

// parseRange resolves the from/to window from the query, defaulting to
// the configured trailing range ending now.
func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	now := h.Svc.now()

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, common.BadRequest("invalid from date", err)
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, common.BadRequest("invalid to date", err)
		}
		if !from.Before(to) {
			return time.Time{}, time.Time{}, common.BadRequest("from must be before to", nil)
		}
		return from, to, nil
	}

	days := h.Svc.DefaultRange
	if days <= 0 {
		days = 30
	}
	if raw := query.Get("days"); raw != "" {
		if parsed := common.AtoiDefault(raw, days); parsed > 0 {
			days = parsed
		}
	}
	return now.AddDate(0, 0, -days), now, nil
}

// SalesDaily handles GET /api/v1/reports/sales-daily.
func (h *Handler) SalesDaily(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.Svc.SalesDaily(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopProducts handles GET /api/v1/reports/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := common.AtoiDefault(q.Get("limit"), 10)
	offset := common.AtoiDefault(q.Get("offset"), 0)
	rows, err := h.Svc.TopProducts(r.Context(), int32(limit), int32(offset))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// SalesByMethod handles GET /api/v1/reports/payment-methods.
func (h *Handler) SalesByMethod(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.Svc.SalesByMethod(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Routes mounts the report endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/reports/sales-daily", h.SalesDaily)
	r.Get("/reports/top-products", h.TopProducts)
	r.Get("/reports/payment-methods", h.SalesByMethod)
}
