package sale

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ReceiptEnqueuer schedules background receipt rendering for a sale.
type ReceiptEnqueuer interface {
	EnqueueReceipt(saleID int64) error
}

// Handler exposes the sale lifecycle endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	receipts ReceiptEnqueuer
	log      zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
	Receipts ReceiptEnqueuer
	Logger   zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:  cfg.Service,
		validate: cfg.Validate,
		receipts: cfg.Receipts,
		log:      cfg.Logger,
	}
}

type saleResponse struct {
	ID            int64         `json:"id"`
	OccurredAt    time.Time     `json:"occurred_at"`
	TotalAmount   pricing.Money `json:"total_amount"`
	Discount      pricing.Money `json:"discount"`
	PaidAmount    pricing.Money `json:"paid_amount"`
	Profit        pricing.Money `json:"profit"`
	TotalQuantity int           `json:"total_quantity"`
	MethodID      int64         `json:"payment_method_id"`
	CustomerID    int64         `json:"customer_id"`
	SellerID      *int64        `json:"seller_id,omitempty"`
	Status        string        `json:"status"`
	Notes         *string       `json:"notes,omitempty"`
	Items         []Item        `json:"items,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func toResponse(rec Record, items []Item) saleResponse {
	return saleResponse{
		ID:            rec.ID,
		OccurredAt:    rec.OccurredAt,
		TotalAmount:   rec.TotalAmount,
		Discount:      rec.Discount,
		PaidAmount:    rec.PaidAmount,
		Profit:        rec.Profit,
		TotalQuantity: rec.TotalQuantity,
		MethodID:      rec.PaymentMethodID,
		CustomerID:    rec.CustomerID,
		SellerID:      rec.SellerID,
		Status:        rec.Status,
		Notes:         rec.Notes,
		Items:         items,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// Preview handles POST /api/v1/sales/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in PreviewInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid preview payload", err))
		return
	}
	preview, err := h.service.PreviewSale(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": preview})
}

// Create handles POST /api/v1/sales.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid sale payload", err))
		return
	}
	var seller *int64
	if id, ok := common.UserID(r.Context()); ok {
		seller = &id
	}
	detail, err := h.service.Create(r.Context(), in, seller)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if detail.Status == StatusCompleted {
		h.enqueueReceipt(detail.ID)
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toResponse(detail.Record, detail.Items)})
}

// List handles GET /api/v1/sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	status := r.URL.Query().Get("status")
	rows, total, err := h.service.List(r.Context(), status, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]saleResponse, len(rows))
	for i, rec := range rows {
		out[i] = toResponse(rec, nil)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(detail.Record, detail.Items)})
}

// Update handles PATCH /api/v1/sales/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in UpdateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(detail.Record, detail.Items)})
}

// Finalize handles POST /api/v1/sales/{id}/finalize.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.enqueueReceipt(detail.ID)
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(detail.Record, detail.Items)})
}

// Cancel handles POST /api/v1/sales/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(detail.Record, detail.Items)})
}

// Delete handles DELETE /api/v1/sales/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// enqueueReceipt hands the sale to the background renderer. Receipt
// printing never blocks or fails the sale itself.
func (h *Handler) enqueueReceipt(saleID int64) {
	if h.receipts == nil {
		return
	}
	if err := h.receipts.EnqueueReceipt(saleID); err != nil {
		h.log.Warn().Err(err).Int64("sale_id", saleID).Msg("receipt enqueue failed")
	}
}

// Routes mounts the sale endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sales/preview", h.Preview)
	r.Post("/sales", h.Create)
	r.Get("/sales", h.List)
	r.Get("/sales/{id}", h.Get)
	r.Patch("/sales/{id}", h.Update)
	r.Post("/sales/{id}/finalize", h.Finalize)
	r.Post("/sales/{id}/cancel", h.Cancel)
	r.Delete("/sales/{id}", h.Delete)
}
