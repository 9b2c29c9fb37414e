package payment

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Handler exposes the payment method endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

type methodResponse struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Kind                   string    `json:"kind"`
	InternalFeeBps         int32     `json:"internal_fee_bps"`
	MinInstallmentAmount   int64     `json:"min_installment_amount"`
	MaxInstallments        int32     `json:"max_installments"`
	NoInterestInstallments int32     `json:"no_interest_installments"`
	InterestRateBps        int32     `json:"interest_rate_bps"`
	Active                 bool      `json:"active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func toResponse(m repo.PaymentMethod) methodResponse {
	return methodResponse{
		ID:                     m.ID,
		Name:                   m.Name,
		Kind:                   string(m.Terms.Kind),
		InternalFeeBps:         m.Terms.InternalFeeBps,
		MinInstallmentAmount:   m.Terms.MinInstallmentAmount,
		MaxInstallments:        m.Terms.MaxInstallments,
		NoInterestInstallments: m.Terms.NoInterestInstallments,
		InterestRateBps:        m.Terms.InterestRateBps,
		Active:                 m.Active,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// List handles GET /api/v1/payment-methods.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	rows, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]methodResponse, len(rows))
	for i, m := range rows {
		out[i] = toResponse(m)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Get handles GET /api/v1/payment-methods/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(m)})
}

// Create handles POST /api/v1/payment-methods.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid payment method payload", err))
		return
	}
	m, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toResponse(m)})
}

// Update handles PUT /api/v1/payment-methods/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid payment method payload", err))
		return
	}
	m, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(m)})
}

// Delete handles DELETE /api/v1/payment-methods/{id}.
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

type quoteInput struct {
	Amount       pricing.Money `json:"amount" validate:"required,gt=0"`
	Installments int           `json:"installments" validate:"gte=0"`
}

// Quote handles POST /api/v1/payment-methods/{id}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in quoteInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid quote payload", err))
		return
	}
	quote, err := h.service.QuoteInstallments(r.Context(), id, in.Amount, in.Installments)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Routes mounts the read and quote endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/payment-methods", h.List)
	r.Get("/payment-methods/{id}", h.Get)
	r.Post("/payment-methods/{id}/quote", h.Quote)
}

// AdminRoutes mounts the mutation endpoints.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/payment-methods", h.Create)
	r.Put("/payment-methods/{id}", h.Update)
	r.Delete("/payment-methods/{id}", h.Delete)
}
