package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Handler exposes category, product and tag endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	maxLimit int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
	MaxLimit int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Handler{service: cfg.Service, validate: cfg.Validate, maxLimit: maxLimit}
}

type categoryResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	PriceTier1 int64     `json:"price_tier1"`
	PriceTier2 *int64    `json:"price_tier2,omitempty"`
	PriceTier3 *int64    `json:"price_tier3,omitempty"`
	QtyLimit1  *int32    `json:"qty_limit1,omitempty"`
	QtyLimit2  *int32    `json:"qty_limit2,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toCategoryResponse(c repo.Category) categoryResponse {
	return categoryResponse{
		ID:         c.ID,
		Name:       c.Name,
		PriceTier1: c.Tiers.Tier1,
		PriceTier2: c.Tiers.Tier2,
		PriceTier3: c.Tiers.Tier3,
		QtyLimit1:  c.Tiers.Limit1,
		QtyLimit2:  c.Tiers.Limit2,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type productResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Stock       int               `json:"stock"`
	Barcode     *string           `json:"barcode,omitempty"`
	CategoryID  int64             `json:"category_id"`
	Category    *categoryResponse `json:"category,omitempty"`
	Tags        []repo.Tag        `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toProductResponse(p repo.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Stock:       p.Stock,
		Barcode:     p.Barcode,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toDetailResponse(d ProductDetail) productResponse {
	out := toProductResponse(d.Product)
	cat := toCategoryResponse(d.Category)
	out.Category = &cat
	out.Tags = d.Tags
	return out
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]categoryResponse, len(rows))
	for i, c := range rows {
		out[i] = toCategoryResponse(c)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCategoryResponse(c)})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid category payload", err))
		return
	}
	c, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toCategoryResponse(c)})
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid category payload", err))
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCategoryResponse(c)})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts handles GET /api/v1/products with search and pagination.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	if perPage > h.maxLimit {
		perPage = h.maxLimit
	}
	params := repo.ListParams{
		Query:      r.URL.Query().Get("q"),
		CategoryID: int64(common.AtoiDefault(r.URL.Query().Get("category_id"), 0)),
		Limit:      int32(perPage),
		Offset:     int32((page - 1) * perPage),
	}
	result, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]productResponse, len(result.Items))
	for i, p := range result.Items {
		out[i] = toProductResponse(p)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(result.Total)},
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDetailResponse(detail)})
}

// GetProductByBarcode handles GET /api/v1/products/barcode/{code}.
func (h *Handler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetProductByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDetailResponse(detail)})
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid product payload", err))
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toProductResponse(p)})
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in ProductInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid product payload", err))
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toProductResponse(p)})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

// TagProduct handles POST /api/v1/products/{id}/tags.
func (h *Handler) TagProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in tagInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid tag payload", err))
		return
	}
	tag, err := h.service.TagProduct(r.Context(), id, in.Name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": tag})
}

// UntagProduct handles DELETE /api/v1/products/{id}/tags/{tagID}.
func (h *Handler) UntagProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	tagID, err := common.ParseID(chi.URLParam(r, "tagID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.UntagProduct(r.Context(), id, tagID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the read-only catalog endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{id}", h.GetCategory)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/products/barcode/{code}", h.GetProductByBarcode)
}

// AdminRoutes mounts the catalog mutation endpoints.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/products/{id}/tags", h.TagProduct)
	r.Delete("/products/{id}/tags/{tagID}", h.UntagProduct)
}
