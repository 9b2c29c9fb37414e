package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid login payload", err))
		return
	}
	result, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

type staffInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// CreateStaff handles POST /api/v1/auth/staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var in staffInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.WriteError(w, common.Validation("invalid staff payload", err))
		return
	}
	user, err := h.service.CreateStaff(r.Context(), in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

// Routes mounts the public auth endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// ProtectedRoutes mounts endpoints requiring authentication.
func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

// AdminRoutes mounts staff management endpoints.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/auth/staff", h.CreateStaff)
}
