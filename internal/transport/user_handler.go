package transport

import (
	"context"
	"net/http"
	"strconv"

	"shop-api/internal/domain"
	"shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateProfileRequest lists the fields a user may change on their own profile
type UpdateProfileRequest struct {
	Name    *string         `json:"name" validate:"omitempty,min=1"`
	Email   *string         `json:"email" validate:"omitempty,email"`
	Phone   *string         `json:"phone"`
	Address *domain.Address `json:"address"`
}

func (req UpdateProfileRequest) toProfileUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
}

// UpdateUserRequest lists the fields an admin may change on any account
type UpdateUserRequest struct {
	UpdateProfileRequest
	Role *string `json:"role" validate:"omitempty,role"`
}

// ApplySellerRequest is a seller application; every field is required
type ApplySellerRequest struct {
	GSTNumber     string `json:"gstNumber" validate:"required"`
	AccountHolder string `json:"accountHolder" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	IFSC          string `json:"ifsc" validate:"required"`
	BankName      string `json:"bankName" validate:"required"`
	Branch        string `json:"branch" validate:"required"`
}

// UserHandler handles profile, account administration and seller onboarding requests
type UserHandler struct {
	userService   service.UserService
	sellerService service.SellerService
	logger        *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, sellerService service.SellerService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		sellerService: sellerService,
		logger:        logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Post("/apply-seller", h.ApplySeller)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
			r.Post("/{id}/approve-seller", h.ApproveSeller)
			r.Post("/{id}/reject-seller", h.RejectSeller)
		})
	})
}

// GetProfile returns the caller's own account
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), caller.ID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get user profile", zap.String("user_id", caller.ID))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the caller's name, email, phone or address
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := middleware.DecodeStrictAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), caller.ID, req.toProfileUpdate())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update profile", zap.String("user_id", caller.ID))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// ListUsers returns a page of accounts, newest first
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.userService.ListUsers(r.Context(), page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list users")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// GetUser returns any account by id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.userService.GetUserByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get user", zap.String("user_id", id))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateUser changes any account, including its role
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := middleware.DecodeStrictAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	update := service.UserUpdate{ProfileUpdate: req.toProfileUpdate()}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		update.Role = &role
	}

	user, err := h.userService.UpdateUser(r.Context(), id, update)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update user", zap.String("user_id", id))
		return
	}

	h.logger.Info("User updated", zap.String("user_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete user", zap.String("user_id", id))
		return
	}

	h.logger.Info("User deleted", zap.String("user_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "user removed"})
}

// ApplySeller submits the caller's seller application
func (h *UserHandler) ApplySeller(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req ApplySellerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	user, err := h.sellerService.Apply(r.Context(), caller.ID, service.SellerApplication{
		GSTNumber: req.GSTNumber,
		BankDetails: domain.BankDetails{
			AccountHolder: req.AccountHolder,
			AccountNumber: req.AccountNumber,
			IFSC:          req.IFSC,
			BankName:      req.BankName,
			Branch:        req.Branch,
		},
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to submit seller application", zap.String("user_id", caller.ID))
		return
	}

	h.logger.Info("Seller application submitted", zap.String("user_id", caller.ID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "seller application submitted",
		"user":    user,
	})
}

// ApproveSeller grants the applicant the admin role
func (h *UserHandler) ApproveSeller(w http.ResponseWriter, r *http.Request) {
	h.decideSeller(w, r, h.sellerService.Approve, "seller approved")
}

// RejectSeller discards the application
func (h *UserHandler) RejectSeller(w http.ResponseWriter, r *http.Request) {
	h.decideSeller(w, r, h.sellerService.Reject, "seller rejected")
}

type sellerDecision func(ctx context.Context, userID string) (*domain.User, error)

func (h *UserHandler) decideSeller(w http.ResponseWriter, r *http.Request, decide sellerDecision, message string) {
	id := chi.URLParam(r, "id")

	user, err := decide(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to process seller application", zap.String("user_id", id))
		return
	}

	h.logger.Info(message, zap.String("user_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    user,
	})
}
