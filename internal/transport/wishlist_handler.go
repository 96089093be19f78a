package transport

import (
	"net/http"

	"shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WishlistHandler handles the caller's saved products
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// RegisterRoutes registers the wishlist routes, all of which require authentication
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetWishlist)
		r.Post("/{productId}", h.AddToWishlist)
		r.Delete("/{productId}", h.RemoveFromWishlist)
	})
}

// GetWishlist returns the caller's wishlist with products resolved
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.GetWishlist(r.Context(), caller.ID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get wishlist", zap.String("user_id", caller.ID))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, wishlist)
}

// AddToWishlist saves a product; adding it twice is a no-op
func (h *WishlistHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	wishlist, err := h.wishlistService.AddToWishlist(r.Context(), caller.ID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update wishlist",
			zap.String("user_id", caller.ID),
			zap.String("product_id", productID),
		)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, wishlist)
}

// RemoveFromWishlist drops a product from the caller's wishlist
func (h *WishlistHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	wishlist, err := h.wishlistService.RemoveFromWishlist(r.Context(), caller.ID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update wishlist",
			zap.String("user_id", caller.ID),
			zap.String("product_id", productID),
		)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, wishlist)
}
