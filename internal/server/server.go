package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shop-api/internal/config"
	custommiddleware "shop-api/internal/middleware"
	"shop-api/internal/notify"
	"shop-api/internal/oauth"
	"shop-api/internal/payment"
	"shop-api/internal/repository"
	"shop-api/internal/service"
	"shop-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthFunc reports the state of a backing store
type HealthFunc func(ctx context.Context) map[string]string

// Backend holds the connections the server is built on. Redis is nil when caching and rate limiting are off.
type Backend struct {
	Store       *repository.Store
	StoreHealth HealthFunc
	Redis       *redis.Client
	Notifier    notify.Notifier
	// Closers run in reverse order on Close
	Closers []func() error
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	backend Backend
}

func NewServer(cfg *config.Config, logger *zap.Logger, backend Backend) (*Server, error) {
	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		return nil, fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		backend: backend,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(gateway),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(gateway payment.Gateway) http.Handler {
	cfg, logger, store := s.config, s.logger, s.backend.Store

	router := chi.NewRouter()
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/health", s.health)

	products := store.Products
	if s.backend.Redis != nil {
		products = repository.NewCachedProductRepository(products, s.backend.Redis, cfg.Redis.ProductCacheTTL, logger)
	}

	notifier := s.backend.Notifier
	if notifier == nil {
		notifier = notify.NewLogMailer(logger)
	}

	userService := service.NewUserService(store.Users, store.RefreshTokens, service.TokenSettings{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	})
	sellerService := service.NewSellerService(store.Users, notifier, logger)
	productService := service.NewProductService(products, store.Orders)
	orderService := service.NewOrderService(store.Orders, products, store.Users, gateway, logger)
	wishlistService := service.NewWishlistService(store.Wishlists, products)

	authMiddleware := custommiddleware.AuthMiddleware(userService, logger)

	var limiter func(http.Handler) http.Handler
	if s.backend.Redis != nil {
		limiter = custommiddleware.RateLimitMiddleware(s.backend.Redis, custommiddleware.RateLimitConfig{
			Requests:  cfg.RateLimit.Requests,
			Window:    cfg.RateLimit.Window,
			KeyPrefix: "ratelimit:auth",
		}, logger)
	}

	transport.NewAuthHandler(userService, logger).RegisterRoutes(router, authMiddleware, limiter)
	transport.NewUserHandler(userService, sellerService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewWishlistHandler(wishlistService, logger).RegisterRoutes(router, authMiddleware)

	if cfg.Google.ClientID != "" {
		provider := oauth.NewGoogleProvider(cfg.Google)
		transport.NewOAuthHandler(provider, userService, cfg.Server.FrontendURL, !cfg.Server.IsDevelopment(), logger).
			RegisterRoutes(router)
	} else {
		logger.Info("Google sign-in disabled, GOOGLE_CLIENT_ID is not set")
	}

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"status": "ok"}

	if s.backend.StoreHealth != nil {
		storeHealth := s.backend.StoreHealth(r.Context())
		body["store"] = storeHealth
		if storeHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}

	switch {
	case s.backend.Redis == nil:
		body["redis"] = "disabled"
	case s.backend.Redis.Ping(r.Context()).Err() != nil:
		// the cache and limiter fail open, so redis alone does not fail the check
		body["redis"] = "down"
	default:
		body["redis"] = "up"
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for i := len(s.backend.Closers) - 1; i >= 0; i-- {
		if err := s.backend.Closers[i](); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
