package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	stores *Stores
	redis  *redis.Client
}

// NewServer wires services and handlers over stores. redisClient may be nil,
// in which case the auth routes are not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, stores *Stores, redisClient *redis.Client) (*Server, error) {
	router, err := NewRouter(cfg, logger, stores, redisClient)
	if err != nil {
		return nil, err
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		stores: stores,
		redis:  redisClient,
	}, nil
}

// NewRouter builds the HTTP routes of the API
func NewRouter(cfg *config.Config, logger *zap.Logger, stores *Stores, redisClient *redis.Client) (http.Handler, error) {
	policy, err := domain.ParseStatusPolicy(cfg.Orders.StatusPolicy)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger, "/health"))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := stores.Health(r.Context())
		if health["status"] != "up" {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"store":  health,
			})
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"store":  health,
		})
	})

	authService := service.NewAuthService(stores.Users, cfg.JWT.Secret, cfg.JWT.Expiry)
	catalogService := service.NewCatalogService(stores.Categories, stores.Products)
	cartService := service.NewCartService(stores.Carts, stores.Products)
	orderService := service.NewOrderService(stores.Orders, stores.Users, stores.Products, policy)

	authMiddleware := custommiddleware.AuthMiddleware(authService, logger)

	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil && cfg.RateLimit.Requests > 0 {
		rateLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit:auth",
		}, logger)
	}

	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, authMiddleware, rateLimit)
	transport.NewCategoryHandler(catalogService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(catalogService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware)

	return router, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.stores.Close(ctx); err != nil {
		s.logger.Error("Failed to close store connections", zap.Error(err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
