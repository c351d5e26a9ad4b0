package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aroma-tales/internal/config"
	"aroma-tales/internal/database"
	custommiddleware "aroma-tales/internal/middleware"
	"aroma-tales/internal/notification"
	"aroma-tales/internal/repository"
	"aroma-tales/internal/service"
	"aroma-tales/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config       *config.Config
	logger       *zap.Logger
	db           database.Service
	redis        *redis.Client
	orderService service.OrderService
	stopRelay    context.CancelFunc
	relayDone    chan struct{}
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	// Health check endpoint, outside the rate limiter
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())
	notificationRepo := repository.NewNotificationRepository(db.DB())

	// Notifications
	sender, err := notification.NewSender(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}
	notifier := notification.NewNotifier(*cfg, notificationRepo, sender, logger)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(cartRepo, orderRepo, notifier, cfg.Notification.DispatchTimeout, logger)
	contactService := service.NewContactService(notifier, logger)
	adminService := service.NewAdminService(cfg.Admin, cfg.JWT)

	// Create auth and guard middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)
	adminOnly := func(next http.Handler) http.Handler {
		return authMiddleware(requireAdmin(next))
	}
	idempotency := custommiddleware.IdempotencyMiddleware(redisClient, cfg.Server.IdempotencyTTL, logger)

	// Register routes
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))

		transport.NewProductHandler(catalogService, logger).RegisterRoutes(r)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r)
		transport.NewOrderHandler(orderService, logger).RegisterRoutes(r, idempotency, adminOnly)
		transport.NewContactHandler(contactService, logger).RegisterRoutes(r)
		transport.NewAdminHandler(adminService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:       cfg,
		logger:       logger,
		db:           db,
		redis:        redisClient,
		orderService: orderService,
	}

	if cfg.Notification.Mode == config.NotifyModeOutbox {
		server.startRelay(notification.NewRelay(notificationRepo, sender, *cfg, logger))
	}

	return server, nil
}

func (s *Server) startRelay(relay *notification.Relay) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopRelay = cancel
	s.relayDone = make(chan struct{})

	go func() {
		defer close(s.relayDone)
		relay.Run(ctx)
	}()
}

// Close releases server resources. Call it after Shutdown so no new checkout can start.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Let post-checkout notifications finish or time out
	s.orderService.Wait()

	if s.stopRelay != nil {
		s.stopRelay()
		<-s.relayDone
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
