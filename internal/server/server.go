package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shopkeeper/internal/config"
	"shopkeeper/internal/database"
	"shopkeeper/internal/jobs"
	custommiddleware "shopkeeper/internal/middleware"
	"shopkeeper/internal/repository"
	"shopkeeper/internal/service"
	"shopkeeper/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       *database.Service
	redis    *redis.Client
	users    service.UserService
	lowStock *jobs.LowStockReporter
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) (*Server, error) {
	commitMode, err := service.ParseCommitMode(cfg.Ledger.CommitMode)
	if err != nil {
		return nil, err
	}
	costBasis, err := service.ParseCostBasis(cfg.Ledger.ProfitCostBasis)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Ledger.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid shop time zone %q: %w", cfg.Ledger.TimeZone, err)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db.DB())
	transactor := repository.NewTransactor(db.DB())

	// Initialize services
	userService := service.NewUserService(repos.Users, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute, logger)
	catalogService := service.NewCatalogService(repos.Products, logger)
	ledgerService := service.NewLedgerService(repos, transactor, commitMode, logger)
	expenseService := service.NewExpenseService(repos.Expenses, logger)
	analyticsService := service.NewAnalyticsService(repos, service.AnalyticsConfig{
		CostBasis: costBasis,
		Location:  loc,
	}, logger)

	lowStock, err := jobs.NewLowStockReporter(cfg.Jobs.LowStockSpec, loc, analyticsService, logger)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	s := &Server{
		config:   cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		users:    userService,
		lowStock: lowStock,
	}

	router.Get("/health", s.health)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	router.Group(func(r chi.Router) {
		if redisClient != nil && cfg.RateLimit.RequestsPerWindow > 0 {
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
				KeyPrefix:         "shopkeeper:ratelimit",
			}, logger))
		}

		transport.NewUserHandler(userService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewProductHandler(catalogService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewLedgerHandler(ledgerService, logger).RegisterRoutes(r, authMiddleware)
		transport.NewExpenseHandler(expenseService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(r, authMiddleware)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Bootstrap seeds the owner account when one is configured and starts the
// background jobs.
func (s *Server) Bootstrap(ctx context.Context) error {
	admin := s.config.Admin
	if admin.Email != "" {
		created, err := s.users.EnsureAdmin(ctx, service.RegisterInput{
			Name:     admin.Name,
			Email:    admin.Email,
			Password: admin.Password,
		})
		if err != nil {
			return fmt.Errorf("failed to seed admin account: %w", err)
		}
		if created {
			s.logger.Info("Admin account created", zap.String("email", admin.Email))
		}
	}

	s.lowStock.Start()
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	dbHealth := s.db.Health(r.Context())
	body["database"] = dbHealth
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.lowStock.Stop()

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

	return nil
}
