package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/background"
	"github.com/opencampus/redressal/internal/config"
	"github.com/opencampus/redressal/internal/database"
	"github.com/opencampus/redressal/internal/handlers"
	middlewareCustom "github.com/opencampus/redressal/internal/middleware"
	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/repositories"
	"github.com/opencampus/redressal/internal/routes"
	"github.com/opencampus/redressal/internal/services"
	pkglogger "github.com/opencampus/redressal/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.RunMigrations(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	identityRepo := repositories.NewIdentityRepository(db)
	codeRepo := repositories.NewVerificationCodeRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Core components
	resolver := services.NewIdentityResolver(identityRepo, logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	ledger := services.NewCodeLedger(codeRepo, cfg.Auth.CodeTTL, logger)

	// Outbound mail: SES when a from-address is configured, logs otherwise
	var sender services.EmailSender
	if cfg.Email.FromAddress != "" {
		sesSender, err := services.NewSESEmailSender(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize SES sender", slog.Any("error", err))
			os.Exit(1)
		}
		sender = sesSender
	} else {
		logger.Warn("EMAIL_FROM not set, mail delivery disabled")
		sender = services.NewLogEmailSender(logger)
	}

	mailer := services.NewMailer(sender, logger)
	mailerCtx, mailerCancel := context.WithCancel(context.Background())
	mailer.Start(mailerCtx)

	// Services
	authService := services.NewAuthService(resolver, tokenManager, logger, auditLogger)
	adminVerificationService := services.NewAdminVerificationService(
		resolver, ledger, mailer, tokenManager, cfg.Auth.CodeTTL, logger, auditLogger)
	complaintService := services.NewComplaintService(complaintRepo, resolver, mailer, logger)
	userAdminService := services.NewUserAdminService(resolver, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminVerificationService)
	complaintHandler := handlers.NewComplaintHandler(complaintService)
	userHandler := handlers.NewUserHandler(userAdminService)

	// Bootstrap the first admin account if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdmin(bootCtx, resolver, cfg.Admin, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	bootCancel()

	// Background eviction of expired verification codes
	cleanupManager := background.NewCleanupManager(ledger, logger, cfg.Auth.CleanupInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, adminAuthHandler, complaintHandler, userHandler, tokenManager, resolver)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()
	mailerCancel()
	mailer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// ensureAdmin creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no account owns that email yet. Admin accounts
// are otherwise created only by existing admins.
func ensureAdmin(ctx context.Context, resolver *services.IdentityResolver, cfg config.AdminBootstrapConfig, logger *slog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, emailTaken, err := resolver.ExistsUsernameOrEmail(ctx, "", cfg.Email)
	if err != nil {
		return err
	}
	if emailTaken {
		return nil
	}

	created, err := resolver.CreateInVariant(ctx, models.RoleAdmin, &models.Identity{
		Name:     cfg.Name,
		Username: cfg.Username,
		Email:    cfg.Email,
	}, cfg.Password)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return err
	}

	logger.Info("bootstrap admin account created", slog.String("identity_id", created.ID))
	return nil
}
