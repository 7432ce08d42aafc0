package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhub/config"
	_ "eventhub/docs" // swagger docs
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/cache"
	"eventhub/internal/adapters/email"
	deliveryhttp "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/domain"
	"eventhub/internal/metrics"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/services"

	_ "github.com/lib/pq"
)

// @title           Eventhub API
// @version         1.0
// @description     Event, venue and waitlist management API.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}
	if err := metrics.RegisterDBStats(db, "postgres"); err != nil {
		logger.Warn("db stats collector not registered", "error", err)
	}

	eventCache := domain.EventCache(cache.NewNoopEventCache())
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		eventCache = cache.NewEventCache(client, cfg.CacheTTL, logger)
		logger.Info("event cache enabled", "ttl", cfg.CacheTTL)
	}

	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretKey,
			InsecureSkipVerify: cfg.SESInsecureVerify,
		},
	}, logger)

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	venueRepo := postgres.NewVenueRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)
	showRepo := postgres.NewShowRepository(db)
	verificationRepo := postgres.NewEmailVerificationRepository(db)
	consentRepo := postgres.NewConsentRepository(db)
	placeRepo := postgres.NewNearbyPlaceRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)

	timeout := cfg.ContextTimeout
	jwt := auth.NewJWTManager(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)

	auditService := services.NewAuditService(auditRepo, logger, timeout)
	emailService := services.NewEmailService(mailer, renderer, logger, timeout)
	authService := services.NewAuthService(
		userRepo, sessionRepo, verificationRepo,
		hasher, jwt, jwt, emailService, auditService,
		services.AuthConfig{JWTExpiry: cfg.JWTExpiry, SessionTTL: cfg.SessionTTL, AppBaseURL: cfg.AppBaseURL},
		logger, timeout,
	)
	userService := services.NewUserService(userRepo, sessionRepo, verificationRepo, hasher, emailService, auditService, cfg.AppBaseURL, logger, timeout)
	eventService := services.NewEventService(eventRepo, venueRepo, categoryRepo, eventCache, auditService, logger, timeout)
	venueService := services.NewVenueService(venueRepo, auditService, logger, timeout)
	categoryService := services.NewCategoryService(categoryRepo, auditService, logger, timeout)
	showService := services.NewShowService(showRepo, eventRepo, logger, timeout)
	placeService := services.NewNearbyPlaceService(placeRepo, eventRepo, venueRepo, logger, timeout)
	waitlistService := services.NewWaitlistService(waitlistRepo, eventRepo, userRepo, emailService, auditService, cfg.AppBaseURL, logger, timeout)
	invitationService := services.NewInvitationService(invitationRepo, userRepo, emailService, auditService, cfg.AppBaseURL, logger, timeout)
	consentService := services.NewConsentService(consentRepo, auditService, logger, timeout)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:        controllers.NewAuthController(logger, authService),
		User:        controllers.NewUserController(logger, userService),
		Consent:     controllers.NewConsentController(logger, consentService),
		Event:       controllers.NewEventController(logger, eventService),
		Show:        controllers.NewShowController(logger, showService),
		NearbyPlace: controllers.NewNearbyPlaceController(logger, placeService),
		Waitlist:    controllers.NewWaitlistController(logger, waitlistService),
		Venue:       controllers.NewVenueController(logger, venueService),
		Category:    controllers.NewCategoryController(logger, categoryService),
		Invitation:  controllers.NewInvitationController(logger, invitationService),
		Audit:       controllers.NewAuditController(logger, auditService),
	}, authService, logger)

	janitor := services.NewJanitor(sessionRepo, verificationRepo, invitationRepo, cfg.CleanupInterval, logger)
	go janitor.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
