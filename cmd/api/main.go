// @title EventHub API
// @version 1.0
// @description Events with capacity-enforced RSVPs.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
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

	"eventhub/config"
	_ "eventhub/docs"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/cache"
	"eventhub/internal/adapters/messaging"
	"eventhub/internal/adapters/storage"
	"eventhub/internal/adapters/textgen"
	httpdelivery "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
	"eventhub/internal/obs"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/services"
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Environment, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Warn("tracer shutdown", "err", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.CheckTransactional(ctx, db); err != nil {
		return err
	}

	// Redis backs the listing cache and the RSVP limiter; both are optional.
	var (
		listCache   domain.EventListCache
		rsvpLimiter middleware.RateLimiter
	)
	if rdb := cache.NewRedisClient(ctx, cfg.Redis.URL, logger); rdb != nil {
		defer rdb.Close()
		listCache = cache.NewEventListCache(rdb, cfg.Redis.CacheTTL, logger)
		if cfg.RateLimit.Enabled {
			rsvpLimiter = cache.NewTokenBucket(rdb, cache.RateLimitConfig{
				Capacity:       cfg.RateLimit.Capacity,
				RefillTokens:   cfg.RateLimit.RefillTokens,
				RefillInterval: cfg.RateLimit.RefillInterval,
			})
		}
	}

	var publisher domain.RSVPPublisher
	if cfg.AMQP.URL != "" {
		p, err := messaging.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Warn("rsvp publisher disabled", "err", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	tracer := obs.Tracer()
	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	images := storage.NewImageStore(storage.Config{
		Provider:        cfg.Storage.Provider,
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		KeyPrefix:       cfg.Storage.KeyPrefix,
	}, logger)
	generator := textgen.New(textgen.Config{
		Provider:     cfg.AI.Provider,
		GroqAPIKey:   cfg.AI.GroqAPIKey,
		GeminiAPIKey: cfg.AI.GeminiAPIKey,
		Timeout:      cfg.AI.Timeout,
	}, logger)

	rsvpSvc := services.NewRSVPService(postgres.NewReservationStore(db), publisher, tracer, logger, cfg.RequestTimeout)
	eventSvc := services.NewEventService(eventRepo, images, listCache, tracer, logger, cfg.RequestTimeout)
	authSvc := services.NewAuthService(userRepo, auth.NewBcryptHasher(auth.DefaultBcryptCost),
		auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry, cfg.RequestTimeout)
	descSvc := services.NewDescriptionService(generator, cfg.AI.Timeout)

	handler := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:         logger,
		TokenVerifier:  auth.NewJWTVerifier(cfg.JWTSecret),
		RSVPLimiter:    rsvpLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Events:         controllers.NewEventController(logger, eventSvc, cfg.Storage.MaxUploadBytes),
		RSVPs:          controllers.NewRSVPController(logger, rsvpSvc),
		Users:          controllers.NewUserController(logger, eventSvc),
		Auth:           controllers.NewAuthController(logger, authSvc),
		AI:             controllers.NewAIController(logger, descSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Environment)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
