package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"yamdb/database"
	"yamdb/internal/authz"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/throttle"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to the database
	db, err := database.OpenGorm(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("database unavailable")
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}

	if err := dto.RegisterGinValidators(); err != nil {
		logging.Fatal().Err(err).Msg("failed to register validators")
	}

	policy, err := authz.New(cfg.PolicyPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load authorization policy")
	}

	// 3. Throttling: shared Redis window when reachable, else per process
	limiter, closeRedis := newLimiter(cfg)
	defer closeRedis()

	// 4. Mail delivery
	dispatcher := mailer.NewDispatcher(newMailer(cfg), cfg.MailWorkers, cfg.MailTimeout)
	dispatcher.Start()

	// 5. Wire repositories and services
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	svc := handler.Services{
		Auth:       service.NewAuthService(users, tokens, dispatcher, cfg.MailFrom),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres, reviews),
		Reviews:    service.NewReviewService(reviews, titles, policy),
		Comments:   service.NewCommentService(comments, reviews, policy),
	}

	// 6. Setup Gin
	r := handler.NewRouter(svc, policy, limiter, handler.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     cfg.PrometheusEnabled,
	})
	if cfg.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("🚀 YaMDb API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logging.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("http server shutdown")
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("mail queue not drained")
	}
	logging.Info().Msg("shutdown complete")
}

// newLimiter prefers Redis and falls back to the in-process limiter when
// Redis cannot be reached at startup.
func newLimiter(cfg *config.Config) (throttle.Limiter, func()) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		logging.Warn().Err(err).Msg("redis unavailable, throttling per process")
		return throttle.NewMemoryLimiter(cfg.ThrottlePostUserLimit, cfg.ThrottlePostUserWindow), func() {}
	}

	logging.Info().Str("addr", cfg.RedisAddr()).Msg("connected to redis")
	return throttle.NewRedisLimiter(rdb, cfg.ThrottlePostUserLimit, cfg.ThrottlePostUserWindow), func() { rdb.Close() }
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.MailBackend == "smtp" {
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			StartTLS: cfg.SMTPUser != "",
			Timeout:  cfg.MailTimeout,
		})
	}
	return mailer.NewConsoleMailer()
}
