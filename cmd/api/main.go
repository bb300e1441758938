// Package main is the entrypoint for the Taskdeck API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/handler"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/repository"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	recorder := metrics.NewInMemory()
	taskService := service.NewTaskService(repo, cacheClient, recorder, service.TaskServiceOptions{
		CacheTTL:        cfg.CacheTTL,
		StatsCacheTTL:   cfg.StatsCacheTTL,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	userService := service.NewUserService(repo, cacheClient, issuer)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	authHandler := handler.NewAuthHandler(userService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	r := setupRouter(routerDeps{
		health:  healthHandler,
		metrics: metricsHandler,
		auth:    authHandler,
		tasks:   taskHandler,
		repo:    repo,
		cache:   cacheClient,
		issuer:  issuer,
		cfg:     cfg,
		logger:  logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	health  *handler.HealthHandler
	metrics *handler.MetricsHandler
	auth    *handler.AuthHandler
	tasks   *handler.TaskHandler
	repo    *repository.Repository
	cache   *cache.Cache
	issuer  *auth.TokenIssuer
	cfg     *config.Config
	logger  *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))
	if origins := deps.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	// Operational endpoints (no auth required)
	r.Get("/", handler.Info)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	authCfg := middleware.AuthConfig{
		Logger: deps.logger,
		Issuer: deps.issuer,
		Users:  deps.repo,
		Cache:  deps.cache,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.auth.Register)
			r.Post("/login", deps.auth.Login)
			r.Post("/refresh", deps.auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(authCfg))
				r.Get("/me", deps.auth.Me)
				r.Patch("/me", deps.auth.UpdateMe)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Get("/", deps.tasks.List)
			r.Post("/", deps.tasks.Create)
			r.Get("/stats/summary", deps.tasks.Stats)
			r.Get("/{id}", deps.tasks.Get)
			r.Patch("/{id}", deps.tasks.Update)
			r.Delete("/{id}", deps.tasks.Delete)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
