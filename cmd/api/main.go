// Package main is the entrypoint for the MultiGenQA API server.
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

	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/cache"
	"github.com/shosseini811/MultiGenQA/internal/config"
	"github.com/shosseini811/MultiGenQA/internal/handler"
	"github.com/shosseini811/MultiGenQA/internal/metrics"
	"github.com/shosseini811/MultiGenQA/internal/middleware"
	"github.com/shosseini811/MultiGenQA/internal/provider"
	"github.com/shosseini811/MultiGenQA/internal/repository"
	"github.com/shosseini811/MultiGenQA/internal/server"
	"github.com/shosseini811/MultiGenQA/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
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

	// Initialize cache (optional)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
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
	} else {
		logger.Info("Redis not configured, using in-process rate limiting")
	}

	// Metrics and tokens
	metricsRecorder := metrics.NewInMemory()
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL)

	// AI provider clients and dispatcher
	providers := []provider.Client{
		provider.NewOpenAIClient(cfg.OpenAIAPIKey),
		provider.NewGeminiClient(cfg.GoogleAPIKey),
		provider.NewClaudeClient(cfg.AnthropicAPIKey),
	}
	dispatcher := provider.NewDispatcher(providers, repo, metricsRecorder, logger)

	chatService := service.NewChatService(repo, dispatcher, metricsRecorder)

	// Handlers
	authHandler := handler.NewAuthHandler(repo, tokens, metricsRecorder, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	conversationHandler := handler.NewConversationHandler(repo, logger)
	modelsHandler := handler.NewModelsHandler(cacheClient, logger)
	usageHandler := handler.NewUsageHandler(repo, logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	var dbChecker, cacheChecker handler.HealthChecker
	dbChecker = repo
	if cacheClient != nil {
		cacheChecker = cacheClient
	}
	healthHandler := handler.NewHealthHandler(dbChecker, cacheChecker, providers)

	// In-process rate limit fallback when Redis is unavailable
	limiterStore := middleware.NewLimiterStore()
	defer limiterStore.Stop()

	r := setupRouter(routerDeps{
		cfg:          cfg,
		logger:       logger,
		repo:         repo,
		cacheClient:  cacheClient,
		limiterStore: limiterStore,
		tokens:       tokens,
		metrics:      metricsRecorder,

		auth:          authHandler,
		chat:          chatHandler,
		conversations: conversationHandler,
		models:        modelsHandler,
		usage:         usageHandler,
		metricsOut:    metricsHandler,
		health:        healthHandler,
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
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

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

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	cfg          *config.Config
	logger       *slog.Logger
	repo         *repository.Repository
	cacheClient  *cache.Cache
	limiterStore *middleware.LimiterStore
	tokens       *auth.TokenService
	metrics      metrics.Recorder

	auth          *handler.AuthHandler
	chat          *handler.ChatHandler
	conversations *handler.ConversationHandler
	models        *handler.ModelsHandler
	usage         *handler.UsageHandler
	metricsOut    *handler.MetricsHandler
	health        *handler.HealthHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg
	logger := deps.logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	authCfg := middleware.AuthConfig{
		Logger: logger,
		Users:  deps.repo,
		Tokens: deps.tokens,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Enabled: cfg.RateLimitEnabled,
		Cache:   deps.cacheClient,
		Local:   deps.limiterStore,
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", deps.health.Health)
		r.Get("/models", deps.models.List)
		r.Get("/metrics", deps.metricsOut.Metrics)

		r.With(middleware.RateLimit(rateLimitCfg, "register", 5, 5)).
			Post("/auth/register", deps.auth.Register)
		r.With(middleware.RateLimit(rateLimitCfg, "login", 10, 10)).
			Post("/auth/login", deps.auth.Login)
		r.With(middleware.RateLimit(rateLimitCfg, "verify-email", 5, 5)).
			Post("/auth/verify-email", deps.auth.VerifyEmail)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Post("/auth/logout", deps.auth.Logout)
			r.Get("/auth/me", deps.auth.Me)

			r.With(middleware.RateLimit(rateLimitCfg, "chat", 10, 10)).
				Post("/chat", deps.chat.Chat)

			r.With(middleware.RateLimit(rateLimitCfg, "conversations", 30, 30)).
				Get("/conversations", deps.conversations.List)
			r.With(middleware.RateLimit(rateLimitCfg, "conversations", 30, 30)).
				Get("/conversations/{id}", deps.conversations.Get)

			r.With(middleware.RateLimit(rateLimitCfg, "usage", 10, 10)).
				Get("/usage", deps.usage.Get)
		})
	})

	// 404 and 405 handlers
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
