package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/RoseWrightdev/Rank-It/internal/v1/config"
	"github.com/RoseWrightdev/Rank-It/internal/v1/emoji"
	"github.com/RoseWrightdev/Rank-It/internal/v1/health"
	"github.com/RoseWrightdev/Rank-It/internal/v1/httpapi"
	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/middleware"
	"github.com/RoseWrightdev/Rank-It/internal/v1/ratelimit"
	"github.com/RoseWrightdev/Rank-It/internal/v1/store"
	"github.com/RoseWrightdev/Rank-It/internal/v1/tracing"
	"github.com/RoseWrightdev/Rank-It/internal/v1/transport"
)

func main() {
	// Load .env file for local development.
	// Try multiple paths to handle different ways of running the app
	envPaths := []string{".env", "../../../.env", "../../.env"}
	var envLoaded bool

	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		slog.Warn("No .env file found in any expected location, relying on environment variables")
	}

	// Validate environment variables before starting the server
	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if cfg.DevelopmentMode {
		slog.Info("Running in DEVELOPMENT MODE")
	}

	// --- Tracing (optional) ---
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(context.Background(), "rank-it", cfg.OTLPEndpoint)
		if err != nil {
			slog.Error("Failed to initialize tracing", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(ctx)
			}()
			slog.Info("✅ Tracing initialized", "endpoint", cfg.OTLPEndpoint)
		}
	}

	// --- Redis Item Store (Optional) ---
	var itemStore *store.Service
	if cfg.RedisEnabled {
		var err error
		itemStore, err = store.NewService(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Error("Failed to connect to Redis, item catalog disabled", "error", err)
			itemStore = nil // Rooms run without the catalog
		} else {
			slog.Info("✅ Redis item store initialized", "addr", cfg.RedisAddr)
		}
	} else {
		slog.Info("Running without Redis (item catalog disabled)")
	}

	// --- Rate Limiter ---
	rateLimiter, err := ratelimit.NewRateLimiter(cfg, itemStore.Client())
	if err != nil {
		slog.Error("Failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	// --- Emoji Provider ---
	emojiProvider := emoji.NewProvider(cfg.EmojiServiceURL, cfg.EmojiAPIKey, cfg.EmojiDailyBudget)
	if cfg.EmojiServiceURL == "" {
		slog.Warn("⚠️  EMOJI_SERVICE_URL not set, using deterministic fallback emojis")
	}

	// --- Room Hub ---
	hub := transport.NewHub(transport.Options{
		Emoji:          emojiProvider,
		Recorder:       itemStore,
		RoomTTL:        cfg.RoomTTL,
		AllowedOrigins: cfg.AllowedOriginList(),
		RateLimiter:    rateLimiter,
	})

	// --- Set up Server ---
	if !cfg.DevelopmentMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOriginList()
	router.Use(cors.New(corsConfig))

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(otelgin.Middleware("rank-it"))

	// Room API (snapshot, actions, suggestions, WebSocket attach)
	api := router.Group("/", rateLimiter.GlobalMiddleware())
	apiHandler := httpapi.NewHandler(hub, itemStore)
	apiHandler.Register(api.Group("/", rateLimiter.RoomsMiddleware()))

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoints
	healthHandler := health.NewHandler(itemStore, hub)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	// Start the server.
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		slog.Info("API server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to run server", "error", err)
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// The context is used to inform the server it has 30 seconds to finish
	// the requests it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close all active rooms and WebSocket connections gracefully
	if err := hub.Shutdown(ctx); err != nil {
		slog.Error("Error during Hub shutdown:", "error", err)
	}

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown:", "error", err)
	}

	// Close Redis connection if it was initialized
	if itemStore != nil {
		if err := itemStore.Close(); err != nil {
			slog.Error("Failed to close Redis connection:", "error", err)
		} else {
			slog.Info("Redis connection closed")
		}
	}

	slog.Info("Server exiting")
}
