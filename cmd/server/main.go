package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golivehub/internal/auth"
	"golivehub/internal/config"
	"golivehub/internal/database"
	"golivehub/internal/handlers"
	"golivehub/internal/identity"
	"golivehub/internal/realtime"
	"golivehub/internal/services"
	"golivehub/internal/stream"
	"golivehub/internal/worker"
	"golivehub/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("⚠️  %v: proxy requests will fail until it is set", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	streamClient := stream.NewClient(cfg.Stream)
	coordinator := services.NewLiveCoordinator(db, streamClient)

	var enforcer *services.SessionEnforcer
	var sweeper *workers.SessionSweeper
	if cfg.Identity.SecretKey != "" {
		enforcer = services.NewSessionEnforcer(identity.NewClient(cfg.Identity.APIURL, cfg.Identity.SecretKey), hub)
		sweeper = workers.NewSessionSweeper(hub, enforcer, cfg.Workers.SessionSweepInterval)
	} else {
		log.Println("⚠️  IDENTITY_SECRET_KEY is not set, session enforcement disabled")
	}

	var reaper *workers.LivestreamReaper
	if cfg.StreamEnabled() == nil {
		reaper = workers.NewLivestreamReaper(coordinator, cfg.Workers.LivestreamReapInterval)
	} else {
		log.Println("⚠️  STREAM_API_KEY is not set, live endpoints disabled")
	}

	// Initialize and start background workers
	workerService := worker.NewWorkerService(sweeper, reaper)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	router := setupRouter(cfg, db, verifierFor(ctx, cfg), hub, coordinator, streamClient, enforcer, workerService)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	waitForShutdown()

	log.Println("Received shutdown signal, gracefully shutting down...")
	workerService.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server shutdown failed: %v", err)
	}

	log.Println("Shutdown complete")
}

func waitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

// verifierFor accepts database-issued HS256 tokens and, when an issuer is
// configured, the identity provider's RS256 session tokens
func verifierFor(ctx context.Context, cfg *config.Config) auth.TokenVerifier {
	var chain auth.ChainVerifier
	if cfg.Provider.JWTSecret != "" {
		chain = append(chain, auth.NewHMACVerifier(cfg.Provider.JWTSecret))
	}
	if cfg.Identity.Issuer != "" {
		chain = append(chain, auth.NewOIDCVerifier(ctx, cfg.Identity.Issuer, cfg.Identity.JWKSURL))
	}
	if len(chain) == 0 {
		log.Println("⚠️  No token verifier configured, every caller is anonymous")
	}
	return chain
}

func setupRouter(
	cfg *config.Config,
	db *gorm.DB,
	verifier auth.TokenVerifier,
	hub *realtime.Hub,
	coordinator *services.LiveCoordinator,
	streamClient *stream.Client,
	enforcer *services.SessionEnforcer,
	workerService *worker.WorkerService,
) *gin.Engine {
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(handlers.CORS())

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, workerService)
	proxyHandler := handlers.NewProxyHandler(db, cfg)
	liveHandler := handlers.NewLiveHandler(db, coordinator, streamClient, cfg.StreamEnabled())
	docsHandler := handlers.NewDocsHandler(".")

	// A nil *SessionEnforcer must reach the handler as a nil interface
	var policy handlers.SessionPolicy
	if enforcer != nil {
		policy = enforcer
	}
	sessionHandler := handlers.NewSessionHandler(policy, hub)

	requireAuth := handlers.RequireAuth(verifier)

	// Health check
	r.GET("/health", healthHandler.HealthCheck)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// Session push channel
	r.GET("/ws/session", requireAuth, sessionHandler.Subscribe)

	limiter := handlers.NewRateLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst)

	// API routes
	api := r.Group("/api", limiter.Middleware())
	{
		api.POST("/supabase-proxy", handlers.OptionalAuth(verifier), proxyHandler.Handle)

		live := api.Group("/live")
		{
			live.POST("/start", requireAuth, liveHandler.StartLive)
			live.POST("/stop", requireAuth, liveHandler.StopLive)
			live.GET("/:owner/channel", liveHandler.Channel)
		}

		streamGroup := api.Group("/stream", requireAuth)
		{
			streamGroup.POST("/token", liveHandler.Token)
			streamGroup.POST("/users", liveHandler.UpsertUser)
		}

		api.POST("/session/enforce", requireAuth, sessionHandler.Enforce)

		api.GET("/worker/status", healthHandler.WorkerStatus)
	}

	return r
}
