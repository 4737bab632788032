package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"anonq/config"
	"anonq/handlers"
	"anonq/middleware"
	"anonq/routes"
	"anonq/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	for _, problem := range cfg.Validate() {
		log.Printf("Config warning: %s", problem)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	questionService := services.NewQuestionService(db)
	if err := questionService.Migrate(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Session and rate-limit state lives in Redis when shared between
	// instances, otherwise in process memory.
	var (
		sessionStore services.SessionStore
		windowStore  services.WindowStore
	)
	switch cfg.StateBackend {
	case "redis":
		redisClient := config.InitRedis(cfg)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}

		sessionStore = services.NewRedisSessionStore(redisClient, "anonq:session")
		windowStore = services.NewRedisWindowStore(redisClient, "anonq:ratelimit")
	default:
		sessionStore = services.NewMemorySessionStore()
		windowStore = services.NewMemoryWindowStore()
	}

	// Initialize services
	sessionService := services.NewSessionService(sessionStore, cfg.SessionSecret, cfg.AdminPasswordHash)
	identityVerifier, err := services.NewIdentityVerifier(services.IdentityConfig{
		Issuer:        cfg.IDPIssuer,
		Audience:      cfg.IDPAudience,
		HMACSecret:    cfg.IDPJWTSecret,
		PublicKeyPEM:  cfg.IDPPublicKey,
		CookieName:    cfg.IDPCookieName,
		AllowedEmails: cfg.AllowedAdminEmails,
	})
	if err != nil {
		log.Fatal("Failed to configure identity provider:", err)
	}
	gate := services.NewAdminGate(sessionService, identityVerifier)
	grammarService := services.NewGrammarService(cfg.Provider)
	if grammarService.Configured() {
		log.Printf("Grammar correction enabled (%s)", cfg.Provider.Provider)
	}
	notifier := services.NewNotifier(cfg.NtfyURL)

	limiters := routes.Limiters{
		General:      services.NewRateLimiter(services.GeneralPolicy, windowStore),
		Submission:   services.NewRateLimiter(services.SubmissionPolicy, windowStore),
		Regeneration: services.NewRateLimiter(services.RegenerationPolicy, windowStore),
	}

	maintenance := services.NewMaintenance(sessionService, limiters.General, limiters.Submission, limiters.Regeneration)
	if err := maintenance.Start(services.DefaultSweepSchedule); err != nil {
		log.Fatal("Failed to schedule maintenance:", err)
	}
	defer maintenance.Stop()

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	cookiePath := cfg.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}
	questionHandler := handlers.NewQuestionHandler(questionService, grammarService, notifier, hub)
	adminHandler := handlers.NewAdminHandler(questionService, sessionService,
		services.NewPasswordVerifier(cfg.AdminPasswordHash), hub,
		handlers.CookieOptions{Path: cookiePath, Secure: cfg.CookieSecure})
	feedHandler := handlers.NewFeedHandler(hub)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS(cfg.CORSOrigins...))

	routes.SetupRoutes(router, cfg.BasePath, questionHandler, adminHandler, feedHandler, limiters, gate)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Start server
	log.Printf("Server starting on %s (base path %q, state backend %s)", srv.Addr, cfg.BasePath, cfg.StateBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
}
