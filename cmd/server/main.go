// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/kailassh/refine-chat/internal/config"
	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/handlers"
	"github.com/kailassh/refine-chat/internal/metrics"
	"github.com/kailassh/refine-chat/internal/middleware"
	"github.com/kailassh/refine-chat/internal/ratelimit"
	"github.com/kailassh/refine-chat/internal/repository/kv"
	"github.com/kailassh/refine-chat/internal/repository/logincode"
	userRepo "github.com/kailassh/refine-chat/internal/repository/user"
	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/auth"
	"github.com/kailassh/refine-chat/internal/services/chat"
	"github.com/kailassh/refine-chat/internal/services/identity"
	"github.com/kailassh/refine-chat/internal/services/reply"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// newStateStore picks the key-value backend from KV_ENGINE. The gorm engine
// shares the sqlite database with the user registry.
func newStateStore(cfg *config.Config, db *gorm.DB) (kv.Store, error) {
	switch cfg.KVEngine {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "file":
		return kv.NewFileStore(cfg.KVFilePath)
	default:
		return kv.NewGormStore(db), nil
	}
}

// newCodeSender delivers sign-in codes through the configured webhook, or
// logs them locally when no webhook is set up.
func newCodeSender(cfg *config.Config, logger services.Logger) (identity.CodeSender, error) {
	if cfg.OtpWebhookURL == "" {
		logger.Warn("OTP_WEBHOOK_URL not set, sign-in codes will be logged instead of delivered")
		return identity.NewLogSender(logger), nil
	}
	return identity.NewWebhookSender(cfg.OtpWebhookURL, cfg.OtpWebhookAPIKey, 10*time.Second, logger)
}

// newReplyGenerator uses the LLM backend when a key is configured and falls
// back to the offline canned engine otherwise.
func newReplyGenerator(cfg *config.Config, logger services.Logger) (reply.Generator, error) {
	if cfg.ReplyAPIKey == "" {
		logger.Warn("REPLY_API_KEY not set, using canned replies")
		return reply.NewCannedGenerator(300*time.Millisecond, 1200*time.Millisecond, time.Now().UnixNano(), logger), nil
	}

	replyConfig := reply.DefaultConfig()
	replyConfig.APIKey = cfg.ReplyAPIKey
	replyConfig.BaseURL = cfg.ReplyBaseURL
	replyConfig.Model = cfg.ReplyModel
	return reply.NewOpenAIGenerator(replyConfig, logger)
}

func main() {
	cfg := config.Load()
	logger := services.NewLogger("server")

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.LoginCode{}, &kv.Entry{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	stateStore, err := newStateStore(cfg, db)
	if err != nil {
		log.Fatalf("FATAL: Failed to open state store: %v", err)
	}

	// --- Identity + auth session ---
	sender, err := newCodeSender(cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize code sender: %v", err)
	}

	identityConfig := identity.DefaultConfig()
	identityConfig.TokenSecret = cfg.JWTSecretKey
	identityConfig.AllowSignups = cfg.AllowSignups
	if identityConfig.TokenSecret == "" && !cfg.IsProduction() {
		logger.Warn("JWT_SECRET_KEY not set, using an insecure development secret")
		identityConfig.TokenSecret = "insecure-development-secret-do-not-deploy"
	}
	provider, err := identity.NewLocalProvider(
		userRepo.NewGormUserRepository(db),
		logincode.NewGormLoginCodeRepository(db),
		sender,
		identityConfig,
		logger,
	)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize identity provider: %v", err)
	}

	session, err := auth.NewSession(provider, stateStore, auth.DefaultConfig(), logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize auth session: %v", err)
	}
	defer session.Close()
	session.Restore(context.Background())

	// --- Conversation store ---
	generator, err := newReplyGenerator(cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize reply generator: %v", err)
	}

	chatConfig := chat.DefaultConfig()
	chatConfig.MaxChats = cfg.MaxChats
	store, err := chat.NewStore(stateStore, generator, chatConfig, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize chat store: %v", err)
	}
	store.Load(context.Background())

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(session, collector, logger, cfg.SecureCookies)
	chatHandler := handlers.NewChatHandler(store, collector, logger)
	logHandler := handlers.NewLogHandler(logger)

	// --- Rate limiters ---
	apiLimiter := ratelimit.NewClientLimiter(ratelimit.DefaultAPIConfig())
	defer apiLimiter.Close()
	authLimiter := ratelimit.NewClientLimiter(ratelimit.AuthConfig())
	defer authLimiter.Close()

	// --- Router Setup ---
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Metrics(collector))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")
	r.Handle("/metrics", metrics.Handler(registry)).Methods("GET")
	r.HandleFunc("/api/log", logHandler.LogClientEvent).Methods("POST")

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.Use(middleware.RateLimit(authLimiter, logger))
	authRoutes.HandleFunc("/send-otp", authHandler.SendOtp).Methods("POST")
	authRoutes.HandleFunc("/verify-otp", authHandler.VerifyOtp).Methods("POST")
	authRoutes.HandleFunc("/resend-otp", authHandler.ResendOtp).Methods("POST")
	authRoutes.HandleFunc("/back", authHandler.Back).Methods("POST")
	authRoutes.HandleFunc("/sign-out", authHandler.SignOut).Methods("POST")
	authRoutes.HandleFunc("/state", authHandler.State).Methods("GET")

	// --- Protected Routes ---
	api := r.PathPrefix("/api/chats").Subrouter()
	api.Use(middleware.RateLimit(apiLimiter, logger))
	api.Use(middleware.RequireAuth(session, logger))
	api.HandleFunc("", chatHandler.ListChats).Methods("GET")
	api.HandleFunc("", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("", chatHandler.ClearAll).Methods("DELETE")
	api.HandleFunc("/current", chatHandler.CurrentChat).Methods("GET")
	api.HandleFunc("/current", chatHandler.SelectChat).Methods("PUT")
	api.HandleFunc("/current", chatHandler.Deselect).Methods("DELETE")
	api.HandleFunc("/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/export", chatHandler.Export).Methods("GET")
	api.HandleFunc("/export.html", chatHandler.ExportHTML).Methods("GET")
	api.HandleFunc("/import", chatHandler.Import).Methods("POST")
	api.HandleFunc("/stats", chatHandler.Stats).Methods("GET")
	api.HandleFunc("/{id}", chatHandler.DeleteChat).Methods("DELETE")
	api.HandleFunc("/{id}/messages/{messageId}", chatHandler.UpdateMessage).Methods("PATCH")

	// --- Server Configuration ---
	port := ":8081"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:         port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// --- Startup Logging ---
	replyBackend := "canned"
	if cfg.ReplyAPIKey != "" {
		replyBackend = "llm"
	}
	logger.Info("starting server",
		"port", port,
		"environment", cfg.Environment,
		"kv_engine", cfg.KVEngine,
		"reply_backend", replyBackend,
	)

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	logger.Info("server stopped")
}
