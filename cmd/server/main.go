package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/promptforge/backend/internal/auth"
	"github.com/promptforge/backend/internal/config"
	"github.com/promptforge/backend/internal/mail"
	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/stats"
	"github.com/promptforge/backend/internal/store"
	"github.com/promptforge/backend/internal/tools"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── PostgreSQL (users) ───────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB (prompt request log) ─────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── Redis (global IP limiter) ────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	// ── Services ─────────────────────────────────────────────
	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	mailer := mail.NewEmailJSClient(cfg.EmailJSServiceID, cfg.EmailJSTemplateID, cfg.EmailJSPublicKey)
	forwarder := tools.NewForwarder(cfg.OpenRouterKey, cfg.SiteURL, cfg.SiteName, logger)
	githubOAuth := auth.NewGitHubOAuth(cfg.GitHubClientID, cfg.GitHubClientSecret,
		cfg.GitHubCallbackURL, cfg.FrontendURL)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(pgStore, jwtSvc, mailer, logger)
	toolsHandler := tools.NewHandler(mongoStore, forwarder, logger)
	statsHandler := stats.NewHandler(mongoStore, logger)

	requireAuth := middleware.RequireAuth(jwtSvc, pgStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rdb, cfg.IPRateLimit, 24*time.Hour, logger))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/verify-2fa", authHandler.Verify2FA)
			r.Get("/github", authHandler.GitHubRedirect(githubOAuth))
			r.Get("/github/callback", authHandler.GitHubCallback(githubOAuth))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/toggle-2fa", authHandler.Toggle2FA)
				r.Get("/2fa-status", authHandler.TwoFAStatus)
			})
		})

		r.Route("/tools", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", toolsHandler.List)
			r.Get("/history", toolsHandler.History)
			r.Get("/{id}", toolsHandler.Get)
			r.With(tools.RequireQuota(mongoStore)).Post("/{id}/prompt", toolsHandler.Submit)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Put("/password", authHandler.UpdatePassword)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/usage", statsHandler.Usage)
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("backend listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
