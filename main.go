package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/rafiabim35-star/web-topup-robekcviip/config"
	"github.com/rafiabim35-star/web-topup-robekcviip/database"
	"github.com/rafiabim35-star/web-topup-robekcviip/middleware"
	"github.com/rafiabim35-star/web-topup-robekcviip/models"
	"github.com/rafiabim35-star/web-topup-robekcviip/routes"
	"github.com/rafiabim35-star/web-topup-robekcviip/session"
)

func main() {
	// Load .env if present (do not overwrite already-set environment variables).
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() && cfg.SessionSecret == config.DefaultSessionSecret {
		log.Fatal("SESSION_SECRET must be set in production")
	}

	// Connect to the database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Idempotent table creation, run once at process start
	if err := database.Migrate(db, &models.Admin{}, &models.Order{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// First-run bootstrap: seed the documented default admin when the table is
	// empty. Production blocks admin data access until the password rotates.
	if err := models.SeedDefaultAdmin(db, cfg.BcryptCost); err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	// Session store: Redis when configured, in-process memory otherwise
	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		if err := rc.Ping(context.Background()).Err(); err != nil {
			log.Printf("[warn] redis ping failed, falling back to in-memory sessions: %v", err)
		} else {
			sessions = session.NewRedisStore(rc)
			middleware.LockoutRedis = rc
		}
	}
	codec := session.NewCookieCodec(cfg.SessionSecret)

	router := routes.InitRouter(routes.Deps{
		DB:       db,
		Sessions: sessions,
		Codec:    codec,
		Cfg:      cfg,
	})

	// Global request-rate ceiling, applied before routing
	globalLimiter := middleware.NewIPRateLimiter(cfg.RateLimitMax, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	// Wrap router with global middleware in recommended order
	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery -> Rate limit
	handler := middleware.RequestLogMiddleware(
		middleware.SecurityHeadersMiddleware(
			middleware.RequestIDMiddleware(
				middleware.MaxBodyMiddleware(
					middleware.TimeoutMiddleware(
						middleware.RecoveryMiddleware(
							globalLimiter.Middleware(router),
						),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
