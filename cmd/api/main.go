package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careatlas/medtravel/backend/internal/adapters/cache"
	"github.com/careatlas/medtravel/backend/internal/adapters/database"
	"github.com/careatlas/medtravel/backend/internal/adapters/events"
	"github.com/careatlas/medtravel/backend/internal/adapters/identity"
	"github.com/careatlas/medtravel/backend/internal/api/handlers"
	"github.com/careatlas/medtravel/backend/internal/api/routes"
	"github.com/careatlas/medtravel/backend/internal/application/services"
	"github.com/careatlas/medtravel/backend/internal/domain/providers"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/postgres"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/redis"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/observability"
	"github.com/careatlas/medtravel/backend/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for cache invalidation fan-out
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	requestAdapter := database.NewRequestAdapter(pgClient)
	priceRuleAdapter := database.NewPriceRuleAdapter(pgClient)

	baseOfferAdapter := database.NewOfferAdapter(pgClient)

	// Wrap with caching if Redis is available (offer lists are polled)
	var offerAdapter repositories.OfferRepository
	if cacheProvider != nil {
		cachedOfferAdapter := database.NewCachedOfferAdapter(baseOfferAdapter, cacheProvider)
		cachedOfferAdapter.SetMetrics(metrics)
		offerAdapter = cachedOfferAdapter
		log.Println("Offer adapter wrapped with caching layer")
	} else {
		offerAdapter = baseOfferAdapter
		log.Println("Offer adapter running without cache (Redis unavailable)")
	}

	// Initialize services

	requestService := services.NewRequestService(requestAdapter, priceRuleAdapter, offerAdapter)
	requestService.SetMetrics(metrics)

	if eventBus != nil {
		requestService.SetEventBus(eventBus)
		log.Println("Event bus configured for request service")
	}

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Printf("Warning: Failed to start cache invalidation service: %v", err)
		} else {
			log.Println("Cache invalidation service started successfully")
		}
	}

	// Initialize token verification
	var tokenVerifier providers.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		tokenVerifier = identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		log.Println("Warning: AUTH_JWT_SECRET is not set; using static dev tokens")
		tokenVerifier = identity.NewStaticVerifier(map[string]string{
			"dev-token": "dev-user",
		})
	}

	// Initialize handlers

	requestHandler := handlers.NewRequestHandler(requestService)

	// Set up router

	router := routes.NewRouter(requestHandler, tokenVerifier, metrics)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Println("Server stopped")
}
