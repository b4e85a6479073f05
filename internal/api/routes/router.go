package routes

import (
	"net/http"

	"github.com/careatlas/medtravel/backend/internal/api/handlers"
	"github.com/careatlas/medtravel/backend/internal/api/middleware"
	"github.com/careatlas/medtravel/backend/internal/domain/providers"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	requestHandler *handlers.RequestHandler

	tokenVerifier providers.TokenVerifier
	metrics       *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	requestHandler *handlers.RequestHandler,
	tokenVerifier providers.TokenVerifier,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		requestHandler: requestHandler,
		tokenVerifier:  tokenVerifier,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint, unauthenticated

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Request endpoints. Creation and reads both require a resolved
	// caller identity.

	authed := middleware.AuthMiddleware(r.tokenVerifier)

	r.mux.Handle("POST /api/requests", authed(http.HandlerFunc(r.requestHandler.CreateRequest)))
	r.mux.Handle("GET /api/requests/{id}", authed(http.HandlerFunc(r.requestHandler.GetRequest)))
	r.mux.Handle("GET /api/requests/{id}/offers", authed(http.HandlerFunc(r.requestHandler.ListOffers)))

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so every response gets CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	handler = middleware.CORSMiddleware(handler)

	return handler
}
