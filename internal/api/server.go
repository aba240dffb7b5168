package api

import (
	"net/http"
	"time"

	"github.com/futig/docgen-gateway/internal/api/docs"
	generationapi "github.com/futig/docgen-gateway/internal/api/generation"
	"github.com/futig/docgen-gateway/internal/api/middleware"
	workspaceapi "github.com/futig/docgen-gateway/internal/api/workspace"
	"github.com/futig/docgen-gateway/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig holds the optional parts of the router
type RouterConfig struct {
	CORSOrigins []string
	// MockJobs, when set, is mounted to serve the job URLs of the mock backend
	MockJobs interface {
		RegisterRoutes(r chi.Router, prefix string)
	}
	MockJobsPrefix string
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	cfg RouterConfig,
	generationHandler *generationapi.Handler,
	workspaceHandler *workspaceapi.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)          // Recover from panics
	r.Use(chimiddleware.RequestID)          // Add request ID
	r.Use(middleware.Logger(logger))        // Log requests
	r.Use(middleware.CORS(cfg.CORSOrigins)) // Handle CORS

	// Mock job sockets live outside the timeout middleware
	if cfg.MockJobs != nil {
		cfg.MockJobs.RegisterRoutes(r, cfg.MockJobsPrefix)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

		// Health check endpoint
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.Success(w, map[string]string{"status": "healthy"})
		})

		// Swagger documentation endpoints
		docs.RegisterRoutes(r)

		// Register routes
		workspaceapi.RegisterRoutes(r, workspaceHandler)
		generationapi.RegisterRoutes(r, generationHandler)
	})

	return r
}
