package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/metrics"
)

// RouterOptions configures authentication and throttling.
type RouterOptions struct {
	APIKeys        []string
	RequestsPerSec float64 // per client; 0 = unlimited
	Burst          int
}

// NewRouter builds the HTTP handler with the standard middleware chain.
func NewRouter(s *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	var limiter *RateLimiter
	if opts.RequestsPerSec > 0 {
		limiter = NewRateLimiter(opts.RequestsPerSec, opts.Burst)
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(RateLimitMiddleware(limiter))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	s.Routes(r)
	return r
}
