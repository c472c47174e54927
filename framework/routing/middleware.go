package routing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/container"
)

// ScopeMiddleware opens a container scope for every request, carries it in
// the request context and closes it once the handler returns. The scope id is
// chi's request id when RequestID ran first, so log lines and scoped
// services share one identifier.
//
//	router.Middleware(routing.ScopeMiddleware(app.Container, logger))
//
//	func (c *UserController) Show(w http.ResponseWriter, r *http.Request) {
//	    svc, err := container.FromContext[*users.Service](r.Context(), users.ServiceKey)
//	    ...
//	}
func ScopeMiddleware(c *container.Container, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := c.BeginScope(middleware.GetReqID(r.Context()))
			if err != nil {
				scope = c.NewScope()
			}
			defer func() {
				if err := scope.Close(); err != nil {
					logger.Warn("closing request scope",
						zap.String("scope", scope.ID()),
						zap.Error(err))
				}
			}()
			next.ServeHTTP(w, r.WithContext(container.WithScope(r.Context(), scope)))
		})
	}
}

// AccessLog logs one line per request with status, size and latency.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
