package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evmalert/backend/services/alert-service/internal/http/handlers"
	"evmalert/backend/services/alert-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers    *handlers.AuthHandlers
	MonitorHandlers *handlers.MonitorHandlers
	AlertFeed       http.HandlerFunc
	HealthHandler   http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/metrics", method(http.MethodGet, promhttp.Handler()))

	mux.Handle("/api/auth/token", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Token)))

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}

	mux.Handle("/api/monitor/start", method(http.MethodPost, authenticated(deps.MonitorHandlers.Start)))
	mux.Handle("/api/monitor/status", method(http.MethodGet, authenticated(deps.MonitorHandlers.Status)))
	if deps.AlertFeed != nil {
		mux.Handle("/api/alerts/ws", method(http.MethodGet, authenticated(deps.AlertFeed)))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
