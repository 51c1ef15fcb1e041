package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gorilla/mux"

	"github.com/preston-bernstein/mlb-data-service/internal/http/handlers"
	"github.com/preston-bernstein/mlb-data-service/internal/http/middleware"
)

// NewRouter registers the public routes. admin and limiter may be nil.
func NewRouter(h *handlers.Handler, admin *handlers.AdminHandler, limiter *middleware.ClientLimiter, logger *slog.Logger) nethttp.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = handlers.NotFound(logger)
	router.MethodNotAllowedHandler = handlers.MethodNotAllowed(logger)

	router.HandleFunc("/health", h.Health).Methods(nethttp.MethodGet)
	router.HandleFunc("/ready", h.Ready).Methods(nethttp.MethodGet)
	router.HandleFunc("/players", h.Players).Methods(nethttp.MethodGet)
	router.HandleFunc("/teams", h.Teams).Methods(nethttp.MethodGet)

	var predictions nethttp.Handler = nethttp.HandlerFunc(h.GamePredictions)
	if limiter != nil {
		predictions = limiter.Middleware(predictions)
	}
	router.Handle("/game_predictions", predictions).Methods(nethttp.MethodGet)

	if admin != nil {
		router.HandleFunc("/admin/refresh", admin.Refresh).Methods(nethttp.MethodPost)
	}
	return router
}
