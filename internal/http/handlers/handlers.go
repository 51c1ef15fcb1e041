package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/preston-bernstein/mlb-data-service/internal/app/predictions"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/http/middleware"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/ranking"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
)

const headerCache = "X-Cache"

type PlayersService interface {
	Players(ctx context.Context) (swr.Result[players.Player], error)
}

type TeamsService interface {
	Standings(ctx context.Context) []teams.Standing
}

type PredictionsService interface {
	Predict(ctx context.Context) ([]games.Prediction, error)
}

// Handler wires HTTP routes to the app services.
type Handler struct {
	players     PlayersService
	teams       TeamsService
	predictions PredictionsService
	logger      *slog.Logger
	readyFn     func() bool
}

// NewHandler constructs a Handler. A nil readyFn means always ready.
func NewHandler(p PlayersService, t TeamsService, pr PredictionsService, logger *slog.Logger, readyFn func() bool) *Handler {
	return &Handler{
		players:     p,
		teams:       t,
		predictions: pr,
		logger:      logger,
		readyFn:     readyFn,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic once the player cache has been warmed.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.readyFn == nil || h.readyFn() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	writeError(w, r, http.StatusServiceUnavailable, "not ready", h.logger)
}

// Players serves the ranked player list. Optional query: sort, limit.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	q := r.URL.Query()

	sortBy, err := players.ParseSortBy(q.Get("sort"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
		return
	}
	if h.players == nil {
		writeErrorDetails(w, r, http.StatusInternalServerError, "Internal server error", providers.ErrProviderUnavailable.Error(), logger)
		return
	}

	res, err := h.players.Players(r.Context())
	if err != nil {
		logging.Error(logger, "players unavailable", err)
		writeErrorDetails(w, r, http.StatusInternalServerError, "Internal server error", err.Error(), logger)
		return
	}

	list := res.Data
	if sortBy != players.SortFollowers || limit > 0 {
		list = ranking.Rank(res.Data, sortBy.Less(), limit)
	}
	if list == nil {
		list = []players.Player{}
	}
	w.Header().Set(headerCache, string(res.Mode))
	logging.Info(logger, "served players",
		logging.FieldCount, len(list),
		logging.FieldMode, string(res.Mode),
		"sort", string(sortBy),
	)
	writeJSON(w, http.StatusOK, list, logger)
}

// Teams serves team standings. It never fails: upstream trouble yields an empty array.
func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	list := []teams.Standing{}
	if h.teams != nil {
		list = h.teams.Standings(r.Context())
	}
	writeJSON(w, http.StatusOK, list, loggerFromContext(r, h.logger))
}

// GamePredictions serves model predictions for upcoming games.
func (h *Handler) GamePredictions(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if h.predictions == nil {
		writeErrorDetails(w, r, http.StatusInternalServerError, "Internal server error", "predictions not configured", logger)
		return
	}

	list, err := h.predictions.Predict(r.Context())
	if err == nil {
		logging.Info(logger, "served predictions", logging.FieldCount, len(list))
		writeJSON(w, http.StatusOK, list, logger)
		return
	}

	if rlErr, ok := providers.AsRateLimitError(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(middleware.RetryAfterSeconds(rlErr.RetryAfter)))
		msg := rlErr.Message
		if msg == "" {
			msg = rlErr.Error()
		}
		writeError(w, r, http.StatusTooManyRequests, msg, logger)
		return
	}
	status, message := predictionStatus(err)
	logging.Warn(logger, "predictions failed", "status", status, "error", err)
	if status == http.StatusNotFound {
		writeError(w, r, status, message, logger)
		return
	}
	writeErrorDetails(w, r, status, message, err.Error(), logger)
}

func predictionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, predictions.ErrNoGames):
		return http.StatusNotFound, "No games scheduled for the specified period"
	case errors.Is(err, predictions.ErrNoValidGames):
		return http.StatusNotFound, "No valid games found with active teams"
	case errors.Is(err, predictions.ErrInvalidPredictions):
		return http.StatusInternalServerError, "Invalid prediction format"
	case errors.Is(err, predictions.ErrUnmatchedPredictions):
		return http.StatusInternalServerError, "Failed to match predictions with game information"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}
