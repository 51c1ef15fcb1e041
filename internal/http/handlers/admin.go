package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/http/requestutil"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
)

// RefreshFunc reloads one named data set.
type RefreshFunc func(ctx context.Context) error

// AdminHandler exposes admin-only endpoints guarded by a bearer token.
type AdminHandler struct {
	targets map[string]RefreshFunc
	token   string
	logger  *slog.Logger
}

// NewAdminHandler constructs an AdminHandler. An empty token disables every admin route.
func NewAdminHandler(token string, targets map[string]RefreshFunc, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		targets: targets,
		token:   token,
		logger:  logger,
	}
}

// Refresh forces a reload of ?target=<name>, or of every target when omitted.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	names, ok := h.selectTargets(strings.TrimSpace(r.URL.Query().Get("target")))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown refresh target", logger)
		return
	}

	results := make(map[string]string, len(names))
	failed := false
	for _, name := range names {
		start := time.Now()
		if err := h.targets[name](r.Context()); err != nil {
			failed = true
			results[name] = err.Error()
			logging.Warn(logger, "admin refresh failed", logging.FieldJob, name, "error", err)
			continue
		}
		results[name] = "ok"
		logging.Info(logger, "admin refresh complete",
			logging.FieldJob, name,
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	}

	status := http.StatusOK
	if failed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{"refreshed": results}, logger)
}

func (h *AdminHandler) selectTargets(target string) ([]string, bool) {
	if target != "" {
		_, ok := h.targets[target]
		return []string{target}, ok
	}
	names := make([]string, 0, len(h.targets))
	for name := range h.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, true
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+h.token)) == 1
}
