package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/http/handlers"
	"github.com/preston-bernstein/mlb-data-service/internal/http/middleware"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
	"github.com/preston-bernstein/mlb-data-service/internal/testutil"
)

type fakePlayers struct{}

func (fakePlayers) Players(ctx context.Context) (swr.Result[players.Player], error) {
	return swr.Result[players.Player]{Data: []players.Player{testutil.SampleBatter(1, 10)}, Mode: swr.ModeFresh}, nil
}

type fakeTeams struct{}

func (fakeTeams) Standings(ctx context.Context) []teams.Standing { return []teams.Standing{} }

type fakePredictions struct{}

func (fakePredictions) Predict(ctx context.Context) ([]games.Prediction, error) {
	return []games.Prediction{}, nil
}

func newTestRouter(limiter *middleware.ClientLimiter) http.Handler {
	h := handlers.NewHandler(fakePlayers{}, fakeTeams{}, fakePredictions{}, nil, nil)
	admin := handlers.NewAdminHandler("secret", map[string]handlers.RefreshFunc{
		"players": func(ctx context.Context) error { return nil },
	}, nil)
	return NewRouter(h, admin, limiter, nil)
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router := newTestRouter(nil)

	cases := map[string]int{
		"/health":           http.StatusOK,
		"/ready":            http.StatusOK,
		"/players":          http.StatusOK,
		"/teams":            http.StatusOK,
		"/game_predictions": http.StatusOK,
	}
	for path, expected := range cases {
		rr := testutil.Serve(router, http.MethodGet, path, nil)
		if rr.Code != expected {
			t.Fatalf("route %s expected status %d, got %d", path, expected, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret")
	testutil.AssertStatus(t, testutil.ServeRequest(router, req), http.StatusOK)
}

func TestRouterUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(nil)

	rr := testutil.Serve(router, http.MethodGet, "/does-not-exist", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json 404, got %q", ct)
	}
}

func TestRouterWrongMethodReturns405(t *testing.T) {
	router := newTestRouter(nil)

	testutil.AssertStatus(t, testutil.Serve(router, http.MethodPost, "/players", nil), http.StatusMethodNotAllowed)
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/admin/refresh", nil), http.StatusMethodNotAllowed)
}

func TestRouterRateLimitsPredictionsOnly(t *testing.T) {
	router := newTestRouter(middleware.NewClientLimiter(1, time.Minute, nil))

	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/game_predictions", nil), http.StatusOK)
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/game_predictions", nil), http.StatusTooManyRequests)
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/players", nil), http.StatusOK)
}

func TestRouterWithoutAdmin(t *testing.T) {
	h := handlers.NewHandler(fakePlayers{}, fakeTeams{}, fakePredictions{}, nil, nil)
	router := NewRouter(h, nil, nil, nil)

	testutil.AssertStatus(t, testutil.Serve(router, http.MethodPost, "/admin/refresh", nil), http.StatusNotFound)
}
