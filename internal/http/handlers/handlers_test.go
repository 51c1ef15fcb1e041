package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/app/predictions"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
	"github.com/preston-bernstein/mlb-data-service/internal/testutil"
)

type stubPlayers struct {
	res swr.Result[players.Player]
	err error
}

func (s *stubPlayers) Players(ctx context.Context) (swr.Result[players.Player], error) {
	return s.res, s.err
}

type stubTeams struct {
	list []teams.Standing
}

func (s *stubTeams) Standings(ctx context.Context) []teams.Standing {
	return s.list
}

type stubPredictions struct {
	list []games.Prediction
	err  error
}

func (s *stubPredictions) Predict(ctx context.Context) ([]games.Prediction, error) {
	return s.list, s.err
}

func samplePlayers() *stubPlayers {
	judge := testutil.SampleBatter(1, 58)
	judge.Followers = 2
	devers := testutil.SampleBatter(2, 28)
	devers.Followers = 5
	cole := testutil.SamplePitcher(3, "3.41")
	cole.Followers = 1
	return &stubPlayers{res: swr.Result[players.Player]{
		Data: []players.Player{devers, judge, cole},
		Mode: swr.ModeStale,
	}}
}

func TestHealth(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Health), http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	testutil.DecodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestHealthShuttingDownReturnsServiceUnavailable(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rr := testutil.ServeRequest(http.HandlerFunc(h.Health), req.WithContext(ctx))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestReady(t *testing.T) {
	ready := false
	h := NewHandler(nil, nil, nil, nil, func() bool { return ready })

	testutil.AssertStatus(t, testutil.Serve(http.HandlerFunc(h.Ready), http.MethodGet, "/ready", nil), http.StatusServiceUnavailable)
	ready = true
	testutil.AssertStatus(t, testutil.Serve(http.HandlerFunc(h.Ready), http.MethodGet, "/ready", nil), http.StatusOK)

	always := NewHandler(nil, nil, nil, nil, nil)
	testutil.AssertStatus(t, testutil.Serve(http.HandlerFunc(always.Ready), http.MethodGet, "/ready", nil), http.StatusOK)
}

func TestPlayersDefaultOrderAndCacheHeader(t *testing.T) {
	h := NewHandler(samplePlayers(), nil, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Players), http.MethodGet, "/players", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	if got := rr.Header().Get("X-Cache"); got != "stale" {
		t.Fatalf("expected X-Cache stale, got %q", got)
	}

	var got []players.Player
	testutil.DecodeJSON(t, rr, &got)
	if len(got) != 3 || got[0].ID != 2 {
		t.Fatalf("unexpected players %+v", got)
	}
	if _, ok := got[0].Stats.Batting(); !ok {
		t.Fatalf("expected batting stats to round-trip")
	}
}

func TestPlayersSortAndLimit(t *testing.T) {
	h := NewHandler(samplePlayers(), nil, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Players), http.MethodGet, "/players?sort=homeRuns&limit=2", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []players.Player
	testutil.DecodeJSON(t, rr, &got)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestPlayersRejectsBadQuery(t *testing.T) {
	h := NewHandler(samplePlayers(), nil, nil, nil, nil)

	for _, path := range []string{"/players?sort=shoeSize", "/players?limit=0", "/players?limit=ten"} {
		rr := testutil.Serve(http.HandlerFunc(h.Players), http.MethodGet, path, nil)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestPlayersLoadFailure(t *testing.T) {
	h := NewHandler(&stubPlayers{err: errors.New("roster unavailable")}, nil, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Players), http.MethodGet, "/players", nil)
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)

	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	if body["error"] != "Internal server error" || body["details"] != "roster unavailable" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestTeamsAlwaysArray(t *testing.T) {
	h := NewHandler(nil, &stubTeams{list: []teams.Standing{}}, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Teams), http.MethodGet, "/teams", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}

	rr = testutil.Serve(http.HandlerFunc(NewHandler(nil, nil, nil, nil, nil).Teams), http.MethodGet, "/teams", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestGamePredictionsSuccess(t *testing.T) {
	g := testutil.SampleGame(10, "2024-07-01", 147, 111)
	h := NewHandler(nil, nil, &stubPredictions{list: []games.Prediction{games.NewPrediction(g, 147)}}, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.GamePredictions), http.MethodGet, "/game_predictions", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []games.Prediction
	testutil.DecodeJSON(t, rr, &got)
	if len(got) != 1 || got[0].PredictedWinner != 147 || got[0].HomeTeam.ID != 147 {
		t.Fatalf("unexpected predictions %+v", got)
	}
}

func TestGamePredictionsErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{predictions.ErrNoGames, http.StatusNotFound, "No games scheduled for the specified period"},
		{predictions.ErrNoValidGames, http.StatusNotFound, "No valid games found with active teams"},
		{fmt.Errorf("%w: bad", predictions.ErrInvalidPredictions), http.StatusInternalServerError, "Invalid prediction format"},
		{predictions.ErrUnmatchedPredictions, http.StatusInternalServerError, "Failed to match predictions with game information"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		h := NewHandler(nil, nil, &stubPredictions{err: tc.err}, nil, nil)
		rr := testutil.Serve(http.HandlerFunc(h.GamePredictions), http.MethodGet, "/game_predictions", nil)
		testutil.AssertStatus(t, rr, tc.status)

		var body map[string]string
		testutil.DecodeJSON(t, rr, &body)
		if body["error"] != tc.msg {
			t.Fatalf("error %v: expected %q, got %q", tc.err, tc.msg, body["error"])
		}
	}
}

func TestGamePredictionsRateLimited(t *testing.T) {
	rlErr := &providers.RateLimitError{RetryAfter: 41500 * time.Millisecond, Message: "Please wait 42 seconds before requesting new predictions"}
	h := NewHandler(nil, nil, &stubPredictions{err: rlErr}, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.GamePredictions), http.MethodGet, "/game_predictions", nil)
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	if got := rr.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	if body["error"] != rlErr.Message {
		t.Fatalf("unexpected error %q", body["error"])
	}
}
