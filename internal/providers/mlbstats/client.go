package mlbstats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
)

// ErrInvalidRoster is returned when the players payload has no people list.
var ErrInvalidRoster = errors.New("mlbstats: invalid player data format")

// Config controls how the client reaches the MLB Stats API.
type Config struct {
	BaseURL string
	Season  int
	// Getter performs the GETs, normally a Deduplicator over a Fetcher.
	Getter providers.Getter
	Logger *slog.Logger
}

// Client maps MLB Stats API responses to domain models.
type Client struct {
	baseURL string
	season  int
	getter  providers.Getter
	logger  *slog.Logger
}

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: normalizeBaseURL(cfg.BaseURL),
		season:  resolveSeason(cfg.Season),
		getter:  cfg.Getter,
		logger:  cfg.Logger,
	}
}

// FetchRoster lists every player registered for the season.
func (c *Client) FetchRoster(ctx context.Context) ([]players.Player, error) {
	var payload peopleResponse
	if err := providers.GetJSON(ctx, c.getter, c.rosterURL(), &payload); err != nil {
		return nil, fmt.Errorf("mlbstats: fetch roster: %w", err)
	}
	if payload.People == nil {
		return nil, ErrInvalidRoster
	}

	out := make([]players.Player, 0, len(payload.People))
	for _, p := range payload.People {
		out = append(out, mapPerson(p))
	}
	logging.Debug(c.logger, "fetched roster", logging.FieldProvider, providerName, logging.FieldCount, len(out))
	return out, nil
}

// FetchPlayerStats loads hitting and pitching season stats in parallel and resolves
// which group the player is presented with.
func (c *Client) FetchPlayerStats(ctx context.Context, p players.Player) (players.Player, error) {
	var (
		hitting  playerStatsResponse[hittingStat]
		pitching playerStatsResponse[pitchingStat]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return providers.GetJSON(gctx, c.getter, c.playerStatsURL(p.ID, groupHitting), &hitting)
	})
	g.Go(func() error {
		return providers.GetJSON(gctx, c.getter, c.playerStatsURL(p.ID, groupPitching), &pitching)
	})
	if err := g.Wait(); err != nil {
		return p, fmt.Errorf("mlbstats: stats for player %d: %w", p.ID, err)
	}

	var (
		batting *players.Batting
		pitch   *players.Pitching
	)
	if s := firstSplit(hitting); s != nil {
		batting = mapHitting(*s)
	}
	if s := firstSplit(pitching); s != nil {
		pitch = mapPitching(*s)
	}
	p.Stats = players.ResolveStats(p.Position, batting, pitch)
	return p, nil
}

// FetchTeams lists MLB clubs for the season.
func (c *Client) FetchTeams(ctx context.Context) ([]teams.Team, error) {
	var payload teamsResponse
	if err := providers.GetJSON(ctx, c.getter, c.teamsURL(), &payload); err != nil {
		return nil, fmt.Errorf("mlbstats: fetch teams: %w", err)
	}
	out := make([]teams.Team, 0, len(payload.Teams))
	for _, t := range payload.Teams {
		out = append(out, mapTeam(t))
	}
	return out, nil
}

// FetchStandings returns win/loss records for both leagues keyed by team id.
func (c *Client) FetchStandings(ctx context.Context) (map[int]teams.Record, error) {
	var payload standingsResponse
	if err := providers.GetJSON(ctx, c.getter, c.standingsURL(), &payload); err != nil {
		return nil, fmt.Errorf("mlbstats: fetch standings: %w", err)
	}
	out := make(map[int]teams.Record)
	for _, division := range payload.Records {
		for _, rec := range division.TeamRecords {
			out[rec.Team.ID] = mapRecord(rec)
		}
	}
	return out, nil
}

// FetchSchedule returns the games scheduled on date (YYYY-MM-DD).
func (c *Client) FetchSchedule(ctx context.Context, date string) ([]games.Game, error) {
	var payload scheduleResponse
	if err := providers.GetJSON(ctx, c.getter, c.scheduleURL(date), &payload); err != nil {
		return nil, fmt.Errorf("mlbstats: fetch schedule %s: %w", date, err)
	}
	if len(payload.Dates) == 0 {
		return nil, nil
	}
	out := make([]games.Game, 0, len(payload.Dates[0].Games))
	for _, g := range payload.Dates[0].Games {
		out = append(out, mapGame(g, date))
	}
	return out, nil
}

// TeamExists reports whether the team id resolves upstream. A 404 is a clean "no".
func (c *Client) TeamExists(ctx context.Context, teamID int) (bool, error) {
	var payload teamsResponse
	err := providers.GetJSON(ctx, c.getter, c.teamURL(teamID), &payload)
	if err != nil {
		var statusErr *providers.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("mlbstats: team %d: %w", teamID, err)
	}
	return len(payload.Teams) > 0, nil
}

// FetchTeamStats returns the season pitching and hitting groups for a team.
func (c *Client) FetchTeamStats(ctx context.Context, teamID int) ([]games.StatGroup, error) {
	var payload teamStatsResponse
	if err := providers.GetJSON(ctx, c.getter, c.teamStatsURL(teamID), &payload); err != nil {
		return nil, fmt.Errorf("mlbstats: team %d stats: %w", teamID, err)
	}
	return payload.Stats, nil
}

func (c *Client) rosterURL() string {
	return c.build(fmt.Sprintf("/api/v1/sports/%d/players", sportMLB), url.Values{
		"season": {strconv.Itoa(c.season)},
	})
}

func (c *Client) playerStatsURL(playerID int, group string) string {
	return c.build(fmt.Sprintf("/api/v1/people/%d/stats", playerID), url.Values{
		"stats":  {"season"},
		"season": {strconv.Itoa(c.season)},
		"group":  {group},
	})
}

func (c *Client) teamsURL() string {
	return c.build("/api/v1/teams", url.Values{
		"sportId": {strconv.Itoa(sportMLB)},
		"season":  {strconv.Itoa(c.season)},
		"hydrate": {"league,division"},
	})
}

func (c *Client) standingsURL() string {
	return c.build("/api/v1/standings", url.Values{
		"leagueId": {leagueIDs},
		"season":   {strconv.Itoa(c.season)},
	})
}

func (c *Client) scheduleURL(date string) string {
	return c.build("/api/v1/schedule", url.Values{
		"sportId": {strconv.Itoa(sportMLB)},
		"date":    {date},
	})
}

func (c *Client) teamURL(teamID int) string {
	return c.build(fmt.Sprintf("/api/v1/teams/%d", teamID), nil)
}

func (c *Client) teamStatsURL(teamID int) string {
	return c.build(fmt.Sprintf("/api/v1/teams/%d/stats", teamID), url.Values{
		"stats": {"season"},
		"group": {"pitching,hitting"},
	})
}

// build keeps query values sorted so identical requests share a dedup key.
func (c *Client) build(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + q.Encode()
}
