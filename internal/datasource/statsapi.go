package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const statsProviderName = ProviderStatsAPI

// ScheduledGame represents one game from the MLB Stats API schedule endpoint
type ScheduledGame struct {
	GamePk         int64
	Date           string
	StartTime      time.Time
	Venue          string
	HomeTeamID     int
	AwayTeamID     int
	HomeTeamName   string
	AwayTeamName   string
	HomeProbableID *int
	AwayProbableID *int
	Final          bool
	HomeRuns       *int
	AwayRuns       *int
}

// PitcherLine represents a starter's season rate stats plus rest days
type PitcherLine struct {
	ERA      *float64
	FIP      *float64
	XFIP     *float64
	KBB      *float64
	RestDays *int
}

// TeamSeasonStats represents a team's season aggregate rate stats
type TeamSeasonStats struct {
	RunsAllowedPerGame    *float64
	WRCPlus               *float64
	BABIP                 *float64
	ISO                   *float64
	DRS                   *float64
	BullpenERA            *float64
	BullpenHighLeverageEra *float64
}

// StatsClient talks to the MLB Stats API. The API is public and keyless.
// Schedules, team stats and pitcher lines are memoized because the backfill
// loop re-reads the same season and date repeatedly.
type StatsClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewStatsClient creates a new MLB Stats API client
func NewStatsClient(httpClient *RateLimitedHTTPClient, baseURL string, cacheTTL time.Duration, logger *logrus.Logger) *StatsClient {
	return &StatsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cache:      cache.New(cacheTTL, cacheTTL*2),
		logger:     logger,
	}
}

// wire structs for the schedule endpoint

type scheduleResponse struct {
	Dates []struct {
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type scheduleGame struct {
	GamePk   int64  `json:"gamePk"`
	GameDate string `json:"gameDate"`
	Status   struct {
		CodedGameState string `json:"codedGameState"`
	} `json:"status"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
	Teams struct {
		Home scheduleSide `json:"home"`
		Away scheduleSide `json:"away"`
	} `json:"teams"`
	ProbablePitchers struct {
		Home *struct {
			ID int `json:"id"`
		} `json:"home"`
		Away *struct {
			ID int `json:"id"`
		} `json:"away"`
	} `json:"probablePitchers"`
	Linescore *struct {
		Teams struct {
			Home struct {
				Runs *int `json:"runs"`
			} `json:"home"`
			Away struct {
				Runs *int `json:"runs"`
			} `json:"away"`
		} `json:"teams"`
	} `json:"linescore"`
}

type scheduleSide struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

// Schedule fetches the schedule for one date, hydrated with probable
// pitchers and linescores.
func (c *StatsClient) Schedule(ctx context.Context, date string) ([]ScheduledGame, error) {
	key := "schedule:" + date
	if cached, found := c.cache.Get(key); found {
		return cached.([]ScheduledGame), nil
	}

	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("date", date)
	params.Set("hydrate", "probablePitchers,linescore")

	var resp scheduleResponse
	if err := c.getJSON(ctx, "/schedule", params, &resp); err != nil {
		return nil, err
	}

	var games []ScheduledGame
	for _, day := range resp.Dates {
		for _, g := range day.Games {
			game := ScheduledGame{
				GamePk:       g.GamePk,
				Date:         date,
				Venue:        g.Venue.Name,
				HomeTeamID:   g.Teams.Home.Team.ID,
				AwayTeamID:   g.Teams.Away.Team.ID,
				HomeTeamName: g.Teams.Home.Team.Name,
				AwayTeamName: g.Teams.Away.Team.Name,
				Final:        g.Status.CodedGameState == "F",
			}
			if t, err := time.Parse(time.RFC3339, g.GameDate); err == nil {
				game.StartTime = t
			}
			if g.ProbablePitchers.Home != nil {
				id := g.ProbablePitchers.Home.ID
				game.HomeProbableID = &id
			}
			if g.ProbablePitchers.Away != nil {
				id := g.ProbablePitchers.Away.ID
				game.AwayProbableID = &id
			}
			if g.Linescore != nil {
				game.HomeRuns = g.Linescore.Teams.Home.Runs
				game.AwayRuns = g.Linescore.Teams.Away.Runs
			}
			games = append(games, game)
		}
	}

	c.cache.Set(key, games, cache.DefaultExpiration)
	return games, nil
}

// statSplitsResponse covers both /people/{id}/stats and /teams/{id}/stats.
// Stat values arrive as a mix of JSON strings and numbers, so the stat
// object is decoded loosely and converted per field.
type statSplitsResponse struct {
	Stats []struct {
		Splits []struct {
			Stat map[string]any `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

type gameLogResponse struct {
	Splits []struct {
		Date string `json:"date"`
	} `json:"splits"`
}

// PitcherStats fetches a starter's season rate stats and rest days relative
// to gameDate. A pitcher with no season splits yields an all-nil line, not
// an error.
func (c *StatsClient) PitcherStats(ctx context.Context, pitcherID int, gameDate time.Time) (PitcherLine, error) {
	season := strconv.Itoa(gameDate.Year())
	key := fmt.Sprintf("pitcher:%d:%s", pitcherID, season)

	var line PitcherLine
	if cached, found := c.cache.Get(key); found {
		line = cached.(PitcherLine)
	} else {
		params := url.Values{}
		params.Set("stats", "season")
		params.Set("season", season)
		params.Set("group", "pitching")

		var resp statSplitsResponse
		if err := c.getJSON(ctx, fmt.Sprintf("/people/%d/stats", pitcherID), params, &resp); err != nil {
			return PitcherLine{}, err
		}

		if len(resp.Stats) > 0 && len(resp.Stats[0].Splits) > 0 {
			stat := resp.Stats[0].Splits[0].Stat
			line.ERA = statFloat(stat, "era")
			line.FIP = statFloat(stat, "fip")
			line.XFIP = statFloat(stat, "xFIP")
			line.KBB = strikeoutWalkRatio(stat)
		}
		c.cache.Set(key, line, cache.DefaultExpiration)
	}

	rest, err := c.restDays(ctx, pitcherID, season, gameDate)
	if err != nil {
		return PitcherLine{}, err
	}
	line.RestDays = rest

	return line, nil
}

// restDays returns days since the pitcher's most recent regular-season start
func (c *StatsClient) restDays(ctx context.Context, pitcherID int, season string, gameDate time.Time) (*int, error) {
	params := url.Values{}
	params.Set("season", season)
	params.Set("gameType", "R")

	var resp gameLogResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/people/%d/gameLog", pitcherID), params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Splits) == 0 {
		return nil, nil
	}

	last, err := time.Parse("2006-01-02", resp.Splits[0].Date)
	if err != nil {
		return nil, nil
	}

	days := int(gameDate.Truncate(24*time.Hour).Sub(last.Truncate(24*time.Hour)).Hours() / 24)
	return &days, nil
}

type teamListResponse struct {
	Teams []struct {
		ID int `json:"id"`
	} `json:"teams"`
}

// TeamStats fetches season hitting and pitching aggregates for every team.
// The whole map is cached per season.
func (c *StatsClient) TeamStats(ctx context.Context, season int) (map[int]TeamSeasonStats, error) {
	key := "teamstats:" + strconv.Itoa(season)
	if cached, found := c.cache.Get(key); found {
		return cached.(map[int]TeamSeasonStats), nil
	}

	params := url.Values{}
	params.Set("season", strconv.Itoa(season))
	params.Set("sportIds", "1")

	var list teamListResponse
	if err := c.getJSON(ctx, "/teams", params, &list); err != nil {
		return nil, err
	}

	teams := make(map[int]TeamSeasonStats, len(list.Teams))
	for _, t := range list.Teams {
		hit, err := c.teamGroupStats(ctx, t.ID, season, "hitting")
		if err != nil {
			return nil, err
		}
		pit, err := c.teamGroupStats(ctx, t.ID, season, "pitching")
		if err != nil {
			return nil, err
		}

		teams[t.ID] = TeamSeasonStats{
			RunsAllowedPerGame:     statFloat(pit, "runsAllowedPerGame"),
			WRCPlus:                statFloat(hit, "wRCPlus"),
			BABIP:                  statFloat(hit, "battingAverageOnBallsInPlay", "babip"),
			ISO:                    statFloat(hit, "isoPower", "iso"),
			DRS:                    statFloat(hit, "defensiveRunsSaved"),
			BullpenERA:             statFloat(pit, "bullpenEra"),
			BullpenHighLeverageEra: statFloat(pit, "bullpenHighLeverageEra"),
		}
	}

	c.cache.Set(key, teams, cache.DefaultExpiration)
	return teams, nil
}

// teamGroupStats fetches one stat group for one team and returns the first split
func (c *StatsClient) teamGroupStats(ctx context.Context, teamID, season int, group string) (map[string]any, error) {
	params := url.Values{}
	params.Set("season", strconv.Itoa(season))
	params.Set("stats", "season")
	params.Set("group", group)

	var resp statSplitsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/teams/%d/stats", teamID), params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Stats) == 0 || len(resp.Stats[0].Splits) == 0 {
		return map[string]any{}, nil
	}
	return resp.Stats[0].Splits[0].Stat, nil
}

// getJSON issues a GET and decodes the JSON body into out
func (c *StatsClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return NewProviderError(statsProviderName, ErrCodeUpstreamUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewProviderError(statsProviderName, ErrCodeNotFound, "resource not found", ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewProviderError(statsProviderName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return NewProviderError(statsProviderName, ErrCodeUpstreamUnavailable,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrUpstreamUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(statsProviderName, ErrCodeMalformedResponse, "failed to parse response", err)
	}
	return nil
}

// strikeoutWalkRatio computes K:BB with the walk count floored at one
func strikeoutWalkRatio(stat map[string]any) *float64 {
	k := statFloat(stat, "strikeOuts", "strikeouts")
	if k == nil {
		return nil
	}
	walks := 1.0
	if bb := statFloat(stat, "baseOnBalls", "walks"); bb != nil && *bb > 1 {
		walks = *bb
	}
	ratio := *k / walks
	return &ratio
}

// statFloat extracts a numeric stat under any of the given keys. Stats API
// payloads mix strings and numbers for the same field across endpoints.
func statFloat(stat map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := stat[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			f := v
			return &f
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return &f
			}
		case int:
			f := float64(v)
			return &f
		}
	}
	return nil
}
