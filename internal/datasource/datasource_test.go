package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPClient(t *testing.T) *RateLimitedHTTPClient {
	t.Helper()
	cfg := DefaultHTTPClientConfig("test")
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRateLimitedHTTPClient(cfg, logger)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

const scheduleFixture = `{
  "dates": [{"games": [
    {
      "gamePk": 745001,
      "gameDate": "2025-06-14T23:05:00Z",
      "status": {"codedGameState": "F"},
      "venue": {"name": "Fenway Park"},
      "teams": {
        "home": {"team": {"id": 111, "name": "Boston Red Sox"}},
        "away": {"team": {"id": 147, "name": "New York Yankees"}}
      },
      "probablePitchers": {"home": {"id": 601001}, "away": {"id": 601002}},
      "linescore": {"teams": {"home": {"runs": 5}, "away": {"runs": 3}}}
    },
    {
      "gamePk": 745002,
      "gameDate": "2025-06-14T20:10:00Z",
      "status": {"codedGameState": "S"},
      "venue": {"name": "Coors Field"},
      "teams": {
        "home": {"team": {"id": 115, "name": "Colorado Rockies"}},
        "away": {"team": {"id": 119, "name": "Los Angeles Dodgers"}}
      },
      "probablePitchers": {}
    }
  ]}]
}`

func TestStatsClientSchedule(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "/schedule", r.URL.Path)
		require.Equal(t, "2025-06-14", r.URL.Query().Get("date"))
		w.Write([]byte(scheduleFixture))
	}))
	defer server.Close()

	client := NewStatsClient(testHTTPClient(t), server.URL, time.Minute, quietLogger())
	games, err := client.Schedule(context.Background(), "2025-06-14")
	require.NoError(t, err)
	require.Len(t, games, 2)

	final := games[0]
	assert.Equal(t, int64(745001), final.GamePk)
	assert.Equal(t, "Fenway Park", final.Venue)
	assert.Equal(t, 111, final.HomeTeamID)
	assert.True(t, final.Final)
	require.NotNil(t, final.HomeRuns)
	assert.Equal(t, 5, *final.HomeRuns)
	require.NotNil(t, final.HomeProbableID)
	assert.Equal(t, 601001, *final.HomeProbableID)

	upcoming := games[1]
	assert.False(t, upcoming.Final)
	assert.Nil(t, upcoming.HomeProbableID)
	assert.Nil(t, upcoming.HomeRuns)

	// second call must come from cache
	_, err = client.Schedule(context.Background(), "2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestStatsClientPitcherStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people/601001/stats":
			// era/fip arrive as strings, counts as numbers
			w.Write([]byte(`{"stats":[{"splits":[{"stat":{"era":"3.12","fip":"3.48","xFIP":"3.60","strikeOuts":120,"baseOnBalls":40}}]}]}`))
		case "/people/601001/gameLog":
			w.Write([]byte(`{"splits":[{"date":"2025-06-09"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewStatsClient(testHTTPClient(t), server.URL, time.Minute, quietLogger())
	gameDate := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	line, err := client.PitcherStats(context.Background(), 601001, gameDate)
	require.NoError(t, err)

	require.NotNil(t, line.ERA)
	assert.InDelta(t, 3.12, *line.ERA, 1e-9)
	require.NotNil(t, line.KBB)
	assert.InDelta(t, 3.0, *line.KBB, 1e-9)
	require.NotNil(t, line.RestDays)
	assert.Equal(t, 5, *line.RestDays)
}

func TestStatsClientPitcherNoSplits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people/9/stats":
			w.Write([]byte(`{"stats":[{"splits":[]}]}`))
		case "/people/9/gameLog":
			w.Write([]byte(`{"splits":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewStatsClient(testHTTPClient(t), server.URL, time.Minute, quietLogger())
	line, err := client.PitcherStats(context.Background(), 9, time.Now())
	require.NoError(t, err)
	assert.Nil(t, line.ERA)
	assert.Nil(t, line.KBB)
	assert.Nil(t, line.RestDays)
}

func TestStatsClientTeamStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/teams":
			w.Write([]byte(`{"teams":[{"id":111}]}`))
		case r.URL.Path == "/teams/111/stats" && r.URL.Query().Get("group") == "hitting":
			w.Write([]byte(`{"stats":[{"splits":[{"stat":{"wRCPlus":108,"battingAverageOnBallsInPlay":".302","isoPower":".155","defensiveRunsSaved":12}}]}]}`))
		case r.URL.Path == "/teams/111/stats" && r.URL.Query().Get("group") == "pitching":
			w.Write([]byte(`{"stats":[{"splits":[{"stat":{"runsAllowedPerGame":"4.21","bullpenEra":"3.90","bullpenHighLeverageEra":"4.40"}}]}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewStatsClient(testHTTPClient(t), server.URL, time.Minute, quietLogger())
	teams, err := client.TeamStats(context.Background(), 2025)
	require.NoError(t, err)
	require.Contains(t, teams, 111)

	stats := teams[111]
	require.NotNil(t, stats.WRCPlus)
	assert.InDelta(t, 108, *stats.WRCPlus, 1e-9)
	require.NotNil(t, stats.BABIP)
	assert.InDelta(t, 0.302, *stats.BABIP, 1e-9)
	require.NotNil(t, stats.RunsAllowedPerGame)
	assert.InDelta(t, 4.21, *stats.RunsAllowedPerGame, 1e-9)
}

const oddsFixture = `[
  {
    "commence_time": "2025-06-14T23:05:00Z",
    "home_team": {"id": 111, "name": "Boston Red Sox"},
    "away_team": {"id": 147, "name": "New York Yankees"},
    "bookmakers": [
      {"key": "draftkings", "markets": [{"key": "h2h", "outcomes": [
        {"name": "Boston Red Sox", "price": -150},
        {"name": "New York Yankees", "price": 130}
      ]}]},
      {"key": "fanduel", "markets": [{"key": "h2h", "outcomes": [
        {"name": "Boston Red Sox", "price": -145},
        {"name": "New York Yankees", "price": 125}
      ]}]}
    ]
  },
  {
    "commence_time": "2025-06-15T17:10:00Z",
    "home_team": {"id": 115, "name": "Colorado Rockies"},
    "away_team": {"id": 119, "name": "Los Angeles Dodgers"},
    "bookmakers": [
      {"key": "draftkings", "markets": [{"key": "h2h", "outcomes": [
        {"name": "Colorado Rockies", "price": 180},
        {"name": "Los Angeles Dodgers", "price": -210}
      ]}]}
    ]
  }
]`

func TestOddsClientMoneylines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sports/baseball_mlb/odds", r.URL.Path)
		require.Equal(t, "secret", r.URL.Query().Get("apiKey"))
		require.Equal(t, "american", r.URL.Query().Get("oddsFormat"))
		w.Write([]byte(oddsFixture))
	}))
	defer server.Close()

	client := NewOddsClient(testHTTPClient(t), server.URL, "secret", "draftkings", "us", quietLogger())
	lines, err := client.Moneylines(context.Background(), "2025-06-14")
	require.NoError(t, err)

	// the 2025-06-15 event is filtered out by the commence-time prefix
	require.Len(t, lines, 1)
	odds, ok := lines[OddsKey{HomeTeamID: 111, AwayTeamID: 147}]
	require.True(t, ok)
	require.NotNil(t, odds.HomeOdds)
	assert.Equal(t, -150.0, *odds.HomeOdds)
	require.NotNil(t, odds.AwayOdds)
	assert.Equal(t, 130.0, *odds.AwayOdds)
}

func TestOddsClientAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewOddsClient(testHTTPClient(t), server.URL, "bad", "draftkings", "us", quietLogger())
	_, err := client.Moneylines(context.Background(), "2025-06-14")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))

	var provErr ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, ErrCodeAuthenticationFailed, provErr.Code)
}

func TestWeatherClientCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/weather", r.URL.Path)
		require.Equal(t, "imperial", r.URL.Query().Get("units"))
		w.Write([]byte(`{"main":{"temp":72.5,"humidity":55},"wind":{"speed":9.2}}`))
	}))
	defer server.Close()

	client := NewWeatherClient(testHTTPClient(t), server.URL, "key", "imperial", quietLogger())
	weather, err := client.Current(context.Background(), 42.3467, -71.0972)
	require.NoError(t, err)

	require.NotNil(t, weather.TempF)
	assert.InDelta(t, 72.5, *weather.TempF, 1e-9)
	require.NotNil(t, weather.WindMPH)
	assert.InDelta(t, 9.2, *weather.WindMPH, 1e-9)
	require.NotNil(t, weather.HumidityPct)
	assert.InDelta(t, 55, *weather.HumidityPct, 1e-9)
}

func TestStatsClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates": not-json`))
	}))
	defer server.Close()

	client := NewStatsClient(testHTTPClient(t), server.URL, time.Minute, quietLogger())
	_, err := client.Schedule(context.Background(), "2025-06-14")
	require.Error(t, err)

	var provErr ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, ErrCodeMalformedResponse, provErr.Code)
}

func TestStatFloatConversions(t *testing.T) {
	stat := map[string]any{
		"era":    "3.12",
		"wRC":    104.5,
		"blank":  "",
		"absent": nil,
	}

	require.NotNil(t, statFloat(stat, "era"))
	assert.InDelta(t, 3.12, *statFloat(stat, "era"), 1e-9)
	require.NotNil(t, statFloat(stat, "wRC"))
	assert.Nil(t, statFloat(stat, "blank"))
	assert.Nil(t, statFloat(stat, "absent"))
	assert.Nil(t, statFloat(stat, "missing"))
	// first present key wins
	assert.InDelta(t, 3.12, *statFloat(stat, "missing", "era"), 1e-9)
}
