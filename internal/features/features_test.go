package features

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/logger"
)

func TestFeatureColumnsUnique(t *testing.T) {
	cols := FeatureColumns()
	if len(cols) != 31 {
		t.Fatalf("expected 31 feature columns, got %d", len(cols))
	}
	seen := make(map[string]bool)
	for _, c := range cols {
		if seen[c] {
			t.Fatalf("duplicate feature column %q", c)
		}
		seen[c] = true
	}
}

func TestFeatureColumnsCopy(t *testing.T) {
	cols := FeatureColumns()
	cols[0] = "tampered"
	if FeatureColumns()[0] != "home_sp_era" {
		t.Fatal("FeatureColumns must return a copy")
	}
}

func TestVenueTable(t *testing.T) {
	table := DefaultVenueTable()

	v, ok := table.Lookup("Coors Field")
	if !ok {
		t.Fatal("Coors Field missing from default table")
	}
	if v.ParkFactor != 1.26 {
		t.Fatalf("Coors Field park factor = %v, want 1.26", v.ParkFactor)
	}

	// renamed parks alias to the same entry
	marlins, _ := table.Lookup("Marlins Park")
	loanDepot, _ := table.Lookup("LoanDepot Park")
	if marlins != loanDepot {
		t.Fatalf("Marlins Park %v != LoanDepot Park %v", marlins, loanDepot)
	}

	if pf := table.ParkFactor("Polo Grounds"); pf != nil {
		t.Fatalf("unknown venue park factor = %v, want nil", *pf)
	}
}

func TestSetIgnoresUnknownColumns(t *testing.T) {
	row := NewGameFeatures()
	row.Set("home_sp_era", floatPtr(3.5))
	row.Set("no_such_column", floatPtr(1.0))

	if v := row.Feature("home_sp_era"); v == nil || *v != 3.5 {
		t.Fatalf("home_sp_era = %v, want 3.5", v)
	}
	if _, ok := row.Features["no_such_column"]; ok {
		t.Fatal("unknown column leaked into features")
	}
	if len(row.Features) != len(FeatureColumns()) {
		t.Fatalf("feature map has %d entries, want %d", len(row.Features), len(FeatureColumns()))
	}
}

func TestCSVRoundTrip(t *testing.T) {
	home, away := 7, 4
	target := 1

	row := NewGameFeatures()
	row.GamePk = 745001
	row.Date = "2024-08-14"
	row.Time = "7:05 PM"
	row.Venue = "Fenway Park"
	row.HomeTeamID = 111
	row.AwayTeamID = 147
	row.HomeTeam = "Boston Red Sox"
	row.AwayTeam = "New York Yankees"
	row.HomeScore = &home
	row.AwayScore = &away
	row.Target = &target
	row.Set("home_sp_era", floatPtr(3.12))
	row.Set("home_odds", floatPtr(-150))
	row.Set("park_factor", floatPtr(1.11))
	row.TempF = floatPtr(72.5)
	// away_sp_era and everything else deliberately left null

	path := filepath.Join(t.TempDir(), "training.csv")
	if err := WriteCSV(path, []GameFeatures{row}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	got := rows[0]
	if got.GamePk != 745001 || got.Venue != "Fenway Park" || got.Time != "7:05 PM" {
		t.Fatalf("meta mismatch: %+v", got)
	}
	if got.HomeScore == nil || *got.HomeScore != 7 {
		t.Fatalf("home score = %v, want 7", got.HomeScore)
	}
	if got.Target == nil || *got.Target != 1 {
		t.Fatalf("target = %v, want 1", got.Target)
	}
	if v := got.Feature("home_sp_era"); v == nil || *v != 3.12 {
		t.Fatalf("home_sp_era = %v, want 3.12", v)
	}
	if v := got.Feature("home_odds"); v == nil || *v != -150 {
		t.Fatalf("home_odds = %v, want -150", v)
	}
	if v := got.Feature("away_sp_era"); v != nil {
		t.Fatalf("away_sp_era = %v, want nil", *v)
	}
	if got.TempF == nil || *got.TempF != 72.5 {
		t.Fatalf("temp_f = %v, want 72.5", got.TempF)
	}
	if got.WindMPH != nil {
		t.Fatalf("wind_mph = %v, want nil", *got.WindMPH)
	}
}

func TestCSVHeaderShape(t *testing.T) {
	header := CSVHeader()
	want := len(metaColumns) + len(featureColumns) + len(weatherColumns) + 1
	if len(header) != want {
		t.Fatalf("header has %d columns, want %d", len(header), want)
	}
	if header[0] != "game_pk" || header[len(header)-1] != "target" {
		t.Fatalf("header bounds wrong: %s ... %s", header[0], header[len(header)-1])
	}
}

func newTestStatsClient(t *testing.T, handler http.HandlerFunc) (*datasource.StatsClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := datasource.DefaultHTTPClientConfig("test")
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	httpClient := datasource.NewRateLimitedHTTPClient(cfg, log)
	return datasource.NewStatsClient(httpClient, server.URL, time.Minute, log), server.Close
}

func TestRecentForm(t *testing.T) {
	// team 111 sweeps team 147 in two finals, one game not yet final
	stats, closeFn := newTestStatsClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("date") {
		case "2024-08-12":
			w.Write([]byte(`{"dates":[{"games":[{
				"gamePk":1,"gameDate":"2024-08-12T23:05:00Z",
				"status":{"codedGameState":"F"},
				"venue":{"name":"Fenway Park"},
				"teams":{"home":{"team":{"id":111,"name":"A"}},"away":{"team":{"id":147,"name":"B"}}},
				"linescore":{"teams":{"home":{"runs":6},"away":{"runs":2}}}}]}]}`))
		case "2024-08-13":
			w.Write([]byte(`{"dates":[{"games":[
				{"gamePk":2,"gameDate":"2024-08-13T23:05:00Z",
				 "status":{"codedGameState":"F"},
				 "venue":{"name":"Fenway Park"},
				 "teams":{"home":{"team":{"id":111,"name":"A"}},"away":{"team":{"id":147,"name":"B"}}},
				 "linescore":{"teams":{"home":{"runs":3},"away":{"runs":5}}}},
				{"gamePk":3,"gameDate":"2024-08-13T23:05:00Z",
				 "status":{"codedGameState":"S"},
				 "venue":{"name":"Fenway Park"},
				 "teams":{"home":{"team":{"id":111,"name":"A"}},"away":{"team":{"id":147,"name":"B"}}}}]}]}`))
		default:
			w.Write([]byte(`{"dates":[]}`))
		}
	})
	defer closeFn()

	end := time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC)
	form, err := RecentForm(context.Background(), stats, end, 10)
	if err != nil {
		t.Fatalf("RecentForm: %v", err)
	}

	home, ok := form[111]
	if !ok {
		t.Fatal("team 111 missing from form map")
	}
	if home.WinPct == nil || math.Abs(*home.WinPct-0.5) > 1e-9 {
		t.Fatalf("team 111 win pct = %v, want 0.5", home.WinPct)
	}
	if home.RunDiff == nil || *home.RunDiff != 2 {
		// +4 from the first game, -2 from the second
		t.Fatalf("team 111 run diff = %v, want 2", home.RunDiff)
	}

	away := form[147]
	if away.WinPct == nil || math.Abs(*away.WinPct-0.5) > 1e-9 {
		t.Fatalf("team 147 win pct = %v, want 0.5", away.WinPct)
	}
	if away.RunDiff == nil || *away.RunDiff != -2 {
		t.Fatalf("team 147 run diff = %v, want -2", away.RunDiff)
	}

	if _, ok := form[999]; ok {
		t.Fatal("team with no games should be absent")
	}
}

func TestBuildHistoricalLabels(t *testing.T) {
	stats, closeFn := newTestStatsClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/schedule" && r.URL.Query().Get("date") == "2024-08-14":
			w.Write([]byte(`{"dates":[{"games":[
				{"gamePk":10,"gameDate":"2024-08-14T23:05:00Z",
				 "status":{"codedGameState":"F"},
				 "venue":{"name":"Fenway Park"},
				 "teams":{"home":{"team":{"id":111,"name":"Boston Red Sox"}},"away":{"team":{"id":147,"name":"New York Yankees"}}},
				 "linescore":{"teams":{"home":{"runs":2},"away":{"runs":9}}}},
				{"gamePk":11,"gameDate":"2024-08-14T20:10:00Z",
				 "status":{"codedGameState":"S"},
				 "venue":{"name":"Coors Field"},
				 "teams":{"home":{"team":{"id":115,"name":"Colorado Rockies"}},"away":{"team":{"id":119,"name":"Los Angeles Dodgers"}}}}]}]}`))
		case r.URL.Path == "/schedule":
			w.Write([]byte(`{"dates":[]}`))
		case r.URL.Path == "/teams":
			w.Write([]byte(`{"teams":[]}`))
		default:
			w.Write([]byte(`{"stats":[]}`))
		}
	})
	defer closeFn()

	// odds server always fails: historical odds must degrade to null
	oddsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer oddsServer.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := datasource.DefaultHTTPClientConfig("test")
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	odds := datasource.NewOddsClient(datasource.NewRateLimitedHTTPClient(cfg, log), oddsServer.URL, "k", "draftkings", "us", log)

	builder := NewBuilder(stats, odds, nil, DefaultVenueTable(), 2, logger.NewRunLogger(log, "backfill-test"))

	day := time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC)
	rows, err := builder.BuildHistorical(context.Background(), day, day)
	if err != nil {
		t.Fatalf("BuildHistorical: %v", err)
	}

	// only the final game produces a row
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.GamePk != 10 {
		t.Fatalf("game_pk = %d, want 10", row.GamePk)
	}
	if row.Target == nil || *row.Target != 0 {
		t.Fatalf("target = %v, want 0 (home lost)", row.Target)
	}
	if v := row.Feature("park_factor"); v == nil || *v != 1.11 {
		t.Fatalf("park_factor = %v, want 1.11", v)
	}
	if v := row.Feature("home_odds"); v != nil {
		t.Fatalf("home_odds = %v, want nil when the odds fetch fails", *v)
	}
}
