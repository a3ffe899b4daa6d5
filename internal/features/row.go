package features

// Model feature column names, in the authoritative order used by the
// training matrix, the persisted feature list and the predictor. Any
// reordering here invalidates previously trained pipelines.
var featureColumns = []string{
	"home_sp_era", "home_sp_fip", "home_sp_xfip", "home_sp_k_bb", "home_sp_rest",
	"away_sp_era", "away_sp_fip", "away_sp_xfip", "away_sp_k_bb", "away_sp_rest",
	"home_rpg", "home_wRC+", "home_BABIP", "home_ISO", "home_DRS", "home_BP_ERA", "home_BP_HL",
	"away_rpg", "away_wRC+", "away_BABIP", "away_ISO", "away_DRS", "away_BP_ERA", "away_BP_HL",
	"home_last10_win_pct", "home_run_diff_last10",
	"away_last10_win_pct", "away_run_diff_last10",
	"park_factor",
	"home_odds", "away_odds",
}

// FeatureColumns returns the ordered model feature names
func FeatureColumns() []string {
	cols := make([]string, len(featureColumns))
	copy(cols, featureColumns)
	return cols
}

// GameFeatures is one assembled row: game metadata, the model feature
// values keyed by column name, informational weather readings, and for
// finished games the scores plus the home-win label.
type GameFeatures struct {
	GamePk     int64
	Date       string
	Time       string
	Venue      string
	HomeTeamID int
	AwayTeamID int
	HomeTeam   string
	AwayTeam   string
	HomeScore  *int
	AwayScore  *int

	Features map[string]*float64

	TempF       *float64
	WindMPH     *float64
	HumidityPct *float64

	Target *int
}

// NewGameFeatures returns a row with every feature column present and nil
func NewGameFeatures() GameFeatures {
	values := make(map[string]*float64, len(featureColumns))
	for _, col := range featureColumns {
		values[col] = nil
	}
	return GameFeatures{Features: values}
}

// Set stores one feature value; unknown columns are ignored so stale CSV
// columns do not leak into the model matrix.
func (g *GameFeatures) Set(name string, value *float64) {
	if _, ok := g.Features[name]; ok || contains(featureColumns, name) {
		g.Features[name] = value
	}
}

// Feature returns the value of one feature column, nil when absent
func (g *GameFeatures) Feature(name string) *float64 {
	return g.Features[name]
}

// Odds returns the home and away moneyline values
func (g *GameFeatures) Odds() (home, away *float64) {
	return g.Features["home_odds"], g.Features["away_odds"]
}

func contains(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

func intFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
