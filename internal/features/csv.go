package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Meta columns preceding the feature columns in every CSV artifact
var metaColumns = []string{
	"game_pk", "date", "time", "venue",
	"home_team_id", "away_team_id", "home_team", "away_team",
	"home_score", "away_score",
}

var weatherColumns = []string{"temp_f", "wind_mph", "humidity_pct"}

// CSVHeader returns the canonical column order of the feature artifacts:
// metadata, model features, weather readings, label. Null values
// round-trip as empty cells.
func CSVHeader() []string {
	header := make([]string, 0, len(metaColumns)+len(featureColumns)+len(weatherColumns)+1)
	header = append(header, metaColumns...)
	header = append(header, featureColumns...)
	header = append(header, weatherColumns...)
	header = append(header, "target")
	return header
}

// WriteCSV writes rows to path, creating parent directories as needed
func WriteCSV(path string, rows []GameFeatures) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range rows {
		if err := w.Write(rows[i].Record()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

// ReadCSV loads rows from path. Columns are resolved by header name, so
// artifacts with extra columns still load; feature columns absent from the
// header come back nil.
func ReadCSV(path string) ([]GameFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	cell := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]GameFeatures, 0, len(records)-1)
	for _, record := range records[1:] {
		row := NewGameFeatures()
		row.GamePk, _ = strconv.ParseInt(cell(record, "game_pk"), 10, 64)
		row.Date = cell(record, "date")
		row.Time = cell(record, "time")
		row.Venue = cell(record, "venue")
		row.HomeTeamID, _ = strconv.Atoi(cell(record, "home_team_id"))
		row.AwayTeamID, _ = strconv.Atoi(cell(record, "away_team_id"))
		row.HomeTeam = cell(record, "home_team")
		row.AwayTeam = cell(record, "away_team")
		row.HomeScore = parseIntCell(cell(record, "home_score"))
		row.AwayScore = parseIntCell(cell(record, "away_score"))

		for _, col := range featureColumns {
			row.Features[col] = parseFloatCell(cell(record, col))
		}

		row.TempF = parseFloatCell(cell(record, "temp_f"))
		row.WindMPH = parseFloatCell(cell(record, "wind_mph"))
		row.HumidityPct = parseFloatCell(cell(record, "humidity_pct"))
		row.Target = parseIntCell(cell(record, "target"))

		rows = append(rows, row)
	}
	return rows, nil
}

// Record renders one row in CSVHeader order
func (g *GameFeatures) Record() []string {
	rec := make([]string, 0, len(metaColumns)+len(featureColumns)+len(weatherColumns)+1)
	rec = append(rec,
		strconv.FormatInt(g.GamePk, 10),
		g.Date,
		g.Time,
		g.Venue,
		strconv.Itoa(g.HomeTeamID),
		strconv.Itoa(g.AwayTeamID),
		g.HomeTeam,
		g.AwayTeam,
		formatIntCell(g.HomeScore),
		formatIntCell(g.AwayScore),
	)
	for _, col := range featureColumns {
		rec = append(rec, formatFloatCell(g.Features[col]))
	}
	rec = append(rec,
		formatFloatCell(g.TempF),
		formatFloatCell(g.WindMPH),
		formatFloatCell(g.HumidityPct),
		formatIntCell(g.Target),
	)
	return rec
}

func formatFloatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatIntCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntCell(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
