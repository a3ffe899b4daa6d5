package betting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/features"
	"github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
)

// Pick is one suggested bet: a side of one game with its sizing columns
type Pick struct {
	GamePk int64
	Date   string
	Time   string
	Game   string // "Away @ Home"
	Side   string // "home" or "away"
	Team   string
	Odds   float64
	Suggestion
	Risk string
}

// Predictor joins daily feature rows with the persisted pipeline to
// produce the bet table.
type Predictor struct {
	pipeline *model.Pipeline
	sizer    Sizer
	tiers    TierConfig
	runLog   *logger.RunLogger
}

// NewPredictor creates a predictor
func NewPredictor(pipeline *model.Pipeline, sizer Sizer, tiers TierConfig, runLog *logger.RunLogger) *Predictor {
	return &Predictor{pipeline: pipeline, sizer: sizer, tiers: tiers, runLog: runLog}
}

// BuildBetTable produces up to two picks per game, one per side. The home
// side uses the model's calibrated probability; the away side uses its
// complement, so the two sides of a game always sum to one. Sides without
// a posted line are skipped; a posted line of zero aborts the run.
func (p *Predictor) BuildBetTable(rows []features.GameFeatures) ([]Pick, error) {
	var picks []Pick

	for i := range rows {
		row := &rows[i]

		pHome, err := p.pipeline.PredictProba(row.Features)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", row.GamePk, err)
		}
		pAway := 1 - pHome

		homeOdds, awayOdds := row.Odds()
		game := fmt.Sprintf("%s @ %s", row.AwayTeam, row.HomeTeam)

		sides := []struct {
			side string
			team string
			prob float64
			odds *float64
		}{
			{"home", row.HomeTeam, pHome, homeOdds},
			{"away", row.AwayTeam, pAway, awayOdds},
		}

		for _, s := range sides {
			if s.odds == nil {
				p.runLog.WithFields(logrus.Fields{
					"game": game,
					"side": s.side,
				}).Warn("No posted line, skipping side")
				continue
			}

			suggestion, err := p.sizer.Size(s.prob, *s.odds)
			if err != nil {
				return nil, fmt.Errorf("game %d %s side: %w", row.GamePk, s.side, err)
			}

			pick := Pick{
				GamePk:     row.GamePk,
				Date:       row.Date,
				Time:       row.Time,
				Game:       game,
				Side:       s.side,
				Team:       s.team,
				Odds:       *s.odds,
				Suggestion: suggestion,
				Risk:       p.tiers.Classify(suggestion.Stake),
			}
			picks = append(picks, pick)

			stakeF, _ := suggestion.Stake.Float64()
			p.runLog.LogPick(game, s.team, *s.odds, s.prob, suggestion.ImpliedProb, suggestion.Edge, stakeF, pick.Risk)
			metrics.PredictionsTotal.Inc()
		}
	}

	return picks, nil
}

var betCSVHeader = []string{
	"game_pk", "date", "time", "game", "side", "pick", "odds",
	"model_p", "implied_p", "edge", "kelly", "stake", "ev", "risk",
}

// WriteBetCSV writes the bet table to path
func WriteBetCSV(path string, picks []Pick) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(betCSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, pick := range picks {
		record := []string{
			strconv.FormatInt(pick.GamePk, 10),
			pick.Date,
			pick.Time,
			pick.Game,
			pick.Side,
			pick.Team,
			strconv.FormatFloat(pick.Odds, 'g', -1, 64),
			strconv.FormatFloat(pick.ModelProb, 'f', 4, 64),
			strconv.FormatFloat(pick.ImpliedProb, 'f', 4, 64),
			strconv.FormatFloat(pick.Edge, 'f', 4, 64),
			strconv.FormatFloat(pick.Kelly, 'f', 4, 64),
			pick.Stake.StringFixed(2),
			pick.EV.StringFixed(2),
			pick.Risk,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
