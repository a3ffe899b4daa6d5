package features

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
)

// Builder assembles feature rows by joining the schedule, starter stats,
// team aggregates, recent form, odds and (for daily rows) weather.
type Builder struct {
	stats          *datasource.StatsClient
	odds           *datasource.OddsClient
	weather        *datasource.WeatherClient
	venues         *VenueTable
	formWindowDays int
	runLog         *logger.RunLogger
}

// NewBuilder creates a feature builder. The weather client may be nil when
// only historical rows are built.
func NewBuilder(stats *datasource.StatsClient, odds *datasource.OddsClient, weather *datasource.WeatherClient,
	venues *VenueTable, formWindowDays int, runLog *logger.RunLogger) *Builder {
	return &Builder{
		stats:          stats,
		odds:           odds,
		weather:        weather,
		venues:         venues,
		formWindowDays: formWindowDays,
		runLog:         runLog,
	}
}

// BuildHistorical walks every date in [start, end] and emits one labeled
// row per finished game. Days without games are skipped; games that never
// went final are dropped. Odds are best-effort: the books do not carry
// lines for past seasons, so a failed or empty odds fetch leaves the odds
// columns null rather than aborting the backfill.
func (b *Builder) BuildHistorical(ctx context.Context, start, end time.Time) ([]GameFeatures, error) {
	var rows []GameFeatures

	teamStatsBySeason := make(map[int]map[int]datasource.TeamSeasonStats)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dateStr := day.Format("2006-01-02")

		games, err := b.stats.Schedule(ctx, dateStr)
		if err != nil {
			return nil, fmt.Errorf("schedule for %s: %w", dateStr, err)
		}
		if len(games) == 0 {
			continue
		}

		season := day.Year()
		teamStats, ok := teamStatsBySeason[season]
		if !ok {
			teamStats, err = b.stats.TeamStats(ctx, season)
			if err != nil {
				return nil, fmt.Errorf("team stats for %d: %w", season, err)
			}
			teamStatsBySeason[season] = teamStats
		}

		form, err := RecentForm(ctx, b.stats, day, b.formWindowDays)
		if err != nil {
			return nil, fmt.Errorf("recent form before %s: %w", dateStr, err)
		}

		odds, err := b.odds.Moneylines(ctx, dateStr)
		if err != nil {
			b.runLog.WithError(err).WithField("date", dateStr).Warn("Odds unavailable, leaving odds columns null")
			odds = nil
		}

		for _, game := range games {
			if !game.Final || game.HomeRuns == nil || game.AwayRuns == nil {
				continue
			}
			row, err := b.assemble(ctx, game, teamStats, form, odds)
			if err != nil {
				return nil, err
			}
			target := 0
			if *game.HomeRuns > *game.AwayRuns {
				target = 1
			}
			row.HomeScore = game.HomeRuns
			row.AwayScore = game.AwayRuns
			row.Target = &target

			rows = append(rows, row)
			metrics.GamesProcessedTotal.Inc()
		}

		b.runLog.LogFetch(datasource.ProviderStatsAPI, "schedule", len(games), 0)
	}

	return rows, nil
}

// BuildDaily emits one unlabeled row per scheduled game on the given date,
// including current weather at each venue. Weather failures degrade to
// null readings.
func (b *Builder) BuildDaily(ctx context.Context, date time.Time) ([]GameFeatures, error) {
	dateStr := date.Format("2006-01-02")

	games, err := b.stats.Schedule(ctx, dateStr)
	if err != nil {
		return nil, fmt.Errorf("schedule for %s: %w", dateStr, err)
	}

	teamStats, err := b.stats.TeamStats(ctx, date.Year())
	if err != nil {
		return nil, fmt.Errorf("team stats for %d: %w", date.Year(), err)
	}

	form, err := RecentForm(ctx, b.stats, date, b.formWindowDays)
	if err != nil {
		return nil, fmt.Errorf("recent form before %s: %w", dateStr, err)
	}

	odds, err := b.odds.Moneylines(ctx, dateStr)
	if err != nil {
		return nil, fmt.Errorf("moneylines for %s: %w", dateStr, err)
	}

	weatherByVenue := make(map[string]datasource.VenueWeather)

	var rows []GameFeatures
	for _, game := range games {
		row, err := b.assemble(ctx, game, teamStats, form, odds)
		if err != nil {
			return nil, err
		}

		if venue, ok := b.venues.Lookup(game.Venue); ok && b.weather != nil {
			conditions, cached := weatherByVenue[game.Venue]
			if !cached {
				conditions, err = b.weather.Current(ctx, venue.Lat, venue.Lon)
				if err != nil {
					b.runLog.WithError(err).WithField("venue", game.Venue).Warn("Weather unavailable, leaving readings null")
					conditions = datasource.VenueWeather{}
				}
				weatherByVenue[game.Venue] = conditions
			}
			row.TempF = conditions.TempF
			row.WindMPH = conditions.WindMPH
			row.HumidityPct = conditions.HumidityPct
		}

		rows = append(rows, row)
		metrics.GamesProcessedTotal.Inc()
	}

	return rows, nil
}

// assemble joins one scheduled game with starter, team, form and odds data
func (b *Builder) assemble(ctx context.Context, game datasource.ScheduledGame,
	teamStats map[int]datasource.TeamSeasonStats, form map[int]TeamForm,
	odds map[datasource.OddsKey]datasource.GameOdds) (GameFeatures, error) {

	row := NewGameFeatures()
	row.GamePk = game.GamePk
	row.Date = game.Date
	row.Venue = game.Venue
	row.HomeTeamID = game.HomeTeamID
	row.AwayTeamID = game.AwayTeamID
	row.HomeTeam = game.HomeTeamName
	row.AwayTeam = game.AwayTeamName
	if !game.StartTime.IsZero() {
		row.Time = game.StartTime.Format("3:04 PM")
	}

	gameDate, err := time.Parse("2006-01-02", game.Date)
	if err != nil {
		return GameFeatures{}, fmt.Errorf("bad game date %q: %w", game.Date, err)
	}

	if err := b.setStarter(ctx, &row, "home", game.HomeProbableID, gameDate); err != nil {
		return GameFeatures{}, err
	}
	if err := b.setStarter(ctx, &row, "away", game.AwayProbableID, gameDate); err != nil {
		return GameFeatures{}, err
	}

	setTeam(&row, "home", teamStats[game.HomeTeamID])
	setTeam(&row, "away", teamStats[game.AwayTeamID])

	if f, ok := form[game.HomeTeamID]; ok {
		row.Set("home_last10_win_pct", f.WinPct)
		row.Set("home_run_diff_last10", f.RunDiff)
	}
	if f, ok := form[game.AwayTeamID]; ok {
		row.Set("away_last10_win_pct", f.WinPct)
		row.Set("away_run_diff_last10", f.RunDiff)
	}

	row.Set("park_factor", b.venues.ParkFactor(game.Venue))

	if line, ok := odds[datasource.OddsKey{HomeTeamID: game.HomeTeamID, AwayTeamID: game.AwayTeamID}]; ok {
		row.Set("home_odds", line.HomeOdds)
		row.Set("away_odds", line.AwayOdds)
	}

	return row, nil
}

// setStarter fills one side's probable-pitcher columns. A missing probable
// pitcher leaves the columns null.
func (b *Builder) setStarter(ctx context.Context, row *GameFeatures, side string, pitcherID *int, gameDate time.Time) error {
	if pitcherID == nil {
		return nil
	}
	line, err := b.stats.PitcherStats(ctx, *pitcherID, gameDate)
	if err != nil {
		return fmt.Errorf("pitcher stats for %d: %w", *pitcherID, err)
	}
	row.Set(side+"_sp_era", line.ERA)
	row.Set(side+"_sp_fip", line.FIP)
	row.Set(side+"_sp_xfip", line.XFIP)
	row.Set(side+"_sp_k_bb", line.KBB)
	row.Set(side+"_sp_rest", intFloat(line.RestDays))
	return nil
}

func setTeam(row *GameFeatures, side string, stats datasource.TeamSeasonStats) {
	row.Set(side+"_rpg", stats.RunsAllowedPerGame)
	row.Set(side+"_wRC+", stats.WRCPlus)
	row.Set(side+"_BABIP", stats.BABIP)
	row.Set(side+"_ISO", stats.ISO)
	row.Set(side+"_DRS", stats.DRS)
	row.Set(side+"_BP_ERA", stats.BullpenERA)
	row.Set(side+"_BP_HL", stats.BullpenHighLeverageEra)
}
