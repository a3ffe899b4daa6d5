package features

import (
	"context"
	"time"

	"github.com/yourusername/diamond-edge/internal/datasource"
)

// TeamForm holds a team's trailing-window results
type TeamForm struct {
	WinPct  *float64
	RunDiff *float64
}

// RecentForm computes each team's win percentage and run differential over
// the window of days strictly before end. Games on the end date itself are
// excluded so historical rows never see their own outcome.
func RecentForm(ctx context.Context, stats *datasource.StatsClient, end time.Time, windowDays int) (map[int]TeamForm, error) {
	type tally struct {
		wins    int
		games   int
		runDiff int
	}
	tallies := make(map[int]*tally)

	record := func(teamID, scored, allowed int) {
		t, ok := tallies[teamID]
		if !ok {
			t = &tally{}
			tallies[teamID] = t
		}
		t.games++
		if scored > allowed {
			t.wins++
		}
		t.runDiff += scored - allowed
	}

	for offset := windowDays; offset >= 1; offset-- {
		date := end.AddDate(0, 0, -offset).Format("2006-01-02")
		games, err := stats.Schedule(ctx, date)
		if err != nil {
			return nil, err
		}
		for _, g := range games {
			if !g.Final || g.HomeRuns == nil || g.AwayRuns == nil {
				continue
			}
			record(g.HomeTeamID, *g.HomeRuns, *g.AwayRuns)
			record(g.AwayTeamID, *g.AwayRuns, *g.HomeRuns)
		}
	}

	form := make(map[int]TeamForm, len(tallies))
	for teamID, t := range tallies {
		winPct := float64(t.wins) / float64(t.games)
		runDiff := float64(t.runDiff)
		form[teamID] = TeamForm{WinPct: &winPct, RunDiff: &runDiff}
	}
	return form, nil
}
