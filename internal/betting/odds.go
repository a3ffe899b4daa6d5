// Package betting turns calibrated win probabilities into sized bet
// suggestions: implied probability, edge, fractional-Kelly stake, expected
// value and a risk tier per side of each game.
package betting

import "errors"

// ErrZeroOdds is returned for an American odds value of zero, which has no
// defined implied probability.
var ErrZeroOdds = errors.New("american odds of zero are invalid")

// ImpliedProbability converts an American moneyline to the bookmaker's
// implied win probability. Positive odds o give 100/(o+100); negative odds
// give -o/(-o+100).
func ImpliedProbability(odds float64) (float64, error) {
	switch {
	case odds > 0:
		return 100 / (odds + 100), nil
	case odds < 0:
		return -odds / (-odds + 100), nil
	default:
		return 0, ErrZeroOdds
	}
}

// DecimalPayout returns the profit per unit staked at the given American
// odds: o/100 for positive odds, 100/|o| for negative.
func DecimalPayout(odds float64) (float64, error) {
	switch {
	case odds > 0:
		return odds / 100, nil
	case odds < 0:
		return 100 / -odds, nil
	default:
		return 0, ErrZeroOdds
	}
}
