package betting

import "github.com/shopspring/decimal"

// KellyFraction returns the full-Kelly bankroll fraction for model
// probability p at the given American odds, with b = |odds|/100 and a
// floor at zero. It is zero whenever p·b ≤ 1−p.
func KellyFraction(p, odds float64) (float64, error) {
	if odds == 0 {
		return 0, ErrZeroOdds
	}
	b := odds / 100
	if b < 0 {
		b = -b
	}
	f := (p*b - (1 - p)) / b
	if f < 0 {
		f = 0
	}
	return f, nil
}

// Sizer converts Kelly fractions into currency stakes. Multiplier is the
// fractional-Kelly safety margin applied to the raw fraction.
type Sizer struct {
	Bankroll   float64
	Multiplier float64
}

// Suggestion is one sized bet on one side of a game
type Suggestion struct {
	ModelProb   float64
	ImpliedProb float64
	Edge        float64
	Kelly       float64
	Stake       decimal.Decimal
	EV          decimal.Decimal
}

// Size computes the suggestion for one side. The stake is forced to zero
// whenever the edge is not positive: the raw Kelly formula can come out
// positive on a side the model actually dislikes relative to the market,
// and the two signals must agree before money moves. Currency amounts are
// rounded to cents.
func (s Sizer) Size(p, odds float64) (Suggestion, error) {
	implied, err := ImpliedProbability(odds)
	if err != nil {
		return Suggestion{}, err
	}
	kelly, err := KellyFraction(p, odds)
	if err != nil {
		return Suggestion{}, err
	}

	edge := p - implied

	stake := 0.0
	if edge > 0 {
		stake = s.Multiplier * kelly * s.Bankroll
	}

	stakeDec := decimal.NewFromFloat(stake).Round(2)
	evDec := stakeDec.Mul(decimal.NewFromFloat(edge)).Round(2)

	return Suggestion{
		ModelProb:   p,
		ImpliedProb: implied,
		Edge:        edge,
		Kelly:       kelly,
		Stake:       stakeDec,
		EV:          evDec,
	}, nil
}
