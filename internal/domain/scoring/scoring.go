// Package scoring converts a competition total into a bodyweight-normalized
// coefficient score.
package scoring

import (
	"math"

	"github.com/okian/ironflow/internal/domain/model"
)

// Input abstracts the athlete fields needed for scoring.
type Input struct {
	Bodyweight float64
	Gender     model.Gender
	Total      float64
	Event      model.EventType
}

// Func computes a coefficient score. Implementations are pure and total over
// finite inputs and never return a negative score.
type Func func(in Input) float64

var formulas = map[model.Formula]Func{
	model.FormulaWilks:        func(in Input) float64 { return Wilks(in.Bodyweight, in.Gender, in.Total) },
	model.FormulaDots:         func(in Input) float64 { return Dots(in.Bodyweight, in.Gender, in.Total) },
	model.FormulaGlossbrenner: func(in Input) float64 { return Glossbrenner(in.Bodyweight, in.Gender, in.Total) },
	model.FormulaIPFGL:        func(in Input) float64 { return IPFGL(in.Bodyweight, in.Gender, in.Total, in.Event) },
}

// Score evaluates formula f. ok is false ("no score") for the total formula,
// any formula without a registered function, or a non-positive total or
// bodyweight; callers then rank by raw total.
func Score(f model.Formula, in Input) (score float64, ok bool) {
	fn, found := formulas[f]
	if !found || !(in.Total > 0) || !(in.Bodyweight > 0) {
		return 0, false
	}
	return fn(in), true
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
