package scoring

import (
	"math"

	"github.com/okian/ironflow/internal/domain/model"
)

// Bodyweight clamps per formula.
const (
	minBodyweight = 40.0
	wilksMaxBW    = 200.9
	dotsMaxBW     = 210.0
	ipfGLMaxBW    = 220.0

	polyNumerator = 500.0
)

var (
	wilksMale   = [...]float64{-216.0475144, 16.2606339, -0.002388645, -0.00113732, 7.01863e-6, -1.291e-8}
	wilksFemale = [...]float64{594.31747775582, -27.23842536447, 0.82112226871, -0.00930733913, 4.731582e-5, -9.054e-8}

	dotsMale   = [...]float64{-307.75076, 24.0900756, -0.1918759221, 7.391293e-4, -1.093e-6}
	dotsFemale = [...]float64{-57.96288, 13.6175032, -0.1126655495, 5.158568e-4, -1.0e-6}
)

// Wilks computes the Wilks 2020 score: total * 500 over a fifth-degree
// polynomial in bodyweight.
func Wilks(bw float64, g model.Gender, total float64) float64 {
	coef := wilksFemale[:]
	if g == model.GenderMale {
		coef = wilksMale[:]
	}
	return polyScore(clamp(bw, minBodyweight, wilksMaxBW), coef, total)
}

// Dots computes the DOTS score: total * 500 over a fourth-degree polynomial.
func Dots(bw float64, g model.Gender, total float64) float64 {
	coef := dotsFemale[:]
	if g == model.GenderMale {
		coef = dotsMale[:]
	}
	return polyScore(clamp(bw, minBodyweight, dotsMaxBW), coef, total)
}

func polyScore(bw float64, coef []float64, total float64) float64 {
	// Horner, highest degree first.
	denom := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		denom = denom*bw + coef[i]
	}
	if denom <= 0 {
		return 0
	}
	return math.Max(0, round2(total*polyNumerator/denom))
}

type glossbrennerBranch struct {
	breakpoint     float64
	lowA, lowExp   float64
	highA, highExp float64
}

var (
	glossbrennerMale   = glossbrennerBranch{153.05, 1.10600, 0.28200, 0.77800, 0.22200}
	glossbrennerFemale = glossbrennerBranch{106.50, 0.92590, 0.22500, 0.81610, 0.17500}
)

// Glossbrenner computes the piecewise power-law Glossbrenner score. It is
// self-limiting and applies no bodyweight clamp.
func Glossbrenner(bw float64, g model.Gender, total float64) float64 {
	if !(bw > 0) {
		return 0
	}
	br := glossbrennerFemale
	if g == model.GenderMale {
		br = glossbrennerMale
	}
	coef := br.highA / math.Pow(bw, br.highExp)
	if bw <= br.breakpoint {
		coef = br.lowA / math.Pow(bw, br.lowExp)
	}
	return math.Max(0, round2(total*coef))
}

// ipfGLParams are the A, B, C constants of an IPF GL coefficient set.
type ipfGLParams struct{ a, b, c float64 }

var (
	ipfGLClassicMale   = ipfGLParams{1199.72839, 1025.18162, 0.00921}
	ipfGLClassicFemale = ipfGLParams{610.32796, 1045.59282, 0.03048}
	ipfGLBenchMale     = ipfGLParams{320.98041, 281.40258, 0.01008}
	ipfGLBenchFemale   = ipfGLParams{142.40398, 442.52671, 0.04724}
)

// IPFGL computes the IPF Goodlift score, 100 / (A - B*exp(-C*bw)) * total.
// Bench-only events use the bench constants; SBD, PP and DL use the classic
// ones.
func IPFGL(bw float64, g model.Gender, total float64, event model.EventType) float64 {
	var p ipfGLParams
	switch {
	case event == model.EventBP && g == model.GenderMale:
		p = ipfGLBenchMale
	case event == model.EventBP:
		p = ipfGLBenchFemale
	case g == model.GenderMale:
		p = ipfGLClassicMale
	default:
		p = ipfGLClassicFemale
	}
	bw = clamp(bw, minBodyweight, ipfGLMaxBW)
	coef := p.a - p.b*math.Exp(-p.c*bw)
	if coef <= 0 {
		return 0
	}
	return math.Max(0, round2(100/coef*total))
}
