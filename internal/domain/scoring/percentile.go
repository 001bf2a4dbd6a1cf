package scoring

import (
	"math"
	"strings"

	"github.com/okian/ironflow/internal/domain/model"
)

// Percentile bounds; the normal approximation is too coarse at the tails.
const (
	minPercentile = 1
	maxPercentile = 99
)

type benchmark struct{ median, stdev float64 }

// Approximate totals (kg) of competitive raw lifters per IPF category,
// derived from public OpenPowerlifting results.
var worldBenchmarks = map[model.Gender]map[string]benchmark{
	model.GenderMale: {
		"-59":  {390, 90},
		"-66":  {440, 100},
		"-74":  {490, 110},
		"-83":  {535, 120},
		"-93":  {575, 130},
		"-105": {615, 140},
		"-120": {660, 155},
		"120+": {710, 170},
	},
	model.GenderFemale: {
		"-47": {225, 55},
		"-52": {252, 62},
		"-57": {277, 68},
		"-63": {302, 75},
		"-69": {327, 82},
		"-76": {352, 88},
		"-84": {375, 95},
		"84+": {405, 105},
	},
}

// WorldPercentile estimates the share of competitive lifters in the same
// gender and weight category that total less than total. ok is false when no
// reference data exists for the category.
func WorldPercentile(g model.Gender, categoryName string, total float64) (pct int, ok bool) {
	ref, found := worldBenchmarks[g][categoryName]
	if !found && !strings.HasPrefix(categoryName, "-") && !strings.HasSuffix(categoryName, "+") {
		// Upper-bounded categories are often written without the dash.
		ref, found = worldBenchmarks[g]["-"+categoryName]
	}
	if !found || ref.stdev <= 0 || math.IsNaN(total) {
		return 0, false
	}
	z := (total - ref.median) / ref.stdev
	p := int(math.Round(normalCDF(z) * 100))
	return max(minPercentile, min(maxPercentile, p)), true
}

func normalCDF(z float64) float64 {
	return (1 + math.Erf(z/math.Sqrt2)) / 2
}
