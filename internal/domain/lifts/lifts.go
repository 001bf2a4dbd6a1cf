// Package lifts derives best lifts and competition totals from judged attempts.
package lifts

import "github.com/okian/ironflow/internal/domain/model"

// BestLift returns the heaviest good attempt for discipline d. Bad, unjudged
// and undeclared attempts are ignored. ok is false when there is none.
func BestLift(attempts []model.Attempt, d model.Discipline) (best float64, ok bool) {
	for _, a := range attempts {
		if a.Discipline != d || a.Verdict != model.VerdictGood || a.Weight == nil || *a.Weight <= 0 {
			continue
		}
		if !ok || *a.Weight > best {
			best, ok = *a.Weight, true
		}
	}
	return best, ok
}

// Total sums the best lift of each discipline. A discipline with no attempts
// at all is skipped. A discipline with attempts but no good lift is a
// bomb-out: ok is false and the partial sum is discarded.
func Total(attempts []model.Attempt, disciplines []model.Discipline) (total float64, ok bool) {
	for _, d := range disciplines {
		if !contested(attempts, d) {
			continue
		}
		best, good := BestLift(attempts, d)
		if !good {
			return 0, false
		}
		total += best
	}
	return total, true
}

// Breakdown returns the best lift per discipline, nil where there is none.
func Breakdown(attempts []model.Attempt, disciplines []model.Discipline) map[model.Discipline]*float64 {
	out := make(map[model.Discipline]*float64, len(disciplines))
	for _, d := range disciplines {
		if best, ok := BestLift(attempts, d); ok {
			out[d] = &best
		} else {
			out[d] = nil
		}
	}
	return out
}

func contested(attempts []model.Attempt, d model.Discipline) bool {
	for _, a := range attempts {
		if a.Discipline == d {
			return true
		}
	}
	return false
}
