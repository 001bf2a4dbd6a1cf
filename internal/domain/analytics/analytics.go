// Package analytics summarizes a tournament: demographics, attempt
// accuracy, tonnage and the spread of totals.
package analytics

import (
	"math"
	"sort"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/ranking"
)

// LiftAccuracy counts judged and good attempts of one discipline.
type LiftAccuracy struct {
	Lift   model.Discipline
	Judged int
	Good   int
}

// Percent is the share of judged attempts that were good, rounded to one
// decimal. It is zero when nothing was judged.
func (a LiftAccuracy) Percent() float64 {
	if a.Judged == 0 {
		return 0
	}
	return math.Round(float64(a.Good)/float64(a.Judged)*1000) / 10
}

// CategoryAverage is the mean valid total of one category table. Average is
// nil when every athlete in it bombed out.
type CategoryAverage struct {
	Category string
	Average  *float64
}

// Report is the analytics of one tournament. Withdrawn athletes are left out.
type Report struct {
	Participants int
	Men          int
	Women        int
	Accuracy     []LiftAccuracy
	TonnageKg    float64

	// Totals holds every valid total, ascending.
	Totals     []float64
	Categories []CategoryAverage
}

// Median returns the median valid total, rounded to two decimals.
func (r Report) Median() (float64, bool) {
	n := len(r.Totals)
	switch {
	case n == 0:
		return 0, false
	case n%2 == 1:
		return r.Totals[n/2], true
	}
	return round2((r.Totals[n/2-1] + r.Totals[n/2]) / 2), true
}

// Min returns the lowest valid total.
func (r Report) Min() (float64, bool) {
	if len(r.Totals) == 0 {
		return 0, false
	}
	return r.Totals[0], true
}

// Max returns the highest valid total.
func (r Report) Max() (float64, bool) {
	if len(r.Totals) == 0 {
		return 0, false
	}
	return r.Totals[len(r.Totals)-1], true
}

// Build computes the report. Unjudged attempts are skipped; a good attempt
// counts toward accuracy and tonnage only with a positive weight. Totals and
// category averages follow ranking.ComputeRankings.
func Build(t model.Tournament) Report {
	active := t.ActiveAthletes()
	disciplines := t.EventType.Disciplines()

	r := Report{
		Participants: len(active),
		Accuracy:     make([]LiftAccuracy, len(disciplines)),
	}
	index := make(map[model.Discipline]int, len(disciplines))
	for i, d := range disciplines {
		r.Accuracy[i] = LiftAccuracy{Lift: d}
		index[d] = i
	}

	for _, a := range active {
		switch a.Gender {
		case model.GenderMale:
			r.Men++
		case model.GenderFemale:
			r.Women++
		}
		for _, at := range a.Attempts {
			i, ok := index[at.Discipline]
			if !ok || at.Verdict == model.VerdictPending {
				continue
			}
			r.Accuracy[i].Judged++
			if at.Verdict == model.VerdictGood && at.Weight != nil && *at.Weight > 0 {
				r.Accuracy[i].Good++
				r.TonnageKg += *at.Weight
			}
		}
	}
	r.TonnageKg = round2(r.TonnageKg)

	for _, c := range ranking.ComputeRankings(active, t.EventType, t.Formula) {
		var sum float64
		var n int
		for _, res := range c.Results {
			if res.Total == nil {
				continue
			}
			r.Totals = append(r.Totals, *res.Total)
			sum += *res.Total
			n++
		}
		avg := CategoryAverage{Category: c.DisplayName()}
		if n > 0 {
			v := round2(sum / float64(n))
			avg.Average = &v
		}
		r.Categories = append(r.Categories, avg)
	}
	sort.Float64s(r.Totals)
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
