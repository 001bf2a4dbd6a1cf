// Package ranking orders athletes into placed results per weight category,
// per age division, and overall.
//
// Precondition: category names follow the numeric or "+"-suffixed convention
// (see model.Tournament.Validate). Malformed names sort after every valid
// category of the same gender.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/ironflow/internal/domain/lifts"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/scoring"
)

// tieEpsilon is the sort-key distance below which two results may share a
// place. tieSlack absorbs float error so keys exactly 0.01 apart stay distinct.
const (
	tieEpsilon = 0.01
	tieSlack   = 1e-9
)

// Result is a single ranked row.
type Result struct {
	Athlete *model.Athlete
	Lifts   map[model.Discipline]*float64
	Total   *float64 // nil = bomb-out
	Score   *float64 // nil = no coefficient
	Place   *int     // nil = bomb-out
}

// Valid reports whether the athlete has a defined total.
func (r Result) Valid() bool {
	return r.Total != nil
}

// SortKey is the formula score when present, otherwise the raw total.
func (r Result) SortKey() float64 {
	switch {
	case r.Score != nil:
		return *r.Score
	case r.Total != nil:
		return *r.Total
	}
	return 0
}

// CategoryRanking holds the results of one weight category and gender.
// Category is nil for uncategorized athletes.
type CategoryRanking struct {
	Category *model.WeightCategory
	Gender   model.Gender
	Results  []Result
}

// DisplayName names the category for result tables.
func (c CategoryRanking) DisplayName() string {
	if c.Category != nil {
		return c.Category.DisplayName()
	}
	return "Uncategorized " + string(c.Gender)
}

// DivisionRanking holds the category rankings of one age division.
type DivisionRanking struct {
	AgeCategory model.AgeCategory
	Label       string
	Categories  []CategoryRanking
}

type groupKey struct {
	categoryID string
	gender     model.Gender
}

// ComputeRankings partitions athletes by (weight category, gender) and ranks
// each group. Groups are ordered men first, then by category weight limit.
func ComputeRankings(athletes []model.Athlete, event model.EventType, formula model.Formula) []CategoryRanking {
	disciplines := event.Disciplines()

	var order []groupKey
	groups := make(map[groupKey]*CategoryRanking)
	for i := range athletes {
		a := &athletes[i]
		key := groupKey{gender: a.Gender}
		if a.Category != nil {
			key.categoryID = a.Category.ID
		}
		g, ok := groups[key]
		if !ok {
			g = &CategoryRanking{Category: a.Category, Gender: a.Gender}
			groups[key] = g
			order = append(order, key)
		}
		g.Results = append(g.Results, evaluate(a, disciplines, event, formula))
	}

	out := make([]CategoryRanking, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Results = placeGroup(g.Results)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := genderOrder(out[i].Gender), genderOrder(out[j].Gender)
		if gi != gj {
			return gi < gj
		}
		return categoryLimit(out[i].Category) < categoryLimit(out[j].Category)
	})
	return out
}

// ComputeOverallRankings ranks every athlete with a defined total in a single
// list across all categories. Bomb-outs are left out entirely.
func ComputeOverallRankings(athletes []model.Athlete, event model.EventType, formula model.Formula) []Result {
	disciplines := event.Disciplines()
	valid := make([]Result, 0, len(athletes))
	for i := range athletes {
		r := evaluate(&athletes[i], disciplines, event, formula)
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	sortResults(valid)
	assignPlaces(valid)
	return valid
}

// ComputeDivisionRankings groups athletes by age category (absent means open)
// and ranks each division by category. Divisions follow the canonical age
// order; empty divisions are omitted. Age categories outside the canonical
// set follow it in first-seen order.
func ComputeDivisionRankings(athletes []model.Athlete, event model.EventType, formula model.Formula) []DivisionRanking {
	byAge := make(map[model.AgeCategory][]model.Athlete)
	var extra []model.AgeCategory
	for _, a := range athletes {
		age := a.AgeCategory.OrOpen()
		if _, seen := byAge[age]; !seen && !age.Valid() {
			extra = append(extra, age)
		}
		byAge[age] = append(byAge[age], a)
	}

	var out []DivisionRanking
	for _, age := range append(model.AgeCategories(), extra...) {
		group, ok := byAge[age]
		if !ok {
			continue
		}
		out = append(out, DivisionRanking{
			AgeCategory: age,
			Label:       age.Label(),
			Categories:  ComputeRankings(group, event, formula),
		})
	}
	return out
}

func evaluate(a *model.Athlete, disciplines []model.Discipline, event model.EventType, formula model.Formula) Result {
	r := Result{
		Athlete: a,
		Lifts:   lifts.Breakdown(a.Attempts, disciplines),
	}
	total, ok := lifts.Total(a.Attempts, disciplines)
	if !ok {
		return r
	}
	r.Total = &total
	if s, ok := scoring.Score(formula, scoring.Input{Bodyweight: a.Bodyweight, Gender: a.Gender, Total: total, Event: event}); ok {
		r.Score = &s
	}
	return r
}

// placeGroup sorts and places valid results, then appends bomb-outs unplaced
// in input order.
func placeGroup(results []Result) []Result {
	valid := make([]Result, 0, len(results))
	var bombed []Result
	for _, r := range results {
		if r.Valid() {
			valid = append(valid, r)
		} else {
			bombed = append(bombed, r)
		}
	}
	sortResults(valid)
	assignPlaces(valid)
	return append(valid, bombed...)
}

// sortResults orders by sort key descending, lighter bodyweight first on ties.
func sortResults(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		ki, kj := rs[i].SortKey(), rs[j].SortKey()
		if ki != kj {
			return ki > kj
		}
		return rs[i].Athlete.Bodyweight < rs[j].Athlete.Bodyweight
	})
}

// assignPlaces uses competition ranking: tied results share a place and the
// next distinct result takes its positional place (1, 1, 3).
func assignPlaces(rs []Result) {
	for i := range rs {
		place := i + 1
		if i > 0 && tied(rs[i], rs[i-1]) {
			place = *rs[i-1].Place
		}
		rs[i].Place = &place
	}
}

func tied(a, b Result) bool {
	return math.Abs(a.SortKey()-b.SortKey()) < tieEpsilon-tieSlack && a.Athlete.Bodyweight == b.Athlete.Bodyweight
}

func genderOrder(g model.Gender) int {
	switch g {
	case model.GenderMale:
		return 0
	case model.GenderFemale:
		return 1
	}
	return 2
}

// categoryLimit places uncategorized and malformed categories last.
func categoryLimit(c *model.WeightCategory) float64 {
	if c == nil {
		return math.Inf(1)
	}
	v, err := c.Limit()
	if err != nil {
		return math.MaxFloat64
	}
	return v
}
