// Package types contains the JSON read shapes returned by the HTTP API.
package types

import (
	"time"

	"github.com/okian/ironflow/internal/domain/analytics"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/ranking"
	"github.com/okian/ironflow/internal/domain/scoring"
)

// RankedEntry is one athlete row of a ranking table.
type RankedEntry struct {
	Place           *int                `json:"place"`
	AthleteID       string              `json:"athlete_id"`
	Name            string              `json:"name"`
	Gender          model.Gender        `json:"gender"`
	AgeCategory     model.AgeCategory   `json:"age_category,omitempty"`
	WeightCategory  string              `json:"weight_category,omitempty"`
	Bodyweight      float64             `json:"bodyweight_kg"`
	Lifts           map[string]*float64 `json:"lifts"`
	Total           *float64            `json:"total"`
	Score           *float64            `json:"score"`
	BombOut         bool                `json:"bomb_out"`
	WorldPercentile *int                `json:"world_percentile,omitempty"`
}

// CategoryResults is one weight-category table.
type CategoryResults struct {
	CategoryID string        `json:"category_id,omitempty"`
	Category   string        `json:"category"`
	Gender     model.Gender  `json:"gender"`
	Results    []RankedEntry `json:"results"`
}

// DivisionResults groups category tables under one age division.
type DivisionResults struct {
	AgeCategory model.AgeCategory `json:"age_category"`
	Label       string            `json:"label"`
	Categories  []CategoryResults `json:"categories"`
}

// Rankings is the response of the rankings endpoints. Exactly one of
// Categories, Overall or Divisions is set, matching View.
type Rankings struct {
	TournamentID string            `json:"tournament_id,omitempty"`
	View         string            `json:"view"`
	Formula      model.Formula     `json:"formula"`
	Categories   []CategoryResults `json:"categories,omitempty"`
	Overall      []RankedEntry     `json:"overall,omitempty"`
	Divisions    []DivisionResults `json:"divisions,omitempty"`
}

// Record is one platform record slot.
type Record struct {
	ID             string            `json:"id"`
	Lift           model.Discipline  `json:"lift"`
	Gender         model.Gender      `json:"gender"`
	AgeCategory    model.AgeCategory `json:"age_category"`
	AgeLabel       string            `json:"age_label"`
	WeightCategory string            `json:"weight_category"`
	WeightKg       float64           `json:"weight_kg"`
	Holder         string            `json:"holder"`
	AthleteID      string            `json:"athlete_id,omitempty"`
	TournamentID   string            `json:"tournament_id"`
	TournamentName string            `json:"tournament_name,omitempty"`
	SetAt          time.Time         `json:"set_at"`
}

// Stats summarizes the service state.
type Stats struct {
	Tournaments    int     `json:"tournaments"`
	Records        int     `json:"records"`
	StoreBackend   string  `json:"store_backend"`
	DefaultFormula string  `json:"default_formula"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// FinishResult is returned when a tournament is finished.
type FinishResult struct {
	TournamentID string `json:"tournament_id"`
	RecordsSet   int    `json:"records_set"`
}

// ReconcileResult is returned by a manual records reconciliation.
type ReconcileResult struct {
	RecordsSet int `json:"records_set"`
}

// LiftAccuracy is the judged and good attempt count of one discipline.
type LiftAccuracy struct {
	Lift    model.Discipline `json:"lift"`
	Judged  int              `json:"judged"`
	Good    int              `json:"good"`
	Percent float64          `json:"percent"`
}

// CategoryAverage is the mean valid total of one category table.
type CategoryAverage struct {
	Category     string   `json:"category"`
	AverageTotal *float64 `json:"average_total"`
}

// Analytics summarizes a tournament. Total statistics are null when no
// athlete posted a valid total.
type Analytics struct {
	TournamentID   string            `json:"tournament_id"`
	TournamentName string            `json:"tournament_name,omitempty"`
	EventType      model.EventType   `json:"event_type"`
	Participants   int               `json:"participants"`
	Men            int               `json:"men"`
	Women          int               `json:"women"`
	Accuracy       []LiftAccuracy    `json:"accuracy"`
	TonnageKg      float64           `json:"tonnage_kg"`
	MedianTotal    *float64          `json:"median_total"`
	MinTotal       *float64          `json:"min_total"`
	MaxTotal       *float64          `json:"max_total"`
	Categories     []CategoryAverage `json:"categories"`
}

// PerformanceDelta is the change between an athlete's two latest best lifts.
type PerformanceDelta struct {
	Lift         model.Discipline `json:"lift"`
	CurrentKg    float64          `json:"current_kg"`
	PreviousKg   float64          `json:"previous_kg"`
	DeltaKg      float64          `json:"delta_kg"`
	DeltaPercent float64          `json:"delta_percent"`
	Competitions int              `json:"competitions"`
	TournamentID string           `json:"tournament_id"`
	At           time.Time        `json:"at"`
}

// AthleteProgress lists an athlete's deltas across finished tournaments.
type AthleteProgress struct {
	AthleteID string             `json:"athlete_id"`
	Deltas    []PerformanceDelta `json:"deltas"`
}

// FromReport converts a tournament analytics report.
func FromReport(t model.Tournament, r analytics.Report) Analytics {
	out := Analytics{
		TournamentID:   t.ID,
		TournamentName: t.Name,
		EventType:      t.EventType,
		Participants:   r.Participants,
		Men:            r.Men,
		Women:          r.Women,
		Accuracy:       make([]LiftAccuracy, len(r.Accuracy)),
		TonnageKg:      r.TonnageKg,
		Categories:     make([]CategoryAverage, len(r.Categories)),
	}
	for i, a := range r.Accuracy {
		out.Accuracy[i] = LiftAccuracy{Lift: a.Lift, Judged: a.Judged, Good: a.Good, Percent: a.Percent()}
	}
	for i, c := range r.Categories {
		out.Categories[i] = CategoryAverage{Category: c.Category, AverageTotal: c.Average}
	}
	if v, ok := r.Median(); ok {
		out.MedianTotal = &v
	}
	if v, ok := r.Min(); ok {
		out.MinTotal = &v
	}
	if v, ok := r.Max(); ok {
		out.MaxTotal = &v
	}
	return out
}

// FromDeltas converts performance deltas in order.
func FromDeltas(athleteID string, ds []analytics.Delta) AthleteProgress {
	out := AthleteProgress{AthleteID: athleteID, Deltas: make([]PerformanceDelta, len(ds))}
	for i, d := range ds {
		out.Deltas[i] = PerformanceDelta{
			Lift:         d.Lift,
			CurrentKg:    d.Current,
			PreviousKg:   d.Previous,
			DeltaKg:      d.DeltaKg,
			DeltaPercent: d.DeltaPercent,
			Competitions: d.Competitions,
			TournamentID: d.TournamentID,
			At:           d.At,
		}
	}
	return out
}

// FromResult converts a ranked result. The world percentile is attached for
// valid totals in categories with reference data.
func FromResult(r ranking.Result) RankedEntry {
	a := r.Athlete
	e := RankedEntry{
		Place:       r.Place,
		AthleteID:   a.ID,
		Name:        a.Name,
		Gender:      a.Gender,
		AgeCategory: a.AgeCategory,
		Bodyweight:  a.Bodyweight,
		Lifts:       make(map[string]*float64, len(r.Lifts)),
		Total:       r.Total,
		Score:       r.Score,
		BombOut:     !r.Valid(),
	}
	for d, w := range r.Lifts {
		e.Lifts[string(d)] = w
	}
	if a.Category != nil {
		e.WeightCategory = a.Category.Name
		if r.Total != nil {
			if p, ok := scoring.WorldPercentile(a.Gender, a.Category.Name, *r.Total); ok {
				e.WorldPercentile = &p
			}
		}
	}
	return e
}

// FromResults converts a slice of results in order.
func FromResults(rs []ranking.Result) []RankedEntry {
	out := make([]RankedEntry, len(rs))
	for i, r := range rs {
		out[i] = FromResult(r)
	}
	return out
}

// FromCategories converts category rankings in order.
func FromCategories(cs []ranking.CategoryRanking) []CategoryResults {
	out := make([]CategoryResults, len(cs))
	for i, c := range cs {
		out[i] = CategoryResults{
			Category: c.DisplayName(),
			Gender:   c.Gender,
			Results:  FromResults(c.Results),
		}
		if c.Category != nil {
			out[i].CategoryID = c.Category.ID
		}
	}
	return out
}

// FromDivisions converts division rankings in order.
func FromDivisions(ds []ranking.DivisionRanking) []DivisionResults {
	out := make([]DivisionResults, len(ds))
	for i, d := range ds {
		out[i] = DivisionResults{
			AgeCategory: d.AgeCategory,
			Label:       d.Label,
			Categories:  FromCategories(d.Categories),
		}
	}
	return out
}

// FromRecords converts record slots in order.
func FromRecords(slots []model.RecordSlot) []Record {
	out := make([]Record, len(slots))
	for i, s := range slots {
		out[i] = Record{
			ID:             s.ID,
			Lift:           s.Lift,
			Gender:         s.Gender,
			AgeCategory:    s.AgeCategory,
			AgeLabel:       s.AgeCategory.Label(),
			WeightCategory: s.WeightCategory,
			WeightKg:       s.WeightKg,
			Holder:         s.Holder,
			AthleteID:      s.AthleteID,
			TournamentID:   s.TournamentID,
			TournamentName: s.TournamentName,
			SetAt:          s.SetAt,
		}
	}
	return out
}
