package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/okian/ironflow/internal/domain/lifts"
	"github.com/okian/ironflow/internal/domain/model"
)

// Appearance is one athlete's entry in a finished tournament.
type Appearance struct {
	TournamentID   string
	TournamentName string
	EventType      model.EventType
	At             time.Time
	Attempts       []model.Attempt
}

// Delta compares the latest best lift of a discipline with the one before.
type Delta struct {
	Lift         model.Discipline
	Current      float64
	Previous     float64
	DeltaKg      float64
	DeltaPercent float64
	// Competitions counts the appearances with a best lift in Lift.
	Competitions int
	TournamentID string
	At           time.Time
}

// Deltas returns one Delta per discipline with at least two best lifts in
// history, in squat, bench, deadlift order. Appearances are ordered newest
// first by At; events that do not contest a discipline are ignored for it.
// The percentage is zero when the previous best is zero.
func Deltas(history []Appearance) []Delta {
	ordered := make([]Appearance, len(history))
	copy(ordered, history)
	sortNewestFirst(ordered)

	var out []Delta
	for _, d := range model.EventSBD.Disciplines() {
		var bests []float64
		var latest Appearance
		for _, a := range ordered {
			if !a.EventType.Contests(d) {
				continue
			}
			best, ok := lifts.BestLift(a.Attempts, d)
			if !ok {
				continue
			}
			if len(bests) == 0 {
				latest = a
			}
			bests = append(bests, best)
		}
		if len(bests) < 2 {
			continue
		}

		cur, prev := bests[0], bests[1]
		delta := Delta{
			Lift:         d,
			Current:      cur,
			Previous:     prev,
			DeltaKg:      round2(cur - prev),
			Competitions: len(bests),
			TournamentID: latest.TournamentID,
			At:           latest.At,
		}
		if prev != 0 {
			delta.DeltaPercent = math.Round((cur-prev)/prev*1000) / 10
		}
		out = append(out, delta)
	}
	return out
}

func sortNewestFirst(as []Appearance) {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].At.After(as[j].At)
	})
}
