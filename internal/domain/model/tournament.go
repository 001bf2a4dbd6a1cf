package model

import "time"

// Tournament is a consistent snapshot of a competition: its configuration and
// every athlete with all attempts loaded.
type Tournament struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	EventType EventType        `json:"event_type"`
	Formula   Formula          `json:"formula"`
	Status    TournamentStatus `json:"status,omitempty"`
	CreatedAt time.Time        `json:"created_at"`

	// Categories are the weight classes offered; athletes without a category
	// are assigned one from them on ingestion.
	Categories []WeightCategory `json:"categories,omitempty"`
	Athletes   []Athlete        `json:"athletes"`
}

// ActiveAthletes returns the athletes that have not withdrawn, in input order.
func (t Tournament) ActiveAthletes() []Athlete {
	out := make([]Athlete, 0, len(t.Athletes))
	for _, a := range t.Athletes {
		if !a.Withdrawn() {
			out = append(out, a)
		}
	}
	return out
}

// AssignCategories returns a copy of t whose uncategorized athletes are
// placed into one of t.Categories by bodyweight and gender.
func (t Tournament) AssignCategories() Tournament {
	if len(t.Categories) == 0 {
		return t
	}
	athletes := make([]Athlete, len(t.Athletes))
	copy(athletes, t.Athletes)
	for i := range athletes {
		if athletes[i].Category == nil {
			athletes[i].Category = AssignCategory(t.Categories, athletes[i].Bodyweight, athletes[i].Gender)
		}
	}
	t.Athletes = athletes
	return t
}

// Finished reports whether results are final.
func (t Tournament) Finished() bool {
	return t.Status == TournamentFinished
}
