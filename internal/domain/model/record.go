package model

import (
	"sort"
	"strings"
	"time"
)

// RecordKey uniquely identifies a platform record slot.
type RecordKey struct {
	Lift           Discipline  `json:"lift"`
	Gender         Gender      `json:"gender"`
	AgeCategory    AgeCategory `json:"age_category"`
	WeightCategory string      `json:"weight_category"`
}

// String encodes the key as "lift|gender|age|category" for key-value stores.
func (k RecordKey) String() string {
	return strings.Join([]string{string(k.Lift), string(k.Gender), string(k.AgeCategory), k.WeightCategory}, "|")
}

// RecordSlot is the all-time best performance for a RecordKey.
type RecordSlot struct {
	RecordKey

	ID             string    `json:"id"`
	WeightKg       float64   `json:"weight_kg"`
	Holder         string    `json:"holder"`
	AthleteID      string    `json:"athlete_id,omitempty"`
	TournamentID   string    `json:"tournament_id"`
	TournamentName string    `json:"tournament_name,omitempty"`
	SetAt          time.Time `json:"set_at"`
}

// RecordFilter narrows a records query. Empty fields match everything.
type RecordFilter struct {
	Gender         Gender
	AgeCategory    AgeCategory
	WeightCategory string
	Lift           Discipline
}

// Matches reports whether s passes the filter.
func (f RecordFilter) Matches(s RecordSlot) bool {
	switch {
	case f.Gender != "" && s.Gender != f.Gender:
		return false
	case f.AgeCategory != "" && s.AgeCategory != f.AgeCategory:
		return false
	case f.WeightCategory != "" && s.WeightCategory != f.WeightCategory:
		return false
	case f.Lift != "" && s.Lift != f.Lift:
		return false
	}
	return true
}

// SortRecords orders slots by gender, age category, weight category, lift.
func SortRecords(slots []RecordSlot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		if a.AgeCategory != b.AgeCategory {
			return a.AgeCategory < b.AgeCategory
		}
		if a.WeightCategory != b.WeightCategory {
			return a.WeightCategory < b.WeightCategory
		}
		return a.Lift < b.Lift
	})
}
