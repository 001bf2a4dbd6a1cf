package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// plusOffset places an open-ended "N+" category just above "N".
const plusOffset = 0.1

// WeightCategory is a gender-specific bodyweight bracket, named like "-93",
// "93" or "120+".
type WeightCategory struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
}

// Limit returns the numeric sort position of the category. Names ending in
// "+" sort just above their base; a leading "-" is ignored.
func (c WeightCategory) Limit() (float64, error) {
	name := strings.TrimSpace(c.Name)
	plus := strings.HasSuffix(name, "+")
	name = strings.TrimPrefix(strings.TrimSuffix(name, "+"), "-")
	v, err := strconv.ParseFloat(name, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: category name %q", ErrInvalidCategory, c.Name)
	}
	if plus {
		v += plusOffset
	}
	return v, nil
}

// AssignCategory picks the category of gender g that bodyweight bw falls
// into: the smallest upper limit with bw <= limit, or an open-ended "N+"
// category when bw > N and no bounded one fits. It returns nil when nothing
// fits. Malformed names are skipped.
func AssignCategory(cats []WeightCategory, bw float64, g Gender) *WeightCategory {
	var (
		best      *WeightCategory
		bestLimit = math.Inf(1)
	)
	for i := range cats {
		c := cats[i]
		if c.Gender != g {
			continue
		}
		name := strings.TrimSpace(c.Name)
		base, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSuffix(name, "+"), "-"), 64)
		if err != nil || math.IsNaN(base) {
			continue
		}
		limit := base
		if strings.HasSuffix(name, "+") {
			if bw <= base {
				continue
			}
			limit = math.Inf(1)
		} else if bw > base {
			continue
		}
		if best == nil || limit < bestLimit {
			best, bestLimit = &c, limit
		}
	}
	return best
}

// DisplayName renders the category for result tables, e.g. "93+ kg M".
func (c WeightCategory) DisplayName() string {
	return fmt.Sprintf("%s kg %s", c.Name, c.Gender)
}

// Attempt is a single lift attempt. Weight is nil until declared.
type Attempt struct {
	Discipline Discipline `json:"discipline"`
	Number     int        `json:"number"`
	Weight     *float64   `json:"weight_kg,omitempty"`
	Verdict    Verdict    `json:"verdict,omitempty"`
}

// Athlete is one participant's performance record inside a tournament.
type Athlete struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Bodyweight  float64           `json:"bodyweight_kg"`
	Gender      Gender            `json:"gender"`
	AgeCategory AgeCategory       `json:"age_category,omitempty"`
	Category    *WeightCategory   `json:"category,omitempty"`
	Status      ParticipantStatus `json:"status,omitempty"`
	Attempts    []Attempt         `json:"attempts"`
}

// Withdrawn reports whether the athlete pulled out of the tournament.
func (a Athlete) Withdrawn() bool {
	return a.Status == StatusWithdrawn
}

// CategoryName returns the weight category name, or "open" when the athlete
// is uncategorized. It keys record slots.
func (a Athlete) CategoryName() string {
	if a.Category == nil {
		return string(AgeOpen)
	}
	return a.Category.Name
}

// Weight returns a pointer to w, for building attempts.
func Weight(w float64) *float64 {
	return &w
}
