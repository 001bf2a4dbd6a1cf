package model

import (
	"fmt"
	"math"
	"strings"
)

const maxAttemptNumber = 3

// Validate checks the ingestion preconditions the ranking core relies on:
// positive finite bodyweights and weights, known genders, event types, age
// categories and verdicts, well-formed category names, and attempts that
// belong to the tournament's event type.
func (t Tournament) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTournament)
	}
	if !t.EventType.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidTournament, t.EventType)
	}
	switch t.Status {
	case "", TournamentDraft, TournamentRegistration, TournamentActive, TournamentFinished:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTournament, t.Status)
	}
	for i, c := range t.Categories {
		if err := c.validate(); err != nil {
			return fmt.Errorf("category %d: %w", i, err)
		}
	}
	for i := range t.Athletes {
		if err := t.Athletes[i].validate(t.EventType); err != nil {
			return fmt.Errorf("athlete %d: %w", i, err)
		}
	}
	return nil
}

func (a Athlete) validate(event EventType) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAthlete)
	}
	if !positiveFinite(a.Bodyweight) {
		return fmt.Errorf("%w: bodyweight must be positive, got %v", ErrInvalidAthlete, a.Bodyweight)
	}
	if !a.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidAthlete, a.Gender)
	}
	if a.AgeCategory != "" && !a.AgeCategory.Valid() {
		return fmt.Errorf("%w: unknown age category %q", ErrInvalidAthlete, a.AgeCategory)
	}
	switch a.Status {
	case "", StatusRegistered, StatusConfirmed, StatusWithdrawn:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidAthlete, a.Status)
	}
	if a.Category != nil {
		if strings.TrimSpace(a.Category.ID) == "" {
			return fmt.Errorf("%w: missing id", ErrInvalidCategory)
		}
		if _, err := a.Category.Limit(); err != nil {
			return err
		}
		if a.Category.Gender != "" && a.Category.Gender != a.Gender {
			return fmt.Errorf("%w: category %q is for gender %q", ErrInvalidCategory, a.Category.Name, a.Category.Gender)
		}
	}
	for i, at := range a.Attempts {
		if err := at.validate(event); err != nil {
			return fmt.Errorf("attempt %d: %w", i, err)
		}
	}
	return nil
}

func (at Attempt) validate(event EventType) error {
	if !at.Discipline.IsLift() || !event.Contests(at.Discipline) {
		return fmt.Errorf("%w: discipline %q not contested in %s", ErrInvalidAttempt, at.Discipline, event)
	}
	if at.Number < 1 || at.Number > maxAttemptNumber {
		return fmt.Errorf("%w: attempt number %d out of range", ErrInvalidAttempt, at.Number)
	}
	if !at.Verdict.Valid() {
		return fmt.Errorf("%w: unknown verdict %q", ErrInvalidAttempt, at.Verdict)
	}
	if at.Weight != nil && (math.IsNaN(*at.Weight) || math.IsInf(*at.Weight, 0) || *at.Weight < 0) {
		return fmt.Errorf("%w: weight must be non-negative", ErrInvalidAttempt)
	}
	return nil
}

func (c WeightCategory) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCategory)
	}
	if !c.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidCategory, c.Gender)
	}
	_, err := c.Limit()
	return err
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
