// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// Gender of an athlete. Categories and records are split by it.
type Gender string

// Supported genders.
const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Valid reports whether g is one of the supported genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Discipline is a single lift type contested in a tournament.
type Discipline string

// Disciplines. LiftTotal is only used as a record slot lift.
const (
	Squat     Discipline = "squat"
	Bench     Discipline = "bench"
	Deadlift  Discipline = "deadlift"
	LiftTotal Discipline = "total"
)

// IsLift reports whether d is an attemptable discipline.
func (d Discipline) IsLift() bool {
	switch d {
	case Squat, Bench, Deadlift:
		return true
	}
	return false
}

// EventType selects the set of disciplines contested in a tournament.
type EventType string

// Event types.
const (
	EventSBD EventType = "SBD" // squat, bench, deadlift
	EventBP  EventType = "BP"  // bench only
	EventDL  EventType = "DL"  // deadlift only
	EventPP  EventType = "PP"  // push-pull: bench, deadlift
)

var eventDisciplines = map[EventType][]Discipline{
	EventSBD: {Squat, Bench, Deadlift},
	EventBP:  {Bench},
	EventDL:  {Deadlift},
	EventPP:  {Bench, Deadlift},
}

// Disciplines returns the disciplines of e in competition order.
// Unknown event types contest nothing.
func (e EventType) Disciplines() []Discipline {
	ds := eventDisciplines[e]
	out := make([]Discipline, len(ds))
	copy(out, ds)
	return out
}

// Valid reports whether e is a known event type.
func (e EventType) Valid() bool {
	_, ok := eventDisciplines[e]
	return ok
}

// Contests reports whether d is part of e.
func (e EventType) Contests(d Discipline) bool {
	for _, x := range eventDisciplines[e] {
		if x == d {
			return true
		}
	}
	return false
}

// Verdict is the judging outcome of an attempt. The zero value means the
// attempt has not been judged yet.
type Verdict string

// Verdicts.
const (
	VerdictPending Verdict = ""
	VerdictGood    Verdict = "good"
	VerdictBad     Verdict = "bad"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	return v == VerdictPending || v == VerdictGood || v == VerdictBad
}

// AgeCategory is the age division an athlete competes in.
type AgeCategory string

// Age categories, youngest first.
const (
	AgeSubJunior AgeCategory = "sub_junior"
	AgeJunior    AgeCategory = "junior"
	AgeOpen      AgeCategory = "open"
	AgeMasters1  AgeCategory = "masters1"
	AgeMasters2  AgeCategory = "masters2"
	AgeMasters3  AgeCategory = "masters3"
	AgeMasters4  AgeCategory = "masters4"
)

var ageLabels = map[AgeCategory]string{
	AgeSubJunior: "Sub-juniors (under 18)",
	AgeJunior:    "Juniors (18-23)",
	AgeOpen:      "Open",
	AgeMasters1:  "Masters 1 (40-49)",
	AgeMasters2:  "Masters 2 (50-59)",
	AgeMasters3:  "Masters 3 (60-69)",
	AgeMasters4:  "Masters 4 (70+)",
}

// AgeCategories returns all age categories in canonical award order.
func AgeCategories() []AgeCategory {
	return []AgeCategory{AgeSubJunior, AgeJunior, AgeOpen, AgeMasters1, AgeMasters2, AgeMasters3, AgeMasters4}
}

// Valid reports whether a is a known age category.
func (a AgeCategory) Valid() bool {
	_, ok := ageLabels[a]
	return ok
}

// OrOpen returns a, or the open division when a is absent.
func (a AgeCategory) OrOpen() AgeCategory {
	if a == "" {
		return AgeOpen
	}
	return a
}

// Label returns a human readable division name.
func (a AgeCategory) Label() string {
	if l, ok := ageLabels[a]; ok {
		return l
	}
	return string(a)
}

// ParticipantStatus tracks an athlete's registration state.
type ParticipantStatus string

// Participant statuses.
const (
	StatusRegistered ParticipantStatus = "registered"
	StatusConfirmed  ParticipantStatus = "confirmed"
	StatusWithdrawn  ParticipantStatus = "withdrawn"
)

// TournamentStatus tracks the tournament lifecycle.
type TournamentStatus string

// Tournament statuses.
const (
	TournamentDraft        TournamentStatus = "draft"
	TournamentRegistration TournamentStatus = "registration"
	TournamentActive       TournamentStatus = "active"
	TournamentFinished     TournamentStatus = "finished"
)

// Formula selects the scoring coefficient used to rank athletes.
type Formula int

// Formulas. FormulaTotal ranks by raw total with no coefficient.
const (
	FormulaTotal Formula = iota
	FormulaWilks
	FormulaDots
	FormulaGlossbrenner
	FormulaIPFGL
)

var formulaNames = [...]string{
	FormulaTotal:        "total",
	FormulaWilks:        "wilks",
	FormulaDots:         "dots",
	FormulaGlossbrenner: "glossbrenner",
	FormulaIPFGL:        "ipf_gl",
}

// String returns the wire identifier of f. Out-of-range values read as total.
func (f Formula) String() string {
	if f < 0 || int(f) >= len(formulaNames) {
		return formulaNames[FormulaTotal]
	}
	return formulaNames[f]
}

// ParseFormula maps an identifier to a Formula. Unknown identifiers fall back
// to FormulaTotal and report ok=false.
func ParseFormula(s string) (f Formula, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formulaNames {
		if name == s {
			return Formula(i), true
		}
	}
	return FormulaTotal, false
}

// MarshalText implements encoding.TextMarshaler.
func (f Formula) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails: unknown
// identifiers become FormulaTotal.
func (f *Formula) UnmarshalText(b []byte) error {
	*f, _ = ParseFormula(string(b))
	return nil
}
