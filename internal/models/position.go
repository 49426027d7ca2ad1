package models

import (
	"strconv"
	"strings"
)

// PositionStatus classifies what happened to a runner in a race.
type PositionStatus int

const (
	// PositionUnknown means the field was empty or unparseable.
	PositionUnknown PositionStatus = iota
	// PositionFinished means the runner completed; Finish holds 1..N.
	PositionFinished
	// PositionNonFinisher covers fallers, pulled up, unseated, etc.
	PositionNonFinisher
	// PositionDisqualified covers DSQ and void outcomes.
	PositionDisqualified
)

// Position is the canonical interpretation of the provider's position
// field, which may arrive as "1", "1st", "WON", an integer, or a
// non-finisher code.
type Position struct {
	Status PositionStatus
	Finish int // valid only when Status == PositionFinished
}

// Finished reports whether the runner completed the race.
func (p Position) Finished() bool { return p.Status == PositionFinished }

// CountsAsRun reports whether this outcome counts toward run totals.
// Non-finishers and disqualifications are runs; an unknown position is
// not (the runner may have been a non-runner).
func (p Position) CountsAsRun() bool { return p.Status != PositionUnknown }

// Won reports a first-place finish.
func (p Position) Won() bool { return p.Status == PositionFinished && p.Finish == 1 }

// Placed reports a top-three finish.
func (p Position) Placed() bool { return p.Status == PositionFinished && p.Finish <= 3 }

var nonFinisherCodes = map[string]bool{
	"F":  true, // fell
	"PU": true, // pulled up
	"U":  true, // unseated rider
	"UR": true,
	"BD": true, // brought down
	"RO": true, // ran out
	"SU": true, // slipped up
	"RR": true, // refused to race
	"REF": true,
	"C":  true, // carried out
	"CO": true,
}

var disqualifiedCodes = map[string]bool{
	"DSQ":  true,
	"DQ":   true,
	"VOI":  true,
	"VOID": true,
}

// ParsePosition canonicalises a raw position string.
func ParsePosition(raw string) Position {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return Position{Status: PositionUnknown}
	}
	if nonFinisherCodes[s] {
		return Position{Status: PositionNonFinisher}
	}
	if disqualifiedCodes[s] {
		return Position{Status: PositionDisqualified}
	}
	if s == "WON" || s == "WIN" {
		return Position{Status: PositionFinished, Finish: 1}
	}

	// Ordinal suffixes: "1st", "2nd", "3rd", "4th", ...
	for _, suffix := range []string{"ST", "ND", "RD", "TH"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Position{Status: PositionUnknown}
	}
	return Position{Status: PositionFinished, Finish: n}
}

// FinishPtr returns the finishing position as a nullable int, the shape
// the runner and result columns store.
func (p Position) FinishPtr() *int {
	if p.Status != PositionFinished {
		return nil
	}
	n := p.Finish
	return &n
}
