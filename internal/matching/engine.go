package matching

import (
	"slices"

	"barfinder/internal/battles"
)

// Outcome classifies how FindBestMatch resolved an observation.
type Outcome string

const (
	OutcomeMatched        Outcome = "matched"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeNoNames        Outcome = "no_names"
	OutcomeTooFewNames    Outcome = "too_few_names"
	OutcomeNoCandidate    Outcome = "no_candidate"
	OutcomeOutsideWindow  Outcome = "no_candidate_in_window"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeMatched,
	OutcomeBelowThreshold,
	OutcomeNoNames,
	OutcomeTooFewNames,
	OutcomeNoCandidate,
	OutcomeOutsideWindow,
}

// Match is the engine's answer for one observation. An empty BattleID is the
// null result; Score then carries the best rejected score (or 0).
type Match struct {
	BattleID string
	Score    float64
	Outcome  Outcome

	// UniqueNames is the size of the deduplicated observation.
	UniqueNames int
	// Candidates counts battles sharing at least one name before the date filter.
	Candidates int
	// Eligible counts candidates that survived the date filter.
	Eligible int
	// ReferenceDateValid reports whether the date filter was applied.
	ReferenceDateValid bool
	// UnparsableTimestamps counts candidates dropped for a malformed battle timestamp.
	UnparsableTimestamps int
}

// Matched reports whether a battle was accepted.
func (m Match) Matched() bool {
	return m.Outcome == OutcomeMatched
}

// Engine scores observations against a battles.Index.
type Engine struct {
	policy Policy
}

// NewEngine constructs an engine with the supplied policy; unset fields fall
// back to DefaultPolicy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy.normalized()}
}

// Policy returns the effective policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// FindBestMatch returns the best admissible battle for the recognized names.
// referenceDate is the owning video's upload date; when it is missing or
// malformed the date filter is skipped.
func (e *Engine) FindBestMatch(names []string, referenceDate string, idx *battles.Index) Match {
	observed := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		observed[name] = struct{}{}
	}
	result := Match{UniqueNames: len(observed)}
	if len(observed) == 0 {
		result.Outcome = OutcomeNoNames
		return result
	}
	if len(observed) < e.policy.MinObservationNames {
		result.Outcome = OutcomeTooFewNames
		return result
	}

	overlap := make(map[string]int)
	for name := range observed {
		for _, id := range idx.Postings(name) {
			overlap[id]++
		}
	}
	result.Candidates = len(overlap)
	if len(overlap) == 0 {
		result.Outcome = OutcomeNoCandidate
		return result
	}

	ids := make([]string, 0, len(overlap))
	for id := range overlap {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	reference, refOK := ParseReferenceDate(referenceDate)
	result.ReferenceDateValid = refOK
	var admissible window
	if refOK {
		admissible = newWindow(reference, e.policy.MaxDateRangeMonths)
	}

	eligible := make([]*battles.Record, 0, len(ids))
	for _, id := range ids {
		record, ok := idx.Lookup(id)
		if !ok {
			continue
		}
		if refOK {
			battleDate, ok := ParseBattleDate(record.Timestamp)
			if !ok {
				result.UnparsableTimestamps++
				continue
			}
			if !admissible.contains(battleDate) {
				continue
			}
		}
		eligible = append(eligible, record)
	}
	result.Eligible = len(eligible)
	if len(eligible) == 0 {
		result.Outcome = OutcomeOutsideWindow
		return result
	}

	bestID := ""
	bestScore := -1.0
	for _, record := range eligible {
		score := TokenSetRatio(observed, record.Participants())
		if score > bestScore || (score == bestScore && record.ID < bestID) {
			bestID, bestScore = record.ID, score
		}
	}

	if bestScore >= e.policy.MinMatchThreshold {
		result.BattleID = bestID
		result.Score = bestScore
		result.Outcome = OutcomeMatched
		return result
	}
	result.Score = bestScore
	result.Outcome = OutcomeBelowThreshold
	return result
}
