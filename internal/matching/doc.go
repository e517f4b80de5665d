// Package matching decides which battle a screenshot's recognized player names
// belong to.
//
// Engine.FindBestMatch is a pure function over its inputs: it deduplicates the
// OCR names, gathers candidate battles from the participation index, drops
// candidates outside the admissible date window, scores the survivors with a
// token-set similarity, and applies the acceptance threshold from Policy.
// Negative outcomes are values (an empty BattleID with an Outcome), never
// errors, and unparsable dates degrade the filter instead of failing.
//
// The engine performs no I/O and holds no mutable state, so one Engine and one
// battles.Index can be shared by every worker of a run.
package matching
