// Package battles builds the read-only participation index the matcher runs
// against.
//
// Build consumes battle rows and (battle, player) participation rows in a
// single pass and produces an Index mapping each player name to the battles
// they appear in, plus a lookup from battle id to timestamp and participant
// set. Names are kept exactly as stored: case-sensitive, no normalization.
//
// An Index is never mutated after Build returns, so any number of goroutines
// may read it without locking. Participation rows that reference unknown
// battles are counted in Stats rather than rejected.
package battles
