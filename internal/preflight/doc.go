// Package preflight provides readiness checks for the files and directories a
// match run reads and writes.
//
// The match command runs RunAll before loading the index so a missing input
// or an unwritable output directory fails fast, before minutes of matching are
// thrown away. The "db stats" command reuses CheckStore to report connectivity.
package preflight
