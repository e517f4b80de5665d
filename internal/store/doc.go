// Package store persists battles and match results in a relational database.
//
// SQLite (modernc.org/sqlite) is the default backend and matches the layout of
// the battle database maintained by the collection scripts; Postgres (lib/pq)
// is available for shared deployments. Queries are written once with "?"
// placeholders and rebound for Postgres.
//
// The schema is created idempotently on Open and guarded by a schema_version
// row. Match results are written by CommitResults as a single transaction so a
// run either lands completely or not at all.
package store
