// Package logging builds the slog loggers used by barfinder.
//
// Two handlers are available: a console format ("2024-06-15T10:00:00.000Z INFO
// pipeline [video]: message key=value") for terminals and log files, and a
// JSON format with short keys for ingestion. Component loggers tag records
// with the subsystem, and WarnWithContext/ErrorWithContext make sure problem
// records carry event_type, error_hint and impact fields.
package logging
