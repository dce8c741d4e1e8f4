// Package repositories implements SQLite persistence for the local run history.
//
// Key Implementations:
//   - [RunRepository] : one row per uploaded file, updated as the run moves through extraction and export
//   - [HistoryRecorder] : adapts RunRepository to the workflow recorder hook
//
// Runs are soft-deleted via deleted_at timestamps and excluded from queries by default.
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
