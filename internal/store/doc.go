// Package store provides SQLite-backed storage for run metadata.
//
// Each successful compilation records one run:
//   - runs: run identity, logical sequence number and counters
//   - checksums: content, attribute and recipe checksums per subject
//   - dependencies: rep-to-rep edges recorded during the run
//   - compiled_reps: reps compiled (not skipped) in the run
//
// Only the most recent run's checksums and dependencies are needed for
// outdatedness checks; older run rows are kept as history without detail.
//
// # Ordering
//
//   - Runs are ordered by seq INTEGER, never by timestamps
//   - Detail queries ORDER BY their key columns COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
