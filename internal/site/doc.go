// Package site ties a site on disk to the compiler.
//
// A site is a content directory, an optional layouts directory, a CUE rules
// file and an output directory, as named by config.Config. Site loads the
// sources, resolves reps through the rules, runs the compiler against the
// snapshot backend and persists run metadata in the SQLite store.
//
// Metadata is written only after a run succeeds; a failed run leaves the
// previous run's checksums and dependency graph in place.
package site
