// Package ir provides the core data types shared by every kiln package.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// item/rep/recipe vocabulary the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Steps are a closed variant: only FilterStep, LayoutStep, SnapshotStep
//     and WriteStep implement Step.
//   - Rep identity is the (item identifier, rep name) pair, never a pointer.
//   - Checksums use canonical JSON with domain separation so the same input
//     hashes identically across runs and machines.
package ir
