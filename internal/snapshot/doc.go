// Package snapshot stores the named content checkpoints of reps.
//
// A snapshot is written once per rep per pass and is immutable afterwards.
// Reads that miss are not errors: Get reports found=false and the caller
// (the execution engine) turns that into a suspension.
//
// The Store is layered over a key/value Backend so the storage medium is
// pluggable. MemoryBackend keeps everything in a map; BadgerBackend persists
// snapshots across runs in a BadgerDB directory, which lets the outdatedness
// checker treat reps whose snapshots survived as already compiled.
//
// Key layout:
//
//	s/<rep>\x00<name>  snapshot content (JSON; binary bodies as base64 bytes)
//	o/<rep>           write order of snapshot names (JSON string list)
//	c/<rep>           compiled marker
package snapshot
