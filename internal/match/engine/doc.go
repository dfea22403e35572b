// Package engine derives authoritative X01 match state from a throw log.
//
// The throw log is the single source of truth. Every function here is a pure,
// total computation over (rules, players, ordered log): remaining scores,
// the current set/leg pointer, standings, win detection, turn order, and the
// client-facing projection are all recomputed from scratch on each call.
// Nothing in this package performs I/O or holds state between calls.
package engine
