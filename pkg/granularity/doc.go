// Package granularity describes the ladder of rollup resolutions a slot
// tracker runs against (full, 5m, 20m, 60m, 240m, 1440m, ...) and the
// slot arithmetic used to walk from a slot at one resolution to its
// parent at the next coarser one.
//
// rollupstate never performs this arithmetic itself; it only calls
// Granularity.Coarser and Granularity.ParentSlot and trusts the answer.
package granularity
