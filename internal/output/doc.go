// Package output provides deterministic JSON encoding for triage results.
//
// Identical scan results must produce byte-identical report output. The
// DeterministicEncode function guarantees that by:
//
//  1. Stable key ordering: object keys are sorted alphabetically
//  2. Float formatting: rounded to max 6 decimal places, no trailing zeros
//  3. Null handling: nil fields are omitted entirely
//  4. Empty arrays: non-nil empty slices stay as [] so consumers can rely
//     on array-valued fields being present
//
// Run-varying fields (scan IDs, wall-clock timestamps) are only emitted when
// a caller asks for them; the snapshot helpers strip them when comparing two
// outputs in tests.
//
//	a, _ := output.DeterministicEncode(result)
//	b, _ := output.DeterministicEncode(result)
//	// bytes.Equal(a, b) == true
package output
