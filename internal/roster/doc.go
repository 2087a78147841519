// Package roster contains the pure decision logic for roster management:
// attendance status derivation from planned versus recorded times, coverage
// metric aggregation over slots, shift duration arithmetic and the legacy
// shift-name compatibility matcher.
//
// The package has no persistence or transport dependencies so the rules can
// be tested in isolation and reused by controllers and handlers alike.
package roster
