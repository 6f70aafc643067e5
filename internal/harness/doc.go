// Package harness provides a scenario-based conformance framework for the
// audit pipeline.
//
// A scenario is a YAML file describing one clinical case end to end: the
// document header, its segmented sections, the extracted entities, and the
// rule package to evaluate it against. The harness seeds a fresh in-memory
// database from the scenario, rebuilds the timeline, runs the evaluation,
// and captures the resulting events and violations as a Report.
//
// Reports are compared against golden files, which serve as the source of
// truth for expected pipeline output. Determinism comes from fixed run
// tokens declared in the scenario; nothing in a Report depends on the wall
// clock.
//
// To regenerate golden files after an intentional behavior change, run:
//
//	go test ./internal/harness -update
package harness
