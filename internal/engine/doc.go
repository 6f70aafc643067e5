// Package engine evaluates compliance rules against a document's timeline.
//
// The engine is the "rules" pipeline stage: it reconstructs the canonical
// event stream, infers the applicable rule profiles, snapshots the active
// rule catalog, dispatches each rule's evaluator, and atomically replaces
// the document's stored violations.
//
// ARCHITECTURE:
//
// Single-threaded per document:
// A run processes one document synchronously in one goroutine. Rule
// evaluation is cheap relative to I/O; determinism matters more than
// throughput. Concurrent runs over different documents are safe because
// the only shared state is the read-only catalog snapshot and each
// document's violation replace-transaction is independent.
//
// Run flow:
//  1. Load document, sections, entities, events from the store
//  2. Infer profiles (or take the caller's override)
//  3. Snapshot the active rule package filtered by profile
//  4. Dispatch each rule's evaluator in catalog order
//  5. ReplaceViolations in one transaction
//
// Failure containment:
// A faulting evaluator never aborts the run. Panics and errors inside a
// rule are converted to a minor "rule execution error" violation and the
// remaining rules still execute. Rules with no registered evaluator are
// counted as skipped in the run summary. Only storage failures are fatal,
// and only for that document's run.
package engine
