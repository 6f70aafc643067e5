// Package store provides SQLite-backed storage for the audit pipeline.
//
// It exposes the verbs the engine depends on (GetDocument, GetSections,
// GetEntities, GetEvents, ReplaceEvents, ReplaceViolations, LoadActiveRules)
// and nothing about schema shape leaks past them.
//
// # Read-path tolerance
//
// Databases produced by older extraction pipelines name some columns
// differently ("when" for "ts", "idx" or "pos" for "start"). The readers
// probe the live schema once per query via PRAGMA table_info and pick the
// first matching column, so callers never branch on source schema.
//
// # Replace semantics
//
// ReplaceEvents and ReplaceViolations run a full delete + reinsert for one
// document inside a single transaction. Readers never observe a partial
// write, and replaying the same input yields the same stored set.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
