// Package model defines the shared types flowing through the audit pipeline:
// documents, sections, entities, canonical timeline events, rule definitions,
// and violations.
//
// Upstream extraction output is loosely typed and redundant; everything in
// this package is the normalized form the engine operates on. The EventKind
// vocabulary is closed: synonym normalization happens once, at the timeline
// boundary, and no downstream component string-matches kinds again.
package model
