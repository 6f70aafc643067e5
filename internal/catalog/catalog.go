// Package catalog provides per-run snapshots of the active rule set.
// A snapshot is taken once before evaluating a document and never mutates,
// so a concurrent package activation cannot change a run mid-flight.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/chartqc/internal/model"
)

// Loader is the store dependency: resolve package requests and filter rule
// definitions.
type Loader interface {
	ResolvePackage(ctx context.Context, pkgName, pkgVersion string) (string, string, error)
	LoadActiveRules(ctx context.Context, profiles []string, pkgName, pkgVersion string, now time.Time) ([]model.RuleDefinition, error)
}

// Catalog resolves rule snapshots against a loader. The clock is injectable
// for effective-window tests.
type Catalog struct {
	loader Loader
	now    func() time.Time
}

func New(loader Loader) *Catalog {
	return &Catalog{loader: loader, now: time.Now}
}

// WithClock overrides the catalog's notion of now.
func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

// Snapshot is an immutable view of the rules selected for one run.
type Snapshot struct {
	Rules          []model.RuleDefinition
	PackageName    string
	PackageVersion string
	TakenAt        time.Time
}

// Snapshot loads the enabled, in-window rules for the given profiles from
// the named package, or from the active package when pkgName is empty.
//
// Provenance comes from package resolution, not from the selected rules, so
// a run that matches zero rules still reports which package it ran against.
func (c *Catalog) Snapshot(ctx context.Context, profiles []string, pkgName, pkgVersion string) (Snapshot, error) {
	name, version, err := c.loader.ResolvePackage(ctx, pkgName, pkgVersion)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve package: %w", err)
	}

	now := c.now()
	defs, err := c.loader.LoadActiveRules(ctx, profiles, name, version, now)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load rules: %w", err)
	}

	snap := Snapshot{
		Rules:          make([]model.RuleDefinition, len(defs)),
		PackageName:    name,
		PackageVersion: version,
		TakenAt:        now,
	}
	copy(snap.Rules, defs)
	return snap, nil
}
