package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/chartqc/internal/catalog"
	"github.com/roach88/chartqc/internal/engine"
	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/store"
	"github.com/roach88/chartqc/internal/temporal"
)

// Report is the deterministic capture of one scenario run: the run summary,
// the rebuilt timeline, and the stored violations in report order.
type Report struct {
	Scenario   string            `json:"scenario"`
	Run        model.RunResult   `json:"run"`
	Events     []EventRecord     `json:"events"`
	Violations []model.Violation `json:"violations"`
}

// EventRecord is a timeline event flattened for golden comparison.
type EventRecord struct {
	Kind    string `json:"kind"`
	Instant string `json:"instant,omitempty"`
	Section string `json:"section,omitempty"`
	Seq     int    `json:"seq"`
}

// Run executes a scenario against a fresh in-memory database and returns
// the resulting report.
//
// Execution flow:
//  1. Seed the document, sections, and entities from the scenario
//  2. Import and activate the scenario's rule package
//  3. Rebuild the timeline
//  4. Evaluate the document with a fixed run token
//  5. Read back the stored events and violations
func Run(scenario *Scenario) (*Report, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	docID := scenario.Document.DocID

	if err := seed(ctx, st, scenario); err != nil {
		return nil, err
	}

	runner := engine.NewRunner(engine.Config{
		Store:   st,
		Catalog: catalog.New(st),
		Tokens:  engine.NewFixedGenerator(scenario.RunToken),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	if _, err := runner.BuildTimeline(ctx, docID); err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}
	run, err := runner.EvaluateDocument(ctx, docID, engine.Options{
		ProfileOverride: scenario.Profiles,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate document: %w", err)
	}

	events, err := st.GetEvents(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	violations, err := st.ListViolations(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("read violations: %w", err)
	}

	report := &Report{
		Scenario:   scenario.Name,
		Run:        run,
		Events:     make([]EventRecord, 0, len(events)),
		Violations: violations,
	}
	for _, ev := range events {
		rec := EventRecord{Kind: string(ev.Kind), Section: ev.SectionRef, Seq: ev.Seq}
		if ev.Instant != nil {
			rec.Instant = ev.Instant.String()
		}
		report.Events = append(report.Events, rec)
	}
	return report, nil
}

// seed writes the scenario's case and rule package into the store.
func seed(ctx context.Context, st *store.Store, scenario *Scenario) error {
	doc := model.Document{
		DocID:    scenario.Document.DocID,
		Facility: scenario.Document.Facility,
		Dept:     scenario.Document.Dept,
		Author:   scenario.Document.Author,
	}
	if raw := scenario.Document.AdmitDT; raw != "" {
		inst, ok := temporal.Parse(raw)
		if !ok {
			return fmt.Errorf("document.admit_dt %q is not parseable", raw)
		}
		doc.AdmitDT = &inst
	}
	if err := st.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("seed document: %w", err)
	}

	sections := make([]model.Section, 0, len(scenario.Sections))
	for _, sec := range scenario.Sections {
		sections = append(sections, model.Section{
			ID:    sec.ID,
			Kind:  sec.Kind,
			Name:  sec.Name,
			Start: sec.Start,
			End:   sec.End,
		})
	}
	if err := st.ReplaceSections(ctx, doc.DocID, sections); err != nil {
		return fmt.Errorf("seed sections: %w", err)
	}

	entities := make([]model.Entity, 0, len(scenario.Entities))
	for _, ent := range scenario.Entities {
		entities = append(entities, model.Entity{
			EType:     ent.EType,
			TS:        ent.TS,
			Start:     ent.Start,
			End:       ent.End,
			SectionID: ent.Section,
			Value:     ent.Value,
		})
	}
	if err := st.InsertEntities(ctx, doc.DocID, entities); err != nil {
		return fmt.Errorf("seed entities: %w", err)
	}

	pkg := model.RulePackage{
		Name:    scenario.Package.Name,
		Version: scenario.Package.Version,
		Title:   scenario.Package.Title,
	}
	for _, r := range scenario.Package.Rules {
		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}
		pkg.Rules = append(pkg.Rules, model.RuleDefinition{
			ID:             model.RuleID(r.ID),
			Profile:        r.Profile,
			Title:          r.Title,
			Severity:       model.Severity(r.Severity),
			Params:         r.Params,
			Enabled:        enabled,
			EffectiveFrom:  r.EffectiveFrom,
			EffectiveTo:    r.EffectiveTo,
			PackageName:    pkg.Name,
			PackageVersion: pkg.Version,
		})
	}
	if err := st.ImportPackage(ctx, pkg); err != nil {
		return fmt.Errorf("seed rule package: %w", err)
	}
	if err := st.SetActivePackage(ctx, pkg.Name, pkg.Version); err != nil {
		return fmt.Errorf("activate rule package: %w", err)
	}
	return nil
}
