package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/chartqc/internal/catalog"
	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/profile"
	"github.com/roach88/chartqc/internal/timeline"
)

// Store is the persistence surface the engine depends on. It matches
// *store.Store; the engine never assumes anything about schema shape.
type Store interface {
	GetDocument(ctx context.Context, docID string) (model.Document, error)
	GetSections(ctx context.Context, docID string) ([]model.Section, error)
	GetEntities(ctx context.Context, docID string) ([]model.Entity, error)
	GetEvents(ctx context.Context, docID string) ([]model.Event, error)
	ReplaceEvents(ctx context.Context, docID string, events []model.Event) error
	ReplaceViolations(ctx context.Context, docID string, violations []model.Violation) error
}

// Config assembles a Runner. Store and Catalog are required; the rest
// default to production implementations.
type Config struct {
	Store    Store
	Catalog  *catalog.Catalog
	Registry Registry       // nil: DefaultRegistry()
	Tokens   TokenGenerator // nil: UUIDv7Generator{}
	Logger   *slog.Logger   // nil: slog.Default()
}

// Runner executes the rules pipeline stage for one document at a time.
type Runner struct {
	store    Store
	catalog  *catalog.Catalog
	registry Registry
	builder  *timeline.Builder
	tokens   TokenGenerator
	log      *slog.Logger
}

func NewRunner(cfg Config) *Runner {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = UUIDv7Generator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		registry: cfg.Registry,
		builder:  timeline.NewBuilder(cfg.Logger),
		tokens:   cfg.Tokens,
		log:      cfg.Logger,
	}
}

// BuildTimeline reconstructs the document's event stream from its sections
// and entities and stores it atomically.
func (r *Runner) BuildTimeline(ctx context.Context, docID string) (model.TimelineResult, error) {
	doc, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return model.TimelineResult{}, newStorageError(docID, "load document", err)
	}
	sections, err := r.store.GetSections(ctx, docID)
	if err != nil {
		return model.TimelineResult{}, newStorageError(docID, "load sections", err)
	}
	entities, err := r.store.GetEntities(ctx, docID)
	if err != nil {
		return model.TimelineResult{}, newStorageError(docID, "load entities", err)
	}

	events := r.builder.Build(doc, sections, entities)
	if err := r.store.ReplaceEvents(ctx, docID, events); err != nil {
		return model.TimelineResult{}, newStorageError(docID, "replace events", err)
	}

	withInstant := 0
	for _, ev := range events {
		if ev.Instant != nil {
			withInstant++
		}
	}
	r.log.Info("timeline rebuilt",
		"doc_id", docID,
		"events", len(events),
		"with_instant", withInstant)

	return model.TimelineResult{
		DocID:       docID,
		Events:      len(events),
		WithInstant: withInstant,
	}, nil
}

// Options pins an evaluation run to a rule package and/or a profile set.
type Options struct {
	PackageName     string
	PackageVersion  string
	ProfileOverride []string
}

// EvaluateDocument runs every applicable rule against the document's stored
// timeline and atomically replaces its violations.
//
// Cancellation is coarse-grained: the run may stop between rules but never
// mid-rule, and an aborted run leaves the prior violation set untouched.
func (r *Runner) EvaluateDocument(ctx context.Context, docID string, opts Options) (model.RunResult, error) {
	doc, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return model.RunResult{}, newStorageError(docID, "load document", err)
	}
	sections, err := r.store.GetSections(ctx, docID)
	if err != nil {
		return model.RunResult{}, newStorageError(docID, "load sections", err)
	}
	entities, err := r.store.GetEntities(ctx, docID)
	if err != nil {
		return model.RunResult{}, newStorageError(docID, "load entities", err)
	}
	events, err := r.store.GetEvents(ctx, docID)
	if err != nil {
		return model.RunResult{}, newStorageError(docID, "load events", err)
	}

	profiles := opts.ProfileOverride
	if len(profiles) == 0 {
		profiles = profile.Infer(doc, entities, events)
	}

	snap, err := r.catalog.Snapshot(ctx, profiles, opts.PackageName, opts.PackageVersion)
	if err != nil {
		return model.RunResult{}, newStorageError(docID, "load catalog", err)
	}

	token := r.tokens.Generate()
	log := r.log.With("doc_id", docID, "run_token", token)
	log.Info("evaluation started",
		"profiles", profiles,
		"package", snap.PackageName,
		"version", snap.PackageVersion,
		"rules", len(snap.Rules))

	in := Input{
		Doc:      doc,
		Sections: sections,
		Entities: entities,
		Events:   events,
		Profiles: profiles,
	}

	var (
		violations []model.Violation
		evaluated  int
		skipped    int
	)
	for _, rule := range snap.Rules {
		if err := ctx.Err(); err != nil {
			return model.RunResult{}, fmt.Errorf("run aborted after %d rules: %w", evaluated, err)
		}
		ev, ok := r.registry[rule.ID]
		if !ok {
			// Catalog is ahead of the code; count it, don't fail.
			skipped++
			log.Warn("no evaluator registered, rule skipped", "rule_id", rule.ID)
			continue
		}
		evaluated++
		violations = append(violations, dispatch(ev, rule, in)...)
	}

	if err := r.store.ReplaceViolations(ctx, docID, violations); err != nil {
		return model.RunResult{}, newStorageError(docID, "replace violations", err)
	}

	log.Info("evaluation finished",
		"rules_evaluated", evaluated,
		"rules_skipped", skipped,
		"violations", len(violations))

	return model.RunResult{
		DocID:           docID,
		RunToken:        token,
		Profiles:        profiles,
		RulesEvaluated:  evaluated,
		RulesSkipped:    skipped,
		ViolationsCount: len(violations),
	}, nil
}
