package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chartqc/internal/catalog"
	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/store"
	"github.com/roach88/chartqc/internal/temporal"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "chartqc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedERCase stores a short ER admission: chest pain complaint, late
// triage, late ECG.
func seedERCase(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	admit := temporal.MustParse("21.08.2025 08:00")
	require.NoError(t, s.UpsertDocument(ctx, model.Document{
		DocID: "er-1", Dept: "Приёмное отделение", AdmitDT: &admit,
	}))
	require.NoError(t, s.ReplaceSections(ctx, "er-1", []model.Section{
		{ID: "s1", Kind: "admit", Name: "Поступление", Start: 0, End: 200},
		{ID: "s2", Kind: "triage", Name: "Триаж", Start: 200, End: 400},
	}))
	require.NoError(t, s.InsertEntities(ctx, "er-1", []model.Entity{
		{EType: "datetime", TS: "21.08.2025 08:00", Start: 10, End: 26, SectionID: "s1"},
		{EType: "datetime", TS: "21.08.2025 08:20", Start: 210, End: 226, SectionID: "s2"},
		{EType: "complaint", Start: 50, End: 90, SectionID: "s1",
			Value: map[string]any{"text": "боль в грудной клетке"}},
		{EType: "ecg", TS: "21.08.2025 08:40", Start: 300, End: 320, SectionID: "s2"},
	}))
}

func erPackage() model.RulePackage {
	return model.RulePackage{
		Name:    "ru-core",
		Version: "2025.1",
		Rules: []model.RuleDefinition{
			{ID: "ER-001", Profile: "ER", Title: "Triage deadline",
				Severity: model.SeverityCritical, Enabled: true,
				Params: map[string]any{"triage_max_min": 15}},
			{ID: "ER-004", Profile: "ER", Title: "ECG on chest pain",
				Severity: model.SeverityCritical, Enabled: true,
				Params: map[string]any{"ecg_max_min": 10}},
			{ID: "ER-099", Profile: "ER", Title: "Not yet implemented",
				Severity: model.SeverityMinor, Enabled: true},
		},
	}
}

func newRunner(s *store.Store, reg Registry) *Runner {
	return NewRunner(Config{
		Store:    s,
		Catalog:  catalog.New(s),
		Registry: reg,
		Tokens:   NewFixedGenerator("run-0001", "run-0002", "run-0003"),
	})
}

func TestBuildTimeline(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	r := newRunner(s, nil)

	res, err := r.BuildTimeline(context.Background(), "er-1")
	require.NoError(t, err)

	assert.Equal(t, "er-1", res.DocID)
	assert.Equal(t, 4, res.Events, "complaint, ecg, admit section, triage section")
	assert.Equal(t, 4, res.WithInstant, "complaint is dated from the nearest anchor")

	events, err := s.GetEvents(context.Background(), "er-1")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, model.KindAdmit, events[0].Kind)
}

func TestBuildTimelineIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	r := newRunner(s, nil)
	ctx := context.Background()

	first, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)
	firstEvents, err := s.GetEvents(ctx, "er-1")
	require.NoError(t, err)

	second, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)
	secondEvents, err := s.GetEvents(ctx, "er-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Equal(t, len(firstEvents), len(secondEvents))
	for i := range firstEvents {
		assert.Equal(t, firstEvents[i].Kind, secondEvents[i].Kind, "event %d", i)
		if firstEvents[i].Instant != nil {
			assert.Equal(t, firstEvents[i].Instant.String(), secondEvents[i].Instant.String(), "event %d", i)
		}
	}
}

func TestBuildTimelineUnknownDocument(t *testing.T) {
	s := newTestStore(t)
	r := newRunner(s, nil)

	_, err := r.BuildTimeline(context.Background(), "missing")

	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, store.ErrDocNotFound)
}

func TestEvaluateDocument(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	ctx := context.Background()
	require.NoError(t, s.ImportPackage(ctx, erPackage()))
	require.NoError(t, s.SetActivePackage(ctx, "ru-core", "2025.1"))

	r := newRunner(s, nil)
	_, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)

	res, err := r.EvaluateDocument(ctx, "er-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, "er-1", res.DocID)
	assert.Equal(t, "run-0001", res.RunToken)
	assert.Contains(t, res.Profiles, "ER", "triage section implies the ER profile")
	assert.Equal(t, 2, res.RulesEvaluated)
	assert.Equal(t, 1, res.RulesSkipped, "ER-099 has no registered evaluator")
	assert.Equal(t, 2, res.ViolationsCount, "triage 20>15 and ecg 40>10")

	stored, err := s.ListViolations(ctx, "er-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, model.RuleID("ER-001"), stored[0].RuleID)
	assert.Equal(t, model.SeverityCritical, stored[0].Severity)
	assert.Equal(t, "ru-core", stored[0].PackageName)
}

func TestEvaluateDocumentIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	ctx := context.Background()
	require.NoError(t, s.ImportPackage(ctx, erPackage()))
	require.NoError(t, s.SetActivePackage(ctx, "ru-core", "2025.1"))

	r := newRunner(s, nil)
	_, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)

	first, err := r.EvaluateDocument(ctx, "er-1", Options{})
	require.NoError(t, err)
	second, err := r.EvaluateDocument(ctx, "er-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, first.ViolationsCount, second.ViolationsCount)
	stored, err := s.ListViolations(ctx, "er-1")
	require.NoError(t, err)
	assert.Len(t, stored, first.ViolationsCount, "re-runs replace, never accumulate")
}

func TestEvaluateDocumentProfileOverride(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	ctx := context.Background()
	require.NoError(t, s.ImportPackage(ctx, erPackage()))
	require.NoError(t, s.SetActivePackage(ctx, "ru-core", "2025.1"))

	r := newRunner(s, nil)
	_, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)

	res, err := r.EvaluateDocument(ctx, "er-1", Options{ProfileOverride: []string{"STA"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"STA"}, res.Profiles)
	assert.Zero(t, res.RulesEvaluated, "no STA rules in the package")
}

func TestEvaluateDocumentFaultIsolation(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	ctx := context.Background()
	require.NoError(t, s.ImportPackage(ctx, erPackage()))
	require.NoError(t, s.SetActivePackage(ctx, "ru-core", "2025.1"))

	// ER-001 panics; ER-004 must still produce its violation.
	reg := DefaultRegistry()
	reg["ER-001"] = EvaluatorFunc(func(model.RuleDefinition, Input) ([]model.Violation, error) {
		panic("boom")
	})

	r := newRunner(s, reg)
	_, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)

	res, err := r.EvaluateDocument(ctx, "er-1", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RulesEvaluated)

	stored, err := s.ListViolations(ctx, "er-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, model.RuleID("ER-004"), stored[0].RuleID, "healthy rule still fires")
	assert.Equal(t, model.SeverityMinor, stored[1].Severity)
	assert.Contains(t, stored[1].Message, "rule execution error")
}

func TestEvaluateDocumentCancelledContext(t *testing.T) {
	s := newTestStore(t)
	seedERCase(t, s)
	ctx := context.Background()
	require.NoError(t, s.ImportPackage(ctx, erPackage()))
	require.NoError(t, s.SetActivePackage(ctx, "ru-core", "2025.1"))

	r := newRunner(s, nil)
	_, err := r.BuildTimeline(ctx, "er-1")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.EvaluateDocument(cancelled, "er-1", Options{})

	assert.Error(t, err)
}
