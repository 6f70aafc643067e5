package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

func TestNormalizeSectionKind(t *testing.T) {
	tests := []struct {
		kind, name string
		want       model.EventKind
		ok         bool
	}{
		{"admit", "", model.KindAdmit, true},
		{"daily_note", "Дневник", model.KindDailyNote, true},
		{"other", "Поступление в стационар", model.KindAdmit, true},
		{"other", "Приёмное отделение", model.KindTriage, true},
		{"other", "Выписной эпикриз", model.KindEpicrisis, true},
		{"other", "Выписка", model.KindDischarge, true},
		{"other", "Первичный осмотр", model.KindInitialExam, true},
		{"other", "ЭКГ", model.KindECG, true},
		{"orders", "Лист назначений", model.KindUnknown, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeSectionKind(tt.kind, tt.name)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.kind, tt.name)
		assert.Equal(t, tt.want, got, "%s/%s", tt.kind, tt.name)
	}
}

func TestBuildEntityEvents(t *testing.T) {
	b := NewBuilder(nil)
	doc := model.Document{DocID: "case-1"}
	entities := []model.Entity{
		{EType: "med_order", TS: "21.08.2025 10:15", Start: 10, End: 40, SectionID: "s1",
			Value: map[string]any{"drug": "цефтриаксон"}},
		{EType: "complaint", Start: 50, End: 70, SectionID: "s1",
			Value: map[string]any{"text": "боль в грудной клетке", "ts": "21.08.2025 09:40"}},
		{EType: "diagnosis", TS: "21.08.2025 11:00", Start: 80, End: 90, SectionID: "s1"},
	}

	events := b.Build(doc, nil, entities)

	require.Len(t, events, 2, "unmapped etypes emit nothing")
	assert.Equal(t, model.KindComplaint, events[0].Kind)
	assert.Equal(t, "2025-08-21T09:40:00", events[0].Instant.String())
	assert.Equal(t, model.KindMedOrder, events[1].Kind)
	assert.Equal(t, "цефтриаксон", events[1].Value["drug"])
}

func TestBuildInfectionControlEntities(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "isolation", TS: "21.08.2025 12:00", Start: 10, End: 30, SectionID: "s1"},
		{EType: "infection_control", TS: "22.08.2025 09:00", Start: 40, End: 60, SectionID: "s1"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 2, "both spellings map to infection control")
	assert.Equal(t, model.KindInfectionControl, events[0].Kind)
	assert.Equal(t, model.KindInfectionControl, events[1].Kind)
}

func TestBuildTextHintIsolation(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "text_hint", TS: "21.08.2025 12:00", Start: 10, End: 30, SectionID: "s1",
			Value: map[string]any{"text": "Пациент переведён в бокс №3"}},
		{EType: "note", TS: "21.08.2025 14:00", Start: 40, End: 60, SectionID: "s1",
			Value: map[string]any{"text": "Изоляция по контакту"}},
		// Hints without an isolation wording emit nothing.
		{EType: "text_hint", TS: "21.08.2025 16:00", Start: 70, End: 90, SectionID: "s1",
			Value: map[string]any{"text": "Режим палатный"}},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 2)
	assert.Equal(t, model.KindInfectionControl, events[0].Kind)
	assert.Equal(t, "2025-08-21T12:00:00", events[0].Instant.String())
	assert.Equal(t, model.KindInfectionControl, events[1].Kind)
}

func TestBuildNearestAnchorResolution(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "datetime", TS: "21.08.2025 08:00", Start: 5, End: 21, SectionID: "s1"},
		{EType: "datetime", TS: "21.08.2025 18:00", Start: 300, End: 316, SectionID: "s1"},
		// No timestamp of its own; offset 40 is nearer the 08:00 anchor.
		{EType: "vital", Start: 30, End: 50, SectionID: "s1",
			Value: map[string]any{"hr": "72"}},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 1)
	assert.Equal(t, model.KindVitals, events[0].Kind)
	require.NotNil(t, events[0].Instant)
	assert.Equal(t, "2025-08-21T08:00:00", events[0].Instant.String())
}

func TestBuildAnchorsTimeOnlyInstant(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "datetime", TS: "21.08.2025", Start: 0, End: 10, SectionID: "s1"},
		// Bare clock time gets its date from the anchored timestamp nearby.
		{EType: "ecg", TS: "10:30", Start: 20, End: 30, SectionID: "s1"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 1)
	require.NotNil(t, events[0].Instant)
	assert.Equal(t, "2025-08-21T10:30:00", events[0].Instant.String())
}

func TestBuildTimeOnlyWithoutDateStaysUnplaced(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "ecg", TS: "10:30", Start: 20, End: 30, SectionID: "s1"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 1, "signal is retained even without an instant")
	assert.Nil(t, events[0].Instant)
}

func TestBuildSectionEvents(t *testing.T) {
	b := NewBuilder(nil)
	sections := []model.Section{
		{ID: "s1", Kind: "admit", Name: "Поступление", Start: 0, End: 100},
		{ID: "s2", Kind: "daily_note", Name: "Дневник", Start: 100, End: 200},
		{ID: "s3", Kind: "orders", Name: "Лист назначений", Start: 200, End: 300},
	}
	entities := []model.Entity{
		{EType: "datetime", TS: "21.08.2025 10:15", Start: 20, End: 36, SectionID: "s1"},
		{EType: "datetime", TS: "22.08.2025 09:00", Start: 110, End: 126, SectionID: "s2"},
		// Later in the span; the first offset wins for the section instant.
		{EType: "datetime", TS: "21.08.2025 06:00", Start: 90, End: 99, SectionID: "s1"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, sections, entities)

	require.Len(t, events, 2, "orders section emits no event")
	assert.Equal(t, model.KindAdmit, events[0].Kind)
	assert.Equal(t, "2025-08-21T10:15:00", events[0].Instant.String())
	assert.Equal(t, "s1", events[0].SectionRef)
	assert.Equal(t, model.KindDailyNote, events[1].Kind)
}

func TestBuildAdmitFallsBackToDocumentAdmitDT(t *testing.T) {
	b := NewBuilder(nil)
	admit := temporal.MustParse("21.08.2025 10:15")
	doc := model.Document{DocID: "case-1", AdmitDT: &admit}
	sections := []model.Section{
		{ID: "s1", Kind: "admit", Name: "Поступление", Start: 0, End: 100},
		{ID: "s2", Kind: "ecg", Name: "ЭКГ", Start: 100, End: 200},
	}

	events := b.Build(doc, sections, nil)

	require.Len(t, events, 2)
	require.Equal(t, model.KindAdmit, events[0].Kind)
	require.NotNil(t, events[0].Instant, "admit uses the document admit_dt")
	assert.Equal(t, "2025-08-21T10:15:00", events[0].Instant.String())
	assert.Equal(t, model.KindECG, events[1].Kind)
	assert.Nil(t, events[1].Instant, "only admit falls back to admit_dt")
}

func TestBuildDailyNoteDedupEarliestWins(t *testing.T) {
	b := NewBuilder(nil)
	sections := []model.Section{
		{ID: "s1", Kind: "daily_note", Name: "Дневник", Start: 0, End: 100},
		{ID: "s2", Kind: "daily_note", Name: "Дневник", Start: 100, End: 200},
		{ID: "s3", Kind: "daily_note", Name: "Дневник", Start: 200, End: 300},
	}
	entities := []model.Entity{
		{EType: "datetime", TS: "22.08.2025 14:00", Start: 10, End: 26, SectionID: "s1"},
		{EType: "datetime", TS: "22.08.2025 09:00", Start: 110, End: 126, SectionID: "s2"},
		{EType: "datetime", TS: "23.08.2025 09:30", Start: 210, End: 226, SectionID: "s3"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, sections, entities)

	var notes []model.Event
	for _, ev := range events {
		if ev.Kind == model.KindDailyNote {
			notes = append(notes, ev)
		}
	}
	require.Len(t, notes, 2, "one note per calendar day survives")
	assert.Equal(t, "2025-08-22T09:00:00", notes[0].Instant.String(), "earliest note of the day wins")
	assert.Equal(t, "2025-08-23T09:30:00", notes[1].Instant.String())
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(nil)
	sections := []model.Section{
		{ID: "s1", Kind: "admit", Name: "Поступление", Start: 0, End: 100},
		{ID: "s2", Kind: "daily_note", Name: "Дневник", Start: 100, End: 200},
	}
	entities := []model.Entity{
		{EType: "datetime", TS: "21.08.2025 10:15", Start: 20, End: 36, SectionID: "s1"},
		{EType: "datetime", TS: "22.08.2025 09:00", Start: 110, End: 126, SectionID: "s2"},
		{EType: "med_order", Start: 40, End: 60, SectionID: "s1",
			Value: map[string]any{"drug": "аспирин"}},
		{EType: "complaint", Start: 70, End: 90, SectionID: "s1",
			Value: map[string]any{"text": "слабость"}},
	}
	doc := model.Document{DocID: "case-1"}

	first := b.Build(doc, sections, entities)
	second := b.Build(doc, sections, entities)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind, "event %d", i)
		assert.Equal(t, first[i].Seq, second[i].Seq, "event %d", i)
		if first[i].Instant == nil {
			assert.Nil(t, second[i].Instant, "event %d", i)
		} else {
			assert.Equal(t, first[i].Instant.String(), second[i].Instant.String(), "event %d", i)
		}
	}
}

func TestBuildNilInstantsSortLast(t *testing.T) {
	b := NewBuilder(nil)
	entities := []model.Entity{
		{EType: "complaint", Start: 10, End: 30, SectionID: "s1",
			Value: map[string]any{"text": "жалобы без даты"}},
		{EType: "med_order", TS: "21.08.2025 10:15", Start: 40, End: 60, SectionID: "s2"},
	}

	events := b.Build(model.Document{DocID: "case-1"}, nil, entities)

	require.Len(t, events, 2)
	assert.NotNil(t, events[0].Instant)
	assert.Nil(t, events[1].Instant)
}
