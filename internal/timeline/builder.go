package timeline

import (
	"log/slog"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

// payload keys probed, in order, for an entity's own timestamp.
var payloadTSKeys = []string{"ts", "datetime", "date", "when", "time"}

// Builder reconstructs a document's canonical event stream from sections
// and entities. Build is pure: it never touches storage.
type Builder struct {
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// anchor is a timestamp observed in the text, used to date entities and
// sections that carry no timestamp of their own.
type anchor struct {
	instant   temporal.Instant
	sectionID string
	offset    int
}

// Build merges entity-derived and section-derived signals into one ordered
// event sequence. Signals without any resolvable instant are kept as
// nil-instant events rather than dropped.
func (b *Builder) Build(doc model.Document, sections []model.Section, entities []model.Entity) []model.Event {
	anchors := collectAnchors(entities)

	// Section events first: on equal instants the section signal (admit,
	// triage) should precede entities extracted from the same span.
	var events []model.Event
	for _, sec := range sections {
		kind, ok := NormalizeSectionKind(sec.Kind, sec.Name)
		if !ok || !sectionEventKinds[kind] {
			continue
		}
		inst := b.firstInstantIn(sec, anchors)
		if inst == nil && kind == model.KindAdmit && doc.AdmitDT != nil && doc.AdmitDT.Anchored() {
			admit := *doc.AdmitDT
			inst = &admit
		}
		events = append(events, model.Event{
			Kind:       kind,
			Instant:    inst,
			SectionRef: sec.ID,
			Value:      map[string]any{"section_kind": sec.Kind, "section_name": sec.Name},
		})
	}

	for _, ent := range entities {
		kind, ok := NormalizeEntityKind(ent.EType)
		if !ok {
			kind, ok = NormalizeHintKind(ent.EType, ent.Value)
		}
		if !ok {
			continue
		}
		inst := b.resolveEntityInstant(ent, anchors)
		events = append(events, model.Event{
			Kind:       kind,
			Instant:    inst,
			SectionRef: ent.SectionID,
			Value:      ent.Value,
		})
	}

	events = dedupDailyNotes(events)
	for i := range events {
		events[i].Seq = i
	}
	model.SortEvents(events)

	b.log.Debug("timeline built",
		"doc_id", doc.DocID,
		"events", len(events),
		"anchors", len(anchors))
	return events
}

// collectAnchors gathers every datetime entity as a positioned timestamp.
func collectAnchors(entities []model.Entity) []anchor {
	var anchors []anchor
	for _, ent := range entities {
		if k := ent.EType; k != "datetime" && k != "date" && k != "time" {
			continue
		}
		raw := ent.TS
		if raw == "" {
			raw = payloadString(ent.Value, "text", "value", "ts")
		}
		inst, ok := temporal.Parse(raw)
		if !ok {
			continue
		}
		anchors = append(anchors, anchor{
			instant:   inst,
			sectionID: ent.SectionID,
			offset:    ent.Start,
		})
	}
	return anchors
}

// resolveEntityInstant finds the best instant for an entity: its own ts
// field, then a payload timestamp, then the nearest in-section anchor by
// offset distance. Time-only instants are dated from the nearest anchored
// in-section timestamp; if none exists the instant stays unresolved.
func (b *Builder) resolveEntityInstant(ent model.Entity, anchors []anchor) *temporal.Instant {
	var inst *temporal.Instant
	if parsed, ok := temporal.Parse(ent.TS); ok {
		inst = &parsed
	}
	if inst == nil {
		if parsed, ok := temporal.Parse(payloadString(ent.Value, payloadTSKeys...)); ok {
			inst = &parsed
		}
	}
	if inst == nil {
		if a := nearestAnchor(anchors, ent.SectionID, entityMid(ent), false); a != nil {
			v := a.instant
			inst = &v
		}
	}
	if inst == nil {
		return nil
	}
	if inst.Anchored() {
		return inst
	}
	if a := nearestAnchor(anchors, ent.SectionID, entityMid(ent), true); a != nil {
		anchored := inst.Anchor(a.instant.Time())
		return &anchored
	}
	// A bare clock time with no date in reach cannot be placed on the
	// timeline.
	return nil
}

// firstInstantIn returns the earliest-offset anchor inside the section's
// span, dated from a nearby anchored timestamp when time-only.
func (b *Builder) firstInstantIn(sec model.Section, anchors []anchor) *temporal.Instant {
	var first *anchor
	for i := range anchors {
		a := &anchors[i]
		in := a.sectionID == sec.ID ||
			(a.sectionID == "" && a.offset >= sec.Start && a.offset < sec.End)
		if !in {
			continue
		}
		if first == nil || a.offset < first.offset {
			first = a
		}
	}
	if first == nil {
		return nil
	}
	inst := first.instant
	if !inst.Anchored() {
		dated := nearestAnchor(anchors, first.sectionID, first.offset, true)
		if dated == nil {
			return nil
		}
		inst = inst.Anchor(dated.instant.Time())
	}
	return &inst
}

// nearestAnchor returns the anchor closest by offset, preferring the same
// section. With datedOnly set, time-only anchors are ignored.
func nearestAnchor(anchors []anchor, sectionID string, offset int, datedOnly bool) *anchor {
	var best *anchor
	bestDist := -1
	for i := range anchors {
		a := &anchors[i]
		if datedOnly && !a.instant.Anchored() {
			continue
		}
		if sectionID != "" && a.sectionID != "" && a.sectionID != sectionID {
			continue
		}
		dist := a.offset - offset
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = a
			bestDist = dist
		}
	}
	return best
}

// dedupDailyNotes keeps at most one daily note per calendar day, earliest
// instant first, earlier emission on ties. Undated notes pass through.
func dedupDailyNotes(events []model.Event) []model.Event {
	seen := map[string]int{} // date -> index into out
	out := events[:0]
	for _, ev := range events {
		if ev.Kind != model.KindDailyNote || ev.Instant == nil || !ev.Instant.Anchored() {
			out = append(out, ev)
			continue
		}
		day := ev.Instant.Date()
		if i, ok := seen[day]; ok {
			if ev.Instant.Before(*out[i].Instant) {
				out[i] = ev
			}
			continue
		}
		seen[day] = len(out)
		out = append(out, ev)
	}
	return out
}

func entityMid(ent model.Entity) int {
	return (ent.Start + ent.End) / 2
}

func payloadString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
