package model

import (
	"sort"

	"github.com/roach88/chartqc/internal/temporal"
)

// EventKind is the closed vocabulary of canonical timeline event kinds.
type EventKind string

const (
	KindAdmit            EventKind = "admit"
	KindDischarge        EventKind = "discharge"
	KindTriage           EventKind = "triage"
	KindInitialExam      EventKind = "initial_exam"
	KindDailyNote        EventKind = "daily_note"
	KindECG              EventKind = "ecg"
	KindLab              EventKind = "lab"
	KindMedOrder         EventKind = "med_order"
	KindComplaint        EventKind = "complaint"
	KindEpicrisis        EventKind = "epicrisis"
	KindInfectionControl EventKind = "infection_control"
	KindVitals           EventKind = "vitals"
	KindUnknown          EventKind = "unknown"
)

// Event is the canonical timeline unit. Instant is nil when no timestamp
// could be resolved anywhere for the underlying signal; such events are
// retained (downstream rules decide whether that is itself a violation) but
// cannot satisfy instant-based rules.
//
// Seq is the insertion order assigned by the timeline builder. When an event
// carries an instant, it is always anchored to a calendar date.
type Event struct {
	Kind       EventKind         `json:"kind"`
	Instant    *temporal.Instant `json:"instant,omitempty"`
	SectionRef string            `json:"section_ref,omitempty"`
	Value      map[string]any    `json:"value,omitempty"`
	Seq        int               `json:"seq"`
}

// SortEvents orders events in place by (instant is nil, instant, Seq).
// Nil instants sort last and keep their relative insertion order. The sort
// is deterministic: re-sorting an already-sorted slice is a no-op.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.Instant == nil && b.Instant == nil:
			return a.Seq < b.Seq
		case a.Instant == nil:
			return false
		case b.Instant == nil:
			return true
		case a.Instant.Time().Equal(b.Instant.Time()):
			return a.Seq < b.Seq
		default:
			return a.Instant.Before(*b.Instant)
		}
	})
}

// FirstEvent returns the earliest event of the given kind from an ordered
// timeline, or nil if none exists.
func FirstEvent(events []Event, kind EventKind) *Event {
	for i := range events {
		if events[i].Kind == kind {
			return &events[i]
		}
	}
	return nil
}

// FirstInstant returns the instant of the earliest event of the given kind
// that has one, or nil.
func FirstInstant(events []Event, kind EventKind) *temporal.Instant {
	for i := range events {
		if events[i].Kind == kind && events[i].Instant != nil {
			return events[i].Instant
		}
	}
	return nil
}
