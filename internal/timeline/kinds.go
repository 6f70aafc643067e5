package timeline

import (
	"strings"

	"github.com/roach88/chartqc/internal/model"
)

// entityKinds maps extraction etypes onto the canonical event vocabulary.
// Etypes absent from this table produce no event.
var entityKinds = map[string]model.EventKind{
	"discharge_summary": model.KindEpicrisis,
	"epicrisis":         model.KindEpicrisis,
	"discharge":         model.KindDischarge,
	"med_order":         model.KindMedOrder,
	"complaint":         model.KindComplaint,
	"symptom":           model.KindComplaint,
	"isolation":         model.KindInfectionControl,
	"infection_control": model.KindInfectionControl,
	"exam_initial":      model.KindInitialExam,
	"initial_exam":      model.KindInitialExam,
	"lab":               model.KindLab,
	"lab_result":        model.KindLab,
	"vital":             model.KindVitals,
	"vitals":            model.KindVitals,
	"ecg":               model.KindECG,
}

// sectionTags maps exact segmentation kind tags onto event kinds.
var sectionTags = map[string]model.EventKind{
	"admit":             model.KindAdmit,
	"admission":         model.KindAdmit,
	"triage":            model.KindTriage,
	"initial_exam":      model.KindInitialExam,
	"exam_initial":      model.KindInitialExam,
	"daily_note":        model.KindDailyNote,
	"daily":             model.KindDailyNote,
	"ecg":               model.KindECG,
	"epicrisis":         model.KindEpicrisis,
	"discharge_summary": model.KindEpicrisis,
	"discharge":         model.KindDischarge,
}

// sectionSynonyms resolves free-form section kinds and titles. Ordered: the
// first matching substring wins, so "выписной эпикриз" lands on epicrisis
// before the discharge match can claim it.
var sectionSynonyms = []struct {
	substr string
	kind   model.EventKind
}{
	{"эпикриз", model.KindEpicrisis},
	{"выписк", model.KindDischarge},
	{"выбыт", model.KindDischarge},
	{"триаж", model.KindTriage},
	{"сортиров", model.KindTriage},
	{"приемн", model.KindTriage},
	{"приёмн", model.KindTriage},
	{"пдо", model.KindTriage},
	{"поступ", model.KindAdmit},
	{"госпитал", model.KindAdmit},
	{"первичн", model.KindInitialExam},
	{"ежеднев", model.KindDailyNote},
	{"дневник", model.KindDailyNote},
	{"экг", model.KindECG},
}

// sectionEventKinds is the subset of kinds for which a matching section
// emits its own timeline event.
var sectionEventKinds = map[model.EventKind]bool{
	model.KindAdmit:       true,
	model.KindDischarge:   true,
	model.KindTriage:      true,
	model.KindInitialExam: true,
	model.KindDailyNote:   true,
	model.KindECG:         true,
	model.KindEpicrisis:   true,
}

// NormalizeSectionKind resolves a section's kind tag and title to a
// canonical event kind. The exact tag table is consulted first, then the
// synonym table over the lowercased tag and title.
func NormalizeSectionKind(kind, name string) (model.EventKind, bool) {
	tag := strings.ToLower(strings.TrimSpace(kind))
	if k, ok := sectionTags[tag]; ok {
		return k, true
	}
	haystack := tag + " " + strings.ToLower(name)
	for _, syn := range sectionSynonyms {
		if strings.Contains(haystack, syn.substr) {
			return syn.kind, true
		}
	}
	return model.KindUnknown, false
}

// NormalizeEntityKind resolves an extraction etype to a canonical event
// kind.
func NormalizeEntityKind(etype string) (model.EventKind, bool) {
	k, ok := entityKinds[strings.ToLower(strings.TrimSpace(etype))]
	return k, ok
}

// hintEtypes are loosely typed free-text entities whose payload may still
// carry a signal worth an event of its own.
var hintEtypes = map[string]bool{
	"text_hint": true,
	"note":      true,
}

// isolationStems mark isolation measures in free text, e.g. "контактная
// изоляция" or "переведен в бокс".
var isolationStems = []string{"изоляц", "бокс"}

// NormalizeHintKind inspects a free-text entity's payload for signals that
// warrant a canonical event. Currently only isolation mentions qualify:
// extractors that never emit an isolation etype still record the measure as
// a text hint, and the infection-control presence check must see it.
func NormalizeHintKind(etype string, value map[string]any) (model.EventKind, bool) {
	if !hintEtypes[strings.ToLower(strings.TrimSpace(etype))] {
		return model.KindUnknown, false
	}
	text := strings.ToLower(payloadString(value, "text", "value"))
	for _, stem := range isolationStems {
		if strings.Contains(text, stem) {
			return model.KindInfectionControl, true
		}
	}
	return model.KindUnknown, false
}
