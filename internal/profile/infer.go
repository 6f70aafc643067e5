// Package profile decides which rule profiles apply to a document.
// Inference is a pure function of the document, its entities, and its
// timeline; profiles are additive and never removed once added.
package profile

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

var lower = cases.Lower(language.Russian)

// Infer returns the sorted, non-empty set of profile tags for a document.
func Infer(doc model.Document, entities []model.Entity, events []model.Event) []string {
	set := map[string]bool{}

	admit := model.FirstInstant(events, model.KindAdmit)
	discharge := model.FirstInstant(events, model.KindDischarge)
	switch {
	case admit != nil && discharge != nil && temporal.SameDay(*admit, *discharge):
		set[DAY] = true
	case admit != nil:
		set[STA] = true
	}

	if model.FirstEvent(events, model.KindTriage) != nil {
		set[ER] = true
	}

	if days, ok := ageInDays(doc, entities); ok {
		if days <= 28 {
			set[NEO] = true
		} else if days < 18*365 {
			set[PED] = true
		}
	}

	dept := lower.String(doc.Dept)
	pediatricDept := hasAnyStem(dept, pediatricStems)
	for _, kw := range deptKeywords {
		if !strings.Contains(dept, kw.substr) {
			continue
		}
		set[kw.profile] = true
		if kw.profile == ONC && (pediatricDept || set[PED] || set[NEO]) {
			set[PONC] = true
		}
	}

	if len(set) == 0 {
		set[STA] = true
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ageInDays resolves the patient's age from an age entity, or from a birth
// date entity measured against the admission instant.
func ageInDays(doc model.Document, entities []model.Entity) (int, bool) {
	for _, ent := range entities {
		switch strings.ToLower(ent.EType) {
		case "age":
			if n, ok := numeric(ent.Value["days"]); ok {
				return n, true
			}
			if n, ok := numeric(ent.Value["years"]); ok {
				return n * 365, true
			}
		case "birth_date", "dob":
			if doc.AdmitDT == nil || !doc.AdmitDT.Anchored() {
				continue
			}
			born, ok := temporal.Parse(ent.TS)
			if !ok || !born.Anchored() {
				continue
			}
			days := int(doc.AdmitDT.Time().Sub(born.Time()).Hours() / 24)
			if days >= 0 {
				return days, true
			}
		}
	}
	return 0, false
}

func hasAnyStem(s string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

func numeric(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
