package engine

import "github.com/roach88/chartqc/internal/model"

// Registry maps rule ids to their evaluators. Built once at startup;
// never mutated during a run. Catalog rules absent from the registry are
// skipped, so the catalog can grow ahead of the code.
type Registry map[model.RuleID]Evaluator

// chestPainKeywords are the complaint wordings that trigger the urgent ECG
// rules.
var chestPainKeywords = []string{"боль в груд", "загрудин"}

// cbcNames identify a complete blood count across upstream spellings.
// "hemogram" also covers the French "hemogramme" by substring.
var cbcNames = []string{"оак", "общий анализ крови", "cbc", "hemogram"}

// DefaultRegistry binds the built-in rule catalog. Several ids share one
// evaluator family; parameters in the rule definitions tell them apart.
func DefaultRegistry() Registry {
	coverage := DailyCoverage{}
	initialExam := Deadline{
		From: model.KindAdmit, To: model.KindInitialExam,
		ParamKey: "initial_exam_max_hours", Default: 6, Unit: Hours,
	}
	triage := Deadline{
		From: model.KindAdmit, To: model.KindTriage,
		ParamKey: "triage_max_min", Default: 15, Unit: Minutes,
	}
	urgentECG := Conditional{
		Trigger: ComplaintTrigger(chestPainKeywords...),
		Inner: Deadline{
			From: model.KindAdmit, To: model.KindECG,
			ParamKey: "ecg_max_min", Default: 10, Unit: Minutes,
		},
	}
	cbc := Deadline{
		From: model.KindAdmit, To: model.KindLab,
		ParamKey: "cbc_max_hours", Default: 24, Unit: Hours,
		Filter: LabNameFilter(cbcNames...),
	}

	return Registry{
		"STA-001":    coverage,
		"PED-001":    coverage,
		"OBG-001":    coverage,
		"RHEUM-001":  coverage,
		"PUL-001":    coverage,
		"GIH-001":    coverage,
		"NEPH-001":   coverage,
		"URO-001":    coverage,
		"TRAUMA-001": coverage,
		"NEURO-001":  coverage,
		"HEM-001":    coverage,
		"ONC-001":    coverage,
		"PONC-001":   coverage,
		"STA-002":    initialExam,
		"PED-002":    initialExam,
		"OBG-002":    initialExam,
		"NEO-002":    initialExam,
		"ER-001":     triage,
		"ER-004":     urgentECG,
		"CAR-001":    urgentECG,
		"STA-006": CompletenessCount{
			EType:    "med_order",
			Attrs:    []string{"dose", "route", "freq"},
			ParamKey: "min_attrs", Default: 2,
		},
		"STA-010": SameDayDocument{Terminal: model.KindDischarge, Companion: model.KindEpicrisis},
		"INF-001": PresenceOfEvent{Kind: model.KindInfectionControl},
		"INF-010": cbc,
		"STA-020": cbc,
	}
}
