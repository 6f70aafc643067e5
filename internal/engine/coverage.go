package engine

import (
	"fmt"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

// DailyCoverage requires a daily note on every calendar day of the
// admit..discharge span, endpoints inclusive. One violation lists every
// uncovered date.
type DailyCoverage struct{}

func (DailyCoverage) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	admit := model.FirstInstant(in.Events, model.KindAdmit)
	if admit == nil {
		return []model.Violation{noData(rule, "admit time")}, nil
	}
	discharge := model.FirstInstant(in.Events, model.KindDischarge)
	if discharge == nil {
		return []model.Violation{noData(rule, "discharge time")}, nil
	}

	span := temporal.DatesBetween(admit, discharge)
	if len(span) <= 1 {
		// Same-day stays need no daily note.
		return nil, nil
	}

	covered := map[string]bool{}
	for _, ev := range in.Events {
		if ev.Kind == model.KindDailyNote && ev.Instant != nil {
			covered[ev.Instant.Date()] = true
		}
	}

	var missing []string
	for _, day := range span {
		if !covered[day] {
			missing = append(missing, day)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	return []model.Violation{{
		Severity: rule.Severity,
		Message:  fmt.Sprintf("no daily note on %d of %d inpatient days", len(missing), len(span)),
		Evidence: []model.Evidence{{
			"missing_dates": missing,
			"span_days":     len(span),
			"admit_ts":      admit.String(),
			"discharge_ts":  discharge.String(),
		}},
	}}, nil
}
