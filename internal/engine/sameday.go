package engine

import (
	"fmt"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

// SameDayDocument requires a companion document dated the same calendar day
// as a terminal event, e.g. a discharge summary on the discharge date.
type SameDayDocument struct {
	Terminal  model.EventKind
	Companion model.EventKind
}

func (s SameDayDocument) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	terminal := model.FirstInstant(in.Events, s.Terminal)
	if terminal == nil {
		return []model.Violation{noData(rule, string(s.Terminal)+" time")}, nil
	}

	companion := model.FirstEvent(in.Events, s.Companion)
	if companion == nil {
		return []model.Violation{{
			Severity: rule.Severity,
			Message:  fmt.Sprintf("no %s found for %s on %s", s.Companion, s.Terminal, terminal.Date()),
			Evidence: []model.Evidence{{
				"terminal":    string(s.Terminal),
				"terminal_ts": terminal.String(),
				"companion":   string(s.Companion),
			}},
		}}, nil
	}
	if companion.Instant == nil {
		return []model.Violation{noData(rule, string(s.Companion)+" time")}, nil
	}
	if temporal.SameDay(*terminal, *companion.Instant) {
		return nil, nil
	}

	return []model.Violation{{
		Severity: rule.Severity,
		Message: fmt.Sprintf("%s dated %s, %s dated %s: dates must match",
			s.Companion, companion.Instant.Date(), s.Terminal, terminal.Date()),
		Evidence: []model.Evidence{{
			"terminal":     string(s.Terminal),
			"terminal_ts":  terminal.String(),
			"companion":    string(s.Companion),
			"companion_ts": companion.Instant.String(),
		}},
	}}, nil
}
