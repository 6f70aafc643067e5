package engine

import (
	"fmt"

	"github.com/roach88/chartqc/internal/model"
)

// PresenceOfEvent requires at least one event of a kind anywhere in the
// timeline, dated or not. Used for documentation that must simply exist,
// e.g. an infection-control record on an infectious-disease ward.
type PresenceOfEvent struct {
	Kind model.EventKind
}

func (p PresenceOfEvent) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	if model.FirstEvent(in.Events, p.Kind) != nil {
		return nil, nil
	}
	return []model.Violation{{
		Severity: rule.Severity,
		Message:  fmt.Sprintf("no %s record found in document", p.Kind),
		Evidence: []model.Evidence{{"kind": string(p.Kind)}},
	}}, nil
}
