package engine

import (
	"fmt"

	"github.com/roach88/chartqc/internal/model"
)

// Input bundles the read-only context an evaluator sees for one document.
// Evaluators are pure: they inspect Input and return findings, never write.
type Input struct {
	Doc      model.Document
	Sections []model.Section
	Entities []model.Entity
	Events   []model.Event
	Profiles []string
}

// Evaluator checks one rule against a document and returns zero or more
// violations. Severity and message defaults come from the rule definition;
// parameters from rule.Params.
type Evaluator interface {
	Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(rule model.RuleDefinition, in Input) ([]model.Violation, error)

func (f EvaluatorFunc) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	return f(rule, in)
}

// dispatch invokes one evaluator, containing panics and errors. A faulting
// rule yields a single minor "rule execution error" violation carrying the
// fault text; the caller continues with the remaining rules.
func dispatch(ev Evaluator, rule model.RuleDefinition, in Input) (violations []model.Violation) {
	defer func() {
		if r := recover(); r != nil {
			violations = []model.Violation{executionError(rule, fmt.Errorf("panic: %v", r))}
		}
	}()

	violations, err := ev.Evaluate(rule, in)
	if err != nil {
		return []model.Violation{executionError(rule, err)}
	}

	// Stamp provenance; evaluators only fill what they compute.
	for i := range violations {
		violations[i].RuleID = rule.ID
		violations[i].Profile = rule.Profile
		violations[i].PackageName = rule.PackageName
		violations[i].PackageVersion = rule.PackageVersion
		if violations[i].Severity == "" {
			violations[i].Severity = rule.Severity
		}
		if violations[i].Sources == nil {
			violations[i].Sources = rule.Sources
		}
	}
	return violations
}

func executionError(rule model.RuleDefinition, err error) model.Violation {
	return model.Violation{
		RuleID:         rule.ID,
		Severity:       model.SeverityMinor,
		Message:        fmt.Sprintf("rule execution error: %v", err),
		Profile:        rule.Profile,
		Evidence:       []model.Evidence{{"error": err.Error()}},
		PackageName:    rule.PackageName,
		PackageVersion: rule.PackageVersion,
	}
}

// noData builds the "Inconclusive" violation emitted when a rule's required
// inputs are absent. Absence of evidence is itself reportable.
func noData(rule model.RuleDefinition, missing string) model.Violation {
	return model.Violation{
		Severity: rule.Severity,
		Message:  fmt.Sprintf("no data: %s not found in document", missing),
		Evidence: []model.Evidence{{"missing": missing, "inconclusive": true}},
	}
}
