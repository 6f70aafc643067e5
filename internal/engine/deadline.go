package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

// Deadline checks that event To occurs within a bounded interval of event
// From. The bound comes from rule.Params[ParamKey] (in Unit), falling back
// to Default. Missing or undatable endpoints emit one "no data" violation
// at the rule's configured severity.
type Deadline struct {
	From model.EventKind
	To   model.EventKind

	ParamKey string
	Default  int
	Unit     DeadlineUnit

	// Filter narrows candidate To events, e.g. labs by test name.
	// Nil accepts every event of the To kind.
	Filter func(model.Event) bool
}

// DeadlineUnit is the unit of a deadline threshold parameter.
type DeadlineUnit int

const (
	Minutes DeadlineUnit = 1
	Hours   DeadlineUnit = 60
)

func (u DeadlineUnit) label() string {
	if u == Hours {
		return "h"
	}
	return "min"
}

func (d Deadline) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	from := model.FirstInstant(in.Events, d.From)
	if from == nil {
		return []model.Violation{noData(rule, string(d.From)+" time")}, nil
	}
	to := d.firstMatch(in.Events)
	if to == nil {
		return []model.Violation{noData(rule, string(d.To)+" time")}, nil
	}

	delta, ok := temporal.MinutesBetween(from, to)
	if !ok {
		return []model.Violation{noData(rule, string(d.To)+" time")}, nil
	}
	limit := rule.IntParam(d.ParamKey, d.Default) * int(d.Unit)
	if delta <= limit {
		return nil, nil
	}

	return []model.Violation{{
		Severity: rule.Severity,
		Message: fmt.Sprintf("%s %d min after %s exceeds limit of %d %s",
			d.To, delta, d.From, rule.IntParam(d.ParamKey, d.Default), d.Unit.label()),
		Evidence: []model.Evidence{{
			"from":        string(d.From),
			"from_ts":     from.String(),
			"to":          string(d.To),
			"to_ts":       to.String(),
			"delta_min":   delta,
			"limit_min":   limit,
			"param":       d.ParamKey,
			"param_value": rule.IntParam(d.ParamKey, d.Default),
		}},
	}}, nil
}

// firstMatch returns the instant of the earliest To event passing the
// filter. Events arrive in timeline order, so the first dated match wins.
func (d Deadline) firstMatch(events []model.Event) *temporal.Instant {
	for _, ev := range events {
		if ev.Kind != d.To || ev.Instant == nil {
			continue
		}
		if d.Filter != nil && !d.Filter(ev) {
			continue
		}
		return ev.Instant
	}
	return nil
}

// LabNameFilter matches lab events whose test name or payload text contains
// any of the given lowercased substrings.
func LabNameFilter(names ...string) func(model.Event) bool {
	return func(ev model.Event) bool {
		text := strings.ToLower(payloadText(ev.Value, "name", "test", "text"))
		for _, n := range names {
			if strings.Contains(text, strings.ToLower(n)) {
				return true
			}
		}
		return false
	}
}

// Conditional gates an inner evaluator on a trigger. When the trigger is
// absent the rule simply does not apply: no violation, no "no data".
type Conditional struct {
	Trigger func(Input) bool
	Inner   Evaluator
}

func (c Conditional) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	if !c.Trigger(in) {
		return nil, nil
	}
	return c.Inner.Evaluate(rule, in)
}

// ComplaintTrigger fires when any complaint event or entity mentions one of
// the keyword substrings, e.g. chest pain wordings.
func ComplaintTrigger(keywords ...string) func(Input) bool {
	return func(in Input) bool {
		for _, ev := range in.Events {
			if ev.Kind == model.KindComplaint && containsAny(payloadText(ev.Value, "text", "value"), keywords) {
				return true
			}
		}
		for _, ent := range in.Entities {
			if (ent.EType == "complaint" || ent.EType == "symptom") &&
				containsAny(payloadText(ent.Value, "text", "value"), keywords) {
				return true
			}
		}
		return false
	}
}

func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func payloadText(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
