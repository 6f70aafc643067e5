package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/chartqc/internal/model"
)

// CompletenessCount requires each entity of a class to populate at least N
// of a fixed attribute set. One violation reports the count of deficient
// instances, not each one, to keep violation volume bounded.
type CompletenessCount struct {
	EType string

	// Attrs is the default attribute set; rules can override it via the
	// "attrs" parameter. The minimum count comes from ParamKey.
	Attrs    []string
	ParamKey string
	Default  int
}

func (c CompletenessCount) Evaluate(rule model.RuleDefinition, in Input) ([]model.Violation, error) {
	attrs := rule.StringsParam("attrs", c.Attrs)
	minAttrs := rule.IntParam(c.ParamKey, c.Default)

	total, deficient := 0, 0
	for _, ent := range in.Entities {
		if !strings.EqualFold(ent.EType, c.EType) {
			continue
		}
		total++
		populated := 0
		for _, attr := range attrs {
			if hasValue(ent.Value, attr) {
				populated++
			}
		}
		if populated < minAttrs {
			deficient++
		}
	}

	if total == 0 {
		return []model.Violation{noData(rule, c.EType+" entries")}, nil
	}
	if deficient == 0 {
		return nil, nil
	}

	return []model.Violation{{
		Severity: rule.Severity,
		Message:  fmt.Sprintf("%d of %d %s entries incomplete: fewer than %d of %s", deficient, total, c.EType, minAttrs, strings.Join(attrs, "/")),
		Evidence: []model.Evidence{{
			"etype":     c.EType,
			"total":     total,
			"deficient": deficient,
			"min_attrs": minAttrs,
			"attrs":     attrs,
		}},
	}}, nil
}

func hasValue(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}
