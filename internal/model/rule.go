package model

import "time"

// RuleID identifies a rule within a package, e.g. "ER-001".
type RuleID string

// Severity grades a violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank orders severities for reporting: critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	default:
		return 3
	}
}

// Valid reports whether s is one of the three known grades.
func (s Severity) Valid() bool {
	return s == SeverityCritical || s == SeverityMajor || s == SeverityMinor
}

// Source is a normative reference a rule is derived from (order, standard,
// clinical protocol).
type Source struct {
	Title string `json:"title,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// RuleDefinition is a versioned, parametrized rule bound to a profile.
// Definitions are immutable once their package is frozen; Params carries the
// rule's thresholds and attribute lists.
type RuleDefinition struct {
	ID             RuleID         `json:"id"`
	Profile        string         `json:"profile"`
	Title          string         `json:"title"`
	Severity       Severity       `json:"severity"`
	Params         map[string]any `json:"params,omitempty"`
	Sources        []Source       `json:"sources,omitempty"`
	Enabled        bool           `json:"enabled"`
	EffectiveFrom  string         `json:"effective_from,omitempty"` // "2006-01-02"
	EffectiveTo    string         `json:"effective_to,omitempty"`
	PackageName    string         `json:"package_name"`
	PackageVersion string         `json:"package_version"`
}

// EffectiveAt reports whether the rule's [EffectiveFrom, EffectiveTo] window
// contains the given time. Absent bounds are open.
func (r RuleDefinition) EffectiveAt(now time.Time) bool {
	day := now.Format("2006-01-02")
	if r.EffectiveFrom != "" && day < r.EffectiveFrom {
		return false
	}
	if r.EffectiveTo != "" && day > r.EffectiveTo {
		return false
	}
	return true
}

// IntParam reads an integer parameter, tolerating the numeric types JSON
// decoding produces. Returns def when the key is absent or not numeric.
func (r RuleDefinition) IntParam(key string, def int) int {
	v, ok := r.Params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// StringsParam reads a string-list parameter. Returns def when absent or
// not a list of strings.
func (r RuleDefinition) StringsParam(key string, def []string) []string {
	v, ok := r.Params[key]
	if !ok {
		return def
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return def
			}
			out = append(out, s)
		}
		return out
	default:
		return def
	}
}

// RulePackage is a named, versioned set of rule definitions.
type RulePackage struct {
	Name        string           `json:"package"`
	Version     string           `json:"version"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Active      bool             `json:"active"`
	Rules       []RuleDefinition `json:"rules,omitempty"`
}
