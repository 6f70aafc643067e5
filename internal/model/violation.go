package model

// Evidence is a structured fact supporting a violation: the events, deltas,
// and dates a rule based its finding on.
type Evidence map[string]any

// Violation is an auditable finding produced by one rule evaluation.
// Violations are produced fresh on every run; the sink replaces the whole
// set for a document atomically, so they carry no identity of their own.
type Violation struct {
	RuleID         RuleID     `json:"rule_id"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	Profile        string     `json:"profile,omitempty"`
	Evidence       []Evidence `json:"evidence,omitempty"`
	Sources        []Source   `json:"sources,omitempty"`
	PackageName    string     `json:"package_name,omitempty"`
	PackageVersion string     `json:"package_version,omitempty"`
}

// RunResult is the machine-readable summary returned to the orchestrator
// after evaluating one document.
type RunResult struct {
	DocID           string   `json:"doc_id"`
	RunToken        string   `json:"run_token"`
	Profiles        []string `json:"profiles"`
	RulesEvaluated  int      `json:"rules_evaluated"`
	RulesSkipped    int      `json:"rules_skipped"`
	ViolationsCount int      `json:"violations_count"`
}

// TimelineResult summarizes a timeline rebuild.
type TimelineResult struct {
	DocID       string `json:"doc_id"`
	Events      int    `json:"events"`
	WithInstant int    `json:"with_instant"`
}
