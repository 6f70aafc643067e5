package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chartqc/internal/model"
)

// Scenario defines one conformance case: a document with its extraction
// output, and the rule package it is evaluated against.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunToken is the fixed evaluation token, keeping golden files stable.
	// Defaults to "run-test-0001".
	RunToken string `yaml:"run_token,omitempty"`

	// Document is the case header.
	Document DocumentSpec `yaml:"document"`

	// Sections lists the segmented spans of the document text.
	Sections []SectionSpec `yaml:"sections,omitempty"`

	// Entities lists the extraction output to seed.
	Entities []EntitySpec `yaml:"entities,omitempty"`

	// Package is the rule package imported and activated for the run.
	Package PackageSpec `yaml:"package"`

	// Profiles optionally overrides profile inference.
	Profiles []string `yaml:"profiles,omitempty"`
}

// DocumentSpec seeds the documents table.
type DocumentSpec struct {
	DocID    string `yaml:"doc_id"`
	Facility string `yaml:"facility,omitempty"`
	Dept     string `yaml:"dept,omitempty"`
	Author   string `yaml:"author,omitempty"`
	AdmitDT  string `yaml:"admit_dt,omitempty"`
}

// SectionSpec seeds one segmented span.
type SectionSpec struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name,omitempty"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// EntitySpec seeds one extracted entity.
type EntitySpec struct {
	EType   string         `yaml:"etype"`
	TS      string         `yaml:"ts,omitempty"`
	Start   int            `yaml:"start"`
	End     int            `yaml:"end"`
	Section string         `yaml:"section,omitempty"`
	Value   map[string]any `yaml:"value,omitempty"`
}

// PackageSpec declares the rule package for the run.
type PackageSpec struct {
	Name    string     `yaml:"name"`
	Version string     `yaml:"version"`
	Title   string     `yaml:"title,omitempty"`
	Rules   []RuleSpec `yaml:"rules"`
}

// RuleSpec declares one rule definition. Enabled defaults to true.
type RuleSpec struct {
	ID            string         `yaml:"id"`
	Profile       string         `yaml:"profile"`
	Title         string         `yaml:"title"`
	Severity      string         `yaml:"severity"`
	Params        map[string]any `yaml:"params,omitempty"`
	Enabled       *bool          `yaml:"enabled,omitempty"`
	EffectiveFrom string         `yaml:"effective_from,omitempty"`
	EffectiveTo   string         `yaml:"effective_to,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently dropping a fixture.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if scenario.RunToken == "" {
		scenario.RunToken = "run-test-0001"
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document.DocID == "" {
		return fmt.Errorf("document.doc_id is required")
	}
	if s.Package.Name == "" || s.Package.Version == "" {
		return fmt.Errorf("package name and version are required")
	}
	if len(s.Package.Rules) == 0 {
		return fmt.Errorf("package.rules must be non-empty")
	}

	sectionIDs := make(map[string]bool, len(s.Sections))
	for i, sec := range s.Sections {
		if sec.ID == "" {
			return fmt.Errorf("sections[%d]: id is required", i)
		}
		if sectionIDs[sec.ID] {
			return fmt.Errorf("sections[%d]: duplicate id %q", i, sec.ID)
		}
		sectionIDs[sec.ID] = true
		if sec.End < sec.Start {
			return fmt.Errorf("sections[%d]: end precedes start", i)
		}
	}

	for i, ent := range s.Entities {
		if ent.EType == "" {
			return fmt.Errorf("entities[%d]: etype is required", i)
		}
		if ent.Section != "" && !sectionIDs[ent.Section] {
			return fmt.Errorf("entities[%d]: unknown section %q", i, ent.Section)
		}
	}

	for i, rule := range s.Package.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rules[%d]: id is required", i)
		}
		if rule.Profile == "" {
			return fmt.Errorf("rules[%d]: profile is required", i)
		}
		if !model.Severity(rule.Severity).Valid() {
			return fmt.Errorf("rules[%d]: invalid severity %q", i, rule.Severity)
		}
	}
	return nil
}
