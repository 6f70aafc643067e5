package model

import "github.com/roach88/chartqc/internal/temporal"

// Document is the audited unit. Created once per ingested file and read-only
// to the engine; AdmitDT is the admission time recorded at ingest, when known.
type Document struct {
	DocID    string            `json:"doc_id"`
	Facility string            `json:"facility,omitempty"`
	Dept     string            `json:"dept,omitempty"`
	Author   string            `json:"author,omitempty"`
	AdmitDT  *temporal.Instant `json:"admit_dt,omitempty"`
}

// Section is a contiguous text span [Start, End) produced by the
// segmentation stage, tagged with a kind ("admit", "triage", "daily_note",
// "ecg", "epicrisis", ...).
type Section struct {
	ID    string `json:"section_id"`
	Kind  string `json:"kind"`
	Name  string `json:"name,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Entity is a typed extraction at a span. Value is the extractor's free-form
// payload; multiple entities may describe the same real-world fact and the
// engine deduplicates downstream.
type Entity struct {
	ID        int64          `json:"id"`
	EType     string         `json:"etype"`
	TS        string         `json:"ts,omitempty"` // raw timestamp as extracted, may be empty
	Start     int            `json:"start"`
	End       int            `json:"end"`
	SectionID string         `json:"section_id,omitempty"`
	Value     map[string]any `json:"value,omitempty"`
}
