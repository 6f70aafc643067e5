package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/chartqc/internal/model"
	"github.com/roach88/chartqc/internal/temporal"
)

// ErrDocNotFound is returned by GetDocument for an unknown doc_id.
var ErrDocNotFound = errors.New("document not found")

// GetDocument returns the document record for doc_id.
func (s *Store) GetDocument(ctx context.Context, docID string) (model.Document, error) {
	var (
		doc     model.Document
		admitDT sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT doc_id, COALESCE(facility,''), COALESCE(dept,''), COALESCE(author,''), admit_dt
		FROM docs
		WHERE doc_id = ?
	`, docID).Scan(&doc.DocID, &doc.Facility, &doc.Dept, &doc.Author, &admitDT)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, fmt.Errorf("%w: %s", ErrDocNotFound, docID)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("query document %s: %w", docID, err)
	}

	if admitDT.Valid {
		if inst, ok := temporal.Parse(admitDT.String); ok && inst.Anchored() {
			doc.AdmitDT = &inst
		}
	}
	return doc, nil
}

// GetSections returns the document's sections ordered by start offset.
// Older databases name the offset column "idx" or "pos"; the reader probes
// for the first one present.
func (s *Store) GetSections(ctx context.Context, docID string) ([]model.Section, error) {
	startCol, err := s.columnOf(ctx, "sections", "start", "idx", "pos")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT section_id, kind, COALESCE(name,''), %[1]s, "end"
		FROM sections
		WHERE doc_id = ?
		ORDER BY %[1]s ASC, section_id ASC
	`, startCol), docID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.Kind, &sec.Name, &sec.Start, &sec.End); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	if sections == nil {
		sections = []model.Section{}
	}
	return sections, nil
}

// GetEntities returns the document's entities in extraction order.
func (s *Store) GetEntities(ctx context.Context, docID string) ([]model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, etype, COALESCE(ts,''), COALESCE(span_start,0), COALESCE(span_end,0),
		       COALESCE(section_id,''), value_json
		FROM entities
		WHERE doc_id = ?
		ORDER BY id ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		var (
			ent       model.Entity
			valueJSON sql.NullString
		)
		if err := rows.Scan(&ent.ID, &ent.EType, &ent.TS, &ent.Start, &ent.End, &ent.SectionID, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		ent.Value = decodeJSONMap(valueJSON)
		entities = append(entities, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	if entities == nil {
		entities = []model.Entity{}
	}
	return entities, nil
}

// GetEvents returns the document's timeline in canonical order: instants
// ascending, instant-less events last in insertion order. The timestamp
// column is "ts" in this schema and "when" in legacy ones.
func (s *Store) GetEvents(ctx context.Context, docID string) ([]model.Event, error) {
	tsCol, err := s.columnOf(ctx, "events", "ts", "when")
	if err != nil {
		return nil, err
	}
	seqCol, err := s.columnOf(ctx, "events", "seq", "id")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT kind, %[1]q, COALESCE(section_ref,''), payload, %[2]s
		FROM events
		WHERE doc_id = ?
		ORDER BY (%[1]q IS NULL OR %[1]q = '') ASC, %[1]q ASC, %[2]s ASC
	`, tsCol, seqCol), docID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			ev      model.Event
			kind    string
			ts      sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&kind, &ts, &ev.SectionRef, &payload, &ev.Seq); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		if ts.Valid && ts.String != "" {
			// Unparseable timestamps degrade to a nil instant, never an error.
			if inst, ok := temporal.Parse(ts.String); ok && inst.Anchored() {
				ev.Instant = &inst
			}
		}
		ev.Value = decodeJSONMap(payload)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// decodeJSONMap tolerates NULL, empty, and malformed payloads, returning nil
// for all of them.
func decodeJSONMap(ns sql.NullString) map[string]any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil
	}
	return m
}
