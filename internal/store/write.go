package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/chartqc/internal/model"
)

// UpsertDocument inserts or updates a document record.
// Metadata corrections overwrite prior values; doc_id is immutable.
func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	var admitDT any
	if doc.AdmitDT != nil {
		admitDT = doc.AdmitDT.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (doc_id, facility, dept, author, admit_dt)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			facility = excluded.facility,
			dept     = excluded.dept,
			author   = excluded.author,
			admit_dt = excluded.admit_dt
	`, doc.DocID, doc.Facility, doc.Dept, doc.Author, admitDT)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.DocID, err)
	}
	return nil
}

// ReplaceSections replaces the document's sections in one transaction.
// Called by the segmentation stage; the engine only reads sections.
func (s *Store) ReplaceSections(ctx context.Context, docID string, sections []model.Section) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace sections: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("replace sections: clear: %w", err)
	}
	for _, sec := range sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sections (doc_id, section_id, kind, name, start, "end")
			VALUES (?, ?, ?, ?, ?, ?)
		`, docID, sec.ID, sec.Kind, sec.Name, sec.Start, sec.End)
		if err != nil {
			return fmt.Errorf("replace sections: insert %s: %w", sec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace sections: commit: %w", err)
	}
	return nil
}

// InsertEntities appends extraction output for a document.
func (s *Store) InsertEntities(ctx context.Context, docID string, entities []model.Entity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert entities: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ent := range entities {
		valueJSON, err := encodeJSONMap(ent.Value)
		if err != nil {
			return fmt.Errorf("insert entities: encode value for %s: %w", ent.EType, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entities (doc_id, etype, ts, span_start, span_end, section_id, value_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, docID, ent.EType, nullIfEmpty(ent.TS), ent.Start, ent.End, nullIfEmpty(ent.SectionID), valueJSON)
		if err != nil {
			return fmt.Errorf("insert entities: insert %s: %w", ent.EType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert entities: commit: %w", err)
	}
	return nil
}

// ReplaceEvents atomically replaces the document's timeline.
// Full delete + reinsert in one transaction: readers never observe a mix of
// old and new events, and rebuilding from unchanged input stores an
// identical sequence.
func (s *Store) ReplaceEvents(ctx context.Context, docID string, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace events: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("replace events: clear: %w", err)
	}
	for _, ev := range events {
		var ts any
		if ev.Instant != nil {
			ts = ev.Instant.String()
		}
		payload, err := encodeJSONMap(ev.Value)
		if err != nil {
			return fmt.Errorf("replace events: encode payload for %s: %w", ev.Kind, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (doc_id, kind, ts, section_ref, payload, seq)
			VALUES (?, ?, ?, ?, ?, ?)
		`, docID, string(ev.Kind), ts, nullIfEmpty(ev.SectionRef), payload, ev.Seq)
		if err != nil {
			return fmt.Errorf("replace events: insert %s: %w", ev.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace events: commit: %w", err)
	}
	return nil
}

// ReplaceViolations atomically replaces all violations for a document.
// No partial write is observable: the delete and every insert share one
// transaction, so a rule run either fully lands or leaves the prior set.
func (s *Store) ReplaceViolations(ctx context.Context, docID string, violations []model.Violation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace violations: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM violations WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("replace violations: clear: %w", err)
	}
	for _, v := range violations {
		evidenceJSON, err := json.Marshal(v.Evidence)
		if err != nil {
			return fmt.Errorf("replace violations: encode evidence for %s: %w", v.RuleID, err)
		}
		sourcesJSON, err := json.Marshal(v.Sources)
		if err != nil {
			return fmt.Errorf("replace violations: encode sources for %s: %w", v.RuleID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO violations
			(doc_id, rule_id, severity, message, profile, evidence_json, sources_json, package_name, package_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, docID, string(v.RuleID), string(v.Severity), v.Message, nullIfEmpty(v.Profile),
			string(evidenceJSON), string(sourcesJSON), nullIfEmpty(v.PackageName), nullIfEmpty(v.PackageVersion))
		if err != nil {
			return fmt.Errorf("replace violations: insert %s: %w", v.RuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace violations: commit: %w", err)
	}
	return nil
}

// ListViolations returns the stored violations for a document, most severe
// first, then by rule id for a stable report order.
func (s *Store) ListViolations(ctx context.Context, docID string) ([]model.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, severity, message, COALESCE(profile,''),
		       evidence_json, sources_json,
		       COALESCE(package_name,''), COALESCE(package_version,'')
		FROM violations
		WHERE doc_id = ?
		ORDER BY CASE severity
			WHEN 'critical' THEN 0
			WHEN 'major' THEN 1
			WHEN 'minor' THEN 2
			ELSE 3 END ASC,
			rule_id ASC, id ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var (
			v                      model.Violation
			ruleID, severity       string
			evidenceJSON, srcsJSON []byte
		)
		if err := rows.Scan(&ruleID, &severity, &v.Message, &v.Profile, &evidenceJSON, &srcsJSON,
			&v.PackageName, &v.PackageVersion); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		v.RuleID = model.RuleID(ruleID)
		v.Severity = model.Severity(severity)
		if len(evidenceJSON) > 0 {
			_ = json.Unmarshal(evidenceJSON, &v.Evidence)
		}
		if len(srcsJSON) > 0 {
			_ = json.Unmarshal(srcsJSON, &v.Sources)
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}

	if violations == nil {
		violations = []model.Violation{}
	}
	return violations, nil
}

func encodeJSONMap(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
