package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/chartqc/internal/model"
)

// ErrNoActivePackage is returned by LoadActiveRules when no package is
// marked active and no explicit package was requested.
var ErrNoActivePackage = errors.New("no active rule package")

// ErrPackageNotFound is returned when the requested package name/version
// does not exist in the store.
var ErrPackageNotFound = errors.New("rule package not found")

// ImportPackage stores a rule package and its definitions. Re-importing the
// same name/version replaces the stored definitions; the active flag of an
// existing package is preserved.
func (s *Store) ImportPackage(ctx context.Context, pkg model.RulePackage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import package: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rule_packages (name, version, title, description, active)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(name, version) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description
	`, pkg.Name, pkg.Version, pkg.Title, pkg.Description)
	if err != nil {
		return fmt.Errorf("import package %s@%s: %w", pkg.Name, pkg.Version, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM rules WHERE package_name = ? AND package_version = ?`,
		pkg.Name, pkg.Version)
	if err != nil {
		return fmt.Errorf("import package: clear rules: %w", err)
	}

	for _, r := range pkg.Rules {
		paramsJSON, err := encodeJSONMap(r.Params)
		if err != nil {
			return fmt.Errorf("import package: encode params for %s: %w", r.ID, err)
		}
		var sourcesJSON any
		if len(r.Sources) > 0 {
			b, err := json.Marshal(r.Sources)
			if err != nil {
				return fmt.Errorf("import package: encode sources for %s: %w", r.ID, err)
			}
			sourcesJSON = string(b)
		}
		enabled := 0
		if r.Enabled {
			enabled = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rules
			(rule_id, package_name, package_version, profile, title, severity,
			 enabled, params_json, sources_json, effective_from, effective_to)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(r.ID), pkg.Name, pkg.Version, r.Profile, r.Title, string(r.Severity),
			enabled, paramsJSON, sourcesJSON,
			nullIfEmpty(r.EffectiveFrom), nullIfEmpty(r.EffectiveTo))
		if err != nil {
			return fmt.Errorf("import package: insert rule %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import package: commit: %w", err)
	}
	return nil
}

// SetActivePackage marks one package version active and clears the flag on
// every other version, in a single transaction. At most one package is
// active at any time.
func (s *Store) SetActivePackage(ctx context.Context, name, version string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("activate package: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE rule_packages SET active = 1 WHERE name = ? AND version = ?`,
		name, version)
	if err != nil {
		return fmt.Errorf("activate package %s@%s: %w", name, version, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate package: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("activate package %s@%s: %w", name, version, ErrPackageNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rule_packages SET active = 0 WHERE NOT (name = ? AND version = ?)`,
		name, version)
	if err != nil {
		return fmt.Errorf("activate package: clear others: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("activate package: commit: %w", err)
	}
	return nil
}

// ListPackages returns all stored packages, newest import first, without
// their rule definitions.
func (s *Store) ListPackages(ctx context.Context) ([]model.RulePackage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, COALESCE(title,''), COALESCE(description,''), active
		FROM rule_packages
		ORDER BY imported_at DESC, name ASC, version DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var pkgs []model.RulePackage
	for rows.Next() {
		var (
			p      model.RulePackage
			active int
		)
		if err := rows.Scan(&p.Name, &p.Version, &p.Title, &p.Description, &active); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		p.Active = active != 0
		pkgs = append(pkgs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	if pkgs == nil {
		pkgs = []model.RulePackage{}
	}
	return pkgs, nil
}

// ResolvePackage resolves a package request to a concrete name and version.
// An empty name resolves to the active package; an empty version resolves
// to the latest import of the named package. Concrete arguments pass
// through unchanged.
func (s *Store) ResolvePackage(ctx context.Context, pkgName, pkgVersion string) (string, string, error) {
	name, version := pkgName, pkgVersion
	if name == "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT name, version FROM rule_packages WHERE active = 1 LIMIT 1`,
		).Scan(&name, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrNoActivePackage
		}
		if err != nil {
			return "", "", fmt.Errorf("resolve active package: %w", err)
		}
		return name, version, nil
	}
	if version == "" {
		// Latest version of the named package by import time.
		err := s.db.QueryRowContext(ctx, `
			SELECT version FROM rule_packages WHERE name = ?
			ORDER BY imported_at DESC, version DESC LIMIT 1
		`, name).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("package %s: %w", name, ErrPackageNotFound)
		}
		if err != nil {
			return "", "", fmt.Errorf("resolve package version: %w", err)
		}
	}
	return name, version, nil
}

// LoadActiveRules returns the enabled rule definitions for the given
// profiles from the active package, or from an explicitly named
// package/version when pkgName is non-empty. Rules outside their effective
// window at now are filtered out.
func (s *Store) LoadActiveRules(ctx context.Context, profiles []string, pkgName, pkgVersion string, now time.Time) ([]model.RuleDefinition, error) {
	name, version, err := s.ResolvePackage(ctx, pkgName, pkgVersion)
	if err != nil {
		return nil, err
	}

	if len(profiles) == 0 {
		return []model.RuleDefinition{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(profiles)), ",")
	args := []any{name, version}
	for _, p := range profiles {
		args = append(args, p)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rule_id, profile, title, severity, params_json, sources_json,
		       COALESCE(effective_from,''), COALESCE(effective_to,'')
		FROM rules
		WHERE package_name = ? AND package_version = ?
		  AND enabled = 1
		  AND profile IN (%s)
		ORDER BY rule_id ASC
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var defs []model.RuleDefinition
	for rows.Next() {
		var (
			d                    model.RuleDefinition
			ruleID, severity     string
			paramsJSON, srcsJSON sql.NullString
		)
		if err := rows.Scan(&ruleID, &d.Profile, &d.Title, &severity, &paramsJSON, &srcsJSON,
			&d.EffectiveFrom, &d.EffectiveTo); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		d.ID = model.RuleID(ruleID)
		d.Severity = model.Severity(severity)
		d.Enabled = true
		d.PackageName = name
		d.PackageVersion = version
		if paramsJSON.Valid && paramsJSON.String != "" {
			_ = json.Unmarshal([]byte(paramsJSON.String), &d.Params)
		}
		if srcsJSON.Valid && srcsJSON.String != "" {
			_ = json.Unmarshal([]byte(srcsJSON.String), &d.Sources)
		}
		if !d.EffectiveAt(now) {
			continue
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	if defs == nil {
		defs = []model.RuleDefinition{}
	}
	return defs, nil
}
