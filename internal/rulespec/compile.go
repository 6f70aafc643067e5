// Package rulespec validates and decodes authored rule packages.
//
// Packages are written as JSON and checked against an embedded CUE schema
// before anything touches the store, so a malformed package is rejected
// with field-level diagnostics instead of half-importing.
package rulespec

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/chartqc/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError reports every schema violation found in a package file, not
// just the first.
type SchemaError struct {
	Filename string
	Problems []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: invalid rule package:\n  %s",
		e.Filename, strings.Join(e.Problems, "\n  "))
}

// Compile validates JSON package data against the embedded schema and
// decodes it. The filename is used in diagnostics only. Every rule in the
// returned package carries its package name and version.
func Compile(filename string, data []byte) (model.RulePackage, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return model.RulePackage{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#RulePackage"))
	if err := def.Err(); err != nil {
		return model.RulePackage{}, fmt.Errorf("lookup #RulePackage: %w", err)
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return model.RulePackage{}, schemaError(filename, err)
	}

	unified := def.Unify(ctx.BuildExpr(expr))
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return model.RulePackage{}, schemaError(filename, err)
	}

	var pkg model.RulePackage
	if err := unified.Decode(&pkg); err != nil {
		return model.RulePackage{}, schemaError(filename, err)
	}

	for i := range pkg.Rules {
		pkg.Rules[i].PackageName = pkg.Name
		pkg.Rules[i].PackageVersion = pkg.Version
	}
	return pkg, nil
}

// schemaError flattens a CUE error list into one SchemaError.
func schemaError(filename string, err error) *SchemaError {
	se := &SchemaError{Filename: filename}
	for _, e := range cueerrors.Errors(err) {
		se.Problems = append(se.Problems, e.Error())
	}
	if len(se.Problems) == 0 {
		se.Problems = []string{err.Error()}
	}
	return se
}
