package rulefile

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// LintError lists every schema violation found in a rule file
type LintError struct {
	Violations []string
}

func (e *LintError) Error() string {
	return fmt.Sprintf("rule file failed lint: %s", strings.Join(e.Violations, "; "))
}

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		loader := gojsonschema.NewSchemaLoader()
		loader.Draft = gojsonschema.Draft7
		compiledSchema, schemaErr = loader.Compile(gojsonschema.NewStringLoader(schemaSource))
		if schemaErr != nil {
			schemaErr = errors.Wrap(schemaErr, "failed to compile rule file schema")
		}
	})
	return compiledSchema, schemaErr
}

// Lint checks a decoded document against the rule file schema
func Lint(doc any) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	result, err := sch.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.Wrap(err, "failed to validate against schema")
	}
	if result.Valid() {
		return nil
	}

	lintErr := &LintError{}
	for _, desc := range result.Errors() {
		lintErr.Violations = append(lintErr.Violations, desc.String())
	}
	return lintErr
}
