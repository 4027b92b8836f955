package harness

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError reports a scenario document that does not satisfy schema.cue.
type SchemaError struct {
	Path    string // CUE path of the offending field, if known
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Message)
}

// validateSchema checks a decoded YAML document against #Scenario.
// doc is the generic form produced by yaml.Unmarshal into any.
func validateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return &SchemaError{Message: err.Error()}
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// formatSchemaError reduces a CUE error list to its first entry.
func formatSchemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	return &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}
