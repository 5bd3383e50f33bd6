package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator reflects a JSON schema from a Go value.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	value    any
	packages []string
}

// NewSchemaGenerator creates a [SchemaGenerator] for v. Go doc comments from
// the given packages are used as schema descriptions.
func NewSchemaGenerator(v any, packages ...string) *SchemaGenerator {
	return &SchemaGenerator{
		value:    v,
		packages: packages,
	}
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	for _, pkg := range g.packages {
		err := r.AddGoComments(pkg, "./")
		if err != nil {
			return nil, fmt.Errorf("add go comments for %q: %w", pkg, err)
		}
	}

	s := r.Reflect(g.value)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return data, nil
}
