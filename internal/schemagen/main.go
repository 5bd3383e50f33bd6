// Command schemagen writes the JSON schema of a charon document kind.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/macropower/charon/api/v1beta1/configs"
	"github.com/macropower/charon/api/v1beta1/rulesets"
	"github.com/macropower/charon/pkg/yaml"
)

var (
	kind    = flag.String("kind", "config", "Document kind, one of: [config, rules]")
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
)

func main() {
	flag.Parse()

	var gen *yaml.SchemaGenerator

	switch *kind {
	case "config":
		gen = yaml.NewSchemaGenerator(configs.New(),
			"github.com/macropower/charon/api/v1beta1/configs",
		)

	case "rules":
		gen = yaml.NewSchemaGenerator(rulesets.New(),
			"github.com/macropower/charon/api/v1beta1/rulesets",
		)

	default:
		log.Fatalf("unknown kind %q", *kind)
	}

	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	// Write schema file.
	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
