package tag

import (
	"fmt"
	"runtime"

	"github.com/macropower/charon/pkg/execs"
)

// Config configures the extraction chain.
type Config struct {
	// Converter turns a binary property list on stdin into XML on stdout.
	// An empty command disables the stage.
	Converter *execs.Command `json:"converter,omitempty" jsonschema:"title=Converter"`
	// Query prints the tags of the file given as its last argument.
	// An empty command disables the stage.
	Query *execs.Command `json:"query,omitempty" jsonschema:"title=Metadata Query"`
	// Heuristic enables splitting the raw attribute on non-alphanumeric
	// characters when every other stage failed.
	Heuristic *bool `json:"heuristic,omitempty" jsonschema:"title=Heuristic Fallback"`
	// Attribute is the extended attribute holding the tags.
	Attribute string `json:"attribute,omitempty" jsonschema:"title=Attribute"`
}

// NewConfig creates a new [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills unset fields. The converter and query tools only
// exist on darwin, so they default to disabled elsewhere.
func (c *Config) EnsureDefaults() {
	if c.Attribute == "" {
		c.Attribute = DefaultAttribute
	}

	if c.Heuristic == nil {
		enabled := true
		c.Heuristic = &enabled
	}

	if runtime.GOOS != "darwin" {
		return
	}

	if c.Converter == nil {
		c.Converter = execs.NewCommand("plutil", "-convert", "xml1", "-o", "-", "-")
	}

	if c.Query == nil {
		c.Query = execs.NewCommand("mdls", "-raw", "-name", "kMDItemUserTags")
	}
}

// Validate validates the configured commands.
func (c *Config) Validate() error {
	if enabled(c.Converter) {
		err := c.Converter.Validate()
		if err != nil {
			return fmt.Errorf("converter: %w", err)
		}
	}

	if enabled(c.Query) {
		err := c.Query.Validate()
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}

	return nil
}

// Strategies returns the configured chain: plist, converter, query and
// heuristic, skipping disabled stages.
func (c *Config) Strategies() []Strategy {
	strategies := []Strategy{PlistStrategy{}}

	if enabled(c.Converter) {
		strategies = append(strategies, NewConverterStrategy(c.Converter))
	}

	if enabled(c.Query) {
		strategies = append(strategies, NewQueryStrategy(c.Query))
	}

	if c.Heuristic == nil || *c.Heuristic {
		strategies = append(strategies, HeuristicStrategy{})
	}

	return strategies
}

// ExtractorOpts returns the [Extractor] options described by c.
func (c *Config) ExtractorOpts() []ExtractorOpt {
	return []ExtractorOpt{
		WithAttribute(c.Attribute),
		WithStrategies(c.Strategies()...),
	}
}

func enabled(cmd *execs.Command) bool {
	return cmd != nil && cmd.Command != ""
}
