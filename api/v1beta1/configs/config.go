// Package configs provides the global Configuration document for charon.
package configs

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/charon/api"
	"github.com/macropower/charon/api/v1beta1"
	"github.com/macropower/charon/pkg/classify"
	"github.com/macropower/charon/pkg/tag"
	"github.com/macropower/charon/pkg/watch"
	"github.com/macropower/charon/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen -kind config -o configs.v1beta1.json

const Kind = "Configuration"

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for global configurations.
	ValidKinds = []string{Kind}

	// DefaultValidator validates global configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	ErrInvalidConfig = errors.New("invalid configuration")

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the global charon configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Watch configures the watched directory.
	Watch *watch.Config `json:"watch,omitempty" jsonschema:"title=Watch"`
	// Tags configures tag extraction.
	Tags *tag.Config `json:"tags,omitempty" jsonschema:"title=Tags"`
	// Metrics configures the Prometheus endpoint.
	Metrics *MetricsConfig `json:"metrics,omitempty" jsonschema:"title=Metrics"`
	// Tracing configures OpenTelemetry tracing.
	Tracing *TracingConfig `json:"tracing,omitempty" jsonschema:"title=Tracing"`
	// RulesPath is the rules document. Defaults to rules.yaml next to this
	// file.
	RulesPath        string `json:"rulesPath,omitempty" jsonschema:"title=Rules Path"`
	v1beta1.TypeMeta `json:",inline"`
	// Workers is the number of files classified concurrently.
	Workers int `json:"workers,omitempty" jsonschema:"title=Workers,minimum=1"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address to serve /metrics on, e.g. "127.0.0.1:9090". Empty disables
	// the endpoint.
	Address string `json:"address,omitempty" jsonschema:"title=Address"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Endpoint of an OTLP/gRPC collector, e.g. "localhost:4317". Empty
	// disables tracing.
	Endpoint string `json:"endpoint,omitempty" jsonschema:"title=Endpoint"`
}

// New creates a new global [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Watch == nil {
		c.Watch = watch.NewConfig()
	} else {
		c.Watch.EnsureDefaults()
	}

	if c.Tags == nil {
		c.Tags = tag.NewConfig()
	} else {
		c.Tags.EnsureDefaults()
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	if c.Tracing == nil {
		c.Tracing = &TracingConfig{}
	}

	if c.RulesPath == "" {
		c.RulesPath = api.GetConfigPath("rules.yaml")
	}

	if c.Workers == 0 {
		c.Workers = classify.DefaultWorkers
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Watch != nil {
		err := c.Watch.Validate()
		if err != nil {
			return fmt.Errorf("validate watch config: %w", err)
		}
	}

	if c.Tags != nil {
		err := c.Tags.Validate()
		if err != nil {
			return fmt.Errorf("validate tags config: %w", err)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}

	return nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path to the global configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
