package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPath is the directory watched when none is configured.
const DefaultPath = "~/Desktop"

// DefaultIgnore holds patterns for partial downloads and Finder metadata.
var DefaultIgnore = []string{".DS_Store", "*.crdownload", "*.part", "*.download"}

var ErrInvalidConfig = errors.New("invalid watch config")

// Config configures a [Watcher].
type Config struct {
	// Path is the directory to watch. A leading "~" is expanded.
	Path string `json:"path,omitempty" jsonschema:"title=Path"`
	// Latency is the coalescing window for change notifications, e.g. "1s".
	Latency string `json:"latency,omitempty" jsonschema:"title=Latency"`
	// Ignore lists doublestar patterns matched against file base names.
	Ignore []string `json:"ignore,omitempty" jsonschema:"title=Ignore Patterns"`
	// Buffer is the number of pending events kept before new ones are dropped.
	Buffer int `json:"buffer,omitempty" jsonschema:"title=Buffer Size,minimum=1"`
}

// NewConfig creates a new [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills unset fields.
func (c *Config) EnsureDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}

	if c.Latency == "" {
		c.Latency = DefaultLatency.String()
	}

	if c.Ignore == nil {
		c.Ignore = append([]string(nil), DefaultIgnore...)
	}

	if c.Buffer == 0 {
		c.Buffer = DefaultBufferSize
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Latency != "" {
		d, err := time.ParseDuration(c.Latency)
		if err != nil {
			return fmt.Errorf("%w: latency: %w", ErrInvalidConfig, err)
		}

		if d < 0 {
			return fmt.Errorf("%w: latency must not be negative", ErrInvalidConfig)
		}
	}

	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: ignore pattern %q: %w", ErrInvalidConfig, p, doublestar.ErrBadPattern)
		}
	}

	if c.Buffer < 0 {
		return fmt.Errorf("%w: buffer must be positive", ErrInvalidConfig)
	}

	return nil
}

// GetLatency returns the parsed latency, or [DefaultLatency].
func (c *Config) GetLatency() time.Duration {
	d, err := time.ParseDuration(c.Latency)
	if err != nil || d < 0 {
		return DefaultLatency
	}

	return d
}

// Options returns the [Watcher] options described by c.
func (c *Config) Options(logger *slog.Logger) []Opt {
	return []Opt{
		WithLatency(c.GetLatency()),
		WithIgnore(c.Ignore...),
		WithBufferSize(c.Buffer),
		WithLogger(logger),
	}
}
