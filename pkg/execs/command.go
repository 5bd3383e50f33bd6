package execs

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrCommandExecution is returned when command execution fails.
	ErrCommandExecution = errors.New("run")

	// ErrEmptyCommand is returned when a command is empty.
	ErrEmptyCommand = errors.New("empty command")

	// Variables inherited from the caller's environment.
	essentialVars = []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "TMPDIR"}
)

// Result represents the result of a command execution.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// EnvVar represents an environment variable definition.
type EnvVar struct {
	// Name is the environment variable name.
	Name string `json:"name" jsonschema:"title=Name"`
	// Value is the environment variable value.
	Value string `json:"value,omitempty" jsonschema:"title=Value"`
}

// Command describes an external tool invocation.
type Command struct {
	baseEnv map[string]string

	// Command is the executable to run.
	Command string `json:"command" jsonschema:"title=Command,pattern=^\\S*$"`
	// Timeout bounds a single invocation, e.g. "5s". Defaults to 10s.
	Timeout string `json:"timeout,omitempty" jsonschema:"title=Timeout"`
	// Args contains the command line arguments.
	Args []string `json:"args,omitempty" jsonschema:"title=Arguments" yaml:"args,flow,omitempty"`
	// Env contains additional environment variables.
	Env []EnvVar `json:"env,omitempty" jsonschema:"title=Environment Variables"`
}

// NewCommand creates a new [Command] for the given executable and arguments.
// The base environment is taken from [os.Environ].
func NewCommand(command string, args ...string) *Command {
	c := &Command{
		Command: command,
		Args:    args,
	}
	c.SetBaseEnv(os.Environ())

	return c
}

// SetBaseEnv replaces the environment the command inherits from. Only a
// small set of essential variables is passed through.
func (c *Command) SetBaseEnv(baseEnv []string) {
	c.baseEnv = make(map[string]string)
	for _, envVar := range baseEnv {
		key, value, ok := strings.Cut(envVar, "=")
		if ok {
			c.baseEnv[key] = value
		}
	}
}

// GetEnv constructs environment variables for command execution.
func (c *Command) GetEnv() []string {
	envMap := make(map[string]string)

	if c.baseEnv == nil {
		// Decoded commands have no base environment. c is shared between
		// workers and must not be mutated.
		for _, envVar := range os.Environ() {
			key, value, ok := strings.Cut(envVar, "=")
			if ok && slices.Contains(essentialVars, key) {
				envMap[key] = value
			}
		}
	}

	for key, value := range c.baseEnv {
		if slices.Contains(essentialVars, key) {
			envMap[key] = value
		}
	}

	for _, envVar := range c.Env {
		if envVar.Name == "" {
			continue
		}

		envMap[envVar.Name] = envVar.Value
	}

	env := make([]string, 0, len(envMap))
	for key, value := range envMap {
		env = append(env, key+"="+value)
	}

	slices.Sort(env)

	return env
}

// GetTimeout returns the parsed timeout, or the default when unset or invalid.
func (c *Command) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return defaultTimeout
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}

	return d
}

// Validate checks that the command can be executed.
func (c *Command) Validate() error {
	if c.Command == "" {
		return ErrEmptyCommand
	}

	if c.Timeout != "" {
		_, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", c.Timeout, err)
		}
	}

	return nil
}

func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}

	return fmt.Sprintf("%s %s", c.Command, strings.Join(c.Args, " "))
}
