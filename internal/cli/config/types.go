// Package config loads sqllineage CLI configuration.
//
// Values are layered with koanf: built-in defaults, then sqllineage.yaml,
// then SQLLINEAGE_* environment variables, then explicitly set flags.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/leapstack-labs/sqllineage/internal/loader"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
)

// Config holds all CLI configuration options.
type Config struct {
	Dialect         string      `koanf:"dialect"`
	Glob            string      `koanf:"glob"`
	Schema          string      `koanf:"schema"`
	StatePath       string      `koanf:"state_path"`
	Output          string      `koanf:"output"`
	Verbose         bool        `koanf:"verbose"`
	MaxSteps        int         `koanf:"max_steps"`
	ReadConcurrency int         `koanf:"read_concurrency"`
	Watch           WatchConfig `koanf:"watch"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	DefaultDialect   = "ansi"
	DefaultStateFile = ".sqllineage/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultDebounce  = 200 * time.Millisecond
)

// OutputModes lists the accepted values of the output option.
var OutputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parser.LookupDialect(c.Dialect); err != nil {
		return err
	}
	if !slices.Contains(OutputModes, c.Output) {
		return fmt.Errorf("unknown output format %q (available: %v)", c.Output, OutputModes)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if c.ReadConcurrency <= 0 {
		return fmt.Errorf("read_concurrency must be positive, got %d", c.ReadConcurrency)
	}
	return nil
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Dialect:         DefaultDialect,
		Glob:            loader.DefaultGlob,
		StatePath:       DefaultStateFile,
		Output:          DefaultOutput,
		ReadConcurrency: loader.DefaultConcurrency,
		Watch:           WatchConfig{Debounce: DefaultDebounce},
	}
}

func defaults() map[string]any {
	return map[string]any{
		"dialect":          DefaultDialect,
		"glob":             loader.DefaultGlob,
		"schema":           "",
		"state_path":       DefaultStateFile,
		"output":           DefaultOutput,
		"verbose":          false,
		"max_steps":        0,
		"read_concurrency": loader.DefaultConcurrency,
		"watch.debounce":   DefaultDebounce.String(),
	}
}
