// Package config loads the engine configuration from defaults, an
// optional YAML file, and environment variable overrides, in that
// priority order.
package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/scriptflow/registry"
)

// Config is the complete engine configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" env:"ENGINE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// EngineConfig bounds a run and declares the capability surface.
type EngineConfig struct {
	// MaxToolCalls caps call expressions per script.
	MaxToolCalls int `yaml:"max_tool_calls" env:"MAX_TOOL_CALLS"`
	// Timeout bounds a single execution.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// AllowedModules scripts may import.
	AllowedModules []string `yaml:"allowed_modules" env:"ALLOWED_MODULES"`
	// AllowedBuiltins scripts may call.
	AllowedBuiltins []string `yaml:"allowed_builtins" env:"ALLOWED_BUILTINS"`
	// Tools declares the external tool signatures. YAML only; tool
	// lists do not map onto flat environment variables.
	Tools []ToolConfig `yaml:"tools" env:"-"`
}

// ToolConfig declares one external tool.
type ToolConfig struct {
	Name       string   `yaml:"name"`
	Parameters []string `yaml:"parameters"`
	Async      bool     `yaml:"async"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths for the log sink.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures tracing and metrics exposure.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// DefaultConfig returns the stock configuration: the standard capability
// surface with no tools, a five call budget, and a 30s deadline.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxToolCalls:    5,
			Timeout:         30 * time.Second,
			AllowedModules:  []string{"math", "json", "time"},
			AllowedBuiltins: []string{"len", "sum", "min", "max", "abs", "round", "str", "int", "float", "bool"},
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "scriptflow",
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.MaxToolCalls < 0 {
		return fmt.Errorf("engine.max_tool_calls must not be negative")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}
	seen := make(map[string]struct{}, len(c.Engine.Tools))
	for _, tool := range c.Engine.Tools {
		if tool.Name == "" {
			return fmt.Errorf("engine.tools entry with empty name")
		}
		if _, dup := seen[tool.Name]; dup {
			return fmt.Errorf("engine.tools declares %q twice", tool.Name)
		}
		seen[tool.Name] = struct{}{}
	}
	return nil
}

// BuildRegistry materializes the configured capability surface.
func (c *Config) BuildRegistry() (*registry.Registry, error) {
	tools := make([]registry.ToolSignature, len(c.Engine.Tools))
	for i, t := range c.Engine.Tools {
		tools[i] = registry.ToolSignature{
			Name:       t.Name,
			Parameters: t.Parameters,
			Async:      t.Async,
		}
	}
	return registry.New(c.Engine.AllowedModules, c.Engine.AllowedBuiltins, tools)
}

// BuildLogger constructs a zap logger from the log section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	if c.Log.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	if len(c.Log.OutputPaths) > 0 {
		zcfg.OutputPaths = c.Log.OutputPaths
	}
	return zcfg.Build()
}
