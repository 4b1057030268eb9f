package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.MaxToolCalls)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	assert.Contains(t, cfg.Engine.AllowedModules, "math")
	assert.Contains(t, cfg.Engine.AllowedBuiltins, "len")
	assert.Empty(t, cfg.Engine.Tools)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptflow.yaml")
	content := `
engine:
  max_tool_calls: 10
  timeout: 5s
  allowed_modules: [math]
  tools:
    - name: add
      parameters: [x, y]
      async: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Engine.MaxToolCalls)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, []string{"math"}, cfg.Engine.AllowedModules)
	require.Len(t, cfg.Engine.Tools, 1)
	assert.Equal(t, "add", cfg.Engine.Tools[0].Name)
	assert.Equal(t, []string{"x", "y"}, cfg.Engine.Tools[0].Parameters)
	assert.True(t, cfg.Engine.Tools[0].Async)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/does/not/exist.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.MaxToolCalls)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCRIPTFLOW_ENGINE_MAX_TOOL_CALLS", "7")
	t.Setenv("SCRIPTFLOW_ENGINE_TIMEOUT", "2s")
	t.Setenv("SCRIPTFLOW_ENGINE_ALLOWED_MODULES", "math, json")
	t.Setenv("SCRIPTFLOW_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Engine.MaxToolCalls)
	assert.Equal(t, 2*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, []string{"math", "json"}, cfg.Engine.AllowedModules)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Engine.MaxToolCalls = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Engine.Tools = []ToolConfig{{Name: "a"}, {Name: "a"}}
	assert.Error(t, cfg.Validate())
}

func TestBuildRegistry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Tools = []ToolConfig{{Name: "add", Parameters: []string{"x", "y"}, Async: true}}

	reg, err := cfg.BuildRegistry()
	require.NoError(t, err)
	assert.True(t, reg.AllowsModule("math"))
	assert.True(t, reg.AllowsBuiltin("len"))
	sig, ok := reg.Tool("add")
	require.True(t, ok)
	assert.True(t, sig.Async)

	// Tool shadowing a builtin is rejected at registry build time.
	cfg.Engine.Tools = []ToolConfig{{Name: "len"}}
	_, err = cfg.BuildRegistry()
	assert.Error(t, err)
}
