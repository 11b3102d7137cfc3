package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, string(policy.ProviderAnthropic), cfg.Provider)
	assert.Equal(t, 3, cfg.Compaction.MaxOutputsPerTool)
	assert.Equal(t, 500, cfg.Compaction.MaxRawTailChars)
	assert.True(t, cfg.Compaction.PreserveErrorTail)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	yaml := []byte(`
provider: openai
model_id: gpt-4o
compaction:
  max_outputs_per_tool: 5
logging:
  level: debug
  format: console
`)
	cfg, err := Load(yaml)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.ModelID)
	assert.Equal(t, 5, cfg.Compaction.MaxOutputsPerTool)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, 500, cfg.Compaction.MaxRawTailChars)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("CTXGRAPH_PROVIDER", "gemini")
	t.Setenv("CTXGRAPH_LOGGING_LEVEL", "warn")

	cfg, err := Load([]byte("provider: openai\n"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	_, err := Load([]byte("provider: mystery\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
}

func TestPolicy_Projection(t *testing.T) {
	cfg, err := Load([]byte(`
provider: openai
context_window: 64000
completion_reserve: 2000
overflow_strategy: error
`))
	require.NoError(t, err)

	pol := cfg.Policy()
	assert.Equal(t, policy.ProviderOpenAI, pol.Provider)
	assert.Equal(t, 64000, pol.ContextWindow)
	assert.Equal(t, 2000, pol.CompletionReserve)
	assert.Equal(t, policy.OverflowError, pol.Overflow)
	assert.Equal(t, 62000, pol.AvailableTokens())
}
