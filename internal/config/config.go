// Package config loads ctxgraph configuration: defaults, then a YAML
// file, then environment overrides, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/ctxgraph/internal/logging"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

// EnvPrefix namespaces the environment overrides, e.g.
// CTXGRAPH_PROVIDER=openai or CTXGRAPH_LOGGING_LEVEL=debug.
const EnvPrefix = "CTXGRAPH_"

// maxConfigFileSize bounds config reads.
const maxConfigFileSize = 1024 * 1024

// Config is the full tool configuration.
type Config struct {
	// Provider selects the default compile target.
	Provider string `koanf:"provider" json:"provider"`

	// ModelID is the default model identifier.
	ModelID string `koanf:"model_id" json:"model_id"`

	// ContextWindow overrides the provider default when positive.
	ContextWindow int `koanf:"context_window" json:"context_window"`

	// CompletionReserve overrides the default reserve when positive.
	CompletionReserve int `koanf:"completion_reserve" json:"completion_reserve"`

	// OverflowStrategy is error, truncate, or compact.
	OverflowStrategy string `koanf:"overflow_strategy" json:"overflow_strategy"`

	// Compaction tunes the standing compaction pipeline.
	Compaction CompactionConfig `koanf:"compaction" json:"compaction"`

	// Logging configures the zap logger.
	Logging logging.Config `koanf:"logging" json:"logging"`
}

// CompactionConfig mirrors the compactor knobs.
type CompactionConfig struct {
	MaxOutputsPerTool  int  `koanf:"max_outputs_per_tool" json:"max_outputs_per_tool"`
	MaxRawTailChars    int  `koanf:"max_raw_tail_chars" json:"max_raw_tail_chars"`
	PreserveErrorTail  bool `koanf:"preserve_error_tail" json:"preserve_error_tail"`
	KeepRecentMessages int  `koanf:"keep_recent_messages" json:"keep_recent_messages"`
	KeepErrorMessages  bool `koanf:"keep_error_messages" json:"keep_error_messages"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Provider:         string(policy.ProviderAnthropic),
		OverflowStrategy: string(policy.OverflowTruncate),
		Compaction: CompactionConfig{
			MaxOutputsPerTool:  3,
			MaxRawTailChars:    500,
			PreserveErrorTail:  true,
			KeepRecentMessages: 20,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Policy projects the configuration onto a compile policy.
func (c Config) Policy() policy.Policy {
	pol := policy.Default(policy.Provider(c.Provider))
	pol.ModelID = c.ModelID
	if c.ContextWindow > 0 {
		pol.ContextWindow = c.ContextWindow
	}
	if c.CompletionReserve > 0 {
		pol.CompletionReserve = c.CompletionReserve
	}
	if c.OverflowStrategy != "" {
		pol.Overflow = policy.OverflowStrategy(c.OverflowStrategy)
	}
	pol.Compaction.MaxToolOutputsPerKind = c.Compaction.MaxOutputsPerTool
	pol.Compaction.MaxHistoryMessages = c.Compaction.KeepRecentMessages
	return pol
}

// Validate delegates to the policy and logging checks.
func (c Config) Validate() error {
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Load assembles the configuration from defaults, optional YAML bytes,
// and environment variables, in increasing precedence.
func Load(yamlBytes []byte) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()
	if len(yamlBytes) > 0 {
		if err := k.Load(rawbytes.Provider(yamlBytes), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing yaml config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses an optional config file. An empty path or a
// missing file loads defaults plus environment.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Load(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Load(content)
}

// envTransform maps CTXGRAPH_LOGGING_LEVEL to logging.level. Flat keys
// with underscores (MODEL_ID) stay flat; the first segment becomes a
// section only when it names one.
func envTransform(key string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range []string{"compaction", "logging"} {
		prefix := section + "_"
		if strings.HasPrefix(trimmed, prefix) {
			return section + "." + strings.TrimPrefix(trimmed, prefix)
		}
	}
	return trimmed
}
