// Package policy holds the caller-facing configuration for context
// compilation: provider, model, token budgets, overflow handling, and the
// declarative knobs for compaction, sensitivity, and attachments.
package policy

import (
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Provider enumerates the supported LLM providers.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}

// OverflowStrategy selects what happens when selected blocks exceed the
// available token budget.
type OverflowStrategy string

const (
	// OverflowError fails compilation.
	OverflowError OverflowStrategy = "error"
	// OverflowTruncate drops trailing blocks to fit.
	OverflowTruncate OverflowStrategy = "truncate"
	// OverflowCompact truncates and signals that a compaction pass is
	// expected before the next compile.
	OverflowCompact OverflowStrategy = "compact"
)

// Valid reports whether s is a known strategy.
func (s OverflowStrategy) Valid() bool {
	switch s {
	case OverflowError, OverflowTruncate, OverflowCompact:
		return true
	}
	return false
}

// KindPriority is advisory budget guidance for one block kind, consumed by
// higher-level schedulers. The view itself enforces only the single
// aggregate budget.
type KindPriority struct {
	Kind        block.Kind `json:"kind"`
	MinTokens   int        `json:"minTokens"`
	MaxTokens   int        `json:"maxTokens"`
	Truncatable bool       `json:"truncatable"`
}

// CompactionPolicy configures the standing compaction behavior.
type CompactionPolicy struct {
	PruneToolOutputs      bool  `json:"pruneToolOutputs"`
	MaxToolOutputAge      int64 `json:"maxToolOutputAge,omitempty"`
	MaxToolOutputsPerKind int   `json:"maxToolOutputsPerKind,omitempty"`
	SummarizeHistory      bool  `json:"summarizeHistory"`
	MaxHistoryMessages    int   `json:"maxHistoryMessages,omitempty"`
}

// SensitivityPolicy configures fork redaction.
type SensitivityPolicy struct {
	MaxSensitivity   block.Sensitivity `json:"maxSensitivity"`
	RedactRestricted bool              `json:"redactRestricted"`
}

// AttachmentRank orders attachment selection criteria.
type AttachmentRank string

const (
	RankByPurpose     AttachmentRank = "purpose"
	RankByUserMention AttachmentRank = "user_mention"
	RankByRecency     AttachmentRank = "recency"
)

// AttachmentPolicy bounds attachment expansion.
type AttachmentPolicy struct {
	MaxTokensTotal  int              `json:"maxTokensTotal"`
	RankBy          []AttachmentRank `json:"rankBy,omitempty"`
	PurposePriority map[string]int   `json:"purposePriority,omitempty"`
}

// Policy is the full caller-facing configuration.
type Policy struct {
	Provider          Provider          `json:"provider"`
	ModelID           string            `json:"modelId"`
	ContextWindow     int               `json:"contextWindow"`
	CompletionReserve int               `json:"completionReserve"`
	Overflow          OverflowStrategy  `json:"overflowStrategy"`
	KindPriorities    []KindPriority    `json:"kindPriorities,omitempty"`
	Compaction        CompactionPolicy  `json:"compaction"`
	Sensitivity       SensitivityPolicy `json:"sensitivity"`
	Attachments       AttachmentPolicy  `json:"attachments"`
}

// Default context windows per provider.
const (
	DefaultAnthropicWindow = 200_000
	DefaultOpenAIWindow    = 128_000
	DefaultGeminiWindow    = 1_000_000

	// DefaultCompletionReserve keeps room for the model's answer.
	DefaultCompletionReserve = 4_096
)

// Default returns the baseline policy for a provider.
func Default(p Provider) Policy {
	window := DefaultAnthropicWindow
	switch p {
	case ProviderOpenAI:
		window = DefaultOpenAIWindow
	case ProviderGemini:
		window = DefaultGeminiWindow
	}
	return Policy{
		Provider:          p,
		ContextWindow:     window,
		CompletionReserve: DefaultCompletionReserve,
		Overflow:          OverflowTruncate,
		Compaction: CompactionPolicy{
			PruneToolOutputs:      true,
			MaxToolOutputsPerKind: 3,
			SummarizeHistory:      false,
			MaxHistoryMessages:    20,
		},
		Sensitivity: SensitivityPolicy{
			MaxSensitivity:   block.SensitivityRestricted,
			RedactRestricted: false,
		},
	}
}

// AvailableTokens is the budget left for context after the completion
// reserve.
func (p Policy) AvailableTokens() int {
	available := p.ContextWindow - p.CompletionReserve
	if available < 0 {
		return 0
	}
	return available
}

// Validate checks the policy for internal consistency.
func (p Policy) Validate() error {
	if !p.Provider.Valid() {
		return fmt.Errorf("%w: provider %q", ErrInvalidPolicy, p.Provider)
	}
	if p.ContextWindow <= 0 {
		return fmt.Errorf("%w: context window must be positive", ErrInvalidPolicy)
	}
	if p.CompletionReserve < 0 {
		return fmt.Errorf("%w: completion reserve must not be negative", ErrInvalidPolicy)
	}
	if p.CompletionReserve >= p.ContextWindow {
		return fmt.Errorf("%w: completion reserve %d consumes the whole window %d",
			ErrInvalidPolicy, p.CompletionReserve, p.ContextWindow)
	}
	if !p.Overflow.Valid() {
		return fmt.Errorf("%w: overflow strategy %q", ErrInvalidPolicy, p.Overflow)
	}
	if !p.Sensitivity.MaxSensitivity.Valid() {
		return fmt.Errorf("%w: sensitivity %q", ErrInvalidPolicy, p.Sensitivity.MaxSensitivity)
	}
	for _, kp := range p.KindPriorities {
		if !kp.Kind.Valid() {
			return fmt.Errorf("%w: kind priority for unknown kind %q", ErrInvalidPolicy, kp.Kind)
		}
		if kp.MaxTokens > 0 && kp.MinTokens > kp.MaxTokens {
			return fmt.Errorf("%w: kind %s min tokens %d exceeds max %d",
				ErrInvalidPolicy, kp.Kind, kp.MinTokens, kp.MaxTokens)
		}
	}
	return nil
}
