package compile

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

// AnthropicSystemBlock is one entry of the separate system sequence.
type AnthropicSystemBlock struct {
	Type         string              `json:"type"`
	Text         string              `json:"text"`
	CacheControl *codec.CacheControl `json:"cache_control,omitempty"`
}

// AnthropicMessage is one conversation message.
type AnthropicMessage struct {
	Role    string                   `json:"role"`
	Content []codec.AnthropicContent `json:"content"`
}

// AnthropicContext is the compiled Anthropic prompt.
type AnthropicContext struct {
	Provider        policy.Provider        `json:"provider"`
	ModelID         string                 `json:"modelId"`
	System          []AnthropicSystemBlock `json:"system,omitempty"`
	Messages        []AnthropicMessage     `json:"messages"`
	EstimatedTokens int                    `json:"estimatedTokens"`
	Blocks          []block.Block          `json:"blocks"`
	ExcludedBlocks  []block.Block          `json:"excludedBlocks"`
	Diagnostics     []Diagnostic           `json:"diagnostics,omitempty"`
	Meta            Meta                   `json:"meta"`
}

// CacheSelector picks the Anthropic system entry that gets the ephemeral
// cache marker. Empty fields are unconstrained; all set fields must match.
// Only pinned blocks are considered.
type CacheSelector struct {
	Kind    block.Kind `json:"kind,omitempty"`
	CodecID string     `json:"codecId,omitempty"`
	Tag     string     `json:"tag,omitempty"`
	Source  string     `json:"source,omitempty"`
}

func (s CacheSelector) matches(b block.Block) bool {
	if s.Kind != "" && b.Meta.Kind != s.Kind {
		return false
	}
	if s.CodecID != "" && b.Meta.CodecID != s.CodecID {
		return false
	}
	if s.Tag != "" && !b.Meta.HasTag(s.Tag) {
		return false
	}
	if s.Source != "" && b.Meta.Source != s.Source {
		return false
	}
	return true
}

// manyCacheMatches is the threshold above which a selector is probably
// broader than intended.
const manyCacheMatches = 10

// Anthropic compiles the view for the Anthropic messages API: system
// entries in a separate sequence, one message per rendered content block,
// no implicit re-ordering.
func Anthropic(ctx context.Context, view *graph.View, registry *codec.Registry, pol policy.Policy, opts Options) (*AnthropicContext, error) {
	meta, estimated, err := compileBudget(ctx, view, pol, opts)
	if err != nil {
		return nil, err
	}

	out := &AnthropicContext{
		Provider:        policy.ProviderAnthropic,
		ModelID:         pol.ModelID,
		EstimatedTokens: estimated,
		Blocks:          view.Blocks,
		ExcludedBlocks:  []block.Block{},
		Meta:            meta,
	}

	// systemSources tracks which block produced each system entry, for
	// cache-breakpoint resolution.
	var systemSources []block.Block

	for _, b := range view.Blocks {
		rendered, err := registry.Render(b)
		if err != nil {
			return nil, fmt.Errorf("rendering block %s: %w", b.BlockHash, err)
		}
		if len(rendered.Anthropic) == 0 {
			out.ExcludedBlocks = append(out.ExcludedBlocks, b)
			continue
		}
		for _, content := range rendered.Anthropic {
			if content.System {
				out.System = append(out.System, AnthropicSystemBlock{
					Type: content.Type,
					Text: content.Text,
				})
				systemSources = append(systemSources, b)
				continue
			}
			out.Messages = append(out.Messages, AnthropicMessage{
				Role:    content.Role,
				Content: []codec.AnthropicContent{content},
			})
		}
	}

	if opts.CacheBreakpoint != nil {
		out.Diagnostics = append(out.Diagnostics,
			resolveCacheBreakpoint(out.System, systemSources, *opts.CacheBreakpoint)...)
	}
	return out, nil
}

// resolveCacheBreakpoint attaches cache_control to the last matching
// system entry. Zero matches emit a warning and no marker; compilation
// still succeeds.
func resolveCacheBreakpoint(system []AnthropicSystemBlock, sources []block.Block, selector CacheSelector) []Diagnostic {
	matchCount := 0
	last := -1
	for i, src := range sources {
		if src.Meta.Kind != block.KindPinned {
			continue
		}
		if selector.matches(src) {
			matchCount++
			last = i
		}
	}

	if last < 0 {
		return []Diagnostic{{
			Severity: SeverityWarning,
			Message:  "cache breakpoint selector matched no system block",
			Position: -1,
		}}
	}

	system[last].CacheControl = &codec.CacheControl{Type: "ephemeral"}
	diags := []Diagnostic{{
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("cache breakpoint resolved to system block %d (%d matches)", last, matchCount),
		Position: last,
	}}
	if matchCount > manyCacheMatches {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("cache breakpoint selector matched %d blocks; narrow the selector", matchCount),
			Position: last,
		})
	}
	return diags
}
