package compile

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

// OpenAIContext is the compiled OpenAI chat-completions prompt. System
// messages stay inline in the message sequence.
type OpenAIContext struct {
	Provider        policy.Provider       `json:"provider"`
	ModelID         string                `json:"modelId"`
	Messages        []codec.OpenAIMessage `json:"messages"`
	EstimatedTokens int                   `json:"estimatedTokens"`
	Blocks          []block.Block         `json:"blocks"`
	ExcludedBlocks  []block.Block         `json:"excludedBlocks"`
	Diagnostics     []Diagnostic          `json:"diagnostics,omitempty"`
	Meta            Meta                  `json:"meta"`
}

// OpenAI compiles the view for the OpenAI chat-completions API. The block
// order is kept as-is; consecutive same-role messages are legal but
// usually a smell, so each adjacent same-role pair is flagged with a warning
// diagnostic at the later message's position.
func OpenAI(ctx context.Context, view *graph.View, registry *codec.Registry, pol policy.Policy, opts Options) (*OpenAIContext, error) {
	meta, estimated, err := compileBudget(ctx, view, pol, opts)
	if err != nil {
		return nil, err
	}

	out := &OpenAIContext{
		Provider:        policy.ProviderOpenAI,
		ModelID:         pol.ModelID,
		EstimatedTokens: estimated,
		Blocks:          view.Blocks,
		ExcludedBlocks:  []block.Block{},
		Meta:            meta,
	}

	for _, b := range view.Blocks {
		rendered, err := registry.Render(b)
		if err != nil {
			return nil, fmt.Errorf("rendering block %s: %w", b.BlockHash, err)
		}
		if len(rendered.OpenAI) == 0 {
			out.ExcludedBlocks = append(out.ExcludedBlocks, b)
			continue
		}
		out.Messages = append(out.Messages, rendered.OpenAI...)
	}

	for i := 1; i < len(out.Messages); i++ {
		if out.Messages[i].Role == out.Messages[i-1].Role {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Message: fmt.Sprintf("consecutive %s messages at positions %d and %d",
					out.Messages[i].Role, i-1, i),
				Position: i,
			})
		}
	}
	return out, nil
}
