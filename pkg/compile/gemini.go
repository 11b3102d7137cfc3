package compile

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

// GeminiContext is the compiled Gemini prompt: one system-instruction
// string and strictly alternating user/model contents.
type GeminiContext struct {
	Provider          policy.Provider       `json:"provider"`
	ModelID           string                `json:"modelId"`
	SystemInstruction string                `json:"systemInstruction,omitempty"`
	Contents          []codec.GeminiContent `json:"contents"`
	EstimatedTokens   int                   `json:"estimatedTokens"`
	Blocks            []block.Block         `json:"blocks"`
	ExcludedBlocks    []block.Block         `json:"excludedBlocks"`
	Diagnostics       []Diagnostic          `json:"diagnostics,omitempty"`
	Meta              Meta                  `json:"meta"`
}

// Gemini compiles the view for the Gemini API. System renderings are
// joined into the single instruction string; conversation entries are
// merged so no two consecutive contents share a role (adjacent same-role
// parts concatenate). An entry with no parts is a compilation error
// diagnostic.
func Gemini(ctx context.Context, view *graph.View, registry *codec.Registry, pol policy.Policy, opts Options) (*GeminiContext, error) {
	meta, estimated, err := compileBudget(ctx, view, pol, opts)
	if err != nil {
		return nil, err
	}

	out := &GeminiContext{
		Provider:        policy.ProviderGemini,
		ModelID:         pol.ModelID,
		EstimatedTokens: estimated,
		Blocks:          view.Blocks,
		ExcludedBlocks:  []block.Block{},
		Meta:            meta,
	}

	var systemParts []string
	var raw []codec.GeminiContent

	for _, b := range view.Blocks {
		rendered, err := registry.Render(b)
		if err != nil {
			return nil, fmt.Errorf("rendering block %s: %w", b.BlockHash, err)
		}
		if len(rendered.Gemini) == 0 {
			out.ExcludedBlocks = append(out.ExcludedBlocks, b)
			continue
		}
		for _, content := range rendered.Gemini {
			if content.System {
				systemParts = append(systemParts, content.Parts...)
				continue
			}
			raw = append(raw, content)
		}
	}

	out.SystemInstruction = strings.Join(systemParts, "\n\n")
	out.Contents, out.Diagnostics = mergeAlternating(raw)
	return out, nil
}

// mergeAlternating enforces strict role alternation: parts accumulate
// while the role is unchanged and are emitted on each role switch.
func mergeAlternating(raw []codec.GeminiContent) ([]codec.GeminiContent, []Diagnostic) {
	var merged []codec.GeminiContent
	var diags []Diagnostic

	for _, content := range raw {
		if len(content.Parts) == 0 {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Message:  fmt.Sprintf("%s content with no parts", content.Role),
				Position: len(merged),
			})
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Role == content.Role {
			merged[n-1].Parts = append(merged[n-1].Parts, content.Parts...)
			continue
		}
		merged = append(merged, codec.GeminiContent{
			Role:  content.Role,
			Parts: append([]string(nil), content.Parts...),
		})
	}
	return merged, diags
}
