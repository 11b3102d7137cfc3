package fork

import (
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

// Options configures fork creation. The zero value redacts everything
// above public and drops history and state blocks.
type Options struct {
	// MaxSensitivity is the ceiling; blocks above it become redacted
	// stubs. Empty defaults to public.
	MaxSensitivity block.Sensitivity

	// IncludeHistory keeps history blocks in the fork.
	IncludeHistory bool

	// IncludeState keeps state blocks in the fork.
	IncludeState bool

	// Placeholder overrides the stub placeholder text.
	Placeholder string
}

func (o Options) maxSensitivity() block.Sensitivity {
	if o.MaxSensitivity == "" {
		return block.SensitivityPublic
	}
	return o.MaxSensitivity
}

// CreateFork derives a sensitivity-filtered view from parent. Blocks above
// the ceiling are replaced in place by redacted-stub successors keeping the
// original kind and position; history and state blocks are dropped unless
// included. The parent is never mutated.
func CreateFork(parent *graph.View, opts Options, registry *codec.Registry) (*graph.View, error) {
	max := opts.maxSensitivity()
	if !max.Valid() {
		return nil, fmt.Errorf("%w: unknown sensitivity %q", codec.ErrValidation, max)
	}

	filtered := make([]block.Block, 0, len(parent.Blocks))
	for _, b := range parent.Blocks {
		if !opts.IncludeHistory && b.Meta.Kind == block.KindHistory {
			continue
		}
		if !opts.IncludeState && b.Meta.Kind == block.KindState {
			continue
		}
		if !b.Meta.Sensitivity.Exceeds(max) {
			filtered = append(filtered, b)
			continue
		}
		stub, err := redactionStub(b, max, opts.Placeholder, registry)
		if err != nil {
			return nil, err
		}
		filtered = append(filtered, stub)
	}
	return graph.NewView(filtered, nil, parent.Truncated), nil
}

// redactionStub builds the public stand-in for an over-sensitive block.
func redactionStub(original block.Block, max block.Sensitivity, placeholder string, registry *codec.Registry) (block.Block, error) {
	payload := map[string]any{
		"originalBlockHash": original.BlockHash,
		"reason": fmt.Sprintf("Sensitivity level '%s' exceeds maximum '%s'",
			original.Meta.Sensitivity, max),
	}
	if placeholder != "" {
		payload["placeholder"] = placeholder
	}
	return registry.NewBlock(block.Meta{
		Kind:        original.Meta.Kind,
		Sensitivity: block.SensitivityPublic,
		CodecID:     codec.IDRedactedStub,
		CreatedAt:   original.Meta.CreatedAt,
		Source:      original.Meta.Source,
		Tags:        []string{"redacted"},
	}, payload)
}
