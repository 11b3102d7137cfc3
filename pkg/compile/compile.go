package compile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

// Options tunes a compilation.
type Options struct {
	// Estimator, when set, fills TokensByKind and the estimated total for
	// views that carry no estimate of their own.
	Estimator estimate.Estimator

	// CacheBreakpoint selects the Anthropic system entry to mark with an
	// ephemeral cache control. Ignored by the other providers.
	CacheBreakpoint *CacheSelector
}

// Meta describes the compiled context's budget situation.
type Meta struct {
	CompiledAt        time.Time          `json:"compiledAt"`
	ContextWindow     int                `json:"contextWindow"`
	CompletionReserve int                `json:"completionReserve"`
	AvailableTokens   int                `json:"availableTokens"`
	Overflowed        bool               `json:"overflowed"`
	Compacted         bool               `json:"compacted"`
	Truncated         bool               `json:"truncated"`
	TokensByKind      map[block.Kind]int `json:"tokensByKind,omitempty"`
}

// compileBudget validates the policy, fixes the token accounting, and
// checks the estimate against the available tokens: under the error
// strategy an overflow fails the compilation; under the other strategies it
// is only recorded in Meta.Overflowed. It is shared by all three compilers.
func compileBudget(ctx context.Context, view *graph.View, pol policy.Policy, opts Options) (Meta, int, error) {
	if err := pol.Validate(); err != nil {
		return Meta{}, 0, err
	}

	estimated := 0
	if view.TokenEstimate != nil {
		estimated = view.TokenEstimate.Tokens
	}
	var tokensByKind map[block.Kind]int
	if opts.Estimator != nil {
		tokensByKind = make(map[block.Kind]int, len(view.Blocks))
		total := 0
		for _, b := range view.Blocks {
			est, err := opts.Estimator.EstimateBlock(ctx, b)
			if err != nil {
				return Meta{}, 0, fmt.Errorf("estimating block %s: %w", b.BlockHash, err)
			}
			tokensByKind[b.Meta.Kind] += est.Tokens
			total += est.Tokens
		}
		if view.TokenEstimate == nil {
			estimated = total
		}
	}

	available := pol.AvailableTokens()
	overflowed := estimated > available
	if overflowed && pol.Overflow == policy.OverflowError {
		return Meta{}, 0, &graph.OverflowError{Budget: available, Required: estimated}
	}

	return Meta{
		CompiledAt:        time.Now().UTC(),
		ContextWindow:     pol.ContextWindow,
		CompletionReserve: pol.CompletionReserve,
		AvailableTokens:   available,
		Overflowed:        overflowed,
		Compacted:         anyCompacted(view.Blocks),
		Truncated:         view.Truncated,
		TokensByKind:      tokensByKind,
	}, estimated, nil
}

// anyCompacted reports whether any block carries compaction provenance.
func anyCompacted(blocks []block.Block) bool {
	for _, b := range blocks {
		for _, tag := range b.Meta.Tags {
			if strings.HasPrefix(tag, "compacted:") {
				return true
			}
		}
	}
	return false
}
