package graph

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
)

// View is an immutable, deterministically ordered snapshot of selected
// blocks. Two views are equivalent iff their StablePrefixHash match.
type View struct {
	Blocks           []block.Block      `json:"blocks"`
	TokenEstimate    *estimate.Estimate `json:"tokenEstimate,omitempty"`
	Truncated        bool               `json:"truncated"`
	StablePrefixHash string             `json:"stablePrefixHash"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Equal reports view equivalence: two views are equivalent iff their
// stable prefix hashes match.
func (v *View) Equal(other *View) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.StablePrefixHash == other.StablePrefixHash
}

// ViewOptions configures CreateView.
type ViewOptions struct {
	// Query filters the graph; the zero query selects everything.
	Query Query

	// MaxTokens is the token budget. Nil means unbudgeted; a budget
	// requires an Estimator.
	MaxTokens *int

	// Estimator supplies token estimates. Optional without a budget.
	Estimator estimate.Estimator

	// ErrorOnOverflow returns an OverflowError instead of truncating when
	// the selected blocks exceed MaxTokens.
	ErrorOnOverflow bool
}

// PrefixHash computes the stable prefix hash: SHA-256 over the '|'-joined
// ordered block hashes. The empty sequence hashes the empty string.
func PrefixHash(blocks []block.Block) string {
	hashes := make([]string, len(blocks))
	for i, b := range blocks {
		hashes[i] = b.BlockHash
	}
	return block.HashString(strings.Join(hashes, "|"))
}

// NewView freezes blocks into a view without re-sorting; callers that need
// the canonical order sort first (CreateView does). The fork uses this to
// preserve parent positions when substituting redaction stubs.
func NewView(blocks []block.Block, est *estimate.Estimate, truncated bool) *View {
	frozen := make([]block.Block, len(blocks))
	copy(frozen, blocks)
	return &View{
		Blocks:           frozen,
		TokenEstimate:    est,
		Truncated:        truncated,
		StablePrefixHash: PrefixHash(frozen),
		CreatedAt:        time.Now().UTC(),
	}
}

// sortCanonical orders blocks by (kind order, block hash). The hash
// tiebreak makes the order independent of insertion order.
func sortCanonical(blocks []block.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		oi, oj := block.Order(blocks[i].Meta.Kind), block.Order(blocks[j].Meta.Kind)
		if oi != oj {
			return oi < oj
		}
		return blocks[i].BlockHash < blocks[j].BlockHash
	})
}

// CreateView selects, sorts, budgets, and freezes a snapshot of the graph.
//
// With an estimator and a budget, blocks are admitted in canonical order
// until the next block would exceed the budget; the view is then marked
// truncated and the aggregate confidence is the worst of the included
// blocks. With an estimator and no budget the whole selection is estimated
// once. Budgeting without an estimator is an error.
func (g *Graph) CreateView(ctx context.Context, opts ViewOptions) (*View, error) {
	if opts.MaxTokens != nil && opts.Estimator == nil {
		return nil, ErrEstimatorRequired
	}

	selected := g.Select(opts.Query)
	sortCanonical(selected)

	var (
		est       *estimate.Estimate
		truncated bool
	)
	switch {
	case opts.MaxTokens != nil:
		included, aggregate, overflowed, err := applyBudget(ctx, opts.Estimator, selected, *opts.MaxTokens)
		if err != nil {
			return nil, err
		}
		if overflowed && opts.ErrorOnOverflow {
			total, err := opts.Estimator.Estimate(ctx, selected)
			if err != nil {
				return nil, err
			}
			return nil, &OverflowError{Budget: *opts.MaxTokens, Required: total.Tokens}
		}
		selected = included
		truncated = overflowed
		est = &aggregate
	case opts.Estimator != nil:
		aggregate, err := opts.Estimator.Estimate(ctx, selected)
		if err != nil {
			return nil, err
		}
		est = &aggregate
	}

	view := NewView(selected, est, truncated)
	g.metrics.recordViewCreated(ctx, len(view.Blocks), truncated)
	return view, nil
}

// applyBudget admits blocks in order until the budget would be exceeded.
func applyBudget(ctx context.Context, estimator estimate.Estimator, blocks []block.Block, budget int) ([]block.Block, estimate.Estimate, bool, error) {
	included := make([]block.Block, 0, len(blocks))
	aggregate := estimate.Estimate{Confidence: estimate.ConfidenceExact}
	for _, b := range blocks {
		blockEst, err := estimator.EstimateBlock(ctx, b)
		if err != nil {
			return nil, estimate.Estimate{}, false, err
		}
		if aggregate.Tokens+blockEst.Tokens > budget {
			return included, aggregate, true, nil
		}
		included = append(included, b)
		aggregate = estimate.Sum(aggregate, blockEst)
	}
	return included, aggregate, false, nil
}

// MergeViews concatenates views, deduplicates by block hash keeping the
// first occurrence, re-sorts canonically, and re-hashes. Token estimates
// are not carried over; re-estimate if needed.
func MergeViews(views ...*View) *View {
	seen := make(map[string]struct{})
	var merged []block.Block
	truncated := false
	for _, v := range views {
		if v == nil {
			continue
		}
		truncated = truncated || v.Truncated
		for _, b := range v.Blocks {
			if _, dup := seen[b.BlockHash]; dup {
				continue
			}
			seen[b.BlockHash] = struct{}{}
			merged = append(merged, b)
		}
	}
	sortCanonical(merged)
	return NewView(merged, nil, truncated)
}
