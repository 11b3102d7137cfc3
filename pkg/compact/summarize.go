package compact

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// summarizeHistory condenses all but the most recent history blocks into a
// single summarizer-produced successor. The summarizer receives the older
// prefix and a token target of 30% of the prefix estimate.
func (c *Compactor) summarizeHistory(ctx context.Context, blocks []block.Block, cfg Config) (stepOutcome, error) {
	if c.summarizer == nil {
		return stepOutcome{
			blocks:      blocks,
			description: "no summarizer configured, step skipped",
		}, nil
	}

	history := make([]block.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Meta.Kind == block.KindHistory {
			history = append(history, b)
		}
	}
	if len(history) < cfg.MinMessages || len(history) <= retainRecentHistory {
		return stepOutcome{
			blocks:      blocks,
			description: "history below summarization threshold",
		}, nil
	}

	sortByCreatedAt(history)
	prefix := history[:len(history)-retainRecentHistory]

	prefixEstimate, err := c.estimator.Estimate(ctx, prefix)
	if err != nil {
		return stepOutcome{}, err
	}
	target := int(math.Ceil(float64(prefixEstimate.Tokens) * summaryTargetRatio))

	summary, err := c.summarizer.Summarize(ctx, prefix, target)
	if err != nil {
		return stepOutcome{}, err
	}
	if summary.Meta.Kind != block.KindHistory {
		return stepOutcome{}, fmt.Errorf("%w: kind %s, want %s",
			ErrSummarizerOutput, summary.Meta.Kind, block.KindHistory)
	}

	// Re-stamp provenance and recompute the hash regardless of what the
	// summarizer set; the law is the compactor's to enforce.
	parents := make([]string, len(prefix))
	prefixHashes := make(map[string]struct{}, len(prefix))
	for i, b := range prefix {
		parents[i] = b.BlockHash
		prefixHashes[b.BlockHash] = struct{}{}
	}
	summary, err = c.successor(summary, summary.Payload, StepSummarizeHistory)
	if err != nil {
		return stepOutcome{}, err
	}
	summary.Meta.Tags = appendTag(summary.Meta.Tags, "method:summarize")
	summary.Meta.Tags = appendTag(summary.Meta.Tags, "summarizer-version:1")

	outcome := stepOutcome{
		derivations: map[string][]string{summary.BlockHash: parents},
		lossy:       true,
	}
	inserted := false
	for _, b := range blocks {
		if _, inPrefix := prefixHashes[b.BlockHash]; !inPrefix {
			outcome.blocks = append(outcome.blocks, b)
			continue
		}
		outcome.removed = append(outcome.removed, b)
		if !inserted {
			outcome.blocks = append(outcome.blocks, summary)
			inserted = true
		}
	}
	outcome.replaced = 1
	outcome.description = fmt.Sprintf("summarized %d history blocks into one (%d token target)",
		len(prefix), target)
	return outcome, nil
}

func sortByCreatedAt(blocks []block.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Meta.CreatedAt < blocks[j].Meta.CreatedAt
	})
}
