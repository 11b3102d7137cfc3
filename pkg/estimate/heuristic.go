package estimate

import (
	"context"
	"math"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

const (
	// heuristicCharsPerToken approximates English-plus-JSON text.
	heuristicCharsPerToken = 4.0

	// heuristicSafetyMultiplier pads the estimate so budget checks err on
	// the side of fitting.
	heuristicSafetyMultiplier = 1.2
)

// HeuristicEstimator estimates tokens from canonical payload length at
// chars/4 with a 1.2x safety multiplier. Estimates of blocks report low
// confidence; an empty block list sums to zero tokens at exact confidence.
// Both methods return the context's error once ctx is done.
type HeuristicEstimator struct{}

// NewHeuristicEstimator returns the char-count estimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// EstimateBlock implements Estimator.
func (e *HeuristicEstimator) EstimateBlock(ctx context.Context, b block.Block) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	return Estimate{Tokens: heuristicTokens(b), Confidence: ConfidenceLow}, nil
}

// Estimate implements Estimator.
func (e *HeuristicEstimator) Estimate(ctx context.Context, blocks []block.Block) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	total := 0
	for _, b := range blocks {
		total += heuristicTokens(b)
	}
	confidence := ConfidenceLow
	if len(blocks) == 0 {
		confidence = ConfidenceExact
	}
	return Estimate{Tokens: total, Confidence: confidence}, nil
}

// heuristicTokens measures the canonical JSON length of the payload. A
// payload that cannot be marshaled counts as zero tokens; hashing would
// have rejected it long before estimation.
func heuristicTokens(b block.Block) int {
	data, err := block.MarshalCanonical(b.Payload)
	if err != nil {
		return 0
	}
	raw := float64(len(data)) / heuristicCharsPerToken * heuristicSafetyMultiplier
	return int(math.Ceil(raw))
}
