package estimate

import (
	"context"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Confidence grades an estimate. The ordering exact > high > low matters:
// aggregates take the worst grade of their inputs.
type Confidence string

const (
	ConfidenceExact Confidence = "exact"
	ConfidenceHigh  Confidence = "high"
	ConfidenceLow   Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceExact: 2,
	ConfidenceHigh:  1,
	ConfidenceLow:   0,
}

// Worst returns the lower of the two confidence grades.
func (c Confidence) Worst(other Confidence) Confidence {
	if confidenceRank[other] < confidenceRank[c] {
		return other
	}
	return c
}

// Estimate is a token count with a confidence grade.
type Estimate struct {
	Tokens     int        `json:"tokens"`
	Confidence Confidence `json:"confidence"`
}

// Estimator produces token estimates for blocks. Implementations may call
// provider APIs or load BPE tables; both methods honor ctx cancellation.
type Estimator interface {
	// Estimate returns the aggregate token estimate for blocks. The
	// confidence is the worst of the per-block confidences.
	Estimate(ctx context.Context, blocks []block.Block) (Estimate, error)

	// EstimateBlock returns the token estimate for a single block.
	EstimateBlock(ctx context.Context, b block.Block) (Estimate, error)
}

// Sum aggregates per-block estimates: tokens add, confidence degrades to
// the worst input. An empty input sums to zero tokens at exact confidence.
func Sum(estimates ...Estimate) Estimate {
	total := Estimate{Confidence: ConfidenceExact}
	for _, e := range estimates {
		total.Tokens += e.Tokens
		total.Confidence = total.Confidence.Worst(e.Confidence)
	}
	return total
}
