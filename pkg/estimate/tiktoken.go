package estimate

import (
	"context"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// TiktokenEstimator counts tokens with a local BPE table. Counts carry
// high confidence: the table matches OpenAI tokenization exactly but other
// providers only approximately. When the encoding cannot be loaded the
// estimator degrades to the heuristic with low confidence and logs a
// warning instead of failing (estimator failures are recovered locally,
// never propagated).
type TiktokenEstimator struct {
	encoding string
	fallback *HeuristicEstimator
	logger   *zap.Logger
}

// NewTiktokenEstimator returns a BPE estimator for the given encoding name.
// An empty encoding selects DefaultEncoding; a nil logger disables logging.
func NewTiktokenEstimator(encoding string, logger *zap.Logger) *TiktokenEstimator {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TiktokenEstimator{
		encoding: encoding,
		fallback: NewHeuristicEstimator(),
		logger:   logger,
	}
}

// EstimateBlock implements Estimator.
func (e *TiktokenEstimator) EstimateBlock(ctx context.Context, b block.Block) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	enc, err := tiktoken.GetEncoding(e.encoding)
	if err != nil {
		e.logger.Warn("tiktoken encoding unavailable, degrading to heuristic",
			zap.String("encoding", e.encoding), zap.Error(err))
		return e.fallback.EstimateBlock(ctx, b)
	}
	return Estimate{Tokens: e.countTokens(enc, b), Confidence: ConfidenceHigh}, nil
}

// Estimate implements Estimator.
func (e *TiktokenEstimator) Estimate(ctx context.Context, blocks []block.Block) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	if len(blocks) == 0 {
		return Estimate{Tokens: 0, Confidence: ConfidenceExact}, nil
	}
	enc, err := tiktoken.GetEncoding(e.encoding)
	if err != nil {
		e.logger.Warn("tiktoken encoding unavailable, degrading to heuristic",
			zap.String("encoding", e.encoding), zap.Error(err))
		return e.fallback.Estimate(ctx, blocks)
	}
	total := 0
	for _, b := range blocks {
		total += e.countTokens(enc, b)
	}
	return Estimate{Tokens: total, Confidence: ConfidenceHigh}, nil
}

func (e *TiktokenEstimator) countTokens(enc *tiktoken.Tiktoken, b block.Block) int {
	data, err := block.MarshalCanonical(b.Payload)
	if err != nil {
		return 0
	}
	return len(enc.Encode(string(data), nil, nil))
}
