package estimate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

func textBlock(t *testing.T, text string) block.Block {
	t.Helper()
	b, err := block.New(block.Meta{
		Kind:         block.KindTurn,
		Sensitivity:  block.SensitivityPublic,
		CodecID:      "user-turn",
		CodecVersion: "1",
	}, map[string]any{"text": text})
	require.NoError(t, err)
	return b
}

func TestConfidence_Worst(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ConfidenceExact.Worst(ConfidenceLow))
	assert.Equal(t, ConfidenceHigh, ConfidenceHigh.Worst(ConfidenceExact))
	assert.Equal(t, ConfidenceExact, ConfidenceExact.Worst(ConfidenceExact))
}

func TestSum(t *testing.T) {
	got := Sum(
		Estimate{Tokens: 10, Confidence: ConfidenceExact},
		Estimate{Tokens: 5, Confidence: ConfidenceHigh},
		Estimate{Tokens: 1, Confidence: ConfidenceLow},
	)
	assert.Equal(t, 16, got.Tokens)
	assert.Equal(t, ConfidenceLow, got.Confidence)

	empty := Sum()
	assert.Equal(t, 0, empty.Tokens)
	assert.Equal(t, ConfidenceExact, empty.Confidence)
}

func TestHeuristic_ScalesWithLength(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx := context.Background()

	short, err := e.EstimateBlock(ctx, textBlock(t, "hi"))
	require.NoError(t, err)
	long, err := e.EstimateBlock(ctx, textBlock(t, "a much longer piece of text that should estimate higher"))
	require.NoError(t, err)

	assert.Greater(t, long.Tokens, short.Tokens)
	assert.Equal(t, ConfidenceLow, short.Confidence)
	assert.Equal(t, ConfidenceLow, long.Confidence)
}

func TestHeuristic_SafetyMultiplierApplied(t *testing.T) {
	e := NewHeuristicEstimator()
	b := textBlock(t, "0123456789012345678901234567890123456789")

	data, err := block.MarshalCanonical(b.Payload)
	require.NoError(t, err)

	got, err := e.EstimateBlock(context.Background(), b)
	require.NoError(t, err)

	unpadded := float64(len(data)) / heuristicCharsPerToken
	assert.GreaterOrEqual(t, float64(got.Tokens), unpadded)
}

func TestHeuristic_EmptyInputExact(t *testing.T) {
	e := NewHeuristicEstimator()
	got, err := e.Estimate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Tokens)
	assert.Equal(t, ConfidenceExact, got.Confidence)
}

func TestHeuristic_HonorsCancellation(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Estimate(ctx, []block.Block{textBlock(t, "x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTiktoken_CountsTokens(t *testing.T) {
	e := NewTiktokenEstimator("", nil)
	got, err := e.EstimateBlock(context.Background(), textBlock(t, "hello world, this is a token count test"))
	require.NoError(t, err)
	assert.Greater(t, got.Tokens, 0)
}

func TestTiktoken_UnknownEncodingDegrades(t *testing.T) {
	e := NewTiktokenEstimator("not-a-real-encoding", nil)
	got, err := e.EstimateBlock(context.Background(), textBlock(t, "hello"))
	require.NoError(t, err)
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Greater(t, got.Tokens, 0)
}
