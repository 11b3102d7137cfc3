package compact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
)

// fakeSummarizer condenses history blocks into one block carrying a
// summary sentence, recording the inputs it saw.
type fakeSummarizer struct {
	sawBlocks int
	sawTarget int
	fail      error
	kind      block.Kind
}

func (f *fakeSummarizer) Summarize(ctx context.Context, blocks []block.Block, targetTokens int) (block.Block, error) {
	if f.fail != nil {
		return block.Block{}, f.fail
	}
	f.sawBlocks = len(blocks)
	f.sawTarget = targetTokens
	if f.kind != "" && f.kind != block.KindHistory {
		// Misbehaving summarizer: wrong block kind.
		return codec.Builtin().NewBlock(block.Meta{
			Kind:        f.kind,
			Sensitivity: block.SensitivityPublic,
			CodecID:     codec.IDUnsafeText,
			CreatedAt:   1,
		}, map[string]any{"text": "not history"})
	}
	return codec.Builtin().NewBlock(block.Meta{
		Kind:        block.KindHistory,
		Sensitivity: block.SensitivityPublic,
		CodecID:     codec.IDConversationHistory,
		CreatedAt:   1,
		Source:      "session",
	}, map[string]any{
		"messages": []any{},
		"summary":  fmt.Sprintf("condensed %d blocks", len(blocks)),
	})
}

func manyHistory(t *testing.T, n int) []block.Block {
	t.Helper()
	blocks := make([]block.Block, 0, n)
	for i := 0; i < n; i++ {
		blocks = append(blocks, historyBlock(t, fmt.Sprintf("msg-%d", i), int64(100+i), false))
	}
	return blocks
}

func TestSummarizeHistory_ReplacesPrefix(t *testing.T) {
	summarizer := &fakeSummarizer{}
	c := New(registry(), WithSummarizer(summarizer))
	blocks := manyHistory(t, 15)

	result, err := c.Compact(context.Background(), viewOf(blocks...), Config{
		Steps:       []Step{StepSummarizeHistory},
		MinMessages: 12,
	})
	require.NoError(t, err)

	// 5 oldest summarized into one, 10 newest retained.
	assert.Equal(t, 5, summarizer.sawBlocks)
	assert.Greater(t, summarizer.sawTarget, 0)
	assert.Len(t, result.Blocks, 11)
	assert.Len(t, result.RemovedBlocks, 5)

	summary := result.Blocks[0]
	assert.True(t, summary.Meta.HasTag("compacted:summarize_history"))
	assert.True(t, summary.Meta.HasTag("method:summarize"))
	assert.True(t, strings.HasSuffix(summary.Meta.Source, ":compacted"))
	assert.Equal(t, block.KindHistory, summary.Meta.Kind)

	parents := result.Derivations[summary.BlockHash]
	assert.Len(t, parents, 5)
	require.Len(t, result.Report.StepReports, 1)
	assert.True(t, result.Report.StepReports[0].Lossy)
	assert.Equal(t, 1, result.Report.StepReports[0].BlocksReplaced)
}

func TestSummarizeHistory_BelowThresholdSkips(t *testing.T) {
	summarizer := &fakeSummarizer{}
	c := New(registry(), WithSummarizer(summarizer))
	blocks := manyHistory(t, 8)

	result, err := c.Compact(context.Background(), viewOf(blocks...), Config{
		Steps:       []Step{StepSummarizeHistory},
		MinMessages: 12,
	})
	require.NoError(t, err)

	assert.Len(t, result.Blocks, 8)
	assert.Empty(t, result.RemovedBlocks)
	assert.Equal(t, 0, summarizer.sawBlocks)
}

func TestSummarizeHistory_NoSummarizerSkips(t *testing.T) {
	c := New(registry())
	blocks := manyHistory(t, 15)

	result, err := c.Compact(context.Background(), viewOf(blocks...), Config{
		Steps: []Step{StepSummarizeHistory},
	})
	require.NoError(t, err)
	assert.Len(t, result.Blocks, 15)
}

func TestSummarizeHistory_SummarizerFailureAborts(t *testing.T) {
	boom := errors.New("model unavailable")
	c := New(registry(), WithSummarizer(&fakeSummarizer{fail: boom}))
	blocks := manyHistory(t, 15)

	_, err := c.Compact(context.Background(), viewOf(blocks...), Config{
		Steps: []Step{StepSummarizeHistory},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSummarizeHistory_WrongKindRejected(t *testing.T) {
	c := New(registry(), WithSummarizer(&fakeSummarizer{kind: block.KindMemory}))
	blocks := manyHistory(t, 15)

	_, err := c.Compact(context.Background(), viewOf(blocks...), Config{
		Steps: []Step{StepSummarizeHistory},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummarizerOutput)
}
