package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

func buildBlock(t *testing.T, reg *codec.Registry, kind block.Kind, codecID string, payload map[string]any, mutate ...func(*block.Meta)) block.Block {
	t.Helper()
	meta := block.Meta{
		Kind:        kind,
		Sensitivity: block.SensitivityPublic,
		CodecID:     codecID,
		CreatedAt:   1000,
	}
	for _, fn := range mutate {
		fn(&meta)
	}
	b, err := reg.NewBlock(meta, payload)
	require.NoError(t, err)
	return b
}

func pinnedRule(t *testing.T, reg *codec.Registry, text string, tags ...string) block.Block {
	return buildBlock(t, reg, block.KindPinned, codec.IDSystemRules,
		map[string]any{"text": text}, func(m *block.Meta) { m.Tags = tags })
}

func userTurn(t *testing.T, reg *codec.Registry, text string) block.Block {
	return buildBlock(t, reg, block.KindTurn, codec.IDUserTurn, map[string]any{"text": text})
}

func anthropicPolicy() policy.Policy {
	p := policy.Default(policy.ProviderAnthropic)
	p.ModelID = "claude-sonnet-4"
	return p
}

func TestAnthropic_SystemSeparation(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "always be concise"),
		userTurn(t, reg, "hello"),
	}, nil, false)

	out, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{})
	require.NoError(t, err)

	require.Len(t, out.System, 1)
	assert.Equal(t, "always be concise", out.System[0].Text)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, codec.RoleUser, out.Messages[0].Role)
	assert.Empty(t, out.ExcludedBlocks)
}

func TestAnthropic_CacheBreakpointLastMatch(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rule one", "cacheable"),
		pinnedRule(t, reg, "rule two", "cacheable"),
		pinnedRule(t, reg, "rule three", "other"),
		pinnedRule(t, reg, "rule four", "cacheable"),
	}, nil, false)

	out, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{
		CacheBreakpoint: &CacheSelector{Tag: "cacheable"},
	})
	require.NoError(t, err)
	require.Len(t, out.System, 4)

	for i := 0; i < 3; i++ {
		assert.Nil(t, out.System[i].CacheControl, "system[%d]", i)
	}
	require.NotNil(t, out.System[3].CacheControl)
	assert.Equal(t, "ephemeral", out.System[3].CacheControl.Type)

	require.NotEmpty(t, out.Diagnostics)
	assert.Equal(t, SeverityInfo, out.Diagnostics[0].Severity)
	assert.Equal(t, 3, out.Diagnostics[0].Position)
}

func TestAnthropic_CacheBreakpointNoMatch(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rule one", "other"),
	}, nil, false)

	out, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{
		CacheBreakpoint: &CacheSelector{Tag: "cacheable"},
	})
	require.NoError(t, err)

	assert.Nil(t, out.System[0].CacheControl)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, SeverityWarning, out.Diagnostics[0].Severity)
	assert.Equal(t, -1, out.Diagnostics[0].Position)
}

func TestAnthropic_CacheSelectorIgnoresNonPinned(t *testing.T) {
	reg := codec.Builtin()
	// A tagged reference block must not attract the marker even though the
	// tag matches.
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rule", "cacheable"),
		buildBlock(t, reg, block.KindReference, codec.IDStructuredReference,
			map[string]any{"title": "doc", "content": "body"},
			func(m *block.Meta) { m.Tags = []string{"cacheable"} }),
	}, nil, false)

	out, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{
		CacheBreakpoint: &CacheSelector{Tag: "cacheable"},
	})
	require.NoError(t, err)

	require.Len(t, out.System, 1)
	require.NotNil(t, out.System[0].CacheControl)
}

func TestAnthropic_AtMostOneCacheControl(t *testing.T) {
	reg := codec.Builtin()
	blocks := make([]block.Block, 0, 12)
	for i := 0; i < 12; i++ {
		blocks = append(blocks, pinnedRule(t, reg, "rule number "+string(rune('a'+i)), "cacheable"))
	}
	view := graph.NewView(blocks, nil, false)

	out, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{
		CacheBreakpoint: &CacheSelector{Tag: "cacheable"},
	})
	require.NoError(t, err)

	marked := 0
	for _, s := range out.System {
		if s.CacheControl != nil {
			marked++
		}
	}
	assert.Equal(t, 1, marked)

	var sawManyWarning bool
	for _, d := range out.Diagnostics {
		if d.Severity == SeverityWarning {
			sawManyWarning = true
		}
	}
	assert.True(t, sawManyWarning, "expected a many-matches warning")
}

func TestOpenAI_InlineSystemAndSameRoleWarning(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rules"),
		userTurn(t, reg, "first"),
		userTurn(t, reg, "second"),
	}, nil, false)

	out, err := OpenAI(context.Background(), view, reg, policy.Default(policy.ProviderOpenAI), Options{})
	require.NoError(t, err)

	require.Len(t, out.Messages, 3)
	assert.Equal(t, codec.RoleSystem, out.Messages[0].Role)
	assert.Equal(t, codec.RoleUser, out.Messages[1].Role)

	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, SeverityWarning, out.Diagnostics[0].Severity)
	assert.Equal(t, 2, out.Diagnostics[0].Position)
}

func TestGemini_MergesConsecutiveSameRole(t *testing.T) {
	reg := codec.Builtin()
	blocks := make([]block.Block, 0, 5)
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		blocks = append(blocks, userTurn(t, reg, text))
	}
	view := graph.NewView(blocks, nil, false)

	out, err := Gemini(context.Background(), view, reg, policy.Default(policy.ProviderGemini), Options{})
	require.NoError(t, err)

	require.Len(t, out.Contents, 1)
	assert.Equal(t, codec.RoleUser, out.Contents[0].Role)
	assert.Len(t, out.Contents[0].Parts, 5)
	assert.Empty(t, out.Diagnostics)
}

func TestGemini_StrictAlternation(t *testing.T) {
	reg := codec.Builtin()
	history := buildBlock(t, reg, block.KindHistory, codec.IDConversationHistory, map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "q1"},
			map[string]any{"role": "assistant", "content": "a1"},
			map[string]any{"role": "assistant", "content": "a2"},
			map[string]any{"role": "user", "content": "q2"},
		},
	})
	view := graph.NewView([]block.Block{history}, nil, false)

	out, err := Gemini(context.Background(), view, reg, policy.Default(policy.ProviderGemini), Options{})
	require.NoError(t, err)

	for i := 1; i < len(out.Contents); i++ {
		assert.NotEqual(t, out.Contents[i-1].Role, out.Contents[i].Role,
			"contents %d and %d share a role", i-1, i)
	}
	require.Len(t, out.Contents, 3)
	assert.Equal(t, []string{"a1", "a2"}, out.Contents[1].Parts)
}

func TestGemini_SystemInstructionJoined(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rule one"),
		pinnedRule(t, reg, "rule two"),
	}, nil, false)

	out, err := Gemini(context.Background(), view, reg, policy.Default(policy.ProviderGemini), Options{})
	require.NoError(t, err)

	assert.Contains(t, out.SystemInstruction, "rule one")
	assert.Contains(t, out.SystemInstruction, "rule two")
	assert.Empty(t, out.Contents)
}

func TestCompile_OverflowError(t *testing.T) {
	reg := codec.Builtin()
	b := userTurn(t, reg, "some text that costs tokens")
	est := estimate.Estimate{Tokens: 50, Confidence: estimate.ConfidenceLow}
	view := graph.NewView([]block.Block{b}, &est, false)

	pol := anthropicPolicy()
	pol.ContextWindow = 40
	pol.CompletionReserve = 10
	pol.Overflow = policy.OverflowError

	_, err := Anthropic(context.Background(), view, reg, pol, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrOverflow)
}

func TestCompile_OverflowTruncateSetsMeta(t *testing.T) {
	reg := codec.Builtin()
	b := userTurn(t, reg, "some text")
	est := estimate.Estimate{Tokens: 50, Confidence: estimate.ConfidenceLow}
	view := graph.NewView([]block.Block{b}, &est, false)

	pol := anthropicPolicy()
	pol.ContextWindow = 40
	pol.CompletionReserve = 10

	out, err := Anthropic(context.Background(), view, reg, pol, Options{})
	require.NoError(t, err)
	assert.True(t, out.Meta.Overflowed)
	assert.Equal(t, 30, out.Meta.AvailableTokens)
	assert.Equal(t, 50, out.EstimatedTokens)
}

func TestCompile_TokensByKind(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView([]block.Block{
		pinnedRule(t, reg, "rules"),
		userTurn(t, reg, "question"),
	}, nil, false)

	out, err := OpenAI(context.Background(), view, reg, policy.Default(policy.ProviderOpenAI), Options{
		Estimator: estimate.NewHeuristicEstimator(),
	})
	require.NoError(t, err)

	assert.Greater(t, out.Meta.TokensByKind[block.KindPinned], 0)
	assert.Greater(t, out.Meta.TokensByKind[block.KindTurn], 0)
	assert.Equal(t, out.Meta.TokensByKind[block.KindPinned]+out.Meta.TokensByKind[block.KindTurn],
		out.EstimatedTokens)
}

func TestCompile_InvalidPolicy(t *testing.T) {
	reg := codec.Builtin()
	view := graph.NewView(nil, nil, false)
	pol := policy.Policy{Provider: "nope"}

	_, err := Anthropic(context.Background(), view, reg, pol, Options{})
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
}

// onlyOpenAICodec renders for a single provider, to exercise excluded
// blocks on the others.
type onlyOpenAICodec struct{}

func (onlyOpenAICodec) ID() string          { return "openai-only" }
func (onlyOpenAICodec) Version() string     { return "1" }
func (onlyOpenAICodec) Kinds() []block.Kind { return nil }
func (onlyOpenAICodec) Validate(p map[string]any) error {
	return nil
}
func (onlyOpenAICodec) Canonicalize(p map[string]any) (map[string]any, error) {
	return p, nil
}
func (onlyOpenAICodec) Render(b block.Block) (codec.Rendered, error) {
	return codec.Rendered{OpenAI: []codec.OpenAIMessage{{Role: codec.RoleUser, Content: "x"}}}, nil
}

func TestCompile_ExcludedBlocksPopulated(t *testing.T) {
	reg := codec.Builtin()
	require.NoError(t, reg.Register(onlyOpenAICodec{}))

	special := buildBlock(t, reg, block.KindMemory, "openai-only", map[string]any{"x": "y"})
	view := graph.NewView([]block.Block{special}, nil, false)

	anth, err := Anthropic(context.Background(), view, reg, anthropicPolicy(), Options{})
	require.NoError(t, err)
	require.Len(t, anth.ExcludedBlocks, 1)
	assert.Equal(t, special.BlockHash, anth.ExcludedBlocks[0].BlockHash)

	oai, err := OpenAI(context.Background(), view, reg, policy.Default(policy.ProviderOpenAI), Options{})
	require.NoError(t, err)
	assert.Empty(t, oai.ExcludedBlocks)
	assert.Len(t, oai.Messages, 1)
}
