package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

func TestBuiltin_ContainsAllCodecs(t *testing.T) {
	r := Builtin()
	want := []string{
		IDConversationHistory, IDRedactedStub, IDStructuredReference,
		IDSystemRules, IDToolOutput, IDToolSchema, IDUnsafeText, IDUserTurn,
	}
	assert.Equal(t, want, r.IDs())
}

func TestRegister_DuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(systemRulesCodec{}))

	err := r.Register(systemRulesCodec{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateCodec)
}

func TestLookup_Unknown(t *testing.T) {
	r := Builtin()
	_, err := r.Lookup("no-such-codec")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestNewBlock_FillsVersionAndHash(t *testing.T) {
	r := Builtin()
	b, err := r.NewBlock(block.Meta{
		Kind:        block.KindPinned,
		Sensitivity: block.SensitivityPublic,
		CodecID:     IDSystemRules,
		CreatedAt:   1000,
	}, map[string]any{"text": "Be concise"})
	require.NoError(t, err)

	assert.Equal(t, "1", b.Meta.CodecVersion)
	assert.Len(t, b.BlockHash, 64)
	assert.Equal(t, "Be concise", b.Payload["text"])
}

func TestNewBlock_KindMismatch(t *testing.T) {
	r := Builtin()
	_, err := r.NewBlock(block.Meta{
		Kind:        block.KindHistory,
		Sensitivity: block.SensitivityPublic,
		CodecID:     IDSystemRules,
	}, map[string]any{"text": "Be concise"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestNewBlock_ValidationSurfaces(t *testing.T) {
	r := Builtin()
	_, err := r.NewBlock(block.Meta{
		Kind:        block.KindPinned,
		Sensitivity: block.SensitivityPublic,
		CodecID:     IDSystemRules,
	}, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, IDSystemRules, verr.CodecID)
	assert.Equal(t, "text", verr.Field)
}
