package codec

import (
	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// IDRedactedStub is the codec id for redaction placeholders.
const IDRedactedStub = "redacted-stub"

// DefaultPlaceholder is substituted when a stub payload omits one.
const DefaultPlaceholder = "[REDACTED]"

// redactedStubCodec encodes a placeholder left behind when a block is
// filtered out of a fork: {originalBlockHash, reason, placeholder?}. Stubs
// keep the kind of the block they replace, so the codec accepts any kind.
type redactedStubCodec struct{}

func (redactedStubCodec) ID() string          { return IDRedactedStub }
func (redactedStubCodec) Version() string     { return "1" }
func (redactedStubCodec) Kinds() []block.Kind { return nil }

func (redactedStubCodec) Validate(p map[string]any) error {
	if hash, ok := stringField(p, "originalBlockHash"); !ok || hash == "" {
		return validationErr(IDRedactedStub, "originalBlockHash", "required non-empty string")
	}
	if reason, ok := stringField(p, "reason"); !ok || reason == "" {
		return validationErr(IDRedactedStub, "reason", "required non-empty string")
	}
	if _, present := p["placeholder"]; present {
		if _, ok := stringField(p, "placeholder"); !ok {
			return validationErr(IDRedactedStub, "placeholder", "must be a string")
		}
	}
	return nil
}

func (redactedStubCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	hash, _ := stringField(p, "originalBlockHash")
	reason, _ := stringField(p, "reason")
	placeholder, ok := stringField(p, "placeholder")
	if !ok || placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return canonicalMap(map[string]any{
		"originalBlockHash": hash,
		"reason":            reason,
		"placeholder":       placeholder,
	})
}

func (redactedStubCodec) Render(b block.Block) (Rendered, error) {
	placeholder, ok := stringField(b.Payload, "placeholder")
	if !ok || placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return textRendering(RoleUser, placeholder), nil
}
