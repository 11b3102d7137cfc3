package codec

import (
	"strings"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Codec ids for plain text payloads.
const (
	IDUnsafeText = "unsafe-text"
	IDUserTurn   = "user-turn"
)

// unsafeTextCodec encodes arbitrary text with an optional role:
// {text, role?}. Text is trimmed; the role defaults to user. The codec
// accepts any kind; it is the escape hatch for content with no structure.
type unsafeTextCodec struct{}

func (unsafeTextCodec) ID() string          { return IDUnsafeText }
func (unsafeTextCodec) Version() string     { return "1" }
func (unsafeTextCodec) Kinds() []block.Kind { return nil }

func (unsafeTextCodec) Validate(p map[string]any) error {
	if _, ok := stringField(p, "text"); !ok {
		return validationErr(IDUnsafeText, "text", "required string")
	}
	if _, present := p["role"]; present {
		role, ok := stringField(p, "role")
		if !ok || (role != RoleUser && role != RoleAssistant) {
			return validationErr(IDUnsafeText, "role", "must be user or assistant")
		}
	}
	return nil
}

func (unsafeTextCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	text, _ := stringField(p, "text")
	role, ok := stringField(p, "role")
	if !ok || role == "" {
		role = RoleUser
	}
	return canonicalMap(map[string]any{
		"text": strings.TrimSpace(text),
		"role": role,
	})
}

func (unsafeTextCodec) Render(b block.Block) (Rendered, error) {
	text, _ := stringField(b.Payload, "text")
	role, ok := stringField(b.Payload, "role")
	if !ok || role == "" {
		role = RoleUser
	}
	return textRendering(role, text), nil
}

// userTurnCodec encodes the current user turn: {text}.
type userTurnCodec struct{}

func (userTurnCodec) ID() string          { return IDUserTurn }
func (userTurnCodec) Version() string     { return "1" }
func (userTurnCodec) Kinds() []block.Kind { return []block.Kind{block.KindTurn} }

func (userTurnCodec) Validate(p map[string]any) error {
	if text, ok := stringField(p, "text"); !ok || text == "" {
		return validationErr(IDUserTurn, "text", "required non-empty string")
	}
	return nil
}

func (userTurnCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	text, _ := stringField(p, "text")
	return canonicalMap(map[string]any{"text": text})
}

func (userTurnCodec) Render(b block.Block) (Rendered, error) {
	text, _ := stringField(b.Payload, "text")
	return textRendering(RoleUser, text), nil
}
