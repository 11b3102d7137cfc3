package codec

import (
	"strings"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// IDSystemRules is the codec id for pinned system rules.
const IDSystemRules = "system-rules"

// systemRulesCodec encodes pinned system rules: {text, priority?, cacheable?}.
type systemRulesCodec struct{}

func (systemRulesCodec) ID() string          { return IDSystemRules }
func (systemRulesCodec) Version() string     { return "1" }
func (systemRulesCodec) Kinds() []block.Kind { return []block.Kind{block.KindPinned} }

func (systemRulesCodec) Validate(p map[string]any) error {
	text, ok := stringField(p, "text")
	if !ok {
		return validationErr(IDSystemRules, "text", "required string")
	}
	if strings.TrimSpace(text) == "" {
		return validationErr(IDSystemRules, "text", "must not be blank")
	}
	if _, present := p["priority"]; present {
		if _, ok := numberField(p, "priority"); !ok {
			return validationErr(IDSystemRules, "priority", "must be a number")
		}
	}
	if _, present := p["cacheable"]; present {
		if _, ok := boolField(p, "cacheable"); !ok {
			return validationErr(IDSystemRules, "cacheable", "must be a boolean")
		}
	}
	return nil
}

func (systemRulesCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	text, _ := stringField(p, "text")
	priority, hasPriority := numberField(p, "priority")
	if !hasPriority {
		priority = 0
	}
	cacheable, hasCacheable := boolField(p, "cacheable")
	if !hasCacheable {
		cacheable = false
	}
	return canonicalMap(map[string]any{
		"text":      strings.TrimSpace(text),
		"priority":  priority,
		"cacheable": cacheable,
	})
}

func (systemRulesCodec) Render(b block.Block) (Rendered, error) {
	text, _ := stringField(b.Payload, "text")
	return systemRendering(text), nil
}
