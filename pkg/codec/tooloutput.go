package codec

import (
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// IDToolOutput is the codec id for captured tool results.
const IDToolOutput = "tool-output"

// toolOutputCodec encodes one tool invocation result:
// {toolName, toolCallId, output, durationMs?}. The output is either the
// tagged object {success: true, result} / {success: false, error} or a raw
// string (the form the compactor's tail truncation operates on).
// durationMs is volatile: canonicalization drops it and rendering never
// exposes it.
type toolOutputCodec struct{}

func (toolOutputCodec) ID() string          { return IDToolOutput }
func (toolOutputCodec) Version() string     { return "1" }
func (toolOutputCodec) Kinds() []block.Kind { return []block.Kind{block.KindToolOutput} }

func (toolOutputCodec) Validate(p map[string]any) error {
	if name, ok := stringField(p, "toolName"); !ok || name == "" {
		return validationErr(IDToolOutput, "toolName", "required non-empty string")
	}
	if id, ok := stringField(p, "toolCallId"); !ok || id == "" {
		return validationErr(IDToolOutput, "toolCallId", "required non-empty string")
	}
	output, present := p["output"]
	if !present {
		return validationErr(IDToolOutput, "output", "required")
	}
	switch out := output.(type) {
	case string:
		// Raw form is always acceptable.
	case map[string]any:
		success, ok := boolField(out, "success")
		if !ok {
			return validationErr(IDToolOutput, "output.success", "required boolean")
		}
		if success {
			if _, present := out["result"]; !present {
				return validationErr(IDToolOutput, "output.result", "required when success is true")
			}
		} else {
			if _, present := out["error"]; !present {
				return validationErr(IDToolOutput, "output.error", "required when success is false")
			}
		}
	default:
		return validationErr(IDToolOutput, "output", "must be a string or a tagged object")
	}
	if _, present := p["durationMs"]; present {
		if _, ok := numberField(p, "durationMs"); !ok {
			return validationErr(IDToolOutput, "durationMs", "must be a number")
		}
	}
	return nil
}

func (toolOutputCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if k == "durationMs" {
			continue
		}
		out[k] = v
	}
	return canonicalMap(out)
}

func (toolOutputCodec) Render(b block.Block) (Rendered, error) {
	toolName, _ := stringField(b.Payload, "toolName")
	toolCallID, _ := stringField(b.Payload, "toolCallId")
	text := toolOutputText(b.Payload["output"])
	return Rendered{
		Anthropic: []AnthropicContent{{
			Role:      RoleUser,
			Type:      "tool_result",
			ToolUseID: toolCallID,
			Content:   text,
		}},
		OpenAI: []OpenAIMessage{{
			Role:       RoleTool,
			Name:       toolName,
			ToolCallID: toolCallID,
			Content:    text,
		}},
		Gemini: []GeminiContent{{
			Role:  RoleUser,
			Parts: []string{fmt.Sprintf("Tool %s result: %s", toolName, text)},
		}},
	}, nil
}

// toolOutputText flattens either output form into renderable text.
func toolOutputText(output any) string {
	switch out := output.(type) {
	case string:
		return out
	case map[string]any:
		if success, _ := boolField(out, "success"); success {
			return renderValue(out["result"])
		}
		return "error: " + renderValue(out["error"])
	default:
		return renderValue(output)
	}
}
