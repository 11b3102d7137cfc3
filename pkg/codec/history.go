package codec

import (
	"fmt"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// IDConversationHistory is the codec id for conversation transcripts.
const IDConversationHistory = "conversation-history"

// conversationHistoryCodec encodes a transcript slice:
// {messages: [{role, content, ...}], summary?}. Canonicalization drops the
// per-message timestamp and messageId fields so replayed transcripts hash
// identically regardless of when they were captured.
type conversationHistoryCodec struct{}

func (conversationHistoryCodec) ID() string          { return IDConversationHistory }
func (conversationHistoryCodec) Version() string     { return "1" }
func (conversationHistoryCodec) Kinds() []block.Kind { return []block.Kind{block.KindHistory} }

func (conversationHistoryCodec) Validate(p map[string]any) error {
	messages, ok := sliceField(p, "messages")
	if !ok {
		return validationErr(IDConversationHistory, "messages", "required array")
	}
	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			return validationErr(IDConversationHistory, fmt.Sprintf("messages[%d]", i), "must be an object")
		}
		role, ok := stringField(msg, "role")
		if !ok || (role != RoleUser && role != RoleAssistant) {
			return validationErr(IDConversationHistory, fmt.Sprintf("messages[%d].role", i), "must be user or assistant")
		}
		if _, present := msg["content"]; !present {
			return validationErr(IDConversationHistory, fmt.Sprintf("messages[%d].content", i), "required")
		}
	}
	if _, present := p["summary"]; present {
		if _, ok := stringField(p, "summary"); !ok {
			return validationErr(IDConversationHistory, "summary", "must be a string")
		}
	}
	return nil
}

func (conversationHistoryCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	messages, _ := sliceField(p, "messages")
	canonical := make([]any, 0, len(messages))
	for _, raw := range messages {
		msg, _ := raw.(map[string]any)
		kept := make(map[string]any, len(msg))
		for k, v := range msg {
			// timestamp and messageId are volatile.
			if k == "timestamp" || k == "messageId" {
				continue
			}
			kept[k] = v
		}
		canonical = append(canonical, kept)
	}
	out := map[string]any{"messages": canonical}
	if summary, ok := stringField(p, "summary"); ok {
		out["summary"] = summary
	}
	return canonicalMap(out)
}

func (conversationHistoryCodec) Render(b block.Block) (Rendered, error) {
	var rendered Rendered
	if summary, ok := stringField(b.Payload, "summary"); ok && summary != "" {
		text := "Conversation summary: " + summary
		appendRendering(&rendered, textRendering(RoleUser, text))
	}
	messages, _ := sliceField(b.Payload, "messages")
	for _, raw := range messages {
		msg, _ := raw.(map[string]any)
		role, _ := stringField(msg, "role")
		content := renderValue(msg["content"])
		appendRendering(&rendered, textRendering(role, content))
	}
	return rendered, nil
}

// appendRendering concatenates the per-provider sequences of more onto r.
func appendRendering(r *Rendered, more Rendered) {
	r.Anthropic = append(r.Anthropic, more.Anthropic...)
	r.OpenAI = append(r.OpenAI, more.OpenAI...)
	r.Gemini = append(r.Gemini, more.Gemini...)
}
