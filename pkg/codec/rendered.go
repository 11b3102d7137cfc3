package codec

// Rendered holds the provider-native translations of one block. Each field
// is a sequence because a single block (a conversation-history block in
// particular) may expand into several messages. An empty sequence means the
// codec produced no rendering for that provider.
type Rendered struct {
	Anthropic []AnthropicContent `json:"anthropic,omitempty"`
	OpenAI    []OpenAIMessage    `json:"openai,omitempty"`
	Gemini    []GeminiContent    `json:"gemini,omitempty"`
}

// Empty reports whether no provider has a rendering.
func (r Rendered) Empty() bool {
	return len(r.Anthropic) == 0 && len(r.OpenAI) == 0 && len(r.Gemini) == 0
}

// CacheControl marks an Anthropic system entry as an ephemeral cache
// breakpoint.
type CacheControl struct {
	Type string `json:"type"`
}

// AnthropicContent is one Anthropic system entry or message content block.
// System entries go into the separate system sequence; everything else
// becomes a message with the given role.
type AnthropicContent struct {
	System       bool          `json:"-"`
	Role         string        `json:"role,omitempty"`
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	ToolUseID    string        `json:"tool_use_id,omitempty"`
	Content      string        `json:"content,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// OpenAIMessage is one OpenAI chat-completions message.
type OpenAIMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// GeminiContent is one Gemini content entry. System entries are collected
// into the single system-instruction string; conversation entries carry a
// user or model role and one or more text parts.
type GeminiContent struct {
	System bool     `json:"-"`
	Role   string   `json:"role,omitempty"`
	Parts  []string `json:"parts"`
}

// Provider role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleModel     = "model"
)

// textRendering builds the common case: the same text rendered as an
// Anthropic text block, an OpenAI message, and a Gemini content entry with
// the given conversational role (user or assistant).
func textRendering(role, text string) Rendered {
	geminiRole := RoleUser
	if role == RoleAssistant {
		geminiRole = RoleModel
	}
	return Rendered{
		Anthropic: []AnthropicContent{{Role: role, Type: "text", Text: text}},
		OpenAI:    []OpenAIMessage{{Role: role, Content: text}},
		Gemini:    []GeminiContent{{Role: geminiRole, Parts: []string{text}}},
	}
}

// systemRendering builds a rendering placed in each provider's system slot.
func systemRendering(text string) Rendered {
	return Rendered{
		Anthropic: []AnthropicContent{{System: true, Type: "text", Text: text}},
		OpenAI:    []OpenAIMessage{{Role: RoleSystem, Content: text}},
		Gemini:    []GeminiContent{{System: true, Parts: []string{text}}},
	}
}
