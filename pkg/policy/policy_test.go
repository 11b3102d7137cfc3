package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

func TestDefault_PerProviderWindows(t *testing.T) {
	assert.Equal(t, DefaultAnthropicWindow, Default(ProviderAnthropic).ContextWindow)
	assert.Equal(t, DefaultOpenAIWindow, Default(ProviderOpenAI).ContextWindow)
	assert.Equal(t, DefaultGeminiWindow, Default(ProviderGemini).ContextWindow)
}

func TestDefault_Validates(t *testing.T) {
	for _, p := range []Provider{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		assert.NoError(t, Default(p).Validate(), p)
	}
}

func TestAvailableTokens(t *testing.T) {
	p := Default(ProviderAnthropic)
	assert.Equal(t, p.ContextWindow-p.CompletionReserve, p.AvailableTokens())

	p.CompletionReserve = p.ContextWindow + 1
	assert.Equal(t, 0, p.AvailableTokens())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"unknown provider", func(p *Policy) { p.Provider = "grok" }},
		{"zero window", func(p *Policy) { p.ContextWindow = 0 }},
		{"negative reserve", func(p *Policy) { p.CompletionReserve = -1 }},
		{"reserve swallows window", func(p *Policy) { p.CompletionReserve = p.ContextWindow }},
		{"unknown overflow", func(p *Policy) { p.Overflow = "panic" }},
		{"unknown sensitivity", func(p *Policy) { p.Sensitivity.MaxSensitivity = "secret" }},
		{"unknown priority kind", func(p *Policy) {
			p.KindPriorities = []KindPriority{{Kind: "attachment"}}
		}},
		{"inverted priority bounds", func(p *Policy) {
			p.KindPriorities = []KindPriority{{Kind: block.KindHistory, MinTokens: 10, MaxTokens: 5}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default(ProviderAnthropic)
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}
