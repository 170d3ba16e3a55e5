package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Consistent(t *testing.T) {
	reg := DefaultRegistry()

	models := reg.Models()
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.NotNil(t, m.Capabilities, "capabilities for %s", m.ID)
		assert.GreaterOrEqual(t, m.Pricing.InputPerMillion, 0.0)
		assert.GreaterOrEqual(t, m.Pricing.OutputPerMillion, 0.0)
	}

	assert.NotEmpty(t, reg.PricingURL(ProviderOpenAI))
	assert.NotEmpty(t, reg.PricingURL(ProviderXAI))
}

func TestRegistry_Classify(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		model string
		want  Provider
	}{
		{"gpt-4o-mini", ProviderOpenAI},
		{"gpt-5", ProviderOpenAI},
		{"o3", ProviderOpenAI},
		{"grok-3-mini", ProviderXAI},
		{"grok-code-fast-1", ProviderXAI},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := reg.ClassifyProvider(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestRegistry_UnknownModel(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.ClassifyProvider("gpt-9000")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = reg.Lookup("gpt-9000")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Equal(t, KindUnknownModel, KindOf(err))
	assert.Contains(t, err.Error(), "gpt-9000")
}

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()

	m, err := reg.Lookup("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, m.Provider)
	assert.InDelta(t, 0.15, m.Pricing.InputPerMillion, 1e-9)
	assert.InDelta(t, 0.60, m.Pricing.OutputPerMillion, 1e-9)
	require.NotNil(t, m.Capabilities)
	assert.True(t, m.Capabilities.SupportsTemperature)
	assert.Equal(t, MaxTokens, m.Capabilities.TokenLimitParam)

	m, err = reg.Lookup("gpt-5")
	require.NoError(t, err)
	require.NotNil(t, m.Capabilities)
	assert.False(t, m.Capabilities.SupportsTemperature)
	assert.Equal(t, MaxCompletionTokens, m.Capabilities.TokenLimitParam)
}

func TestRegistry_MissingCapabilities(t *testing.T) {
	reg, err := NewRegistry(Table{
		Provider: ProviderOpenAI,
		Pricing:  map[string]Pricing{"half-known": {InputPerMillion: 1, OutputPerMillion: 2}},
	})
	require.NoError(t, err)

	m, err := reg.Lookup("half-known")
	require.NoError(t, err)
	assert.Nil(t, m.Capabilities)
}

func TestNewRegistry_Rejects(t *testing.T) {
	caps := Capabilities{SupportsTemperature: true, TokenLimitParam: MaxTokens}

	tests := []struct {
		name   string
		tables []Table
	}{
		{
			name:   "unknown provider",
			tables: []Table{{Provider: "acme"}},
		},
		{
			name:   "duplicate provider",
			tables: []Table{{Provider: ProviderOpenAI}, {Provider: ProviderOpenAI}},
		},
		{
			name: "model in two tables",
			tables: []Table{
				{Provider: ProviderOpenAI, Pricing: map[string]Pricing{"m": {}}},
				{Provider: ProviderXAI, Pricing: map[string]Pricing{"m": {}}},
			},
		},
		{
			name:   "negative price",
			tables: []Table{{Provider: ProviderOpenAI, Pricing: map[string]Pricing{"m": {InputPerMillion: -1}}}},
		},
		{
			name: "capabilities without pricing",
			tables: []Table{{
				Provider:     ProviderOpenAI,
				Capabilities: map[string]Capabilities{"m": caps},
			}},
		},
		{
			name: "bad token parameter",
			tables: []Table{{
				Provider:     ProviderOpenAI,
				Pricing:      map[string]Pricing{"m": {}},
				Capabilities: map[string]Capabilities{"m": {TokenLimitParam: "max_output"}},
			}},
		},
		{
			name: "negative context window",
			tables: []Table{{
				Provider:     ProviderOpenAI,
				Pricing:      map[string]Pricing{"m": {}},
				Capabilities: map[string]Capabilities{"m": {TokenLimitParam: MaxTokens, ContextWindow: -1}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.tables...)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_ModelsSorted(t *testing.T) {
	reg, err := NewRegistry(
		Table{Provider: ProviderOpenAI, Pricing: map[string]Pricing{"b": {}, "a": {}}},
		Table{Provider: ProviderXAI, Pricing: map[string]Pricing{"0": {}}},
	)
	require.NoError(t, err)

	var ids []string
	for _, m := range reg.Models() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "0"}, ids)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("xai")
	require.NoError(t, err)
	assert.Equal(t, ProviderXAI, p)

	_, err = ParseProvider("ollama")
	assert.Error(t, err)
}
