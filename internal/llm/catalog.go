package llm

import "time"

// CatalogUpdated is when the built-in prices were last checked
var CatalogUpdated = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

// Table holds one provider's pricing and capability entries
type Table struct {
	Provider     Provider
	PricingURL   string
	Pricing      map[string]Pricing
	Capabilities map[string]Capabilities
}

func openAITable() Table {
	return Table{
		Provider:   ProviderOpenAI,
		PricingURL: "https://openai.com/api/pricing/",
		Pricing: map[string]Pricing{
			"gpt-5":             {InputPerMillion: 1.25, OutputPerMillion: 10.00},
			"gpt-5-mini":        {InputPerMillion: 0.25, OutputPerMillion: 2.00},
			"gpt-5-nano":        {InputPerMillion: 0.05, OutputPerMillion: 0.40},
			"gpt-5-chat-latest": {InputPerMillion: 1.25, OutputPerMillion: 10.00},
			"gpt-4.1":           {InputPerMillion: 2.00, OutputPerMillion: 8.00},
			"gpt-4.1-mini":      {InputPerMillion: 0.40, OutputPerMillion: 1.60},
			"gpt-4.1-nano":      {InputPerMillion: 0.10, OutputPerMillion: 0.40},
			"gpt-4o":            {InputPerMillion: 2.50, OutputPerMillion: 10.00},
			"gpt-4o-2024-05-13": {InputPerMillion: 5.00, OutputPerMillion: 15.00},
			"gpt-4o-mini":       {InputPerMillion: 0.15, OutputPerMillion: 0.60},
			"o3":                {InputPerMillion: 2.00, OutputPerMillion: 8.00},
			"o4-mini":           {InputPerMillion: 1.10, OutputPerMillion: 4.40},
			"o3-mini":           {InputPerMillion: 1.10, OutputPerMillion: 4.40},
			"o1-mini":           {InputPerMillion: 1.10, OutputPerMillion: 4.40},
			"gpt-4-turbo":       {InputPerMillion: 10.00, OutputPerMillion: 30.00},
			"gpt-3.5-turbo":     {InputPerMillion: 0.50, OutputPerMillion: 1.50},
		},
		Capabilities: map[string]Capabilities{
			// Reasoning models reject temperature and only accept max_completion_tokens
			"gpt-5":             {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"gpt-5-mini":        {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"gpt-5-nano":        {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"gpt-5-chat-latest": {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"o3":                {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"o4-mini":           {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"o3-mini":           {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},
			"o1-mini":           {SupportsTemperature: false, TokenLimitParam: MaxCompletionTokens},

			"gpt-4.1":           {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4.1-mini":      {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4.1-nano":      {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4o":            {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4o-2024-05-13": {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4o-mini":       {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-4-turbo":       {SupportsTemperature: true, TokenLimitParam: MaxTokens},
			"gpt-3.5-turbo":     {SupportsTemperature: true, TokenLimitParam: MaxTokens},
		},
	}
}

func xaiTable() Table {
	return Table{
		Provider:   ProviderXAI,
		PricingURL: "https://docs.x.ai/docs/models",
		Pricing: map[string]Pricing{
			"grok-code-fast-1":          {InputPerMillion: 0.20, OutputPerMillion: 1.50},
			"grok-4-fast-reasoning":     {InputPerMillion: 0.20, OutputPerMillion: 0.80},
			"grok-4-fast-non-reasoning": {InputPerMillion: 0.20, OutputPerMillion: 0.80},
			"grok-4-0709":               {InputPerMillion: 5.00, OutputPerMillion: 15.00},
			"grok-3-mini":               {InputPerMillion: 0.30, OutputPerMillion: 0.50},
			"grok-3":                    {InputPerMillion: 3.00, OutputPerMillion: 15.00},
		},
		Capabilities: map[string]Capabilities{
			"grok-code-fast-1":          {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 256_000},
			"grok-4-fast-reasoning":     {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 2_000_000},
			"grok-4-fast-non-reasoning": {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 2_000_000},
			"grok-4-0709":               {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 256_000},
			"grok-3-mini":               {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 131_072},
			"grok-3":                    {SupportsTemperature: true, TokenLimitParam: MaxTokens, ContextWindow: 131_072},
		},
	}
}

// DefaultRegistry returns the registry of built-in models
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(openAITable(), xaiTable())
	if err != nil {
		panic("llm: invalid built-in catalog: " + err.Error())
	}
	return reg
}
