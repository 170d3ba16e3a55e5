package llm

import "fmt"

// Provider identifies an upstream chat-completion service
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderXAI    Provider = "xai"
)

// Providers lists every supported provider in classification order
var Providers = []Provider{ProviderOpenAI, ProviderXAI}

// DefaultBaseURL returns the provider's public API endpoint
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderXAI:
		return "https://api.x.ai/v1"
	}
	return ""
}

// DefaultKeyEnv returns the environment variable holding the provider's API key
func (p Provider) DefaultKeyEnv() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderXAI:
		return "XAI_API_KEY"
	}
	return ""
}

// ParseProvider converts a provider name into a Provider
func ParseProvider(name string) (Provider, error) {
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %s", name)
}

// TokenLimitParam is the request field a model reads its output token limit from
type TokenLimitParam string

const (
	MaxTokens           TokenLimitParam = "max_tokens"
	MaxCompletionTokens TokenLimitParam = "max_completion_tokens"
)

// Pricing represents the cost structure for a model
type Pricing struct {
	InputPerMillion  float64 `json:"input_per_million"`  // Cost per 1M input tokens
	OutputPerMillion float64 `json:"output_per_million"` // Cost per 1M output tokens
}

// Capabilities describes which optional request parameters a model accepts
type Capabilities struct {
	SupportsTemperature bool            `json:"supports_temperature"`
	TokenLimitParam     TokenLimitParam `json:"token_limit_param"`
	ContextWindow       int             `json:"context_window,omitempty"` // 0 when unknown
}

// Model represents a registered LLM model
type Model struct {
	ID           string        `json:"id"`
	Provider     Provider      `json:"provider"`
	Pricing      Pricing       `json:"pricing"`
	Capabilities *Capabilities `json:"capabilities,omitempty"` // nil if the catalog is inconsistent
}

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

const (
	DefaultQuery       = "Hello"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
)

// StreamRequest represents a request to an LLM
type StreamRequest struct {
	Query           string        // Empty means DefaultQuery
	Model           string        // Empty means the caller's default model
	PriorMessages   []ChatMessage // Chronological, oldest first
	Temperature     *float64      // nil means DefaultTemperature
	MaxOutputTokens int           // 0 means no limit is sent
}

// WithDefaults returns a copy of the request with unset fields filled in
func (r StreamRequest) WithDefaults(defaultModel string) StreamRequest {
	if r.Query == "" {
		r.Query = DefaultQuery
	}
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	return r
}

// Counters are the provider-reported token counts for one request
type Counters struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	TotalReported    bool // Whether the provider sent total_tokens
}
