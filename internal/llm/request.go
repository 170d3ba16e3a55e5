package llm

import (
	"fmt"

	"github.com/openai/openai-go/v3"

	"github.com/alecf/tally/internal/prompt"
)

// Payload is a provider-ready streaming chat-completion request
type Payload struct {
	Provider Provider
	Model    string
	Params   openai.ChatCompletionNewParams
}

// Messages returns the payload's conversation in send order
func Messages(req StreamRequest) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(req.PriorMessages)+2)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: prompt.SystemInstruction})
	msgs = append(msgs, req.PriorMessages...)
	msgs = append(msgs, ChatMessage{Role: RoleUser, Content: req.Query})
	return msgs
}

// BuildPayload assembles the request for a model, honoring its capabilities.
// The request should already have defaults applied.
func BuildPayload(req StreamRequest, model Model) (Payload, error) {
	caps := model.Capabilities
	if caps == nil {
		return Payload{}, noCapabilityData(model)
	}

	msgs := Messages(req)
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model.ID),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)),
		// Usage arrives on the final chunk only when asked for
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	for i, m := range msgs {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			return Payload{}, invalidRequest(fmt.Sprintf("message %d has unsupported role %q", i, m.Role))
		}
	}

	if req.MaxOutputTokens < 0 {
		return Payload{}, invalidRequest("max output tokens must not be negative")
	}
	if req.MaxOutputTokens > 0 {
		limit := openai.Int(int64(req.MaxOutputTokens))
		switch caps.TokenLimitParam {
		case MaxTokens:
			params.MaxTokens = limit
		case MaxCompletionTokens:
			params.MaxCompletionTokens = limit
		default:
			return Payload{}, noCapabilityData(model)
		}
	}

	if caps.SupportsTemperature && req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	return Payload{
		Provider: model.Provider,
		Model:    model.ID,
		Params:   params,
	}, nil
}
