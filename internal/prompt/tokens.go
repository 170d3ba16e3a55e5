package prompt

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Estimate methods reported by CountTokens
const (
	MethodTiktoken  = "tiktoken"
	MethodCharacter = "character"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// QuickEstimate approximates a token count at four characters per token
func QuickEstimate(text string) int {
	return len(text) / 4
}

// CountTokens estimates token count using tiktoken, falling back to character count.
// cl100k_base is exact for OpenAI models and a fair estimate for Grok.
func CountTokens(text string) (int, string) {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})

	if encoding != nil {
		return len(encoding.Encode(text, nil, nil)), MethodTiktoken
	}
	return QuickEstimate(text), MethodCharacter
}
