package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/alecf/tally/internal/llm"
)

// loadHistory reads prior conversation turns from a JSON file
func loadHistory(path string) ([]llm.ChatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var messages []llm.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	validate := validator.New()
	for i, m := range messages {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("history message %d: %w", i, err)
		}
	}

	return messages, nil
}

// truncate truncates a string to maxLen runes with ellipsis
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
