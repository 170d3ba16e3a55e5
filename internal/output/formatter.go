package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecf/tally/internal/query"
)

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Content  string    `json:"content"`
	Chunks   []string  `json:"chunks,omitempty"`
	Metadata *Metadata `json:"metadata"`
}

// Metadata represents metadata about the query
type Metadata struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	TokensInput  int64   `json:"tokens_input"`
	TokensOutput int64   `json:"tokens_output"`
	TokensTotal  int64   `json:"tokens_total"`
	Cost         float64 `json:"cost"`
	LatencyMs    int64   `json:"latency_ms"`
	LedgerID     string  `json:"ledger_id,omitempty"`
}

// FormatJSON formats the output as JSON
func FormatJSON(result *query.Result, withChunks bool, ledgerID string) (string, error) {
	out := JSONOutput{
		Content: result.Content,
		Metadata: &Metadata{
			Provider:     string(result.Provider),
			Model:        result.Usage.Model,
			TokensInput:  result.Usage.InputTokens,
			TokensOutput: result.Usage.OutputTokens,
			TokensTotal:  result.Usage.TotalTokens,
			Cost:         result.Usage.TotalCost,
			LatencyMs:    result.Usage.LatencyMs,
			LedgerID:     ledgerID,
		},
	}
	if withChunks {
		out.Chunks = result.Chunks
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(data), nil
}

// Replay writes chunks in order, pausing between them to mimic live streaming.
// A zero delay writes them back to back.
func Replay(ctx context.Context, w io.Writer, chunks []string, delay time.Duration) error {
	for i, chunk := range chunks {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
	}
	return nil
}
