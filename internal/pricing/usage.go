package pricing

import (
	"time"

	"github.com/alecf/tally/internal/llm"
)

// UsageReport is the token and cost accounting for one query.
// Costs share the currency of the registry's pricing (USD).
type UsageReport struct {
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	TotalTokens  int64   `json:"totalTokens"`
	InputCost    float64 `json:"inputCost"`
	OutputCost   float64 `json:"outputCost"`
	TotalCost    float64 `json:"totalCost"`
	LatencyMs    int64   `json:"latencyMs"`
	Model        string  `json:"model"`
}

// Compute converts token counters into a cost-and-latency report
func Compute(counters llm.Counters, model llm.Model, latency time.Duration) UsageReport {
	input := nonNegative(counters.PromptTokens)
	output := nonNegative(counters.CompletionTokens)

	total := input + output
	if counters.TotalReported {
		total = nonNegative(counters.TotalTokens)
	}

	inputCost := CostPerMillion(input, model.Pricing.InputPerMillion)
	outputCost := CostPerMillion(output, model.Pricing.OutputPerMillion)

	return UsageReport{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  total,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
		LatencyMs:    nonNegative(latency.Milliseconds()),
		Model:        model.ID,
	}
}

// CostPerMillion prices a token count at a per-million rate
func CostPerMillion(tokens int64, perMillion float64) float64 {
	return float64(tokens) / 1_000_000.0 * perMillion
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
