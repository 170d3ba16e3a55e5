package pricing

import (
	"fmt"
	"strings"
	"time"
)

// FormatCost formats cost with disclaimer
func FormatCost(report UsageReport, pricingURL string, lastUpdated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "$%.6f (input $%.6f, output $%.6f; estimated, based on %s pricing)",
		report.TotalCost, report.InputCost, report.OutputCost, lastUpdated.Format("2006-01-02"))
	if pricingURL != "" {
		fmt.Fprintf(&b, "\n\n⚠️  Pricing may have changed. Check current rates:\n    %s", pricingURL)
	}
	return b.String()
}

// FormatTokenUsage formats token usage information
func FormatTokenUsage(report UsageReport, pricingURL string, lastUpdated time.Time) string {
	var b strings.Builder
	b.WriteString("Token usage:\n")
	fmt.Fprintf(&b, "  Model:   %s\n", report.Model)
	fmt.Fprintf(&b, "  Input:   %s tokens\n", FormatNumber(report.InputTokens))
	fmt.Fprintf(&b, "  Output:  %s tokens\n", FormatNumber(report.OutputTokens))
	fmt.Fprintf(&b, "  Total:   %s tokens\n", FormatNumber(report.TotalTokens))
	fmt.Fprintf(&b, "  Latency: %d ms\n", report.LatencyMs)
	fmt.Fprintf(&b, "  Cost:    %s", FormatCost(report, pricingURL, lastUpdated))
	return b.String()
}

// FormatNumber adds commas to large numbers
func FormatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
