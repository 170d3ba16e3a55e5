package llm

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3/option"
)

// StreamResult is everything read from one streamed completion
type StreamResult struct {
	Content string
	Chunks  []string  // Non-empty text fragments in arrival order
	Usage   *Counters // nil if the provider never reported usage
	Latency time.Duration
}

// Counters returns the reported usage, or zero counts if none arrived
func (r *StreamResult) Counters() Counters {
	if r.Usage == nil {
		return Counters{}
	}
	return *r.Usage
}

// Consume issues a streaming request and reads it to completion.
// Latency covers request issuance through the last increment.
func Consume(ctx context.Context, client *Client, payload Payload) (*StreamResult, error) {
	start := time.Now()

	var httpResp *http.Response
	stream := client.api.Chat.Completions.NewStreaming(ctx, payload.Params,
		option.WithResponseInto(&httpResp),
	)
	defer stream.Close()

	// Cancellation discards whatever was read and is reported as the cause
	fail := func(err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return transportFailure(payload.Provider, payload.Model, err)
	}

	if err := stream.Err(); err != nil {
		return nil, fail(err)
	}
	if ct := contentType(httpResp); ct != "text/event-stream" {
		return nil, notStreaming(payload.Provider, payload.Model, ct)
	}

	var content strings.Builder
	result := &StreamResult{}

	for stream.Next() {
		chunk := stream.Current()

		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				content.WriteString(delta)
				result.Chunks = append(result.Chunks, delta)
			}
		}

		if chunk.JSON.Usage.Valid() {
			result.Usage = &Counters{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
				TotalReported:    chunk.Usage.JSON.TotalTokens.Valid(),
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fail(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	result.Content = content.String()
	result.Latency = time.Since(start)
	return result, nil
}

func contentType(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
