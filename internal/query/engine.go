package query

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/pricing"
	"github.com/alecf/tally/internal/prompt"
)

// Result is the assembled answer to one query.
// Joining Chunks in order reproduces Content exactly.
type Result struct {
	Content  string              `json:"content"`
	Usage    pricing.UsageReport `json:"usage"`
	Chunks   []string            `json:"chunks"`
	Provider llm.Provider        `json:"provider"`
}

// Engine runs queries against the registered providers
type Engine struct {
	registry     *llm.Registry
	clients      *llm.ClientCache
	defaultModel string
	timeout      time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Option configures an Engine
type Option func(*Engine)

// WithDefaultModel sets the model used when a request names none
func WithDefaultModel(id string) Option {
	return func(e *Engine) {
		e.defaultModel = id
	}
}

// WithTimeout bounds each query, stream included. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the engine's logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer used for query spans
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an engine over a registry and the client cache it owns
func New(registry *llm.Registry, clients *llm.ClientCache, opts ...Option) *Engine {
	e := &Engine{
		registry:     registry,
		clients:      clients,
		defaultModel: llm.DefaultModel,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:       otel.Tracer("github.com/alecf/tally/internal/query"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's model registry
func (e *Engine) Registry() *llm.Registry {
	return e.registry
}

// DefaultModel returns the model used when a request names none
func (e *Engine) DefaultModel() string {
	return e.defaultModel
}

// Query sends one request and waits for the complete streamed answer.
// Any failure discards partial output; errors are *llm.Error values.
func (e *Engine) Query(ctx context.Context, req llm.StreamRequest) (result *Result, err error) {
	req = req.WithDefaults(e.defaultModel)

	ctx, span := e.tracer.Start(ctx, "tally.query",
		trace.WithAttributes(attribute.String("llm.model", req.Model)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(llm.KindOf(err)))
		}
		span.End()
	}()

	model, err := e.registry.Lookup(req.Model)
	if err != nil {
		return nil, err
	}

	provider, err := e.registry.ClassifyProvider(model.ID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("llm.provider", string(provider)))

	client, err := e.clients.Get(provider)
	if err != nil {
		return nil, err
	}

	payload, err := llm.BuildPayload(req, model)
	if err != nil {
		return nil, err
	}

	e.checkContextWindow(req, model)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("sending query", "model", model.ID, "provider", provider, "prior_messages", len(req.PriorMessages))

	stream, err := llm.Consume(ctx, client, payload)
	if err != nil {
		return nil, err
	}

	if stream.Usage == nil {
		e.logger.Warn("provider reported no usage, counting zero tokens", "model", model.ID)
	}

	usage := pricing.Compute(stream.Counters(), model, stream.Latency)
	span.SetAttributes(
		attribute.Int64("llm.usage.input_tokens", usage.InputTokens),
		attribute.Int64("llm.usage.output_tokens", usage.OutputTokens),
		attribute.Float64("llm.usage.total_cost", usage.TotalCost),
	)

	e.logger.Debug("query complete",
		"model", model.ID,
		"chunks", len(stream.Chunks),
		"total_tokens", usage.TotalTokens,
		"latency_ms", usage.LatencyMs,
	)

	chunks := stream.Chunks
	if chunks == nil {
		chunks = []string{}
	}

	return &Result{
		Content:  stream.Content,
		Usage:    usage,
		Chunks:   chunks,
		Provider: provider,
	}, nil
}

// checkContextWindow warns when the prompt is likely larger than the model accepts
func (e *Engine) checkContextWindow(req llm.StreamRequest, model llm.Model) {
	window := model.Capabilities.ContextWindow
	if window == 0 {
		return
	}

	var text strings.Builder
	for _, m := range llm.Messages(req) {
		text.WriteString(m.Content)
		text.WriteByte('\n')
	}

	tokens, method := prompt.QuickEstimate(text.String()), prompt.MethodCharacter
	// Only pay for a real tokenizer pass near the limit
	if tokens*2 >= window {
		tokens, method = prompt.CountTokens(text.String())
	}

	if tokens > window {
		e.logger.Warn("prompt exceeds model context window",
			"model", model.ID,
			"prompt_tokens", tokens,
			"context_window", window,
			"estimate", method,
		)
	}
}
