package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/alecf/tally/internal/ledger"
	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/query"
)

const maxBodyBytes = 1 << 20

// QueryRequest is the JSON body of POST /v1/query
type QueryRequest struct {
	Query       string            `json:"query"`
	Model       string            `json:"model"`
	Messages    []llm.ChatMessage `json:"messages" validate:"dive"`
	Temperature *float64          `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int               `json:"max_tokens" validate:"gte=0"`
}

// StreamRequest converts the body into an engine request
func (q QueryRequest) StreamRequest() llm.StreamRequest {
	return llm.StreamRequest{
		Query:           q.Query,
		Model:           q.Model,
		PriorMessages:   q.Messages,
		Temperature:     q.Temperature,
		MaxOutputTokens: q.MaxTokens,
	}
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string        `json:"error"`
	Kind  llm.ErrorKind `json:"kind"`
}

// Handler serves the query engine over HTTP
type Handler struct {
	engine   *query.Engine
	ledger   *ledger.Ledger
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a handler; ledger may be nil to skip usage recording
func NewHandler(engine *query.Engine, l *ledger.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		engine:   engine,
		ledger:   l,
		logger:   logger,
		validate: validator.New(),
	}
}

// HandleQuery runs one query and returns its content, usage and chunks
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, r, &llm.Error{Kind: llm.KindInvalidRequest, Message: "malformed JSON body", Cause: err})
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.writeError(w, r, &llm.Error{Kind: llm.KindInvalidRequest, Message: "request failed validation", Cause: err})
		return
	}

	result, err := h.engine.Query(r.Context(), body.StreamRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.ledger != nil {
		if _, err := h.ledger.Record(result.Provider, "http", result.Usage); err != nil {
			h.logger.Warn("failed to record usage", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleModels lists the registered models
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": h.engine.DefaultModel(),
		"models":  h.engine.Registry().Models(),
	})
}

// HandleUsage returns usage ledger statistics
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "usage ledger disabled", Kind: llm.KindUnknown})
		return
	}

	stats, err := h.ledger.GetStats()
	if err != nil {
		h.logger.Error("failed to read usage ledger", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "could not read usage", Kind: llm.KindUnknown})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "tally"})
}

// writeError logs the specific failure and answers with a generic message
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := llm.KindOf(err)
	status := statusFor(kind)

	h.logger.Error("query failed",
		"kind", kind,
		"status", status,
		"path", r.URL.Path,
		"error", err,
	)

	msg := "could not complete the request"
	var e *llm.Error
	if kind == llm.KindInvalidRequest || kind == llm.KindUnknownModel {
		// Caller mistakes are safe to echo back
		if errors.As(err, &e) {
			msg = e.Error()
		}
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

func statusFor(kind llm.ErrorKind) int {
	switch kind {
	case llm.KindInvalidRequest, llm.KindUnknownModel:
		return http.StatusBadRequest
	case llm.KindMissingCredential:
		return http.StatusServiceUnavailable
	case llm.KindNotStreaming, llm.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
