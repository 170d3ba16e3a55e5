package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed query
type ErrorKind string

const (
	KindUnknownModel      ErrorKind = "unknown_model"
	KindMissingCredential ErrorKind = "missing_credential"
	KindNoCapabilityData  ErrorKind = "no_capability_data"
	KindNotStreaming      ErrorKind = "not_streaming"
	KindTransport         ErrorKind = "provider_transport_failure"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindUnknown           ErrorKind = "unknown"
)

// Sentinels for errors.Is; every *Error matches the one for its kind.
var (
	ErrUnknownModel      = errors.New("unknown model")
	ErrMissingCredential = errors.New("missing credential")
	ErrNoCapabilityData  = errors.New("no capability data")
	ErrNotStreaming      = errors.New("provider did not stream")
	ErrProviderTransport = errors.New("provider transport failure")
	ErrInvalidRequest    = errors.New("invalid request")
)

var kindSentinels = map[ErrorKind]error{
	KindUnknownModel:      ErrUnknownModel,
	KindMissingCredential: ErrMissingCredential,
	KindNoCapabilityData:  ErrNoCapabilityData,
	KindNotStreaming:      ErrNotStreaming,
	KindTransport:         ErrProviderTransport,
	KindInvalidRequest:    ErrInvalidRequest,
}

// Error is returned by every stage of a query
type Error struct {
	Kind     ErrorKind
	Provider Provider
	Model    string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kindSentinels[e.Kind].Error()
	}

	switch {
	case e.Kind == KindMissingCredential:
		msg = fmt.Sprintf("%s for provider %s", msg, e.Provider)
	case e.Model != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Model)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf returns the kind of a query error, or KindUnknown
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func unknownModel(id string) error {
	return &Error{Kind: KindUnknownModel, Model: id}
}

func missingCredential(p Provider, env string) error {
	return &Error{
		Kind:     KindMissingCredential,
		Provider: p,
		Message:  fmt.Sprintf("%s is not set", env),
	}
}

func noCapabilityData(m Model) error {
	return &Error{Kind: KindNoCapabilityData, Provider: m.Provider, Model: m.ID}
}

func notStreaming(p Provider, model, contentType string) error {
	return &Error{
		Kind:     KindNotStreaming,
		Provider: p,
		Model:    model,
		Message:  fmt.Sprintf("response content type %q is not an event stream, check that the model supports streaming", contentType),
	}
}

func transportFailure(p Provider, model string, cause error) error {
	return &Error{Kind: KindTransport, Provider: p, Model: model, Cause: cause}
}

func invalidRequest(msg string) error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}
