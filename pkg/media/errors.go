package media

import (
	"context"
	"errors"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedContent = errors.New("unsupported content")
	ErrTimedOut           = errors.New("timed out")
	ErrResolutionParse    = errors.New("unparsable extractor output")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrNoLocators         = errors.New("no locators resolved")
	ErrStream             = errors.New("stream error")
)

// Error is a classified failure. Message is safe to show to users, Err stays server-side.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError builds a classified error
func NewError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var defaultMessages = map[error]string{
	ErrInvalidInput:       "Invalid URL",
	ErrUnsupportedContent: "This content is not supported",
	ErrTimedOut:           "The request took too long, please try again",
	ErrResolutionParse:    "Failed to read media information",
	ErrExtractionFailed:   "Failed to fetch media information",
	ErrNoLocators:         "No downloadable stream was found",
	ErrStream:             "Download interrupted",
}

var kindOrder = []error{
	ErrInvalidInput,
	ErrUnsupportedContent,
	ErrTimedOut,
	ErrResolutionParse,
	ErrNoLocators,
	ErrExtractionFailed,
	ErrStream,
}

// KindOf returns the error kind of err, or nil for unclassified errors
func KindOf(err error) error {
	for _, k := range kindOrder {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// UserMessage returns text that can be returned to a client without leaking diagnostics
func UserMessage(err error) string {
	var me *Error
	if errors.As(err, &me) && me.Message != "" {
		return me.Message
	}
	if msg, ok := defaultMessages[KindOf(err)]; ok {
		return msg
	}
	return "Something went wrong"
}

// StatusClientClosedRequest is the nginx convention for a client that left before the answer
const StatusClientClosedRequest = 499

// HTTPStatus maps an error to the status used for structured error responses
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnsupportedContent:
		return http.StatusUnprocessableEntity
	case ErrTimedOut:
		return http.StatusGatewayTimeout
	case ErrResolutionParse, ErrExtractionFailed, ErrNoLocators, ErrStream:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) {
		return StatusClientClosedRequest
	}
	return http.StatusInternalServerError
}
