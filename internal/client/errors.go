package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zhouzirui/carechat/internal/service/token"
)

// ErrMissingToken is returned by Send when no anti-forgery token is available.
var ErrMissingToken = token.ErrMissingToken

// TransportError wraps a failure to get any HTTP response at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "chat transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response.
type StatusError struct {
	Code        int
	Status      string
	ServerError string
}

func (e *StatusError) Error() string {
	if e.ServerError != "" {
		return fmt.Sprintf("chat status %d: %s", e.Code, e.ServerError)
	}
	return fmt.Sprintf("chat status %d", e.Code)
}

// ApplicationError is a 2xx envelope with success=false.
type ApplicationError struct {
	Message string
	Debug   json.RawMessage
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return "chat application error"
	}
	return "chat application error: " + e.Message
}

// MalformedResponseError is a 2xx response whose body is not a send envelope.
type MalformedResponseError struct {
	Body []byte
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "chat malformed response: " + e.Err.Error()
	}
	return "chat malformed response"
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Kind groups send failures into the categories the view reacts to.
type Kind int

const (
	KindNone Kind = iota
	KindMissingToken
	KindTransport
	KindHTTPStatus
	KindApplication
	KindMalformedResponse
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMissingToken:
		return "missing_token"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindApplication:
		return "application"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	var (
		transportErr *TransportError
		statusErr    *StatusError
		appErr       *ApplicationError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingToken):
		return KindMissingToken
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case errors.As(err, &appErr):
		return KindApplication
	case errors.As(err, &malformedErr):
		return KindMalformedResponse
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

const (
	msgMissingToken  = "Your session is missing a security token. Please reload the page and try again."
	msgTransport     = "Sorry, I'm having trouble connecting. Please check your internet connection and try again."
	msgExpired       = "Your session has expired. Please refresh the page and try again."
	msgServerError   = "The server encountered an error. Please try again later."
	msgGeneric       = "Sorry, something went wrong. Please try again."
	msgMalformed     = "Sorry, I received an unexpected response. Please try again."
	msgStatusPattern = "Sorry, the request failed (HTTP %d %s). Please try again."
)

// Describe returns the assistant-style text shown in the transcript for err.
func Describe(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindMissingToken:
		return msgMissingToken
	case KindTransport:
		return msgTransport
	case KindHTTPStatus:
		var statusErr *StatusError
		errors.As(err, &statusErr)
		switch statusErr.Code {
		case http.StatusForbidden:
			return msgExpired
		case http.StatusInternalServerError:
			return msgServerError
		default:
			return fmt.Sprintf(msgStatusPattern, statusErr.Code, http.StatusText(statusErr.Code))
		}
	case KindApplication:
		var appErr *ApplicationError
		errors.As(err, &appErr)
		if msg := strings.TrimSpace(appErr.Message); msg != "" {
			return msg
		}
		return msgGeneric
	case KindMalformedResponse:
		return msgMalformed
	default:
		return msgGeneric
	}
}
