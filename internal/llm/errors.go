package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Kind is the cause of a failed completion.
type Kind string

const (
	KindNone           Kind = ""
	KindTimeout        Kind = "timeout"
	KindAPIError       Kind = "api_error"
	KindConnection     Kind = "connection"
	KindInvalidRequest Kind = "invalid_request"
	KindAuthentication Kind = "authentication"
	KindPermission     Kind = "permission"
	KindRateLimit      Kind = "rate_limit"
	KindCanceled       Kind = "canceled"
	KindUnknown        Kind = "unknown"
)

// Classify maps a completion error to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindForStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	return KindUnknown
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindPermission
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	case 0:
		return KindUnknown
	}
	return KindAPIError
}

// Describe is the log message for a failure of this kind.
func (k Kind) Describe() string {
	switch k {
	case KindTimeout:
		return "completion request timed out"
	case KindAPIError:
		return "completion service returned an API error"
	case KindConnection:
		return "completion request failed to connect"
	case KindInvalidRequest:
		return "completion request was invalid"
	case KindAuthentication:
		return "completion request was not authorized"
	case KindPermission:
		return "completion request was not permitted"
	case KindRateLimit:
		return "completion request exceeded rate limit"
	case KindCanceled:
		return "completion request was canceled"
	}
	return "completion request failed"
}
