// Package errmap translates between HTTP status codes and domain errors in
// both directions: responses from the remote API become domain sentinels,
// and domain errors raised inside the local view host become HTTP statuses.
package errmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aelexs/todo-session-client/internal/domain"
)

// HTTPError represents an error page rendered by the local view host.
type HTTPError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e HTTPError) Error() string {
	return e.Message
}

// httpMapping defines a domain error to HTTP status/code mapping.
type httpMapping struct {
	err        error
	statusCode int
	code       string
}

// httpMappings maps domain errors to HTTP status codes and error codes.
// Order matters: first match wins (via errors.Is). FromStatus walks the
// same table to go the other way, so each status appears once.
var httpMappings = []httpMapping{
	{domain.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
	{domain.ErrRefreshFailed, http.StatusUnauthorized, "SESSION_EXPIRED"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrForbidden, http.StatusForbidden, "PERMISSION_DENIED"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrConflict, http.StatusConflict, "ALREADY_EXISTS"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrUnexpectedResponse, http.StatusBadGateway, "BAD_GATEWAY"},
}

// statusAliases maps statuses that share a sentinel with a canonical entry.
var statusAliases = map[int]error{
	http.StatusUnprocessableEntity: domain.ErrInvalidInput,
	http.StatusBadGateway:          domain.ErrUnavailable,
	http.StatusGatewayTimeout:      domain.ErrUnavailable,
}

// ToHTTPError converts a domain error to an HTTP error.
func ToHTTPError(err error) HTTPError {
	if err == nil {
		return HTTPError{StatusCode: http.StatusOK}
	}
	for _, m := range httpMappings {
		if errors.Is(err, m.err) {
			return HTTPError{StatusCode: m.statusCode, Code: m.code, Message: err.Error()}
		}
	}
	// Never expose internal error details
	return HTTPError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal error"}
}

// ToHTTPStatusCode extracts just the HTTP status code for a domain error.
func ToHTTPStatusCode(err error) int {
	return ToHTTPError(err).StatusCode
}

// FromStatus returns the domain sentinel for a non-success status from the
// remote API. Unknown 5xx statuses map to ErrUnavailable; anything else
// unknown maps to ErrUnexpectedResponse.
func FromStatus(status int) error {
	if err, ok := statusAliases[status]; ok {
		return err
	}
	for _, m := range httpMappings {
		if m.statusCode == status && !domain.IsSessionFatal(m.err) {
			return m.err
		}
	}
	if status >= 500 {
		return domain.ErrUnavailable
	}
	return domain.ErrUnexpectedResponse
}

// APIError is a non-success response from the remote API. It unwraps to the
// domain sentinel for its status and carries the server's message, which the
// views show to the user.
type APIError struct {
	StatusCode int
	Message    string
	sentinel   error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Unwrap() error {
	return e.sentinel
}

// UserMessage returns the server's message, or fallback when there is none.
func (e *APIError) UserMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// errorBody is the error document the API returns. message is either a
// string or, for validation failures, a list of strings.
type errorBody struct {
	Message json.RawMessage `json:"message"`
}

// FromResponse builds an APIError from a non-success response. It reads at
// most domain.MaxErrorBodyBytes of the body and does not close it.
func FromResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, sentinel: FromStatus(resp.StatusCode)}
	if resp.Body == nil {
		return apiErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, domain.MaxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body errorBody
	if json.Unmarshal(data, &body) != nil || len(body.Message) == 0 {
		return apiErr
	}

	var single string
	if json.Unmarshal(body.Message, &single) == nil {
		apiErr.Message = single
		return apiErr
	}
	var list []string
	if json.Unmarshal(body.Message, &list) == nil {
		apiErr.Message = strings.Join(list, "; ")
	}
	return apiErr
}

// UserMessage extracts the message to show for err: the server's message
// for an APIError, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}
