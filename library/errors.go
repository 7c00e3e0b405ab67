package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNoToken is returned by a SessionStore when no token is stored.
var ErrNoToken = errors.New("no session token stored")

const networkErrorMessage = "Network error"

// APIError is the normalized failure of a client call. The set of
// implementations is closed: *NetworkError, *ValidationError,
// *UnauthorizedError, *NotFoundError, *ServerError and *DecodeError.
type APIError interface {
	error
	apiError()
}

// NetworkError means no usable response reached the client.
// StatusCode is zero when the transport itself failed.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", networkErrorMessage, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", networkErrorMessage, e.StatusCode)
	}
	return networkErrorMessage
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError carries the server's message and per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return withFields(e.Message, e.Fields) }

// UnauthorizedError is returned for 401 and 403 responses, including calls
// made without a stored token.
type UnauthorizedError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *UnauthorizedError) Error() string { return withFields(e.Message, e.Fields) }

// NotFoundError is returned when the addressed book or profile does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ServerError is any other error status that came with a structured body.
type ServerError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (status %d)", withFields(e.Message, e.Fields), e.StatusCode)
}

// DecodeError means a successful response did not match the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s response: %v", e.Op, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

func (*NetworkError) apiError()      {}
func (*ValidationError) apiError()   {}
func (*UnauthorizedError) apiError() {}
func (*NotFoundError) apiError()     {}
func (*ServerError) apiError()       {}
func (*DecodeError) apiError()       {}

// StorageError is a failure of the session store itself. It is never an
// APIError and never means "no token".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("session store %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// FieldErrors returns the per-field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Fields
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Fields
	}
	return nil
}

func withFields(msg string, fields map[string]string) string {
	if len(fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}

// errorBody is the structured error the API sends, either bare or inside
// a data envelope.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    *struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	} `json:"data"`
}

func parseErrorBody(body []byte) (string, map[string]string, bool) {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return "", nil, false
	}
	if eb.Message == "" && eb.Data != nil {
		return eb.Data.Message, eb.Data.Errors, eb.Data.Message != "" || len(eb.Data.Errors) > 0
	}
	return eb.Message, eb.Errors, eb.Message != "" || len(eb.Errors) > 0
}

// errorFromResponse maps an error status and its body to an APIError.
func errorFromResponse(status int, body []byte) APIError {
	msg, fields, structured := parseErrorBody(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Message: msg, Fields: fields}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &UnauthorizedError{StatusCode: status, Message: msg, Fields: fields}
	case http.StatusNotFound:
		return &NotFoundError{Message: msg}
	}
	if !structured {
		return &NetworkError{StatusCode: status}
	}
	return &ServerError{StatusCode: status, Message: msg, Fields: fields}
}
