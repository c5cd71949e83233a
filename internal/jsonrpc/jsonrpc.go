// Package jsonrpc implements the JSON-RPC 2.0 envelope used by every gateway
// endpoint: request validation, the fixed error-code taxonomy, and response
// encoding. Application errors are always rendered as HTTP 200 with a
// JSON-RPC error body; only unrouted transport paths use other statuses.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Version is the only protocol version the gateway accepts.
const Version = "2.0"

// Error codes. The -32700..-32603 range is defined by the JSON-RPC 2.0
// specification; the -32001..-32005 range is application-defined and stable
// across all namespaces.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeAuthentication = -32001
	CodeAuthorization  = -32002
	CodeValidation     = -32003
	CodeNotFound       = -32004
	CodeRateLimited    = -32005
)

// Request is the inbound JSON-RPC envelope. Params and ID are deferred:
// params are decoded per-method by the router, and the ID is echoed back
// verbatim (string, number, or null).
type Request struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is the outbound envelope. Exactly one of Result and Err is set.
type Response struct {
	Version string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Err     *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC error object. Code is always one of the constants
// above; handlers pick from the taxonomy, they do not invent codes.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError creates an error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithData returns a copy of the error carrying structured detail data.
func (e *Error) WithData(data any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Data: data}
}

// Convenience constructors for the application range.

func AuthenticationError(message string) *Error {
	return NewError(CodeAuthentication, message)
}

func AuthorizationError(message string) *Error {
	return NewError(CodeAuthorization, message)
}

func ValidationError(message string) *Error {
	return NewError(CodeValidation, message)
}

func NotFoundError(message string) *Error {
	return NewError(CodeNotFound, message)
}

// InternalError wraps a collaborator failure. The underlying message is
// preserved in Data so operators can diagnose without the code leaking into
// the top-level taxonomy.
func InternalError(err error) *Error {
	rpcErr := NewError(CodeInternalError, "internal error")
	if err != nil {
		rpcErr.Data = err.Error()
	}
	return rpcErr
}

// AsError normalizes any handler failure to a taxonomy error. *Error values
// pass through; everything else becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if rpcErr, ok := err.(*Error); ok {
		return rpcErr
	}
	return InternalError(err)
}

// ParseRequest validates the raw body against the envelope rules: the body
// must be a JSON object, the jsonrpc field must equal "2.0" exactly and the
// method must be a non-empty string. Only syntactically invalid JSON is a
// parse error; valid JSON of the wrong shape (an array body, a numeric
// jsonrpc field) is an invalid request. On failure the returned *Error
// reports at id null because a malformed envelope's id cannot be trusted.
func ParseRequest(body []byte) (*Request, *Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if !json.Valid(body) {
			return nil, NewError(CodeParseError, "parse error")
		}
		return nil, NewError(CodeInvalidRequest, "invalid request: body must be an object")
	}

	req := &Request{Params: fields["params"], ID: fields["id"]}
	if json.Unmarshal(fields["jsonrpc"], &req.Version) != nil || req.Version != Version {
		return nil, NewError(CodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\"")
	}
	if json.Unmarshal(fields["method"], &req.Method) != nil || req.Method == "" {
		return nil, NewError(CodeInvalidRequest, "invalid request: method is required")
	}
	return req, nil
}

// nullID is the id used when the request envelope could not be trusted.
var nullID = json.RawMessage("null")

// WriteResult writes a success envelope echoing the caller-supplied id.
func WriteResult(w http.ResponseWriter, id json.RawMessage, result any) {
	writeResponse(w, &Response{Version: Version, Result: result, ID: echoID(id)})
}

// WriteError writes an error envelope. Pass a nil id for failures detected
// before the envelope was validated.
func WriteError(w http.ResponseWriter, id json.RawMessage, rpcErr *Error) {
	writeResponse(w, &Response{Version: Version, Err: rpcErr, ID: echoID(id)})
}

func echoID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
