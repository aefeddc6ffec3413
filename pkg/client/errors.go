package client

import (
	"errors"
	"fmt"
	"net/http"
)

// DecodeKind describes why an upstream payload was rejected.
type DecodeKind string

const (
	// DecodeKindSyntax is malformed or mistyped JSON.
	DecodeKindSyntax DecodeKind = "syntax"

	// DecodeKindShape is well-formed JSON missing required fields.
	DecodeKindShape DecodeKind = "shape"
)

// UpstreamError is a failed upstream request: a transport error or a
// non-2xx response.
type UpstreamError struct {
	StatusCode int
	ErrorClass ErrorClass
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d) for %s: %s: %v",
			e.ErrorClass, e.StatusCode, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d) for %s: %s",
		e.ErrorClass, e.StatusCode, e.URL, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the upstream answered 404.
func (e *UpstreamError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// DecodeError is an upstream payload rejected at the fetch boundary.
type DecodeError struct {
	URL  string
	Kind DecodeKind
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s payload from %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries an upstream 404 anywhere in its chain.
func IsNotFound(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.IsNotFound()
}
