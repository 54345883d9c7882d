package llm

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a completion aborted by the caller. Callers must treat
// it as "stopped", not "failed"; it is never surfaced as an error message.
var ErrCancelled = errors.New("completion cancelled")

// EndpointError reports a non-success HTTP status from the inference
// endpoint.
type EndpointError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("llm: endpoint returned %d %s", e.Status, e.StatusText)
}

// TransportError reports a network-level failure before or during the
// exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("llm: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports an unusable top-level response shape on
// the non-streaming path (malformed streaming frames are skipped instead).
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string { return fmt.Sprintf("llm: malformed response: %v", e.Err) }
func (e *MalformedResponseError) Unwrap() error { return e.Err }
