package intel

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable reports that a data source has no credentials
// configured. The affected phase is skipped; the audit continues.
var ErrRemoteUnavailable = errors.New("data source credentials are not configured")

// Store lookup errors.
var (
	ErrAuditNotFound  = errors.New("audit not found")
	ErrReportNotFound = errors.New("report not found")
)

// RemoteError is a logical failure reported by a provider (bad query,
// quota exceeded, invalid location name).
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// TransportError is a network or timeout failure talking to a provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a provider payload missing an expected
// nested field. Adapters convert it to an empty result at their boundary;
// it never propagates into pipeline code.
type MalformedResponseError struct {
	Missing string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: missing %s", e.Missing)
}

// IsDegradable reports whether err is one of the recoverable fetch
// failures that a fan-out call site converts to an empty result.
func IsDegradable(err error) bool {
	if err == nil {
		return false
	}
	var remote *RemoteError
	var transport *TransportError
	var malformed *MalformedResponseError
	return errors.Is(err, ErrRemoteUnavailable) ||
		errors.As(err, &remote) ||
		errors.As(err, &transport) ||
		errors.As(err, &malformed)
}
