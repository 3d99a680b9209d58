package apperr

import "fmt"

// BackendKind tells where a backend call failed.
type BackendKind int

const (
	// KindTransport means the request never produced a response
	// (DNS, connection refused, reset, timeout).
	KindTransport BackendKind = iota
	// KindResponse means the backend answered with an error payload.
	KindResponse
	// KindDecode means a response arrived but could not be parsed.
	KindDecode
)

func (k BackendKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindResponse:
		return "response"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// BackendError is produced at the storage boundary for every failed backend
// call. Code carries the PostgREST (PGRSTxxx) or SQLSTATE code when known.
type BackendError struct {
	Kind    BackendKind
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("backend %s error %s: %s", e.Kind, e.Code, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("backend %s error (http %d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("backend %s error: %s", e.Kind, e.Message)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure to reach the backend.
func TransportError(err error) *BackendError {
	return &BackendError{
		Kind:    KindTransport,
		Message: "network request failed: " + err.Error(),
		Err:     err,
	}
}
