package transport

import (
	"errors"
	"fmt"
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindTimeout means the request exceeded the endpoint's request timeout.
	KindTimeout Kind = iota
	// KindNetwork means the request never produced an HTTP response
	// (no route, refused connection, DNS failure).
	KindNetwork
	// KindHTTP means the device answered with a non-2xx status.
	KindHTTP
	// KindMalformed means the response body was not the expected JSON.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "TIMEOUT"
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindHTTP:
		return "HTTP_ERROR"
	case KindMalformed:
		return "MALFORMED_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// Error is the uniform failure shape produced by the device transport.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Body)
	default:
		if e.cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.cause)
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ErrDeviceRejected is returned when the device answers with an
// application-level ok=false. It is handled the same way as a transport
// failure by all callers.
var ErrDeviceRejected = errors.New("device reported ok=false")

// KindOf extracts the transport failure kind from err, reporting false when
// err is not a transport error.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
