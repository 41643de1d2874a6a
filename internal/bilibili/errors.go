package bilibili

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Status codes with dedicated handling. Everything else in the server
// error band is retried generically.
const (
	CodeRiskControl  = -412
	CodeVerification = -352
	CodeStreamDenied = -404
)

// The retryable band for generic request failures.
const (
	serverErrorLow  = -500
	serverErrorHigh = -400
)

const (
	shortBackoff    = 10 * time.Second
	riskControlWait = 5 * time.Minute
)

// FailureKind buckets a remote failure by how the caller should react.
type FailureKind int

const (
	FailRequest FailureKind = iota
	FailRiskControl
	FailVerification
	FailStreamDenied
	FailEmptyStream
	FailTimeout
	FailProtocol
)

func (k FailureKind) String() string {
	switch k {
	case FailRiskControl:
		return "risk_control"
	case FailVerification:
		return "verification_required"
	case FailStreamDenied:
		return "stream_denied"
	case FailEmptyStream:
		return "empty_stream"
	case FailTimeout:
		return "network_timeout"
	case FailProtocol:
		return "protocol_error"
	default:
		return "request_failed"
	}
}

// APIError is a non-zero status code returned by the remote platform.
type APIError struct {
	Code    int64
	Message string
	// Voucher carries the challenge token when the platform demands
	// interactive verification. Only set for CodeVerification.
	Voucher string
}

func (e *APIError) Error() string {
	if e.Voucher != "" {
		return fmt.Sprintf("remote error %d: %s (voucher %s)", e.Code, e.Message, e.Voucher)
	}
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// ErrEmptyStream reports a play-url response that contained no usable
// stream at all.
var ErrEmptyStream = errors.New("remote returned no playable stream")

// ProtocolError is a structurally malformed remote response. Retrying
// the same malformed payload is pointless, so it aborts the current
// source's scan.
type ProtocolError struct {
	Endpoint string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error from %s: %s", e.Endpoint, e.Reason)
}

// Classification tells a call site whether and when to retry.
type Classification struct {
	Kind      FailureKind
	Retryable bool
	// RetryIn is advisory: for non-retryable kinds it is the minimum
	// wait an operator should observe before trying again manually.
	RetryIn time.Duration
}

// Classify maps err to a failure kind and retry advice. Every remote
// call site consults this before deciding to retry, escalate or
// abandon an item.
func Classify(err error) Classification {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case CodeRiskControl:
			// Risk control needs operator intervention (typically a
			// cooldown or credential refresh), never an automatic retry.
			return Classification{Kind: FailRiskControl, RetryIn: riskControlWait}
		case CodeVerification:
			return Classification{Kind: FailVerification}
		case CodeStreamDenied:
			return Classification{Kind: FailStreamDenied}
		}
		if apiErr.Code >= serverErrorLow && apiErr.Code <= serverErrorHigh {
			return Classification{Kind: FailRequest, Retryable: true, RetryIn: shortBackoff}
		}
		return Classification{Kind: FailRequest}
	}

	if errors.Is(err, ErrEmptyStream) {
		return Classification{Kind: FailEmptyStream}
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return Classification{Kind: FailProtocol}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Classification{Kind: FailTimeout, Retryable: true, RetryIn: shortBackoff}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{Kind: FailTimeout, Retryable: true, RetryIn: shortBackoff}
	}

	return Classification{Kind: FailRequest}
}
