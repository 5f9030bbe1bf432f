package transport

import (
	"time"

	"github.com/roach88/hubsession/internal/message"
)

// ProcessItemResult is the transport's answer to a twin item hand-off.
type ProcessItemResult int

const (
	// ProcessOK means the item was accepted and now awaits an ack.
	ProcessOK ProcessItemResult = iota
	// ProcessError means the item was rejected and must be dropped.
	ProcessError
	// ProcessContinue means the transport is not ready; stop draining.
	ProcessContinue
	// ProcessNotConnected means there is no connection; stop draining.
	ProcessNotConnected
)

func (r ProcessItemResult) String() string {
	switch r {
	case ProcessOK:
		return "OK"
	case ProcessError:
		return "ERROR"
	case ProcessContinue:
		return "CONTINUE"
	case ProcessNotConnected:
		return "NOT_CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ConfirmationResult is the terminal outcome reported for telemetry.
type ConfirmationResult int

const (
	ConfirmationOK ConfirmationResult = iota
	ConfirmationBecauseDestroy
	ConfirmationMessageTimeout
	ConfirmationError
)

func (r ConfirmationResult) String() string {
	switch r {
	case ConfirmationOK:
		return "OK"
	case ConfirmationBecauseDestroy:
		return "BECAUSE_DESTROY"
	case ConfirmationMessageTimeout:
		return "MESSAGE_TIMEOUT"
	case ConfirmationError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Disposition is the accept/reject/abandon decision for an inbound message.
type Disposition int

const (
	DispositionAccepted Disposition = iota
	DispositionRejected
	DispositionAbandoned
	// DispositionAsyncAck tells the engine the caller will settle the
	// message later through SendMessageDisposition.
	DispositionAsyncAck
)

func (d Disposition) String() string {
	switch d {
	case DispositionAccepted:
		return "ACCEPTED"
	case DispositionRejected:
		return "REJECTED"
	case DispositionAbandoned:
		return "ABANDONED"
	case DispositionAsyncAck:
		return "ASYNC_ACK"
	default:
		return "UNKNOWN"
	}
}

// TwinUpdateState tells a full document apart from a desired-property patch.
type TwinUpdateState int

const (
	TwinComplete TwinUpdateState = iota
	TwinPartial
)

func (s TwinUpdateState) String() string {
	if s == TwinComplete {
		return "COMPLETE"
	}
	return "PARTIAL"
}

// ConnectionStatus is the authenticated state of the transport connection.
type ConnectionStatus int

const (
	ConnectionAuthenticated ConnectionStatus = iota
	ConnectionUnauthenticated
)

func (s ConnectionStatus) String() string {
	if s == ConnectionAuthenticated {
		return "AUTHENTICATED"
	}
	return "UNAUTHENTICATED"
}

// ConnectionStatusReason qualifies a ConnectionStatus change.
type ConnectionStatusReason int

const (
	ReasonExpiredSASToken ConnectionStatusReason = iota
	ReasonDeviceDisabled
	ReasonBadCredential
	ReasonRetryExpired
	ReasonNoNetwork
	ReasonCommunicationError
	ReasonConnectionOK
	ReasonNoPingResponse
)

func (r ConnectionStatusReason) String() string {
	switch r {
	case ReasonExpiredSASToken:
		return "EXPIRED_SAS_TOKEN"
	case ReasonDeviceDisabled:
		return "DEVICE_DISABLED"
	case ReasonBadCredential:
		return "BAD_CREDENTIAL"
	case ReasonRetryExpired:
		return "RETRY_EXPIRED"
	case ReasonNoNetwork:
		return "NO_NETWORK"
	case ReasonCommunicationError:
		return "COMMUNICATION_ERROR"
	case ReasonConnectionOK:
		return "CONNECTION_OK"
	case ReasonNoPingResponse:
		return "NO_PING_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// RetryPolicy selects the transport's reconnect strategy.
type RetryPolicy int

const (
	RetryNone RetryPolicy = iota
	RetryImmediate
	RetryInterval
	RetryLinearBackoff
	RetryExponentialBackoff
	RetryExponentialBackoffWithJitter
	RetryRandom
)

var retryPolicyNames = map[RetryPolicy]string{
	RetryNone:                         "NONE",
	RetryImmediate:                    "IMMEDIATE",
	RetryInterval:                     "INTERVAL",
	RetryLinearBackoff:                "LINEAR_BACKOFF",
	RetryExponentialBackoff:           "EXPONENTIAL_BACKOFF",
	RetryExponentialBackoffWithJitter: "EXPONENTIAL_BACKOFF_WITH_JITTER",
	RetryRandom:                       "RANDOM",
}

func (p RetryPolicy) String() string {
	if name, ok := retryPolicyNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseRetryPolicy maps a policy name back to its value.
func ParseRetryPolicy(name string) (RetryPolicy, bool) {
	for p, n := range retryPolicyNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// PlatformInfo is the level of platform detail a transport wants in the
// product info string.
type PlatformInfo int

const (
	PlatformInfoDefault PlatformInfo = iota
	PlatformInfoFull
)

// SendStatus reports whether telemetry is still waiting on the transport.
type SendStatus int

const (
	SendStatusIdle SendStatus = iota
	SendStatusBusy
)

func (s SendStatus) String() string {
	if s == SendStatusBusy {
		return "BUSY"
	}
	return "IDLE"
}

// ConfirmationFunc receives the single terminal outcome of a telemetry send.
type ConfirmationFunc func(result ConfirmationResult)

// Envelope is an owned telemetry clone waiting in the outbox.
type Envelope struct {
	Message *message.Message
	Confirm ConfirmationFunc

	// EnqueuedAt and Timeout drive the timeout sweep; Timeout 0 never expires.
	EnqueuedAt time.Time
	Timeout    time.Duration
}

// Expired reports whether the envelope's timeout has elapsed at now.
func (e *Envelope) Expired(now time.Time) bool {
	return e.Timeout != 0 && now.Sub(e.EnqueuedAt) > e.Timeout
}

// ReportedStateFunc receives the hub status code for a reported-state update.
// Status 0 means the engine was destroyed before an ack arrived.
type ReportedStateFunc func(status int)

// TwinRecord is a reported-state update owned by the engine until it
// receives exactly one terminal callback.
type TwinRecord struct {
	ID      uint32
	Payload []byte
	Done    ReportedStateFunc
}

// TwinFunc receives a twin document or patch.
type TwinFunc func(state TwinUpdateState, payload []byte)

// MethodHandle is the opaque token correlating a method request with its
// response.
type MethodHandle string

// DeviceHandle is the opaque per-device registration returned by Register.
type DeviceHandle any
