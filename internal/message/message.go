// Package message defines the telemetry and cloud-to-device message type
// exchanged between callers, the session engine, and transports.
package message

import (
	"maps"
	"time"
)

// Diagnostic is the distributed-tracing tag attached to sampled telemetry.
type Diagnostic struct {
	ID           string
	CreationTime time.Time
}

// Message is a hub message with application properties.
//
// The engine never retains a caller's Message: SendEvent stores a Clone and
// the caller stays free to reuse or mutate the original.
type Message struct {
	Body            []byte
	ContentType     string
	ContentEncoding string
	MessageID       string
	CorrelationID   string
	Properties      map[string]string

	// InputName is set on messages routed to a module input queue.
	InputName string
	// OutputName routes module telemetry to a named output.
	OutputName string

	ConnectionDeviceID string
	ConnectionModuleID string

	Diagnostic *Diagnostic
}

// New creates a message carrying a copy of body.
func New(body []byte) *Message {
	return &Message{Body: append([]byte(nil), body...)}
}

// NewString creates a message whose body is s.
func NewString(s string) *Message {
	return &Message{Body: []byte(s)}
}

// Clone returns a deep copy of m. Cloning nil returns nil.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.Body != nil {
		c.Body = append([]byte(nil), m.Body...)
	}
	if m.Properties != nil {
		c.Properties = maps.Clone(m.Properties)
	}
	if m.Diagnostic != nil {
		d := *m.Diagnostic
		c.Diagnostic = &d
	}
	return &c
}

// SetProperty sets an application property, allocating the map on first use.
func (m *Message) SetProperty(key, value string) {
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[key] = value
}

// Property returns an application property.
func (m *Message) Property(key string) (string, bool) {
	v, ok := m.Properties[key]
	return v, ok
}
