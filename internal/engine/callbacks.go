package engine

import (
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/transport"
)

// transportCallbacks is the sink handed to the transport. It keeps the
// engine's exported surface free of transport-only entry points.
type transportCallbacks struct {
	e *Engine
}

var _ transport.Callbacks = (*transportCallbacks)(nil)

// SendComplete finalizes each envelope exactly once, in the order given.
func (c *transportCallbacks) SendComplete(completed []*transport.Envelope, result transport.ConfirmationResult) {
	for _, env := range completed {
		c.e.finishTelemetry(env, result)
	}
}

func (c *transportCallbacks) RetrievePropertyComplete(state transport.TwinUpdateState, payload []byte) {
	c.e.retrievePropertyComplete(state, payload)
}

func (c *transportCallbacks) ReportedStateComplete(itemID uint32, status int) {
	c.e.reportedStateComplete(itemID, status)
}

func (c *transportCallbacks) ConnectionStatus(status transport.ConnectionStatus, reason transport.ConnectionStatusReason) {
	c.e.log.Info().Stringer("status", status).Stringer("reason", reason).Msg("connection status changed")
	if c.e.connStatus != nil {
		c.e.connStatus(status, reason)
	}
}

func (c *transportCallbacks) ProductInfo() string { return c.e.productInfo }

func (c *transportCallbacks) ModelID() string { return c.e.modelID }

func (c *transportCallbacks) MessageReceived(msg *message.Message) bool {
	return c.e.messageReceived(msg)
}

func (c *transportCallbacks) InputMessageReceived(msg *message.Message) bool {
	return c.e.inputMessageReceived(msg)
}

func (c *transportCallbacks) MethodReceived(name string, payload []byte, handle transport.MethodHandle) error {
	return c.e.methodReceived(name, payload, handle)
}
