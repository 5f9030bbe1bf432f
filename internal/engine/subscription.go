package engine

import (
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/transport"
)

// MessageFunc handles an inbound message and returns its disposition.
// Returning DispositionAsyncAck defers settlement to SendMessageDisposition.
type MessageFunc func(msg *message.Message) transport.Disposition

// MessageFuncEx handles an inbound message and reports whether it was
// taken. The caller settles it later through SendMessageDisposition.
type MessageFuncEx func(msg *message.Message) bool

// messageHandler is the message-delivery subscription state. A nil
// messageHandler is the unsubscribed state.
type messageHandler interface {
	variant() string
}

type syncMessageHandler struct{ fn MessageFunc }

type asyncMessageHandler struct{ fn MessageFuncEx }

const (
	variantNone  = "none"
	variantSync  = "sync"
	variantAsync = "async"
)

func (syncMessageHandler) variant() string  { return variantSync }
func (asyncMessageHandler) variant() string { return variantAsync }

func variantOf(h messageHandler) string {
	if h == nil {
		return variantNone
	}
	return h.variant()
}

// SetMessageCallback subscribes to cloud-to-device messages with a callback
// that returns the disposition. A nil fn unsubscribes. Fails while an
// asynchronous callback is active.
func (e *Engine) SetMessageCallback(fn MessageFunc) error {
	if fn == nil {
		return e.setMessageHandler("SetMessageCallback", variantSync, nil)
	}
	return e.setMessageHandler("SetMessageCallback", variantSync, syncMessageHandler{fn: fn})
}

// SetMessageCallbackEx subscribes with a callback that settles messages
// itself. A nil fn unsubscribes. Fails while a synchronous callback is
// active.
func (e *Engine) SetMessageCallbackEx(fn MessageFuncEx) error {
	if fn == nil {
		return e.setMessageHandler("SetMessageCallbackEx", variantAsync, nil)
	}
	return e.setMessageHandler("SetMessageCallbackEx", variantAsync, asyncMessageHandler{fn: fn})
}

func (e *Engine) setMessageHandler(op, want string, next messageHandler) error {
	if err := e.checkAlive(op); err != nil {
		return err
	}

	active := variantOf(e.messages)
	if e.messages != nil && active != want {
		e.log.Error().Str("active", active).Str("requested", want).Msg("message callback variant mismatch")
		return failure(op, ErrWrongCallbackVariant)
	}

	if next == nil {
		if e.messages == nil {
			e.log.Error().Msg("unsubscribe with no message callback registered")
			return failure(op, ErrNotSubscribed)
		}
		e.transport.Unsubscribe(e.device)
		e.messages = nil
		return nil
	}

	if err := e.transport.Subscribe(e.device); err != nil {
		e.log.Error().Err(err).Msg("failed to subscribe to messages")
		e.messages = nil
		return transportFailure(op, err)
	}
	e.messages = next
	return nil
}

// SendMessageDisposition settles a message delivered to an asynchronous
// callback or deferred with DispositionAsyncAck.
func (e *Engine) SendMessageDisposition(msg *message.Message, d transport.Disposition) error {
	const op = "SendMessageDisposition"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if msg == nil {
		return invalidArg(op, "message is nil")
	}
	if d == transport.DispositionAsyncAck {
		return invalidArg(op, "%s is not a settlement", d)
	}
	if err := e.transport.SendMessageDisposition(e.device, msg, d); err != nil {
		return transportFailure(op, err)
	}
	return nil
}

func (e *Engine) messageReceived(msg *message.Message) bool {
	e.lastReceive = e.clock.Now()
	if e.messages == nil {
		e.log.Warn().Msg("message received with no callback registered")
		return false
	}
	return e.deliver("c2d", e.messages, msg)
}

// deliver hands msg to h. A synchronous handler's disposition is sent to the
// transport unless it defers settlement.
func (e *Engine) deliver(route string, h messageHandler, msg *message.Message) bool {
	switch h := h.(type) {
	case syncMessageHandler:
		d := h.fn(msg)
		e.metrics.Inbound(route, d.String())
		if d == transport.DispositionAsyncAck {
			return true
		}
		if err := e.transport.SendMessageDisposition(e.device, msg, d); err != nil {
			e.log.Error().Err(err).Str("message_id", msg.MessageID).Stringer("disposition", d).Msg("failed to send disposition")
		}
		return true
	case asyncMessageHandler:
		e.metrics.Inbound(route, "deferred")
		return h.fn(msg)
	default:
		return false
	}
}

// inputRoute binds a module input name to its callback. The empty name is
// the default route for inputs without an explicit entry.
type inputRoute struct {
	name    string
	handler messageHandler
}

// SetInputMessageCallback routes messages arriving on input to fn. An empty
// input registers the default route. A nil fn removes the route.
func (e *Engine) SetInputMessageCallback(input string, fn MessageFunc) error {
	var h messageHandler
	if fn != nil {
		h = syncMessageHandler{fn: fn}
	}
	return e.setInputRoute("SetInputMessageCallback", input, h)
}

// SetInputMessageCallbackEx is SetInputMessageCallback for callbacks that
// settle messages themselves.
func (e *Engine) SetInputMessageCallbackEx(input string, fn MessageFuncEx) error {
	var h messageHandler
	if fn != nil {
		h = asyncMessageHandler{fn: fn}
	}
	return e.setInputRoute("SetInputMessageCallbackEx", input, h)
}

func (e *Engine) findInput(name string) int {
	for i, r := range e.inputs {
		if r.name == name {
			return i
		}
	}
	return -1
}

func (e *Engine) setInputRoute(op, input string, h messageHandler) error {
	if err := e.checkAlive(op); err != nil {
		return err
	}
	idx := e.findInput(input)

	if h == nil {
		if idx < 0 {
			e.log.Error().Str("input", input).Msg("no callback registered for input")
			return failure(op, ErrNotSubscribed)
		}
		e.inputs = append(e.inputs[:idx], e.inputs[idx+1:]...)
		if len(e.inputs) == 0 {
			e.transport.UnsubscribeInputQueue(e.device)
		}
		return nil
	}

	if idx >= 0 {
		e.inputs[idx].handler = h
		return nil
	}

	first := len(e.inputs) == 0
	e.inputs = append(e.inputs, &inputRoute{name: input, handler: h})
	if first {
		if err := e.transport.SubscribeInputQueue(e.device); err != nil {
			e.log.Error().Err(err).Str("input", input).Msg("failed to subscribe to input queue")
			e.inputs = nil
			return transportFailure(op, err)
		}
	}
	return nil
}

func (e *Engine) inputMessageReceived(msg *message.Message) bool {
	idx := e.findInput(msg.InputName)
	if idx < 0 {
		idx = e.findInput("")
	}
	if idx < 0 {
		e.log.Warn().Str("input", msg.InputName).Msg("no route for input message")
		return false
	}

	e.lastReceive = e.clock.Now()
	return e.deliver("input", e.inputs[idx].handler, msg)
}
