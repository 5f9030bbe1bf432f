package engine

import (
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/transport"
)

// SendEvent queues a clone of msg for delivery. cb, if non-nil, receives
// exactly one confirmation. The caller keeps ownership of msg.
func (e *Engine) SendEvent(msg *message.Message, cb transport.ConfirmationFunc) error {
	const op = "SendEvent"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if msg == nil {
		e.log.Error().Msg("SendEvent called with a nil message")
		return invalidArg(op, "message is nil")
	}

	env := &transport.Envelope{
		Message: msg.Clone(),
		Confirm: cb,
	}
	if e.messageTimeout != 0 {
		env.EnqueuedAt = e.clock.Now()
		env.Timeout = e.messageTimeout
	}
	e.addDiagnostic(env.Message)

	e.waitingToSend.PushBack(env)
	return nil
}

// SendEventToOutput routes a clone of msg to the named module output.
func (e *Engine) SendEventToOutput(msg *message.Message, outputName string, cb transport.ConfirmationFunc) error {
	const op = "SendEventToOutput"
	if msg == nil || outputName == "" {
		return invalidArg(op, "message and output name are required")
	}
	routed := msg.Clone()
	routed.OutputName = outputName
	return e.SendEvent(routed, cb)
}

// finishTelemetry delivers the single terminal outcome of env.
func (e *Engine) finishTelemetry(env *transport.Envelope, result transport.ConfirmationResult) {
	if env.Confirm != nil {
		env.Confirm(result)
	}

	o := Outcome{Kind: OutcomeTelemetry, Result: result.String()}
	if env.Message != nil {
		o.MessageID = env.Message.MessageID
		o.Payload = env.Message.Body
	}
	e.recordOutcome(o)
}

// sweepTimeouts completes every expired envelope with
// ConfirmationMessageTimeout, oldest first, leaving the rest in order.
func (e *Engine) sweepTimeouts() {
	now := e.clock.Now()
	expired := e.waitingToSend.Extract(func(env *transport.Envelope) bool {
		return env.Expired(now)
	})
	for _, env := range expired {
		e.log.Debug().Str("message_id", env.Message.MessageID).Msg("telemetry timed out")
		e.finishTelemetry(env, transport.ConfirmationMessageTimeout)
	}
}
