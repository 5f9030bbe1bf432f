package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/hubsession/internal/edge"
	"github.com/roach88/hubsession/internal/methodname"
	"github.com/roach88/hubsession/internal/transport"
)

// DefaultCommandStatus is the status sent when a command callback leaves
// the response status untouched.
const DefaultCommandStatus = 500

// MethodFunc handles a direct method and returns the status and response
// payload. An empty response fails the dispatch.
type MethodFunc func(name string, payload []byte) (status int, response []byte)

// InboundMethodFunc receives a direct method with the handle the caller must
// later pass to DeviceMethodResponse.
type InboundMethodFunc func(name string, payload []byte, h transport.MethodHandle) error

// CommandRequest is a direct method split into component and command.
type CommandRequest struct {
	Component    string
	HasComponent bool
	Command      string
	Payload      []byte
}

// CommandResponse is filled in by a CommandFunc. Status starts at
// DefaultCommandStatus.
type CommandResponse struct {
	Status  int
	Payload []byte
}

// CommandFunc handles a component command.
type CommandFunc func(req *CommandRequest, resp *CommandResponse)

// methodHandler is the method subscription state. A nil methodHandler is the
// unsubscribed state.
type methodHandler interface {
	variant() string
}

type legacyMethodHandler struct{ fn MethodFunc }

type inboundMethodHandler struct{ fn InboundMethodFunc }

type commandHandler struct{ fn CommandFunc }

const (
	variantLegacy  = "method"
	variantInbound = "inbound"
	variantCommand = "command"
)

func (legacyMethodHandler) variant() string  { return variantLegacy }
func (inboundMethodHandler) variant() string { return variantInbound }
func (commandHandler) variant() string       { return variantCommand }

// SetMethodCallback subscribes to direct methods answered synchronously by
// fn. A nil fn unsubscribes.
func (e *Engine) SetMethodCallback(fn MethodFunc) error {
	var h methodHandler
	if fn != nil {
		h = legacyMethodHandler{fn: fn}
	}
	return e.setMethodHandler("SetMethodCallback", variantLegacy, h)
}

// SetInboundMethodCallback subscribes to direct methods answered later via
// DeviceMethodResponse. A nil fn unsubscribes.
func (e *Engine) SetInboundMethodCallback(fn InboundMethodFunc) error {
	var h methodHandler
	if fn != nil {
		h = inboundMethodHandler{fn: fn}
	}
	return e.setMethodHandler("SetInboundMethodCallback", variantInbound, h)
}

// SetCommandCallback subscribes to direct methods as component commands. A
// nil fn unsubscribes.
func (e *Engine) SetCommandCallback(fn CommandFunc) error {
	var h methodHandler
	if fn != nil {
		h = commandHandler{fn: fn}
	}
	return e.setMethodHandler("SetCommandCallback", variantCommand, h)
}

func (e *Engine) setMethodHandler(op, want string, next methodHandler) error {
	if err := e.checkAlive(op); err != nil {
		return err
	}

	if e.methods != nil && e.methods.variant() != want {
		e.log.Error().Str("active", e.methods.variant()).Str("requested", want).Msg("method callback variant mismatch")
		return failure(op, ErrWrongCallbackVariant)
	}

	if next == nil {
		if e.methods == nil {
			e.log.Error().Msg("unsubscribe with no method callback registered")
			return failure(op, ErrNotSubscribed)
		}
		e.transport.UnsubscribeMethod(e.device)
		e.methods = nil
		return nil
	}

	if err := e.transport.SubscribeMethod(e.device); err != nil {
		e.log.Error().Err(err).Msg("failed to subscribe to direct methods")
		e.methods = nil
		return transportFailure(op, err)
	}
	e.methods = next
	return nil
}

// DeviceMethodResponse answers a method delivered to an InboundMethodFunc.
func (e *Engine) DeviceMethodResponse(h transport.MethodHandle, payload []byte, status int) error {
	const op = "DeviceMethodResponse"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if h == "" {
		return invalidArg(op, "method handle is empty")
	}
	if err := e.transport.SendMethodResponse(e.device, h, payload, status); err != nil {
		e.log.Error().Err(err).Str("handle", string(h)).Msg("failed to send method response")
		return transportFailure(op, err)
	}
	return nil
}

// methodReceived dispatches a direct method to the active handler.
func (e *Engine) methodReceived(name string, payload []byte, h transport.MethodHandle) error {
	if e.methods == nil {
		return nil
	}
	variant := e.methods.variant()

	var err error
	switch m := e.methods.(type) {
	case legacyMethodHandler:
		status, resp := m.fn(name, payload)
		err = e.respond(h, resp, status)
	case commandHandler:
		component, hasComponent, command := methodname.Split(name)
		req := &CommandRequest{
			Component:    component,
			HasComponent: hasComponent,
			Command:      command,
			Payload:      payload,
		}
		resp := &CommandResponse{Status: DefaultCommandStatus}
		m.fn(req, resp)
		err = e.respond(h, resp.Payload, resp.Status)
	case inboundMethodHandler:
		err = m.fn(name, payload, h)
	}

	if err != nil {
		e.log.Error().Err(err).Str("method", name).Str("variant", variant).Msg("method dispatch failed")
		e.metrics.Method(variant, "error")
		return err
	}
	e.metrics.Method(variant, "ok")
	return nil
}

func (e *Engine) respond(h transport.MethodHandle, payload []byte, status int) error {
	if len(payload) == 0 {
		return ErrMethodResponse
	}
	if err := e.transport.SendMethodResponse(e.device, h, payload, status); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// MethodResult is the answer to InvokeMethod.
type MethodResult struct {
	Status  int
	Payload []byte
}

// InvokeMethod calls a direct method on another device, or on a module when
// moduleID is set, through the edge gateway. It blocks until the target
// answers, timeout elapses, or ctx is done. Only module clients created with
// a gateway host can invoke methods.
func (e *Engine) InvokeMethod(ctx context.Context, deviceID, moduleID, method string, payload []byte, timeout time.Duration) (*MethodResult, error) {
	const op = "InvokeMethod"
	if err := e.checkAlive(op); err != nil {
		return nil, err
	}
	if deviceID == "" || method == "" {
		return nil, invalidArg(op, "device id and method name are required")
	}
	if e.invoker == nil {
		return nil, failure(op, ErrNoInvoker)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := e.invoker.Invoke(ctx, edge.MethodRequest{
		DeviceID: deviceID,
		ModuleID: moduleID,
		Method:   method,
		Payload:  payload,
		Timeout:  timeout,
	})
	if err != nil {
		e.log.Error().Err(err).Str("target_device", deviceID).Str("method", method).Msg("direct method invoke failed")
		return nil, failure(op, err)
	}
	return &MethodResult{Status: res.Status, Payload: res.Payload}, nil
}
