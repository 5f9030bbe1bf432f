package harness

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/hubsession/internal/clock"
	"github.com/roach88/hubsession/internal/engine"
	"github.com/roach88/hubsession/internal/journal"
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/transport"
)

// Start is the clock reading at the beginning of every run.
var Start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultConnectionString is used by scenarios that do not name one.
const DefaultConnectionString = "HostName=sim.azure-devices.net;DeviceId=sim-device;SharedAccessKey=c2ltdWxhdG9y"

// Option configures a run.
type Option func(*Harness)

// WithLogger passes l to the engine and the journal.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Harness) {
		h.log = l
	}
}

// Harness drives one engine over a loopback transport.
type Harness struct {
	engine    *engine.Engine
	lb        *transport.Loopback
	clock     *clock.Manual
	result    *Result
	log       zerolog.Logger
	destroyed bool
}

// Run executes scenario in a fresh engine with an in-memory journal.
//
// Steps the engine rejects are traced as error events. A rejection the
// step did not expect fails the result but does not stop the run. Steps
// the harness cannot interpret abort the run with an error.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		clock:  clock.NewManual(Start),
		result: NewResult(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	j, err := journal.Open(":memory:", journal.WithLogger(h.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	cs := scenario.ConnectionString
	if cs == "" {
		cs = DefaultConnectionString
	}
	e, err := engine.NewFromConnectionString(cs,
		transport.LoopbackProvider(func(l *transport.Loopback) { h.lb = l }),
		engine.WithClock(h.clock),
		engine.WithRand(rand.New(rand.NewPCG(1, 2))),
		engine.WithJournal(j),
		engine.WithLogger(h.log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	h.engine = e

	if err := e.SetConnectionStatusCallback(h.onConnectionStatus); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("failed to register connection status callback: %w", err)
	}

	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			h.destroy()
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
	}
	h.destroy()

	counts, err := j.Summary(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	h.result.Journal = counts

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.engine.Destroy()
}

// execute runs one step. Only malformed steps return an error; engine
// failures are traced and checked against ExpectError.
func (h *Harness) execute(step Step) error {
	var err error

	switch step.Op {
	case OpSendEvent:
		msg := message.NewString(step.Body)
		msg.MessageID = step.ID
		if step.Output != "" {
			err = h.engine.SendEventToOutput(msg, step.Output, h.onConfirmation(step.ID))
		} else {
			err = h.engine.SendEvent(msg, h.onConfirmation(step.ID))
		}

	case OpSendReportedState:
		var payload []byte
		if step.Payload != "" {
			payload = []byte(step.Payload)
		}
		err = h.engine.SendReportedState(payload, h.onReportedState(step.ID))

	case OpDoWork:
		h.engine.DoWork()

	case OpAdvance:
		h.clock.Advance(step.Duration)

	case OpSetConnected:
		h.lb.SetConnected(step.Connected)

	case OpHoldSends:
		h.lb.HoldSends(step.Hold)

	case OpCompleteSends:
		result, perr := parseConfirmation(step.Result)
		if perr != nil {
			return perr
		}
		h.lb.CompleteSends(result)

	case OpAck:
		h.lb.Ack(step.Item, step.Status)

	case OpProcessResults:
		results := make([]transport.ProcessItemResult, 0, len(step.Results))
		for _, name := range step.Results {
			r, perr := parseProcessResult(name)
			if perr != nil {
				return perr
			}
			results = append(results, r)
		}
		h.lb.QueueProcessResults(results...)

	case OpSetTwinCallback:
		err = h.engine.SetTwinCallback(h.onTwin("update"))

	case OpClearTwinCallback:
		err = h.engine.SetTwinCallback(nil)

	case OpGetTwin:
		err = h.engine.GetTwin(h.onTwin("get"))

	case OpCompleteGetTwin:
		if !h.lb.CompleteGetTwin([]byte(step.Payload)) {
			return errors.New("no get_twin request is pending")
		}

	case OpDeliverTwin:
		state, perr := parseTwinState(step.State)
		if perr != nil {
			return perr
		}
		h.lb.DeliverTwin(state, []byte(step.Payload))

	case OpSetMessageCallback:
		d, perr := parseDisposition(step.Disposition)
		if perr != nil {
			return perr
		}
		err = h.engine.SetMessageCallback(h.onMessage(d))

	case OpDeliverMessage:
		msg := message.NewString(step.Body)
		msg.MessageID = step.ID
		h.lb.DeliverMessage(msg)

	case OpSetInputCallback:
		d, perr := parseDisposition(step.Disposition)
		if perr != nil {
			return perr
		}
		err = h.engine.SetInputMessageCallback(step.Input, h.onMessage(d))

	case OpDeliverInput:
		msg := message.NewString(step.Body)
		msg.MessageID = step.ID
		h.lb.DeliverInput(step.Input, msg)

	case OpSetMethodCallback:
		status, response := step.Status, []byte(step.Response)
		err = h.engine.SetMethodCallback(func(name string, payload []byte) (int, []byte) {
			h.result.record(EventMethod, map[string]any{
				"name":    name,
				"payload": string(payload),
			})
			return status, response
		})

	case OpSetCommandCallback:
		status, response := step.Status, []byte(step.Response)
		err = h.engine.SetCommandCallback(func(req *engine.CommandRequest, resp *engine.CommandResponse) {
			h.result.record(EventMethod, map[string]any{
				"component": req.Component,
				"command":   req.Command,
				"payload":   string(req.Payload),
			})
			if status != 0 {
				resp.Status = status
			}
			resp.Payload = response
		})

	case OpInvoke:
		before := len(h.lb.Responses)
		_, err = h.lb.Invoke(step.Method, []byte(step.Payload))
		for _, r := range h.lb.Responses[before:] {
			h.result.record(EventMethodResponse, map[string]any{
				"status":  r.Status,
				"payload": string(r.Payload),
			})
		}

	case OpSetOption:
		err = h.engine.SetOption(step.Name, step.Value)

	case OpDestroy:
		h.destroy()

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	h.check(step, err)
	return nil
}

// check traces an engine failure and compares it with the expectation.
func (h *Harness) check(step Step, err error) {
	if err == nil {
		if step.ExpectError != "" {
			h.result.AddError(fmt.Sprintf("%s: expected %s, got success", step.Op, step.ExpectError))
		}
		return
	}

	code := errorCode(err)
	h.result.record(EventError, map[string]any{"op": step.Op, "code": code})
	switch {
	case step.ExpectError == "":
		h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", step.Op, err))
	case step.ExpectError != code:
		h.result.AddError(fmt.Sprintf("%s: expected %s, got %s: %v", step.Op, step.ExpectError, code, err))
	}
}

func errorCode(err error) string {
	var ee *engine.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return string(engine.CodeError)
}

func (h *Harness) onConfirmation(id string) transport.ConfirmationFunc {
	return func(result transport.ConfirmationResult) {
		h.result.record(EventConfirmation, map[string]any{
			"message_id": id,
			"result":     result.String(),
		})
	}
}

func (h *Harness) onReportedState(id string) transport.ReportedStateFunc {
	return func(status int) {
		h.result.record(EventReportedState, map[string]any{
			"id":     id,
			"status": status,
		})
	}
}

func (h *Harness) onTwin(source string) transport.TwinFunc {
	return func(state transport.TwinUpdateState, payload []byte) {
		h.result.record(EventTwin, map[string]any{
			"source":  source,
			"state":   state.String(),
			"payload": string(payload),
		})
	}
}

func (h *Harness) onMessage(d transport.Disposition) engine.MessageFunc {
	return func(msg *message.Message) transport.Disposition {
		fields := map[string]any{
			"message_id":  msg.MessageID,
			"body":        string(msg.Body),
			"disposition": d.String(),
		}
		if msg.InputName != "" {
			fields["input"] = msg.InputName
		}
		h.result.record(EventMessage, fields)
		return d
	}
}

func (h *Harness) onConnectionStatus(status transport.ConnectionStatus, reason transport.ConnectionStatusReason) {
	h.result.record(EventConnectionStatus, map[string]any{
		"status": status.String(),
		"reason": reason.String(),
	})
}

func parseConfirmation(name string) (transport.ConfirmationResult, error) {
	for _, r := range []transport.ConfirmationResult{
		transport.ConfirmationOK,
		transport.ConfirmationBecauseDestroy,
		transport.ConfirmationMessageTimeout,
		transport.ConfirmationError,
	} {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown confirmation result %q", name)
}

func parseProcessResult(name string) (transport.ProcessItemResult, error) {
	for _, r := range []transport.ProcessItemResult{
		transport.ProcessOK,
		transport.ProcessError,
		transport.ProcessContinue,
		transport.ProcessNotConnected,
	} {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown process result %q", name)
}

func parseTwinState(name string) (transport.TwinUpdateState, error) {
	switch name {
	case "", transport.TwinComplete.String():
		return transport.TwinComplete, nil
	case transport.TwinPartial.String():
		return transport.TwinPartial, nil
	}
	return 0, fmt.Errorf("unknown twin state %q", name)
}

func parseDisposition(name string) (transport.Disposition, error) {
	if name == "" {
		return transport.DispositionAccepted, nil
	}
	for _, d := range []transport.Disposition{
		transport.DispositionAccepted,
		transport.DispositionRejected,
		transport.DispositionAbandoned,
		transport.DispositionAsyncAck,
	} {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown disposition %q", name)
}
