package transport

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/queue"
)

// ErrInjected is returned by Loopback operations armed with Fail.
var ErrInjected = errors.New("loopback: injected failure")

// MethodResponse is a direct method answer captured by Loopback.
type MethodResponse struct {
	Handle  MethodHandle
	Payload []byte
	Status  int
}

// DispositionRecord is a message settlement captured by Loopback.
type DispositionRecord struct {
	MessageID   string
	Disposition Disposition
}

// Loopback is an in-memory Transport. Telemetry is "sent" by DoWork,
// reported-state items wait for an explicit Ack, and inbound traffic is
// injected through the Deliver and Invoke helpers.
//
// Loopback is single-threaded like the engine that drives it.
type Loopback struct {
	cfg Config
	cb  Callbacks

	device     DeviceConfig
	registered bool
	outbox     *queue.Queue[*Envelope]

	connected bool
	holdSends bool
	inFlight  []*Envelope

	processResults []ProcessItemResult
	failures       map[string]error
	pendingTwin    []TwinFunc
	nextMethod     int

	// Recorded interactions.
	Calls           []string
	Sent            []*message.Message
	Processed       []uint32
	Dispositions    []DispositionRecord
	Responses       []MethodResponse
	Options         map[string]any
	RetryPolicy     RetryPolicy
	RetryLimit      int
	PlatformInfo    PlatformInfo
	Destroyed       bool
	Subscriptions   map[string]bool
	LastProductInfo string
}

// NewLoopback creates a connected loopback transport.
func NewLoopback(cfg Config, cb Callbacks) *Loopback {
	return &Loopback{
		cfg:           cfg,
		cb:            cb,
		connected:     true,
		failures:      make(map[string]error),
		Options:       make(map[string]any),
		Subscriptions: make(map[string]bool),
	}
}

// LoopbackProvider is a Provider that creates Loopback transports and hands
// each one to created, if set.
func LoopbackProvider(created func(*Loopback)) Provider {
	return func(cfg Config, cb Callbacks) (Transport, error) {
		lb := NewLoopback(cfg, cb)
		if created != nil {
			created(lb)
		}
		return lb, nil
	}
}

// Fail arms op (a Transport method name) to return err on its next call.
func (l *Loopback) Fail(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	l.failures[op] = err
}

func (l *Loopback) record(op string) error {
	l.Calls = append(l.Calls, op)
	if err, ok := l.failures[op]; ok {
		delete(l.failures, op)
		return err
	}
	return nil
}

// SetConnected flips the connection and reports the change to the engine.
func (l *Loopback) SetConnected(connected bool) {
	l.connected = connected
	if connected {
		l.cb.ConnectionStatus(ConnectionAuthenticated, ReasonConnectionOK)
		return
	}
	l.cb.ConnectionStatus(ConnectionUnauthenticated, ReasonNoNetwork)
}

// HoldSends keeps telemetry in flight after DoWork instead of completing it.
func (l *Loopback) HoldSends(hold bool) {
	l.holdSends = hold
}

// QueueProcessResults scripts the results of the next ProcessItem calls.
// Once the script runs out ProcessItem returns ProcessOK.
func (l *Loopback) QueueProcessResults(results ...ProcessItemResult) {
	l.processResults = append(l.processResults, results...)
}

// CompleteSends finalizes every in-flight envelope with result.
func (l *Loopback) CompleteSends(result ConfirmationResult) {
	if len(l.inFlight) == 0 {
		return
	}
	batch := l.inFlight
	l.inFlight = nil
	l.cb.SendComplete(batch, result)
}

// InFlight returns the number of envelopes taken off the outbox but not
// yet completed.
func (l *Loopback) InFlight() int {
	return len(l.inFlight)
}

// Ack acknowledges a reported-state item.
func (l *Loopback) Ack(itemID uint32, status int) {
	l.cb.ReportedStateComplete(itemID, status)
}

// DeliverTwin pushes a twin document or patch to the engine.
func (l *Loopback) DeliverTwin(state TwinUpdateState, payload []byte) {
	l.cb.RetrievePropertyComplete(state, payload)
}

// CompleteGetTwin answers the oldest outstanding GetTwinAsync.
func (l *Loopback) CompleteGetTwin(payload []byte) bool {
	if len(l.pendingTwin) == 0 {
		return false
	}
	fn := l.pendingTwin[0]
	l.pendingTwin = l.pendingTwin[1:]
	fn(TwinComplete, payload)
	return true
}

// DeliverMessage pushes a cloud-to-device message.
func (l *Loopback) DeliverMessage(msg *message.Message) bool {
	return l.cb.MessageReceived(msg)
}

// DeliverInput pushes a message routed to a module input.
func (l *Loopback) DeliverInput(input string, msg *message.Message) bool {
	msg.InputName = input
	return l.cb.InputMessageReceived(msg)
}

// Invoke dispatches a direct method and returns its handle.
func (l *Loopback) Invoke(name string, payload []byte) (MethodHandle, error) {
	l.nextMethod++
	h := MethodHandle("method-" + strconv.Itoa(l.nextMethod))
	return h, l.cb.MethodReceived(name, payload, h)
}

// Register implements Transport.
func (l *Loopback) Register(device DeviceConfig, outbox *queue.Queue[*Envelope]) (DeviceHandle, error) {
	if err := l.record("Register"); err != nil {
		return nil, err
	}
	if l.registered {
		return nil, fmt.Errorf("loopback: device %s already registered", l.device.DeviceID)
	}
	l.device = device
	l.outbox = outbox
	l.registered = true
	l.LastProductInfo = l.cb.ProductInfo()
	return device.DeviceID, nil
}

// Unregister implements Transport. In-flight telemetry is completed with
// ConfirmationBecauseDestroy.
func (l *Loopback) Unregister(DeviceHandle) {
	_ = l.record("Unregister")
	l.CompleteSends(ConfirmationBecauseDestroy)
	l.registered = false
	l.outbox = nil
}

// Destroy implements Transport.
func (l *Loopback) Destroy() {
	_ = l.record("Destroy")
	l.Destroyed = true
}

func (l *Loopback) subscribe(op, key string) error {
	if err := l.record(op); err != nil {
		return err
	}
	l.Subscriptions[key] = true
	return nil
}

func (l *Loopback) unsubscribe(op, key string) {
	_ = l.record(op)
	delete(l.Subscriptions, key)
}

// Subscribe implements Transport.
func (l *Loopback) Subscribe(DeviceHandle) error { return l.subscribe("Subscribe", "messages") }

// Unsubscribe implements Transport.
func (l *Loopback) Unsubscribe(DeviceHandle) { l.unsubscribe("Unsubscribe", "messages") }

// SubscribeTwin implements Transport.
func (l *Loopback) SubscribeTwin(DeviceHandle) error { return l.subscribe("SubscribeTwin", "twin") }

// UnsubscribeTwin implements Transport.
func (l *Loopback) UnsubscribeTwin(DeviceHandle) { l.unsubscribe("UnsubscribeTwin", "twin") }

// SubscribeMethod implements Transport.
func (l *Loopback) SubscribeMethod(DeviceHandle) error { return l.subscribe("SubscribeMethod", "methods") }

// UnsubscribeMethod implements Transport.
func (l *Loopback) UnsubscribeMethod(DeviceHandle) { l.unsubscribe("UnsubscribeMethod", "methods") }

// SubscribeInputQueue implements Transport.
func (l *Loopback) SubscribeInputQueue(DeviceHandle) error {
	return l.subscribe("SubscribeInputQueue", "inputs")
}

// UnsubscribeInputQueue implements Transport.
func (l *Loopback) UnsubscribeInputQueue(DeviceHandle) {
	l.unsubscribe("UnsubscribeInputQueue", "inputs")
}

// GetTwinAsync implements Transport. The request stays pending until
// CompleteGetTwin.
func (l *Loopback) GetTwinAsync(_ DeviceHandle, fn TwinFunc) error {
	if err := l.record("GetTwinAsync"); err != nil {
		return err
	}
	l.pendingTwin = append(l.pendingTwin, fn)
	return nil
}

// ProcessItem implements Transport.
func (l *Loopback) ProcessItem(item *TwinRecord) ProcessItemResult {
	l.Calls = append(l.Calls, "ProcessItem")
	if !l.connected {
		return ProcessNotConnected
	}
	result := ProcessOK
	if len(l.processResults) > 0 {
		result = l.processResults[0]
		l.processResults = l.processResults[1:]
	}
	if result == ProcessOK {
		l.Processed = append(l.Processed, item.ID)
	}
	return result
}

// DoWork implements Transport. While connected it takes every envelope off
// the outbox and, unless sends are held, completes them with ConfirmationOK.
func (l *Loopback) DoWork() {
	l.Calls = append(l.Calls, "DoWork")
	if !l.connected || l.outbox == nil {
		return
	}
	for {
		env, ok := l.outbox.PopFront()
		if !ok {
			break
		}
		l.Sent = append(l.Sent, env.Message)
		l.inFlight = append(l.inFlight, env)
	}
	if !l.holdSends {
		l.CompleteSends(ConfirmationOK)
	}
}

// SendMessageDisposition implements Transport.
func (l *Loopback) SendMessageDisposition(_ DeviceHandle, msg *message.Message, d Disposition) error {
	if err := l.record("SendMessageDisposition"); err != nil {
		return err
	}
	l.Dispositions = append(l.Dispositions, DispositionRecord{MessageID: msg.MessageID, Disposition: d})
	return nil
}

// SendMethodResponse implements Transport.
func (l *Loopback) SendMethodResponse(_ DeviceHandle, h MethodHandle, payload []byte, status int) error {
	if err := l.record("SendMethodResponse"); err != nil {
		return err
	}
	l.Responses = append(l.Responses, MethodResponse{
		Handle:  h,
		Payload: append([]byte(nil), payload...),
		Status:  status,
	})
	return nil
}

// SendStatus implements Transport.
func (l *Loopback) SendStatus(DeviceHandle) (SendStatus, error) {
	if (l.outbox != nil && l.outbox.Len() > 0) || len(l.inFlight) > 0 {
		return SendStatusBusy, nil
	}
	return SendStatusIdle, nil
}

// Hostname implements Transport.
func (l *Loopback) Hostname() (string, error) {
	if err := l.record("Hostname"); err != nil {
		return "", err
	}
	if l.cfg.HubName == "" {
		return "", errors.New("loopback: no hub name configured")
	}
	return l.cfg.HubName + "." + l.cfg.HubSuffix, nil
}

// SetRetryPolicy implements Transport.
func (l *Loopback) SetRetryPolicy(policy RetryPolicy, timeoutLimitSeconds int) error {
	if err := l.record("SetRetryPolicy"); err != nil {
		return err
	}
	l.RetryPolicy = policy
	l.RetryLimit = timeoutLimitSeconds
	return nil
}

// SetOption implements Transport.
func (l *Loopback) SetOption(name string, value any) error {
	if err := l.record("SetOption:" + name); err != nil {
		return err
	}
	l.Options[name] = value
	return nil
}

// SupportedPlatformInfo implements Transport.
func (l *Loopback) SupportedPlatformInfo() (PlatformInfo, error) {
	if err := l.record("SupportedPlatformInfo"); err != nil {
		return PlatformInfoDefault, err
	}
	return l.PlatformInfo, nil
}

// SetCallbacks implements Transport.
func (l *Loopback) SetCallbacks(cb Callbacks) error {
	if err := l.record("SetCallbacks"); err != nil {
		return err
	}
	l.cb = cb
	return nil
}
