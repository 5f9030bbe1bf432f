package engine

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/clock"
	"github.com/roach88/hubsession/internal/edge"
	"github.com/roach88/hubsession/internal/metrics"
	"github.com/roach88/hubsession/internal/queue"
	"github.com/roach88/hubsession/internal/transport"
)

// Queue names used for metrics and logs.
const (
	queueWaitingToSend = "waiting_to_send"
	queuePendingTwin   = "pending_twin"
	queueAwaitingAck   = "awaiting_ack"
)

// BlobUploader is the part of a blob upload module the engine forwards
// options to.
type BlobUploader interface {
	SetOption(name string, value any) error
}

// MethodInvoker performs blocking direct method calls. *edge.Invoker
// implements it.
type MethodInvoker interface {
	Invoke(ctx context.Context, req edge.MethodRequest) (*edge.MethodResult, error)
}

// ConnectionStatusFunc receives connection status changes.
type ConnectionStatusFunc func(status transport.ConnectionStatus, reason transport.ConnectionStatusReason)

// Engine is the session core of one device or module client.
type Engine struct {
	log      zerolog.Logger
	clock    clock.Clock
	metrics  *metrics.Collector
	outcomes OutcomeSink
	rnd      *rand.Rand
	uploader BlobUploader
	invoker  MethodInvoker
	hsm      auth.DeviceAuth

	auth          *auth.Manager
	transport     transport.Transport
	ownsTransport bool
	device        transport.DeviceHandle
	registered    bool
	deviceID      string
	moduleID      string

	waitingToSend *queue.Queue[*transport.Envelope]
	pendingTwin   *queue.Queue[*transport.TwinRecord]
	awaitingAck   *queue.Queue[*transport.TwinRecord]

	messages         messageHandler
	methods          methodHandler
	inputs           []*inputRoute
	twin             transport.TwinFunc
	completeTwinSeen bool
	connStatus       ConnectionStatusFunc

	retryPolicy    transport.RetryPolicy
	retryLimit     int
	lastReceive    time.Time
	messageTimeout time.Duration
	itemCounter    uint32
	productInfo    string
	modelID        string
	diagPercent    uint32
	diagCounter    uint32

	destroyed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source for timeouts, receive times and token
// expiry.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics sets the Prometheus collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithJournal sets the sink that records terminal outcomes.
func WithJournal(s OutcomeSink) Option {
	return func(e *Engine) {
		e.outcomes = s
	}
}

// WithRand sets the random source used for diagnostic ids.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

// WithBlobUploader attaches a blob upload module.
func WithBlobUploader(u BlobUploader) Option {
	return func(e *Engine) {
		e.uploader = u
	}
}

// WithEdgeInvoker overrides the direct method invoker built for module
// clients behind a gateway.
func WithEdgeInvoker(inv MethodInvoker) Option {
	return func(e *Engine) {
		e.invoker = inv
	}
}

// WithDeviceAuth supplies the HSM used when a configuration asks for device
// auth.
func WithDeviceAuth(hsm auth.DeviceAuth) Option {
	return func(e *Engine) {
		e.hsm = hsm
	}
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		log:           zerolog.Nop(),
		clock:         clock.Real{},
		waitingToSend: queue.New[*transport.Envelope](),
		pendingTwin:   queue.New[*transport.TwinRecord](),
		awaitingAck:   queue.New[*transport.TwinRecord](),
		itemCounter:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.log = e.log.With().Str("component", "engine").Logger()
	return e
}

func (e *Engine) authOptions() []auth.Option {
	return []auth.Option{
		auth.WithClock(e.clock),
		auth.WithLogger(e.log.With().Str("component", "auth").Logger()),
	}
}

// setup runs the construction steps shared by every constructor once the
// credentials and the transport exist. On failure it unwinds and returns the
// error; the engine must not be used afterwards.
func (e *Engine) setup(dev transport.DeviceConfig, hubHost, gateway string) error {
	const op = "New"

	if e.invoker == nil && dev.ModuleID != "" && gateway != "" {
		inv, err := edge.NewInvoker(edge.InvokerConfig{
			HubHostName:     hubHost,
			GatewayHostName: gateway,
			DeviceID:        dev.DeviceID,
			ModuleID:        dev.ModuleID,
			Tokens:          e.auth,
		})
		if err != nil {
			e.unwind()
			return failure(op, err)
		}
		e.invoker = inv
	}

	level, err := e.transport.SupportedPlatformInfo()
	if err != nil {
		e.log.Error().Err(err).Msg("failed to query supported platform info")
		e.unwind()
		return transportFailure(op, err)
	}
	e.productInfo = makeProductInfo("", level)

	e.deviceID = dev.DeviceID
	e.moduleID = dev.ModuleID
	dev.Auth = e.auth

	h, err := e.transport.Register(dev, e.waitingToSend)
	if err != nil {
		e.log.Error().Err(err).Str("device_id", dev.DeviceID).Msg("failed to register device")
		e.unwind()
		return transportFailure(op, err)
	}
	e.device = h
	e.registered = true

	if err := e.transport.SetRetryPolicy(transport.RetryExponentialBackoffWithJitter, 0); err != nil {
		e.log.Error().Err(err).Msg("failed to set default retry policy")
		e.unwind()
		return transportFailure(op, err)
	}
	e.retryPolicy = transport.RetryExponentialBackoffWithJitter
	e.retryLimit = 0

	e.log.Debug().
		Str("device_id", e.deviceID).
		Str("module_id", e.moduleID).
		Str("product_info", e.productInfo).
		Msg("engine created")
	return nil
}

// unwind releases whatever a failed construction built, newest first.
func (e *Engine) unwind() {
	if e.registered {
		e.transport.Unregister(e.device)
		e.registered = false
	}
	if e.transport != nil && e.ownsTransport {
		e.transport.Destroy()
	}
	e.transport = nil
	e.invoker = nil
	if e.auth != nil {
		_ = e.auth.Close()
		e.auth = nil
	}
}

// Destroy unregisters the device, destroys an owned transport and then
// finalizes every queued item in FIFO order: telemetry with
// ConfirmationBecauseDestroy, reported state with status 0. Calling Destroy
// more than once is a no-op.
func (e *Engine) Destroy() {
	if e == nil || e.destroyed {
		return
	}
	e.destroyed = true

	if e.registered {
		e.transport.Unregister(e.device)
		e.registered = false
	}
	if e.ownsTransport && e.transport != nil {
		e.transport.Destroy()
	}

	for _, env := range e.waitingToSend.Drain() {
		e.finishTelemetry(env, transport.ConfirmationBecauseDestroy)
	}
	for _, rec := range e.pendingTwin.Drain() {
		e.finishReported(rec, 0, ReportedDestroyed)
	}
	for _, rec := range e.awaitingAck.Drain() {
		e.finishReported(rec, 0, ReportedDestroyed)
	}
	e.reportDepths()

	e.inputs = nil
	e.invoker = nil
	if e.auth != nil {
		if err := e.auth.Close(); err != nil {
			e.log.Warn().Err(err).Msg("failed to release device auth")
		}
	}
	e.log.Debug().Str("device_id", e.deviceID).Msg("engine destroyed")
}

// DoWork runs one tick: the timeout sweep, the twin drain, and then the
// transport's own work.
func (e *Engine) DoWork() {
	if e.destroyed {
		return
	}
	e.sweepTimeouts()
	e.drainTwin()
	e.transport.DoWork()
	e.reportDepths()
}

func (e *Engine) reportDepths() {
	e.metrics.Depth(queueWaitingToSend, e.waitingToSend.Len())
	e.metrics.Depth(queuePendingTwin, e.pendingTwin.Len())
	e.metrics.Depth(queueAwaitingAck, e.awaitingAck.Len())
}

func (e *Engine) checkAlive(op string) error {
	if e.destroyed {
		return failure(op, ErrDestroyed)
	}
	return nil
}

// DeviceID returns the registered device identity.
func (e *Engine) DeviceID() string { return e.deviceID }

// ModuleID returns the module identity, empty for device clients.
func (e *Engine) ModuleID() string { return e.moduleID }

// Auth exposes the credential manager.
func (e *Engine) Auth() *auth.Manager { return e.auth }

// SetConnectionStatusCallback registers fn for connection status changes.
// A nil fn clears it.
func (e *Engine) SetConnectionStatusCallback(fn ConnectionStatusFunc) error {
	if err := e.checkAlive("SetConnectionStatusCallback"); err != nil {
		return err
	}
	e.connStatus = fn
	return nil
}

// SetRetryPolicy forwards policy to the transport and remembers it on
// success.
func (e *Engine) SetRetryPolicy(policy transport.RetryPolicy, timeoutLimitSeconds int) error {
	const op = "SetRetryPolicy"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if timeoutLimitSeconds < 0 {
		return invalidArg(op, "negative timeout limit %d", timeoutLimitSeconds)
	}
	if err := e.transport.SetRetryPolicy(policy, timeoutLimitSeconds); err != nil {
		e.log.Error().Err(err).Stringer("policy", policy).Msg("transport rejected retry policy")
		return transportFailure(op, err)
	}
	e.retryPolicy = policy
	e.retryLimit = timeoutLimitSeconds
	return nil
}

// RetryPolicy returns the active retry policy and its timeout limit.
func (e *Engine) RetryPolicy() (transport.RetryPolicy, int) {
	return e.retryPolicy, e.retryLimit
}

// LastMessageReceiveTime returns when the last inbound message arrived.
// Before the first delivery it fails with an INDEFINITE_TIME error.
func (e *Engine) LastMessageReceiveTime() (time.Time, error) {
	if e.lastReceive.IsZero() {
		return time.Time{}, &Error{Code: CodeIndefiniteTime, Op: "LastMessageReceiveTime", Err: ErrIndefiniteTime}
	}
	return e.lastReceive, nil
}

// SendStatus reports whether telemetry is still pending on the transport.
func (e *Engine) SendStatus() (transport.SendStatus, error) {
	const op = "SendStatus"
	if err := e.checkAlive(op); err != nil {
		return transport.SendStatusIdle, err
	}
	st, err := e.transport.SendStatus(e.device)
	if err != nil {
		return transport.SendStatusIdle, transportFailure(op, err)
	}
	return st, nil
}
