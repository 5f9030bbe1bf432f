package transport

import (
	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/queue"
)

// Config is what a Provider needs to create a transport.
type Config struct {
	HubName         string
	HubSuffix       string
	GatewayHostName string
	DeviceID        string
	ModuleID        string
	Auth            *auth.Manager
}

// DeviceConfig describes one device registered on a transport.
type DeviceConfig struct {
	DeviceID  string
	ModuleID  string
	DeviceKey string
	SASToken  string
	Auth      *auth.Manager
}

// Callbacks is the sink the engine exposes to its transport. The transport
// calls these synchronously from its DoWork or from the engine's setters.
type Callbacks interface {
	// SendComplete finalizes telemetry the transport took off the outbox.
	SendComplete(completed []*Envelope, result ConfirmationResult)
	// RetrievePropertyComplete delivers a twin document or patch.
	RetrievePropertyComplete(state TwinUpdateState, payload []byte)
	// ReportedStateComplete acknowledges the twin record with itemID.
	ReportedStateComplete(itemID uint32, status int)
	ConnectionStatus(status ConnectionStatus, reason ConnectionStatusReason)
	ProductInfo() string
	ModelID() string
	// MessageReceived delivers cloud-to-device messages.
	MessageReceived(msg *message.Message) bool
	// InputMessageReceived delivers messages routed to a module input.
	InputMessageReceived(msg *message.Message) bool
	// MethodReceived dispatches a direct method request.
	MethodReceived(name string, payload []byte, handle MethodHandle) error
}

// Transport is the capability set the engine consumes.
//
//go:generate mockgen -destination=mock_transport.go -package=transport github.com/roach88/hubsession/internal/transport Transport
type Transport interface {
	// Register attaches a device. The outbox is the engine's waiting-to-send
	// queue; the transport drains it on its own schedule.
	Register(device DeviceConfig, outbox *queue.Queue[*Envelope]) (DeviceHandle, error)
	Unregister(h DeviceHandle)
	Destroy()

	Subscribe(h DeviceHandle) error
	Unsubscribe(h DeviceHandle)
	SubscribeTwin(h DeviceHandle) error
	UnsubscribeTwin(h DeviceHandle)
	GetTwinAsync(h DeviceHandle, fn TwinFunc) error
	SubscribeMethod(h DeviceHandle) error
	UnsubscribeMethod(h DeviceHandle)
	SubscribeInputQueue(h DeviceHandle) error
	UnsubscribeInputQueue(h DeviceHandle)

	// ProcessItem offers a reported-state record to the transport.
	ProcessItem(item *TwinRecord) ProcessItemResult
	DoWork()

	SendMessageDisposition(h DeviceHandle, msg *message.Message, d Disposition) error
	SendMethodResponse(h DeviceHandle, handle MethodHandle, payload []byte, status int) error
	SendStatus(h DeviceHandle) (SendStatus, error)

	Hostname() (string, error)
	SetRetryPolicy(policy RetryPolicy, timeoutLimitSeconds int) error
	SetOption(name string, value any) error
	SupportedPlatformInfo() (PlatformInfo, error)

	// SetCallbacks rebinds the sink of a transport shared between engines.
	SetCallbacks(cb Callbacks) error
}

// Provider creates a transport for one engine.
type Provider func(cfg Config, cb Callbacks) (Transport, error)
