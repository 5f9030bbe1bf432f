package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/connstr"
	"github.com/roach88/hubsession/internal/edge"
	"github.com/roach88/hubsession/internal/transport"
)

// TrustedCertsOption is the transport option carrying the PEM trust bundle.
const TrustedCertsOption = "TrustedCerts"

// Config identifies the hub and the device or module to register.
type Config struct {
	HubName         string
	HubSuffix       string
	GatewayHostName string
	DeviceID        string
	ModuleID        string
	DeviceKey       string
	SASToken        string

	// X509 selects certificate authentication; the certificate itself is
	// installed later through SetOption.
	X509 bool
	// UseDeviceAuth takes credentials from the HSM supplied with
	// WithDeviceAuth.
	UseDeviceAuth bool
}

// DeviceConfig identifies a device registered on a shared transport.
type DeviceConfig struct {
	DeviceID  string
	ModuleID  string
	DeviceKey string
	SASToken  string
}

// New creates an engine that owns a transport made by provider.
//
// Construction order: credentials, transport, edge invoker, platform info,
// product info, device registration, default retry policy. Any failure
// unwinds what was built and no engine is returned.
func New(cfg Config, provider transport.Provider, opts ...Option) (*Engine, error) {
	const op = "New"
	e := newEngine(opts)

	if provider == nil {
		return nil, invalidArg(op, "transport provider is required")
	}
	if cfg.HubName == "" || cfg.HubSuffix == "" {
		return nil, invalidArg(op, "hub name and suffix are required")
	}

	var err error
	if cfg.UseDeviceAuth {
		if e.hsm == nil {
			return nil, invalidArg(op, "device auth requested but no DeviceAuth supplied")
		}
		e.auth, err = auth.NewFromDeviceAuth(cfg.DeviceID, cfg.ModuleID, e.hsm, e.authOptions()...)
	} else {
		e.auth, err = auth.New(cfg.DeviceKey, cfg.DeviceID, cfg.SASToken, cfg.ModuleID, e.authOptions()...)
	}
	if err != nil {
		e.log.Error().Err(err).Msg("failed to create credential manager")
		return nil, &Error{Code: CodeInvalidArg, Op: op, Err: err}
	}
	if cfg.X509 {
		e.auth.SetX509(true)
	}

	tr, err := provider(transport.Config{
		HubName:         cfg.HubName,
		HubSuffix:       cfg.HubSuffix,
		GatewayHostName: cfg.GatewayHostName,
		DeviceID:        cfg.DeviceID,
		ModuleID:        cfg.ModuleID,
		Auth:            e.auth,
	}, &transportCallbacks{e: e})
	if err != nil {
		e.log.Error().Err(err).Msg("failed to create transport")
		e.unwind()
		return nil, transportFailure(op, err)
	}
	e.transport = tr
	e.ownsTransport = true

	dev := transport.DeviceConfig{
		DeviceID:  cfg.DeviceID,
		ModuleID:  cfg.ModuleID,
		DeviceKey: cfg.DeviceKey,
		SASToken:  cfg.SASToken,
	}
	if err := e.setup(dev, cfg.HubName+"."+cfg.HubSuffix, cfg.GatewayHostName); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromConnectionString parses s and creates an engine from it.
// UseProvisioning=true selects device auth.
func NewFromConnectionString(s string, provider transport.Provider, opts ...Option) (*Engine, error) {
	cs, err := connstr.Parse(s)
	if err != nil {
		return nil, &Error{Code: CodeInvalidArg, Op: "NewFromConnectionString", Err: err}
	}

	e, err := New(Config{
		HubName:         cs.HubName,
		HubSuffix:       cs.HubSuffix,
		GatewayHostName: cs.GatewayHostName,
		DeviceID:        cs.DeviceID,
		ModuleID:        cs.ModuleID,
		DeviceKey:       cs.DeviceKey,
		SASToken:        cs.SASToken,
		X509:            cs.X509,
		UseDeviceAuth:   cs.UseProvisioning,
	}, provider, opts...)
	if err != nil {
		return nil, err
	}
	for _, key := range cs.Ignored {
		e.log.Warn().Str("key", key).Msg("ignoring unknown connection string key")
	}
	return e, nil
}

// NewFromDeviceAuth creates an engine whose credentials live in hsm.
// uri is the hub host name, e.g. "myhub.azure-devices.net".
func NewFromDeviceAuth(uri, deviceID string, provider transport.Provider, hsm auth.DeviceAuth, opts ...Option) (*Engine, error) {
	const op = "NewFromDeviceAuth"
	name, suffix, ok := strings.Cut(uri, ".")
	if !ok || name == "" || suffix == "" {
		return nil, invalidArg(op, "hub uri %q must be <name>.<suffix>", uri)
	}
	if hsm == nil {
		return nil, invalidArg(op, "device auth is required")
	}
	return New(Config{
		HubName:       name,
		HubSuffix:     suffix,
		DeviceID:      deviceID,
		UseDeviceAuth: true,
	}, provider, append(opts, WithDeviceAuth(hsm))...)
}

// NewWithTransport registers a device on a transport shared with other
// engines. The hub name comes from the transport's host name and the engine
// never destroys the transport.
func NewWithTransport(cfg DeviceConfig, shared transport.Transport, opts ...Option) (*Engine, error) {
	const op = "NewWithTransport"
	e := newEngine(opts)

	if shared == nil {
		return nil, invalidArg(op, "transport is required")
	}
	if cfg.DeviceKey == "" && cfg.SASToken == "" {
		return nil, invalidArg(op, "a device key or a SAS token is required")
	}

	var err error
	e.auth, err = auth.New(cfg.DeviceKey, cfg.DeviceID, cfg.SASToken, cfg.ModuleID, e.authOptions()...)
	if err != nil {
		return nil, &Error{Code: CodeInvalidArg, Op: op, Err: err}
	}

	e.transport = shared
	e.ownsTransport = false

	if err := shared.SetCallbacks(&transportCallbacks{e: e}); err != nil {
		e.log.Error().Err(err).Msg("failed to bind shared transport")
		e.unwind()
		return nil, transportFailure(op, err)
	}

	host, err := shared.Hostname()
	if err != nil {
		e.unwind()
		return nil, transportFailure(op, err)
	}
	if _, _, ok := strings.Cut(host, "."); !ok {
		e.unwind()
		return nil, failure(op, fmt.Errorf("transport host name %q has no suffix", host))
	}

	dev := transport.DeviceConfig{
		DeviceID:  cfg.DeviceID,
		ModuleID:  cfg.ModuleID,
		DeviceKey: cfg.DeviceKey,
		SASToken:  cfg.SASToken,
	}
	if err := e.setup(dev, host, ""); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromEnvironment creates a module engine from the edge runtime's
// environment variables and installs the trust bundle as the transport's
// TrustedCerts option.
//
// Without EdgeHubConnectionString the device-auth path is used. The HSM is
// the runtime's workload API when IOTEDGE_WORKLOADURI is set; a DeviceAuth
// passed with WithDeviceAuth takes precedence.
func NewFromEnvironment(provider transport.Provider, opts ...Option) (*Engine, error) {
	const op = "NewFromEnvironment"
	env, err := edge.LoadEnvironment()
	if err != nil {
		return nil, &Error{Code: CodeInvalidArg, Op: op, Err: err}
	}

	var (
		e      *Engine
		caFile string
	)
	if env.UsesConnectionString() {
		e, err = NewFromConnectionString(env.ConnectionString, provider, opts...)
		caFile = env.CACertificateFile
	} else {
		if env.WorkloadURI != "" {
			wc, werr := edge.NewWorkloadClient(env.WorkloadURI, env.ModuleID, env.GenerationID)
			if werr != nil {
				return nil, failure(op, werr)
			}
			opts = append([]Option{WithDeviceAuth(wc)}, opts...)
		}
		e, err = New(Config{
			HubName:         env.HubName,
			HubSuffix:       env.HubSuffix,
			GatewayHostName: env.GatewayHostName,
			DeviceID:        env.DeviceID,
			ModuleID:        env.ModuleID,
			UseDeviceAuth:   true,
		}, provider, opts...)
	}
	if err != nil {
		return nil, err
	}

	pem, err := e.auth.TrustBundle(caFile)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to read trust bundle")
		e.Destroy()
		return nil, failure(op, err)
	}
	if err := e.SetOption(TrustedCertsOption, pem); err != nil {
		e.log.Error().Err(err).Msg("failed to install trust bundle")
		e.Destroy()
		return nil, err
	}
	return e, nil
}
