package auth

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/roach88/hubsession/internal/clock"
)

// Manager owns device identity and secret material.
//
// Manager is not safe for concurrent use; it is owned by a single engine.
type Manager struct {
	deviceID  string
	moduleID  string
	deviceKey string
	keyBytes  []byte
	sasToken  string
	hsm       DeviceAuth

	credType      CredentialType
	tokenLifetime uint64

	clock  clock.Clock
	logger zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for token expiry.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger used for rejected calls.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func newManager(opts []Option) *Manager {
	m := &Manager{
		tokenLifetime: DefaultTokenLifetime,
		clock:         clock.Real{},
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New creates a Manager from explicit secrets.
//
// deviceID is mandatory. deviceKey, when non-empty, must be valid base64.
// The initial credential type is DEVICE_KEY when a key is given, SAS_TOKEN
// when only a token is given, and UNKNOWN otherwise.
func New(deviceKey, deviceID, sasToken, moduleID string, opts ...Option) (*Manager, error) {
	m := newManager(opts)
	if deviceID == "" {
		m.logger.Error().Msg("device id is required")
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidArg)
	}

	if deviceKey != "" {
		raw, err := base64.StdEncoding.DecodeString(deviceKey)
		if err != nil {
			m.logger.Error().Err(err).Msg("device key is not valid base64")
			return nil, fmt.Errorf("%w: device key is not valid base64", ErrInvalidArg)
		}
		m.keyBytes = raw
	}

	m.deviceID = deviceID
	m.moduleID = moduleID
	m.deviceKey = deviceKey
	m.sasToken = sasToken

	switch {
	case deviceKey != "":
		m.credType = CredentialDeviceKey
	case sasToken != "":
		m.credType = CredentialSASToken
	default:
		m.credType = CredentialUnknown
	}
	return m, nil
}

// NewFromDeviceAuth creates a Manager whose secrets live in an HSM.
func NewFromDeviceAuth(deviceID, moduleID string, hsm DeviceAuth, opts ...Option) (*Manager, error) {
	m := newManager(opts)
	if deviceID == "" || hsm == nil {
		m.logger.Error().Str("device_id", deviceID).Msg("device id and device auth are required")
		return nil, fmt.Errorf("%w: device id and device auth are required", ErrInvalidArg)
	}

	m.deviceID = deviceID
	m.moduleID = moduleID
	m.hsm = hsm

	switch hsm.Type() {
	case DeviceAuthSAS, DeviceAuthSymmetricKey:
		m.credType = CredentialDeviceAuth
	default:
		m.credType = CredentialX509ECC
	}
	return m, nil
}

// Close releases the HSM, if any.
func (m *Manager) Close() error {
	if m.hsm == nil {
		return nil
	}
	err := m.hsm.Close()
	m.hsm = nil
	return err
}

// DeviceID returns the device identity.
func (m *Manager) DeviceID() string { return m.deviceID }

// ModuleID returns the module identity, empty for device clients.
func (m *Manager) ModuleID() string { return m.moduleID }

// DeviceKey returns the base64 device key, empty when none was supplied.
func (m *Manager) DeviceKey() string { return m.deviceKey }

// CredentialType returns the authoritative credential type.
func (m *Manager) CredentialType() CredentialType { return m.credType }

// SetTokenLifetime sets the lifetime applied to tokens issued from now on.
// Values below MinTokenLifetime are rejected.
func (m *Manager) SetTokenLifetime(seconds uint64) error {
	if seconds < MinTokenLifetime {
		m.logger.Error().Uint64("seconds", seconds).Uint64("min", MinTokenLifetime).Msg("token lifetime too short")
		return fmt.Errorf("%w: token lifetime %d is below minimum %d", ErrInvalidArg, seconds, MinTokenLifetime)
	}
	m.tokenLifetime = seconds
	return nil
}

// TokenLifetime returns the lifetime in seconds applied to new tokens.
func (m *Manager) TokenLifetime() uint64 { return m.tokenLifetime }

// SetX509 forces X.509 authentication on, or re-derives the credential type
// from the remaining secrets when turned off.
func (m *Manager) SetX509(enable bool) {
	switch {
	case enable:
		m.credType = CredentialX509
	case m.sasToken != "":
		m.credType = CredentialSASToken
	case m.deviceKey != "":
		m.credType = CredentialDeviceKey
	default:
		m.credType = CredentialUnknown
	}
}

// SASToken returns a token for scope.
//
// DEVICE_AUTH asks the HSM for a freshly signed token, SAS_TOKEN returns the
// stored token verbatim, and DEVICE_KEY signs locally. expiryHint is
// ignored; expiry is always now plus the configured lifetime.
func (m *Manager) SASToken(scope string, expiryHint uint64, keyName string) (string, error) {
	_ = expiryHint

	switch m.credType {
	case CredentialDeviceAuth:
		if m.hsm == nil {
			return "", ErrNoDeviceAuth
		}
		token, err := m.hsm.SASToken(SASRequest{
			Scope:   scope,
			KeyName: keyName,
			Expiry:  m.expiry(),
		})
		if err != nil {
			m.logger.Error().Err(err).Msg("device auth failed to sign token")
			return "", fmt.Errorf("device auth sign: %w", err)
		}
		return token, nil

	case CredentialSASToken:
		if m.sasToken == "" {
			return "", fmt.Errorf("%w: no stored sas token", ErrUnsupportedCredential)
		}
		return m.sasToken, nil

	case CredentialDeviceKey:
		if scope == "" {
			m.logger.Error().Msg("scope is required to sign with device key")
			return "", fmt.Errorf("%w: scope is required", ErrInvalidArg)
		}
		return SignSAS(m.keyBytes, scope, m.expiry(), keyName), nil

	default:
		m.logger.Error().Stringer("credential_type", m.credType).Msg("cannot issue sas token")
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCredential, m.credType)
	}
}

func (m *Manager) expiry() uint64 {
	now := m.clock.Now().Unix()
	if now < 0 {
		now = 0
	}
	return expiryFrom(uint64(now), m.tokenLifetime)
}

// X509Info returns the HSM-issued certificate and private key.
// Only X509_ECC credentials carry them.
func (m *Manager) X509Info() (cert, key string, err error) {
	if m.credType != CredentialX509ECC {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedCredential, m.credType)
	}
	if m.hsm == nil {
		return "", "", ErrNoDeviceAuth
	}
	cert, key, err = m.hsm.X509Credentials()
	if err != nil {
		return "", "", fmt.Errorf("device auth x509: %w", err)
	}
	return cert, key, nil
}

// TrustBundle returns the PEM trust bundle.
//
// With overrideFile set the whole file is read; this is meant for local
// debugging of edge modules. Otherwise the HSM supplies the bundle.
func (m *Manager) TrustBundle(overrideFile string) (string, error) {
	if overrideFile != "" {
		return readTrustBundle(overrideFile)
	}
	if m.hsm == nil {
		return "", ErrNoDeviceAuth
	}
	bundle, err := m.hsm.TrustBundle()
	if err != nil {
		return "", fmt.Errorf("device auth trust bundle: %w", err)
	}
	return bundle, nil
}

func readTrustBundle(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read trust bundle %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("trust bundle %s is empty", path)
	}
	return string(data), nil
}
