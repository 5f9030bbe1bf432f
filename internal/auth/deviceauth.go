package auth

import (
	"encoding/base64"
	"fmt"
)

// DeviceAuthType is the kind of credential an HSM issues.
type DeviceAuthType int

const (
	DeviceAuthSAS DeviceAuthType = iota + 1
	DeviceAuthSymmetricKey
	DeviceAuthX509
)

// SASRequest asks a DeviceAuth to sign a token.
type SASRequest struct {
	Scope   string
	KeyName string
	// Expiry is the absolute expiry in seconds since the Unix epoch.
	Expiry uint64
}

// DeviceAuth is the HSM contract consumed by the Manager.
type DeviceAuth interface {
	Type() DeviceAuthType
	SASToken(req SASRequest) (string, error)
	X509Credentials() (cert, key string, err error)
	TrustBundle() (string, error)
	Close() error
}

// SymmetricKeyDeviceAuth is an in-process DeviceAuth that signs tokens with
// a symmetric key. It stands in for a hardware module on hosts without one.
type SymmetricKeyDeviceAuth struct {
	key         []byte
	trustBundle string
}

// NewSymmetricKeyDeviceAuth decodes keyB64 and returns a signer.
func NewSymmetricKeyDeviceAuth(keyB64, trustBundle string) (*SymmetricKeyDeviceAuth, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("%w: symmetric key is not valid base64", ErrInvalidArg)
	}
	return &SymmetricKeyDeviceAuth{key: key, trustBundle: trustBundle}, nil
}

// Type reports DeviceAuthSymmetricKey.
func (d *SymmetricKeyDeviceAuth) Type() DeviceAuthType { return DeviceAuthSymmetricKey }

// SASToken signs req with the held key.
func (d *SymmetricKeyDeviceAuth) SASToken(req SASRequest) (string, error) {
	if req.Scope == "" {
		return "", fmt.Errorf("%w: empty scope", ErrInvalidArg)
	}
	return SignSAS(d.key, req.Scope, req.Expiry, req.KeyName), nil
}

// X509Credentials is not supported by a symmetric key module.
func (d *SymmetricKeyDeviceAuth) X509Credentials() (string, string, error) {
	return "", "", ErrUnsupportedCredential
}

// TrustBundle returns the configured PEM bundle.
func (d *SymmetricKeyDeviceAuth) TrustBundle() (string, error) {
	if d.trustBundle == "" {
		return "", fmt.Errorf("auth: device auth has no trust bundle")
	}
	return d.trustBundle, nil
}

// Close releases the key material.
func (d *SymmetricKeyDeviceAuth) Close() error {
	for i := range d.key {
		d.key[i] = 0
	}
	return nil
}
