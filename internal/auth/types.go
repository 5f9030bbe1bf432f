package auth

import "errors"

// CredentialType identifies which secret is authoritative for a Manager.
type CredentialType int

const (
	// CredentialUnknown means no usable secret is present.
	CredentialUnknown CredentialType = iota
	// CredentialDeviceKey signs tokens locally from a base64 device key.
	CredentialDeviceKey
	// CredentialX509 authenticates with a client certificate held by the transport.
	CredentialX509
	// CredentialX509ECC authenticates with a certificate issued by the HSM.
	CredentialX509ECC
	// CredentialSASToken returns a static, pre-scoped token.
	CredentialSASToken
	// CredentialDeviceAuth asks the HSM to sign each token.
	CredentialDeviceAuth
)

// String returns the credential type name used in logs and CLI output.
func (c CredentialType) String() string {
	switch c {
	case CredentialDeviceKey:
		return "DEVICE_KEY"
	case CredentialX509:
		return "X509"
	case CredentialX509ECC:
		return "X509_ECC"
	case CredentialSASToken:
		return "SAS_TOKEN"
	case CredentialDeviceAuth:
		return "DEVICE_AUTH"
	default:
		return "UNKNOWN"
	}
}

// Token lifetime bounds, in seconds.
const (
	DefaultTokenLifetime uint64 = 3600
	MinTokenLifetime     uint64 = 5
)

var (
	// ErrInvalidArg reports a rejected argument. No state was changed.
	ErrInvalidArg = errors.New("auth: invalid argument")

	// ErrUnsupportedCredential reports an operation the current credential
	// type cannot serve.
	ErrUnsupportedCredential = errors.New("auth: operation not supported for credential type")

	// ErrNoDeviceAuth reports an HSM-backed operation on a Manager without one.
	ErrNoDeviceAuth = errors.New("auth: no device auth module")
)
