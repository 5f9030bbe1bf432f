package auth

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hubsession/internal/clock"
)

const (
	testKey   = "c2VjcmV0" // base64("secret")
	testScope = "myhub.azure-devices.net%2Fdevices%2Fdev1"
)

var testEpoch = time.Unix(1700000000, 0)

type fakeDeviceAuth struct {
	kind     DeviceAuthType
	requests []SASRequest
	bundle   string
	err      error
	closed   bool
}

func (f *fakeDeviceAuth) Type() DeviceAuthType { return f.kind }

func (f *fakeDeviceAuth) SASToken(req SASRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "hsm-token", nil
}

func (f *fakeDeviceAuth) X509Credentials() (string, string, error) {
	if f.kind != DeviceAuthX509 {
		return "", "", ErrUnsupportedCredential
	}
	return "CERT", "KEY", nil
}

func (f *fakeDeviceAuth) TrustBundle() (string, error) {
	if f.bundle == "" {
		return "", errors.New("no bundle")
	}
	return f.bundle, nil
}

func (f *fakeDeviceAuth) Close() error {
	f.closed = true
	return nil
}

func TestNew_CredentialTypeDerivation(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		token    string
		wantType CredentialType
	}{
		{"device key", testKey, "", CredentialDeviceKey},
		{"sas token", "", "SharedAccessSignature sr=x", CredentialSASToken},
		{"key wins over token", testKey, "SharedAccessSignature sr=x", CredentialDeviceKey},
		{"neither", "", "", CredentialUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.key, "dev1", tt.token, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, m.CredentialType())
			assert.Equal(t, "dev1", m.DeviceID())
			assert.Equal(t, DefaultTokenLifetime, m.TokenLifetime())
		})
	}
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(testKey, "", "", "")
	assert.ErrorIs(t, err, ErrInvalidArg, "missing device id")

	_, err = New("not base64!!", "dev1", "", "")
	assert.ErrorIs(t, err, ErrInvalidArg, "bad key")
}

func TestNewFromDeviceAuth(t *testing.T) {
	m, err := NewFromDeviceAuth("dev1", "mod1", &fakeDeviceAuth{kind: DeviceAuthSAS})
	require.NoError(t, err)
	assert.Equal(t, CredentialDeviceAuth, m.CredentialType())
	assert.Equal(t, "mod1", m.ModuleID())

	m, err = NewFromDeviceAuth("dev1", "", &fakeDeviceAuth{kind: DeviceAuthSymmetricKey})
	require.NoError(t, err)
	assert.Equal(t, CredentialDeviceAuth, m.CredentialType())

	m, err = NewFromDeviceAuth("dev1", "", &fakeDeviceAuth{kind: DeviceAuthX509})
	require.NoError(t, err)
	assert.Equal(t, CredentialX509ECC, m.CredentialType())

	_, err = NewFromDeviceAuth("dev1", "", nil)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestSetTokenLifetime(t *testing.T) {
	m, err := New(testKey, "dev1", "", "")
	require.NoError(t, err)

	err = m.SetTokenLifetime(4)
	assert.ErrorIs(t, err, ErrInvalidArg)
	assert.Equal(t, DefaultTokenLifetime, m.TokenLifetime(), "rejected value must not be stored")

	require.NoError(t, m.SetTokenLifetime(5))
	assert.Equal(t, uint64(5), m.TokenLifetime())
}

func TestSASToken_DeviceKey(t *testing.T) {
	m, err := New(testKey, "dev1", "", "", WithClock(clock.NewManual(testEpoch)))
	require.NoError(t, err)

	token, err := m.SASToken(testScope, 0, "")
	require.NoError(t, err)
	assert.Equal(t,
		"SharedAccessSignature sr="+testScope+
			"&sig=nq7Z7gtG6I9%2FvN1cAblAkLoO2NzZS%2FCSUcTmjp%2F%2F1xY%3D&se=1700003600",
		token)

	require.NoError(t, m.SetTokenLifetime(60))
	token, err = m.SASToken(testScope, 999, "device")
	require.NoError(t, err)
	assert.Equal(t,
		"SharedAccessSignature sr="+testScope+
			"&sig=uZ9EHapCqyOPom0EAmGGGQdhin4A11dxdCGltHhw6DQ%3D&se=1700000060&skn=device",
		token)
}

func TestSASToken_DeviceKeyRequiresScope(t *testing.T) {
	m, err := New(testKey, "dev1", "", "")
	require.NoError(t, err)

	_, err = m.SASToken("", 0, "")
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestSASToken_StaticTokenVerbatim(t *testing.T) {
	m, err := New("", "dev1", "SharedAccessSignature sr=abc&sig=def&se=1", "")
	require.NoError(t, err)

	token, err := m.SASToken("ignored-scope", 42, "ignored-key")
	require.NoError(t, err)
	assert.Equal(t, "SharedAccessSignature sr=abc&sig=def&se=1", token)
}

func TestSASToken_DeviceAuthExpiry(t *testing.T) {
	hsm := &fakeDeviceAuth{kind: DeviceAuthSAS}
	m, err := NewFromDeviceAuth("dev1", "", hsm, WithClock(clock.NewManual(testEpoch)))
	require.NoError(t, err)

	token, err := m.SASToken(testScope, 0, "key")
	require.NoError(t, err)
	assert.Equal(t, "hsm-token", token)
	require.Len(t, hsm.requests, 1)
	assert.Equal(t, SASRequest{Scope: testScope, KeyName: "key", Expiry: 1700003600}, hsm.requests[0])
}

func TestSASToken_DeviceAuthFailure(t *testing.T) {
	hsm := &fakeDeviceAuth{kind: DeviceAuthSAS, err: errors.New("hsm offline")}
	m, err := NewFromDeviceAuth("dev1", "", hsm)
	require.NoError(t, err)

	_, err = m.SASToken(testScope, 0, "")
	assert.ErrorContains(t, err, "hsm offline")
}

func TestSASToken_UnsupportedTypes(t *testing.T) {
	m, err := New("", "dev1", "", "")
	require.NoError(t, err)
	_, err = m.SASToken(testScope, 0, "")
	assert.ErrorIs(t, err, ErrUnsupportedCredential)

	m, err = New(testKey, "dev1", "", "")
	require.NoError(t, err)
	m.SetX509(true)
	_, err = m.SASToken(testScope, 0, "")
	assert.ErrorIs(t, err, ErrUnsupportedCredential)
}

func TestExpiryFrom_Saturates(t *testing.T) {
	assert.Equal(t, uint64(15), expiryFrom(10, 5))
	assert.Equal(t, uint64(math.MaxUint64), expiryFrom(math.MaxUint64-2, 5))
}

func TestSetX509_Rederives(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		token string
		after CredentialType
	}{
		{"token wins", testKey, "tok", CredentialSASToken},
		{"key only", testKey, "", CredentialDeviceKey},
		{"nothing", "", "", CredentialUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.key, "dev1", tt.token, "")
			require.NoError(t, err)

			m.SetX509(true)
			assert.Equal(t, CredentialX509, m.CredentialType())
			assert.Equal(t, tt.key, m.DeviceKey(), "toggle must not erase secrets")

			m.SetX509(false)
			assert.Equal(t, tt.after, m.CredentialType())
		})
	}
}

func TestX509Info(t *testing.T) {
	m, err := NewFromDeviceAuth("dev1", "", &fakeDeviceAuth{kind: DeviceAuthX509})
	require.NoError(t, err)

	cert, key, err := m.X509Info()
	require.NoError(t, err)
	assert.Equal(t, "CERT", cert)
	assert.Equal(t, "KEY", key)

	m, err = New(testKey, "dev1", "", "")
	require.NoError(t, err)
	_, _, err = m.X509Info()
	assert.ErrorIs(t, err, ErrUnsupportedCredential)
}

func TestTrustBundle_OverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("-----BEGIN CERTIFICATE-----\n"), 0o600))

	m, err := New(testKey, "dev1", "", "")
	require.NoError(t, err)

	bundle, err := m.TrustBundle(path)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----\n", bundle)
}

func TestTrustBundle_Failures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pem")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	m, err := New(testKey, "dev1", "", "")
	require.NoError(t, err)

	_, err = m.TrustBundle(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err, "missing file")

	_, err = m.TrustBundle(empty)
	assert.Error(t, err, "zero-length file")

	_, err = m.TrustBundle("")
	assert.ErrorIs(t, err, ErrNoDeviceAuth, "no hsm to delegate to")
}

func TestTrustBundle_FromDeviceAuth(t *testing.T) {
	hsm := &fakeDeviceAuth{kind: DeviceAuthSAS, bundle: "PEM"}
	m, err := NewFromDeviceAuth("dev1", "mod1", hsm)
	require.NoError(t, err)

	bundle, err := m.TrustBundle("")
	require.NoError(t, err)
	assert.Equal(t, "PEM", bundle)

	require.NoError(t, m.Close())
	assert.True(t, hsm.closed)
}

func TestSymmetricKeyDeviceAuth(t *testing.T) {
	d, err := NewSymmetricKeyDeviceAuth(testKey, "PEM")
	require.NoError(t, err)
	assert.Equal(t, DeviceAuthSymmetricKey, d.Type())

	token, err := d.SASToken(SASRequest{Scope: testScope, Expiry: 1700003600})
	require.NoError(t, err)
	assert.Contains(t, token, "&sig=nq7Z7gtG6I9%2FvN1cAblAkLoO2NzZS%2FCSUcTmjp%2F%2F1xY%3D")

	_, err = NewSymmetricKeyDeviceAuth("", "")
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestCredentialType_String(t *testing.T) {
	assert.Equal(t, "DEVICE_KEY", CredentialDeviceKey.String())
	assert.Equal(t, "X509_ECC", CredentialX509ECC.String())
	assert.Equal(t, "UNKNOWN", CredentialType(99).String())
}
