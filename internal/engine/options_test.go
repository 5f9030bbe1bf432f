package engine

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hubsession/internal/transport"
)

type fakeUploader struct {
	options map[string]any
	err     error
}

func (f *fakeUploader) SetOption(name string, value any) error {
	if f.err != nil {
		return f.err
	}
	if f.options == nil {
		f.options = make(map[string]any)
	}
	f.options[name] = value
	return nil
}

func TestSetOption_InvalidArguments(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assert.True(t, IsInvalidArg(e.SetOption("", 1)))
	assert.True(t, IsInvalidArg(e.SetOption(OptionMessageTimeout, nil)))
	assert.True(t, IsInvalidArg(e.SetOption(OptionMessageTimeout, "soon")))
	assert.True(t, IsInvalidArg(e.SetOption(OptionMessageTimeout, -5)))
	assert.True(t, IsInvalidArg(e.SetOption(OptionProductInfo, 7)))
	assert.True(t, IsInvalidArg(e.SetOption(OptionModelID, []byte("x"))))
}

func TestSetOption_MessageTimeout(t *testing.T) {
	e, _, _ := newTestEngine(t)

	require.NoError(t, e.SetOption(OptionMessageTimeout, 250))
	assert.Equal(t, 250*time.Millisecond, e.MessageTimeout())

	require.NoError(t, e.SetOption(OptionMessageTimeout, 2*time.Second))
	assert.Equal(t, 2*time.Second, e.MessageTimeout())

	require.NoError(t, e.SetOption(OptionMessageTimeout, uint64(0)))
	assert.Zero(t, e.MessageTimeout())
}

func TestSetOption_MessageTimeoutOverflow(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.SetOption(OptionMessageTimeout, 250))

	assert.True(t, IsInvalidArg(e.SetOption(OptionMessageTimeout, uint64(math.MaxUint64))))
	assert.True(t, IsInvalidArg(e.SetOption(OptionMessageTimeout, maxTimeoutMillis+1)))
	assert.Equal(t, 250*time.Millisecond, e.MessageTimeout())

	require.NoError(t, e.SetOption(OptionMessageTimeout, maxTimeoutMillis))
	assert.Positive(t, e.MessageTimeout())
}

func TestSetOption_ProductInfo(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	require.NoError(t, e.SetOption(OptionProductInfo, "contoso-sensor/2.1"))
	assert.True(t, strings.HasPrefix(e.ProductInfo(), "contoso-sensor/2.1 hubsession/"+Version+" ("))
	assert.NotContains(t, e.ProductInfo(), "go; ")

	lb.PlatformInfo = transport.PlatformInfoFull
	require.NoError(t, e.SetOption(OptionProductInfo, "contoso-sensor/2.1"))
	assert.Contains(t, e.ProductInfo(), "(go; ")

	lb.Fail("SupportedPlatformInfo", nil)
	assert.ErrorIs(t, e.SetOption(OptionProductInfo, "x"), ErrTransport)
}

func TestSetOption_DiagSamplingPercentage(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.diagCounter = 42

	err := e.SetOption(OptionDiagSamplingPercentage, 101)
	require.Error(t, err)
	assert.False(t, IsInvalidArg(err))
	assert.Equal(t, uint32(42), e.diagCounter)

	require.NoError(t, e.SetOption(OptionDiagSamplingPercentage, uint32(100)))
	assert.Equal(t, uint32(100), e.diagPercent)
	assert.Zero(t, e.diagCounter)
}

func TestSetOption_TokenLifetime(t *testing.T) {
	e, _, _ := newTestEngine(t)

	require.NoError(t, e.SetOption(OptionSASTokenLifetime, 600))
	assert.Equal(t, uint64(600), e.Auth().TokenLifetime())

	require.NoError(t, e.SetOption(OptionSASTokenRefreshTime, uint64(1800)))
	assert.Equal(t, uint64(1800), e.Auth().TokenLifetime())

	assert.Error(t, e.SetOption(OptionSASTokenLifetime, 4))
	assert.Equal(t, uint64(1800), e.Auth().TokenLifetime())
}

func TestSetOption_ModelIDOnce(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	require.NoError(t, e.SetOption(OptionModelID, "dtmi:contoso:thermostat;1"))
	assert.Error(t, e.SetOption(OptionModelID, "dtmi:contoso:other;1"))
	assert.Equal(t, "dtmi:contoso:thermostat;1", e.ModelID())
	assert.NotContains(t, lb.Options, OptionModelID)
}

func TestSetOption_BlobOptions(t *testing.T) {
	e, lb, _ := newTestEngine(t)
	assert.Error(t, e.SetOption(OptionBlobUploadTimeoutSecs, 30))

	up := &fakeUploader{}
	e2, lb2, _ := newTestEngine(t, WithBlobUploader(up))
	require.NoError(t, e2.SetOption(OptionBlobUploadTimeoutSecs, 30))
	require.NoError(t, e2.SetOption(OptionCurlVerbose, true))
	assert.Equal(t, map[string]any{OptionBlobUploadTimeoutSecs: 30, OptionCurlVerbose: true}, up.options)
	assert.Empty(t, lb.Options)
	assert.Empty(t, lb2.Options)

	up.err = errors.New("bad interface")
	assert.Error(t, e2.SetOption(OptionNetworkInterfaceUploadBlob, "eth1"))
}

func TestSetOption_ForwardsToTransportThenUploader(t *testing.T) {
	up := &fakeUploader{}
	e, lb, _ := newTestEngine(t, WithBlobUploader(up))

	require.NoError(t, e.SetOption(TrustedCertsOption, "PEM"))
	assert.Equal(t, "PEM", lb.Options[TrustedCertsOption])
	assert.Equal(t, "PEM", up.options[TrustedCertsOption])

	lb.Fail("SetOption:proxy", nil)
	require.ErrorIs(t, e.SetOption("proxy", "http://proxy:3128"), ErrTransport)
	assert.NotContains(t, up.options, "proxy")

	up.err = errors.New("uploader does not know this option")
	assert.NoError(t, e.SetOption("keepalive", 240))
	assert.Equal(t, 240, lb.Options["keepalive"])
}
