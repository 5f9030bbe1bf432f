package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/engine"
	"github.com/roach88/hubsession/internal/transport"
)

const testConnectionString = "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKey=c2VjcmV0"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validDevice() *Device {
	return &Device{
		ConnectionString: testConnectionString,
		TokenLifetime:    time.Hour,
		RetryPolicy:      "EXPONENTIAL_BACKOFF_WITH_JITTER",
		LogLevel:         "info",
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
connection-string: "`+testConnectionString+`"
product-info: contoso-sensor/2.1
model-id: "dtmi:contoso:thermostat;1"
message-timeout: 30s
diag-sampling-percentage: 10
sas-token-lifetime: 20m
retry-policy: linear_backoff
retry-timeout-limit: 5m
log-level: DEBUG
journal: /var/lib/hubsession/journal.db
`)

	d, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, &Device{
		ConnectionString:       testConnectionString,
		ProductInfo:            "contoso-sensor/2.1",
		ModelID:                "dtmi:contoso:thermostat;1",
		MessageTimeout:         30 * time.Second,
		DiagSamplingPercentage: 10,
		TokenLifetime:          20 * time.Minute,
		RetryPolicy:            "LINEAR_BACKOFF",
		RetryTimeoutLimit:      5 * time.Minute,
		LogLevel:               "debug",
		Journal:                "/var/lib/hubsession/journal.db",
	}, d)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HUBSESSION_CONNECTION_STRING", testConnectionString)

	d, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(auth.DefaultTokenLifetime)*time.Second, d.TokenLifetime)
	assert.Equal(t, "EXPONENTIAL_BACKOFF_WITH_JITTER", d.RetryPolicy)
	assert.Equal(t, "info", d.LogLevel)
	assert.Zero(t, d.MessageTimeout)
	assert.Empty(t, d.Journal)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "connection-string: \""+testConnectionString+"\"\ndiag-sampling-percentage: 10\n")
	t.Setenv("HUBSESSION_DIAG_SAMPLING_PERCENTAGE", "25")

	d, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, d.DiagSamplingPercentage)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HUBSESSION_CONNECTION_STRING", testConnectionString)
	t.Setenv("HUBSESSION_RETRY_POLICY", "RANDOM")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyRetryPolicy, "", "")
	fs.String(KeyLogLevel, "warn", "")
	require.NoError(t, fs.Set(KeyRetryPolicy, "INTERVAL"))

	d, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "INTERVAL", d.RetryPolicy)
	assert.Equal(t, "info", d.LogLevel, "unchanged flags must not beat defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validDevice().Validate())

	tests := []struct {
		name   string
		mutate func(*Device)
		field  string
	}{
		{"empty connection string", func(d *Device) { d.ConnectionString = "" }, "connection-string"},
		{"diag above 100", func(d *Device) { d.DiagSamplingPercentage = 101 }, "diag-sampling-percentage"},
		{"negative diag", func(d *Device) { d.DiagSamplingPercentage = -1 }, "diag-sampling-percentage"},
		{"short token lifetime", func(d *Device) { d.TokenLifetime = 4 * time.Second }, "sas-token-lifetime-secs"},
		{"unknown retry policy", func(d *Device) { d.RetryPolicy = "SOMETIMES" }, "retry-policy"},
		{"negative message timeout", func(d *Device) { d.MessageTimeout = -time.Second }, "message-timeout-ms"},
		{"unknown log level", func(d *Device) { d.LogLevel = "loud" }, "log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDevice()
			tt.mutate(d)
			err := d.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.True(t, strings.Contains(err.Error(), tt.field), "error %q should name %s", err, tt.field)
		})
	}
}

func TestApply(t *testing.T) {
	d := validDevice()
	d.ProductInfo = "contoso-sensor/2.1"
	d.ModelID = "dtmi:contoso:thermostat;1"
	d.MessageTimeout = 2 * time.Second
	d.DiagSamplingPercentage = 50
	d.TokenLifetime = 10 * time.Minute
	d.RetryPolicy = "LINEAR_BACKOFF"
	d.RetryTimeoutLimit = time.Minute

	var lb *transport.Loopback
	e, err := d.NewEngine(transport.LoopbackProvider(func(l *transport.Loopback) { lb = l }))
	require.NoError(t, err)
	defer e.Destroy()

	assert.True(t, strings.HasPrefix(e.ProductInfo(), "contoso-sensor/2.1 "))
	assert.Equal(t, "dtmi:contoso:thermostat;1", e.ModelID())
	assert.Equal(t, 2*time.Second, e.MessageTimeout())
	assert.Equal(t, uint64(600), e.Auth().TokenLifetime())

	policy, limit := e.RetryPolicy()
	assert.Equal(t, transport.RetryLinearBackoff, policy)
	assert.Equal(t, 60, limit)
	assert.Equal(t, transport.RetryLinearBackoff, lb.RetryPolicy)
	assert.Equal(t, 60, lb.RetryLimit)
}

func TestNewEngine_DestroysOnRejectedOption(t *testing.T) {
	d := validDevice()
	d.TokenLifetime = time.Second

	var lb *transport.Loopback
	_, err := d.NewEngine(transport.LoopbackProvider(func(l *transport.Loopback) { lb = l }))
	require.Error(t, err)
	assert.True(t, lb.Destroyed)
}

func TestNewEngine_BadConnectionString(t *testing.T) {
	d := validDevice()
	d.ConnectionString = "HostName=myhub"

	_, err := d.NewEngine(transport.LoopbackProvider(nil))
	assert.True(t, engine.IsInvalidArg(err))
}
