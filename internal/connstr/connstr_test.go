package connstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ConnectionString
	}{
		{
			name:  "device key",
			input: "HostName=h.s;DeviceId=d;SharedAccessKey=k",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", DeviceKey: "k"},
		},
		{
			name:  "suffix keeps later dots",
			input: "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKey=c2VjcmV0",
			want:  ConnectionString{HubName: "myhub", HubSuffix: "azure-devices.net", DeviceID: "dev1", DeviceKey: "c2VjcmV0"},
		},
		{
			name:  "sas token keeps equals signs",
			input: "HostName=h.s;DeviceId=d;SharedAccessSignature=SharedAccessSignature sr=h.s&sig=abc%3D&se=1",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", SASToken: "SharedAccessSignature sr=h.s&sig=abc%3D&se=1"},
		},
		{
			name:  "module with gateway",
			input: "HostName=h.s;DeviceId=d;ModuleId=m;GatewayHostName=gw;SharedAccessKey=k;",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", ModuleID: "m", GatewayHostName: "gw", DeviceKey: "k"},
		},
		{
			name:  "x509",
			input: "HostName=h.s;DeviceId=d;x509=true",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", X509: true},
		},
		{
			name:  "provisioning",
			input: "HostName=h.s;DeviceId=d;UseProvisioning=true",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", UseProvisioning: true},
		},
		{
			name:  "unknown keys are ignored",
			input: "HostName=h.s;Foo=bar;DeviceId=d;SharedAccessKey=k",
			want:  ConnectionString{HubName: "h", HubSuffix: "s", DeviceID: "d", DeviceKey: "k", Ignored: []string{"Foo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing device id", "HostName=h.s;SharedAccessKey=k"},
		{"missing host", "DeviceId=d;SharedAccessKey=k"},
		{"host without suffix", "HostName=h;DeviceId=d;SharedAccessKey=k"},
		{"no credential", "HostName=h.s;DeviceId=d"},
		{"key and token", "HostName=h.s;DeviceId=d;SharedAccessKey=k;SharedAccessSignature=t"},
		{"x509 with key", "HostName=h.s;DeviceId=d;x509=true;SharedAccessKey=k"},
		{"provisioning with token", "HostName=h.s;DeviceId=d;UseProvisioning=true;SharedAccessSignature=t"},
		{"x509 false", "HostName=h.s;DeviceId=d;x509=false"},
		{"x509 upper case", "HostName=h.s;DeviceId=d;x509=TRUE"},
		{"provisioning mixed case", "HostName=h.s;DeviceId=d;UseProvisioning=True"},
		{"pair without equals", "HostName=h.s;DeviceId;SharedAccessKey=k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestHostName(t *testing.T) {
	cs, err := Parse("HostName=myhub.azure-devices.net;DeviceId=d;SharedAccessKey=k")
	require.NoError(t, err)
	assert.Equal(t, "myhub.azure-devices.net", cs.HostName())
}
