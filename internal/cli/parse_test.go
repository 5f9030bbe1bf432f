package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Text(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}),
		testConnectionString+";ModuleId=filter;GatewayHostName=edge.local;Custom=1")
	require.NoError(t, err)

	assert.Contains(t, out, "Host:       myhub.azure-devices.net")
	assert.Contains(t, out, "Device:     dev1")
	assert.Contains(t, out, "Module:     filter")
	assert.Contains(t, out, "Gateway:    edge.local")
	assert.Contains(t, out, "Credential: shared access key")
	assert.Contains(t, out, "Ignored:    Custom")
	assert.NotContains(t, out, "c2VjcmV0")
}

func TestParse_JSON(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "json"}),
		"HostName=myhub.azure-devices.net;DeviceId=dev1;x509=true")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ParseResult{
		HostName:   "myhub.azure-devices.net",
		HubName:    "myhub",
		DeviceID:   "dev1",
		Credential: "x509",
	}, resp.Data)
}

func TestParse_Invalid(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}),
		"HostName=myhub.azure-devices.net;SharedAccessKey=c2VjcmV0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_PARSE]: invalid connection string")
}

func TestParse_RequiresOneArg(t *testing.T) {
	_, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
