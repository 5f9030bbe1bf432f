package edge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	scope string
	err   error
}

func (s *staticTokens) SASToken(scope string, _ uint64, _ string) (string, error) {
	s.scope = scope
	if s.err != nil {
		return "", s.err
	}
	return "SharedAccessSignature sr=" + scope, nil
}

func newTestInvoker(t *testing.T, srv *httptest.Server, tokens TokenSource) *Invoker {
	t.Helper()
	inv, err := NewInvoker(InvokerConfig{
		HubHostName:     "myhub.azure-devices.net",
		GatewayHostName: "gateway.local",
		DeviceID:        "edge-dev",
		ModuleID:        "filter",
		Tokens:          tokens,
		BaseURL:         srv.URL,
		Client:          srv.Client(),
	})
	require.NoError(t, err)
	return inv
}

func TestInvoker_ModuleTarget(t *testing.T) {
	var body invokeBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twins/other-dev/modules/sensor/methods", r.URL.Path)
		assert.Equal(t, methodsAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "edge-dev/filter", r.Header.Get("x-ms-edge-moduleId"))
		assert.Contains(t, r.Header.Get("Authorization"), "SharedAccessSignature")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"status":200,"payload":{"ok":true}}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{}
	inv := newTestInvoker(t, srv, tokens)

	res, err := inv.Invoke(context.Background(), MethodRequest{
		DeviceID: "other-dev",
		ModuleID: "sensor",
		Method:   "reset",
		Payload:  []byte(`{"hard":false}`),
		Timeout:  30 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.JSONEq(t, `{"ok":true}`, string(res.Payload))

	assert.Equal(t, "reset", body.MethodName)
	assert.JSONEq(t, `{"hard":false}`, string(body.Payload))
	assert.Equal(t, 30, body.ResponseTimeoutInSeconds)
	assert.Equal(t, "myhub.azure-devices.net%2Fdevices%2Fedge-dev%2Fmodules%2Ffilter", tokens.scope)
}

func TestInvoker_DeviceTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twins/leaf/methods", r.URL.Path)
		var body invokeBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "null", string(body.Payload))
		_, _ = w.Write([]byte(`{"status":404,"payload":null}`))
	}))
	defer srv.Close()

	res, err := newTestInvoker(t, srv, &staticTokens{}).Invoke(context.Background(), MethodRequest{
		DeviceID: "leaf",
		Method:   "ping",
	})
	require.NoError(t, err)
	assert.Equal(t, 404, res.Status)
}

func TestInvoker_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	inv := newTestInvoker(t, srv, &staticTokens{})

	_, err := inv.Invoke(context.Background(), MethodRequest{DeviceID: "leaf", Method: "ping"})
	require.ErrorIs(t, err, ErrInvoke)
	assert.Contains(t, err.Error(), "502")

	_, err = inv.Invoke(context.Background(), MethodRequest{DeviceID: "leaf", Method: "ping", Payload: []byte("{not json")})
	assert.ErrorIs(t, err, ErrInvoke)

	_, err = inv.Invoke(context.Background(), MethodRequest{Method: "ping"})
	assert.ErrorIs(t, err, ErrInvoke)

	failing := newTestInvoker(t, srv, &staticTokens{err: errors.New("hsm offline")})
	_, err = failing.Invoke(context.Background(), MethodRequest{DeviceID: "leaf", Method: "ping"})
	assert.ErrorIs(t, err, ErrInvoke)
}

func TestNewInvoker_Validation(t *testing.T) {
	_, err := NewInvoker(InvokerConfig{DeviceID: "d", ModuleID: "m", Tokens: &staticTokens{}})
	assert.ErrorIs(t, err, ErrInvoke)

	_, err = NewInvoker(InvokerConfig{GatewayHostName: "g", DeviceID: "d", Tokens: &staticTokens{}})
	assert.ErrorIs(t, err, ErrInvoke)

	inv, err := NewInvoker(InvokerConfig{GatewayHostName: "g", DeviceID: "d", ModuleID: "m", Tokens: &staticTokens{}})
	require.NoError(t, err)
	assert.Equal(t, "https://g", inv.baseURL)
}
