package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const methodsAPIVersion = "2018-06-28"

// ErrInvoke reports a failed direct method round trip.
var ErrInvoke = errors.New("edge: method invoke failed")

// TokenSource issues SAS tokens for a scope. *auth.Manager satisfies it.
type TokenSource interface {
	SASToken(scope string, expiryHint uint64, keyName string) (string, error)
}

// InvokerConfig describes the calling module and its gateway.
type InvokerConfig struct {
	HubHostName     string
	GatewayHostName string
	DeviceID        string
	ModuleID        string
	Tokens          TokenSource

	// BaseURL overrides https://<GatewayHostName>.
	BaseURL string
	Client  *http.Client
}

// MethodRequest is a direct method call addressed to a device or module.
type MethodRequest struct {
	DeviceID string
	// ModuleID is empty when the target is a device.
	ModuleID string
	Method   string
	// Payload must be valid JSON; empty means null.
	Payload []byte
	Timeout time.Duration
}

// MethodResult is the target's answer.
type MethodResult struct {
	Status  int
	Payload []byte
}

// Invoker performs direct method calls through the edge gateway. Calls
// block until the round trip finishes or ctx is done.
type Invoker struct {
	cfg     InvokerConfig
	baseURL string
	client  *http.Client
}

// NewInvoker validates cfg and returns an Invoker.
func NewInvoker(cfg InvokerConfig) (*Invoker, error) {
	if cfg.GatewayHostName == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: gateway host name is required", ErrInvoke)
	}
	if cfg.DeviceID == "" || cfg.ModuleID == "" || cfg.Tokens == nil {
		return nil, fmt.Errorf("%w: device id, module id and token source are required", ErrInvoke)
	}

	base := cfg.BaseURL
	if base == "" {
		base = "https://" + cfg.GatewayHostName
	}
	client := cfg.Client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	return &Invoker{cfg: cfg, baseURL: strings.TrimSuffix(base, "/"), client: client}, nil
}

type invokeBody struct {
	MethodName               string          `json:"methodName"`
	Payload                  json.RawMessage `json:"payload"`
	ResponseTimeoutInSeconds int             `json:"responseTimeoutInSeconds,omitempty"`
}

type invokeResponse struct {
	Status  int             `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

// Invoke calls req.Method on the target and returns its status and payload.
func (i *Invoker) Invoke(ctx context.Context, req MethodRequest) (*MethodResult, error) {
	if req.DeviceID == "" || req.Method == "" {
		return nil, fmt.Errorf("%w: device id and method name are required", ErrInvoke)
	}

	payload := json.RawMessage("null")
	if len(req.Payload) > 0 {
		if !json.Valid(req.Payload) {
			return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvoke)
		}
		payload = json.RawMessage(req.Payload)
	}

	body, err := json.Marshal(invokeBody{
		MethodName:               req.Method,
		Payload:                  payload,
		ResponseTimeoutInSeconds: int(req.Timeout / time.Second),
	})
	if err != nil {
		return nil, err
	}

	path := "/twins/" + url.PathEscape(req.DeviceID)
	if req.ModuleID != "" {
		path += "/modules/" + url.PathEscape(req.ModuleID)
	}
	endpoint := i.baseURL + path + "/methods?api-version=" + methodsAPIVersion

	token, err := i.cfg.Tokens.SASToken(i.scope(), 0, "")
	if err != nil {
		return nil, fmt.Errorf("%w: token: %v", ErrInvoke, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", token)
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("x-ms-edge-moduleId", i.cfg.DeviceID+"/"+i.cfg.ModuleID)

	resp, err := i.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvoke, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvoke, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInvoke, err)
	}
	return &MethodResult{Status: out.Status, Payload: []byte(out.Payload)}, nil
}

// scope is the resource URI the calling module authenticates for.
func (i *Invoker) scope() string {
	return url.QueryEscape(i.cfg.HubHostName + "/devices/" + i.cfg.DeviceID + "/modules/" + i.cfg.ModuleID)
}
