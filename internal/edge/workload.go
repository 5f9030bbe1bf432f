package edge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/roach88/hubsession/internal/auth"
)

const workloadAPIVersion = "2019-01-30"

// WorkloadClient is an auth.DeviceAuth backed by the edge runtime's
// workload API. The runtime holds the module key and signs on request.
type WorkloadClient struct {
	baseURL      string
	moduleID     string
	generationID string
	client       *http.Client
}

var _ auth.DeviceAuth = (*WorkloadClient)(nil)

// NewWorkloadClient creates a client for workloadURI, which is either an
// http(s) URL or a unix:// socket path.
func NewWorkloadClient(workloadURI, moduleID, generationID string) (*WorkloadClient, error) {
	if workloadURI == "" || moduleID == "" || generationID == "" {
		return nil, fmt.Errorf("%w: workload uri, module id and generation id are required", ErrEnvironment)
	}

	u, err := url.Parse(workloadURI)
	if err != nil {
		return nil, fmt.Errorf("parse workload uri: %w", err)
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 30 * time.Second
	base := strings.TrimSuffix(workloadURI, "/")

	switch u.Scheme {
	case "http", "https":
	case "unix":
		sock := u.Path
		tr := cleanhttp.DefaultPooledTransport()
		tr.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", sock)
		}
		client.Transport = tr
		base = "http://workload"
	default:
		return nil, fmt.Errorf("%w: unsupported workload uri scheme %q", ErrEnvironment, u.Scheme)
	}

	return &WorkloadClient{
		baseURL:      base,
		moduleID:     moduleID,
		generationID: generationID,
		client:       client,
	}, nil
}

// Type reports auth.DeviceAuthSAS.
func (w *WorkloadClient) Type() auth.DeviceAuthType { return auth.DeviceAuthSAS }

type signRequest struct {
	KeyID string `json:"keyId"`
	Algo  string `json:"algo"`
	Data  string `json:"data"`
}

type signResponse struct {
	Digest string `json:"digest"`
}

// SASToken asks the workload API to sign scope and expiry with the module's
// primary key.
func (w *WorkloadClient) SASToken(req auth.SASRequest) (string, error) {
	se := strconv.FormatUint(req.Expiry, 10)
	body, err := json.Marshal(signRequest{
		KeyID: "primary",
		Algo:  "HMACSHA256",
		Data:  base64.StdEncoding.EncodeToString([]byte(req.Scope + "\n" + se)),
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/modules/%s/genid/%s/sign?api-version=%s",
		w.baseURL, url.PathEscape(w.moduleID), url.PathEscape(w.generationID), workloadAPIVersion)

	var out signResponse
	if err := w.do(http.MethodPost, endpoint, body, &out); err != nil {
		return "", fmt.Errorf("workload sign: %w", err)
	}

	token := "SharedAccessSignature sr=" + req.Scope + "&sig=" + url.QueryEscape(out.Digest) + "&se=" + se
	if req.KeyName != "" {
		token += "&skn=" + req.KeyName
	}
	return token, nil
}

// X509Credentials is not offered by the workload API for SAS modules.
func (w *WorkloadClient) X509Credentials() (string, string, error) {
	return "", "", auth.ErrUnsupportedCredential
}

type trustBundleResponse struct {
	Certificate string `json:"certificate"`
}

// TrustBundle fetches the runtime's CA bundle.
func (w *WorkloadClient) TrustBundle() (string, error) {
	var out trustBundleResponse
	endpoint := fmt.Sprintf("%s/trust-bundle?api-version=%s", w.baseURL, workloadAPIVersion)
	if err := w.do(http.MethodGet, endpoint, nil, &out); err != nil {
		return "", fmt.Errorf("workload trust bundle: %w", err)
	}
	if out.Certificate == "" {
		return "", fmt.Errorf("workload trust bundle: empty certificate")
	}
	return out.Certificate, nil
}

// Close releases idle connections.
func (w *WorkloadClient) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

func (w *WorkloadClient) do(method, endpoint string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, endpoint, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
