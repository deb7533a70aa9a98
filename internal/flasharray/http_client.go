package flasharray

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient is a thin JSON client bound to one array base URL.
type httpClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

type httpClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	VerifySSL bool
}

func newHTTPClient(cfg httpClientConfig) *httpClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		// Arrays commonly present self-signed certificates.
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !cfg.VerifySSL,
		},
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		headers: make(map[string]string),
	}
}

// SetHeader sets a header that will be included in all requests
func (c *httpClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *httpClient) Get(ctx context.Context, path string, result interface{}) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, nil, result)
	return err
}

// Post returns the response headers, which carry the session token on login.
func (c *httpClient) Post(ctx context.Context, path string, extra map[string]string, body interface{}, result interface{}) (http.Header, error) {
	return c.do(ctx, http.MethodPost, path, extra, body, result)
}

func (c *httpClient) do(ctx context.Context, method, path string, extra map[string]string, body interface{}, result interface{}) (http.Header, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header, nil
}

func (c *httpClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
