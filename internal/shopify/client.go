// Package shopify wraps the Shopify Admin REST and GraphQL APIs used by the
// proposal lifecycle: theme lifecycle operations, theme asset reads/writes,
// and product lookups. The remote is treated as a black box; failures are
// surfaced as *APIError with the remote's status and message, with no retry.
package shopify

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
	"unicode/utf8"
)

const maxRemoteMessageBytes = 300

// APIError carries a remote failure through to the caller unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	shopDomain  string
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

func New(shopDomain, apiVersion, accessToken string) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", shopDomain, apiVersion),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL points the client at an explicit Admin API root instead of
// deriving one from the shop domain. Used by tests and local mocks.
func NewWithBaseURL(baseURL, accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 400 {
		return &APIError{StatusCode: res.StatusCode, Message: remoteMessage(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// remoteMessage extracts Shopify's "errors" payload, which may be a string,
// a list, or a field->messages map depending on the endpoint.
func remoteMessage(raw []byte) string {
	var envelope struct {
		Errors any `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Errors != nil {
		return strings.TrimSpace(fmt.Sprint(envelope.Errors))
	}
	message := strings.TrimSpace(string(raw))
	if len(message) > maxRemoteMessageBytes {
		cut := maxRemoteMessageBytes
		// Back up to a rune boundary so truncation never splits a rune.
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut]
	}
	if message == "" {
		message = "remote error"
	}
	return message
}

// Ping verifies the shop is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/shop.json", nil, nil, nil)
}
