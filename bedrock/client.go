package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/anthropic"
	"github.com/fwojciec/hive/eventstream"
	"github.com/fwojciec/hive/sigv4"
)

// Interface compliance check.
var _ hive.Provider = (*Client)(nil)

// Client implements [hive.Provider] for Bedrock.
type Client struct {
	creds      hive.CredentialProvider
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL overrides the regional endpoint. Useful for testing with
// httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the time source used for signing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a [Client]. The credentials must carry AWS credentials.
func New(creds hive.CredentialProvider, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		httpClient: http.DefaultClient,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewDecoder returns an AWS EventStream decoder.
func (c *Client) NewDecoder() hive.Decoder {
	return eventstream.NewDecoder(eventstream.WithLogger(c.log))
}

// Endpoint returns the regional runtime endpoint.
func Endpoint(region string) string {
	return "https://bedrock-runtime." + region + ".amazonaws.com"
}

// NewBody converts req into a Bedrock request body: the model moves to
// the URL, streaming is implied by the endpoint, and the API version is
// carried in the body.
func NewBody(req hive.Request) anthropic.Body {
	b := anthropic.NewBody(req, "")
	b.Stream = false
	b.AnthropicVersion = anthropicVersion
	b.CacheControl = nil
	return b
}

// Send signs and posts a streaming request and returns the response body.
func (c *Client) Send(ctx context.Context, req hive.Request) (io.ReadCloser, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w: credentials: %w", hive.ErrSigning, err)
	}
	if creds.AWS == nil {
		return nil, fmt.Errorf("bedrock: %w: no AWS credentials", hive.ErrSigning)
	}

	body, err := json.Marshal(NewBody(req))
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w", err)
	}

	base := c.baseURL
	if base == "" {
		base = Endpoint(creds.AWS.Region)
	}
	model := ResolveModel(req.Model)
	endpoint := base + "/model/" + url.PathEscape(model) + "/invoke-with-response-stream"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w: %w", hive.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", eventStreamMIME)
	if err := sigv4.Apply(httpReq, body, *creds.AWS, service, c.now()); err != nil {
		return nil, fmt.Errorf("bedrock: %w", err)
	}

	c.log.Debug("bedrock request", "model", model, "region", creds.AWS.Region, "messages", len(req.Messages), "bytes", len(body))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w: %w", hive.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.log.Warn("bedrock request failed", "status", resp.StatusCode, "error", err)
		return nil, err
	}
	return resp.Body, nil
}

func parseHTTPError(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bedrock: %w: HTTP %d (failed to read body: %w)", hive.ErrTransport, resp.StatusCode, err)
	}
	var e struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		msg = e.Message
	}
	if kind := resp.Header.Get("X-Amzn-Errortype"); kind != "" {
		msg = strings.SplitN(kind, ":", 2)[0] + ": " + msg
	}
	return fmt.Errorf("bedrock: %w: HTTP %d: %s", hive.ErrTransport, resp.StatusCode, msg)
}
