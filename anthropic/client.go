package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/sse"
)

// Interface compliance check.
var _ hive.Provider = (*Client)(nil)

// Client implements [hive.Provider] for the Anthropic Messages API.
type Client struct {
	creds      hive.CredentialProvider
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a [Client]. Credentials are resolved on every request; an
// API key takes precedence over a bearer token.
func New(creds hive.CredentialProvider, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewDecoder returns an SSE decoder.
func (c *Client) NewDecoder() hive.Decoder {
	return sse.NewDecoder(sse.WithLogger(c.log))
}

// Send posts a streaming request and returns the response body.
func (c *Client) Send(ctx context.Context, req hive.Request) (io.ReadCloser, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w: credentials: %w", hive.ErrValidation, err)
	}
	if creds.APIKey == "" && creds.BearerToken == "" {
		return nil, fmt.Errorf("anthropic: %w: no API key or bearer token", hive.ErrValidation)
	}

	model := ResolveModel(req.Model)
	body, err := json.Marshal(NewBody(req, model))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	url := c.baseURL + messagesPath
	oauth := creds.APIKey == ""
	if oauth {
		url += "?beta=true"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w: %w", hive.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Anthropic-Version", apiVersion)
	if oauth {
		httpReq.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	} else {
		httpReq.Header.Set("X-Api-Key", creds.APIKey)
	}
	var betas []string
	if req.Thinking != nil {
		betas = append(betas, betaInterleavedThinking)
	}
	if oauth {
		betas = append(betas, betaOAuth)
	}
	if len(betas) > 0 {
		httpReq.Header.Set("Anthropic-Beta", strings.Join(betas, ","))
	}

	c.log.Debug("anthropic request", "model", model, "messages", len(req.Messages), "bytes", len(body))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w: %w", hive.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.log.Warn("anthropic request failed", "status", resp.StatusCode, "error", err)
		return nil, err
	}
	return resp.Body, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: %w: HTTP %d (failed to read body: %w)", hive.ErrTransport, resp.StatusCode, err)
	}
	return fmt.Errorf("anthropic: %w: HTTP %d: %s", hive.ErrTransport, resp.StatusCode, ParseErrorBody(body))
}
