// Package mock provides test doubles for hive interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/hive"
)

// Interface compliance checks.
var (
	_ hive.Provider           = (*Provider)(nil)
	_ hive.Decoder            = (*Decoder)(nil)
	_ hive.CredentialProvider = (*CredentialProvider)(nil)
)

// Provider is a test double for hive.Provider.
// Set SendFn and NewDecoderFn before use.
type Provider struct {
	SendFn       func(ctx context.Context, req hive.Request) (io.ReadCloser, error)
	NewDecoderFn func() hive.Decoder
}

// Send delegates to SendFn.
func (p *Provider) Send(ctx context.Context, req hive.Request) (io.ReadCloser, error) {
	return p.SendFn(ctx, req)
}

// NewDecoder delegates to NewDecoderFn.
func (p *Provider) NewDecoder() hive.Decoder {
	return p.NewDecoderFn()
}

// Decoder is a test double for hive.Decoder.
type Decoder struct {
	DecodeFn func(p []byte) []hive.StreamEvent
	FlushFn  func() []hive.StreamEvent
}

// Decode delegates to DecodeFn.
func (d *Decoder) Decode(p []byte) []hive.StreamEvent {
	return d.DecodeFn(p)
}

// Flush delegates to FlushFn.
func (d *Decoder) Flush() []hive.StreamEvent {
	return d.FlushFn()
}

// CredentialProvider is a test double for hive.CredentialProvider.
type CredentialProvider struct {
	CredentialsFn func(ctx context.Context) (hive.Credentials, error)
}

// Credentials delegates to CredentialsFn.
func (c *CredentialProvider) Credentials(ctx context.Context) (hive.Credentials, error) {
	return c.CredentialsFn(ctx)
}
