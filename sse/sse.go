// Package sse decodes line-delimited JSON event streams, with or without
// Server-Sent Events framing, into hive stream events.
package sse

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/fwojciec/hive"
)

// DefaultMaxLineSize bounds a single buffered line.
const DefaultMaxLineSize = 8 << 20

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxLineSize sets the longest line the decoder will buffer.
func WithMaxLineSize(n int) Option {
	return func(d *Decoder) {
		d.maxLine = n
	}
}

// WithLogger sets the logger used to report dropped input.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

// Decoder is a resumable line decoder. It is not safe for concurrent use.
type Decoder struct {
	buf     []byte
	maxLine int
	// discarding is set while skipping the remainder of an over-long line.
	discarding bool
	log        *slog.Logger
}

var _ hive.Decoder = (*Decoder)(nil)

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{maxLine: DefaultMaxLineSize, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode consumes p and returns the events of every complete line in it.
// A trailing partial line is buffered until its newline arrives.
func (d *Decoder) Decode(p []byte) []hive.StreamEvent {
	var events []hive.StreamEvent
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			d.appendPartial(p)
			break
		}
		line := p[:i]
		p = p[i+1:]
		if d.discarding {
			d.discarding = false
			continue
		}
		if len(d.buf) > 0 {
			d.buf = append(d.buf, line...)
			line = d.buf
		}
		if evt, ok := d.parseLine(line); ok {
			events = append(events, evt)
		}
		d.buf = d.buf[:0]
	}
	return events
}

// Flush parses any buffered partial line as if the stream had ended with
// a newline.
func (d *Decoder) Flush() []hive.StreamEvent {
	if d.discarding || len(d.buf) == 0 {
		d.discarding = false
		d.buf = d.buf[:0]
		return nil
	}
	evt, ok := d.parseLine(d.buf)
	d.buf = d.buf[:0]
	if !ok {
		return nil
	}
	return []hive.StreamEvent{evt}
}

func (d *Decoder) appendPartial(p []byte) {
	if d.discarding {
		return
	}
	if len(d.buf)+len(p) > d.maxLine {
		d.log.Debug("sse: discarding over-long line", "limit", d.maxLine)
		d.buf = d.buf[:0]
		d.discarding = true
		return
	}
	d.buf = append(d.buf, p...)
}

func (d *Decoder) parseLine(line []byte) (hive.StreamEvent, bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(line) > d.maxLine {
		d.log.Debug("sse: discarding over-long line", "limit", d.maxLine)
		return hive.StreamEvent{}, false
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == ':' {
		return hive.StreamEvent{}, false
	}
	if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		line = bytes.TrimSpace(rest)
	} else if line[0] != '{' {
		// event:, id:, retry: and unknown fields.
		return hive.StreamEvent{}, false
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		d.log.Debug("sse: dropping malformed line", "error", err)
		return hive.StreamEvent{}, false
	}
	if !hive.KnownEventType(head.Type) {
		return hive.StreamEvent{}, false
	}
	payload := make(json.RawMessage, len(line))
	copy(payload, line)
	return hive.StreamEvent{Type: head.Type, Payload: payload}, true
}
