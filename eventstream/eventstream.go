// Package eventstream decodes AWS EventStream binary frames, as streamed by
// Bedrock's invoke-with-response-stream, into hive stream events.
//
// Frame layout (all integers big-endian):
//
//	total_length u32 | headers_length u32 | prelude_crc u32 | headers | payload | message_crc u32
//
// CRCs are carried but not validated.
package eventstream

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log/slog"

	"github.com/fwojciec/hive"
)

const (
	preludeLen = 12
	crcLen     = 4
	// MinFrameLen is the smallest well-formed frame: prelude plus message CRC.
	MinFrameLen = preludeLen + crcLen
	// MaxFrameLen bounds the declared length of one frame.
	MaxFrameLen = 16 << 20

	// retainLimit is the buffer capacity kept after a large frame drains.
	retainLimit = 64 << 10
)

// Header value type tags.
const (
	typeBoolTrue byte = iota
	typeBoolFalse
	typeByte
	typeInt16
	typeInt32
	typeInt64
	typeBytes
	typeString
	typeTimestamp
	typeUUID
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used to report dropped frames.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

// Decoder is a resumable EventStream decoder. It is not safe for
// concurrent use.
type Decoder struct {
	buf []byte
	log *slog.Logger
}

var _ hive.Decoder = (*Decoder)(nil)

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode appends p to the internal buffer and returns the events of every
// complete frame. Malformed frames are dropped and scanning continues.
func (d *Decoder) Decode(p []byte) []hive.StreamEvent {
	d.buf = append(d.buf, p...)

	var events []hive.StreamEvent
	off := 0
	for len(d.buf)-off >= preludeLen {
		total := binary.BigEndian.Uint32(d.buf[off:])
		headersLen := binary.BigEndian.Uint32(d.buf[off+4:])
		if total < MinFrameLen || total > MaxFrameLen {
			d.log.Debug("eventstream: skipping prelude with invalid length", "length", total)
			off += preludeLen
			continue
		}
		if uint32(len(d.buf)-off) < total {
			break
		}
		frame := d.buf[off : off+int(total)]
		off += int(total)
		if evt, ok := d.decodeFrame(frame, headersLen); ok {
			events = append(events, evt)
		}
	}
	d.compact(off)
	return events
}

// Flush discards a trailing partial frame. Binary frames are never
// delivered incomplete.
func (d *Decoder) Flush() []hive.StreamEvent {
	if len(d.buf) > 0 {
		d.log.Debug("eventstream: dropping partial frame at end of stream", "bytes", len(d.buf))
	}
	d.buf = nil
	return nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) compact(off int) {
	if off > 0 {
		n := copy(d.buf, d.buf[off:])
		d.buf = d.buf[:n]
	}
	if cap(d.buf) > retainLimit && len(d.buf) < cap(d.buf)/4 {
		shrunk := make([]byte, len(d.buf), max(2*len(d.buf), 4096))
		copy(shrunk, d.buf)
		d.buf = shrunk
	}
}

func (d *Decoder) decodeFrame(frame []byte, headersLen uint32) (hive.StreamEvent, bool) {
	total := uint32(len(frame))
	if uint64(preludeLen)+uint64(headersLen)+crcLen > uint64(total) {
		d.log.Debug("eventstream: dropping frame with oversized headers", "headers_length", headersLen, "length", total)
		return hive.StreamEvent{}, false
	}
	headersEnd := preludeLen + headersLen
	h := parseHeaders(frame[preludeLen:headersEnd])
	payload := frame[headersEnd : total-crcLen]

	switch h.messageType {
	case "exception", "error":
		return errorEvent(h, payload), true
	}
	return d.decodePayload(h.eventType, payload)
}

func (d *Decoder) decodePayload(headerType string, payload []byte) (hive.StreamEvent, bool) {
	var wrapper struct {
		Bytes *string `json:"bytes"`
		Type  string  `json:"type"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		d.log.Debug("eventstream: dropping frame with malformed payload", "error", err)
		return hive.StreamEvent{}, false
	}
	inner := payload
	innerType := wrapper.Type
	if wrapper.Bytes != nil {
		decoded, err := base64.StdEncoding.DecodeString(*wrapper.Bytes)
		if err != nil {
			d.log.Debug("eventstream: dropping frame with invalid base64", "error", err)
			return hive.StreamEvent{}, false
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(decoded, &head); err != nil {
			d.log.Debug("eventstream: dropping frame with malformed inner event", "error", err)
			return hive.StreamEvent{}, false
		}
		inner = decoded
		innerType = head.Type
	}

	typ := headerType
	if !hive.KnownEventType(typ) {
		typ = innerType
	}
	if !hive.KnownEventType(typ) {
		return hive.StreamEvent{}, false
	}
	out := make(json.RawMessage, len(inner))
	copy(out, inner)
	return hive.StreamEvent{Type: typ, Payload: out}, true
}

type headers struct {
	eventType     string
	messageType   string
	exceptionType string
	errorCode     string
	errorMessage  string
}

// parseHeaders reads the header block. Parsing stops at the first
// truncated header or unknown value type.
func parseHeaders(b []byte) headers {
	var h headers
	i := 0
	for i < len(b) {
		nameLen := int(b[i])
		i++
		if i+nameLen+1 > len(b) {
			break
		}
		name := string(b[i : i+nameLen])
		i += nameLen
		tag := b[i]
		i++

		var size int
		switch tag {
		case typeBoolTrue, typeBoolFalse:
			size = 0
		case typeByte:
			size = 1
		case typeInt16:
			size = 2
		case typeInt32:
			size = 4
		case typeInt64, typeTimestamp:
			size = 8
		case typeUUID:
			size = 16
		case typeBytes, typeString:
			if i+2 > len(b) {
				return h
			}
			size = 2 + int(binary.BigEndian.Uint16(b[i:]))
		default:
			return h
		}
		if i+size > len(b) {
			return h
		}
		if tag == typeString {
			h.set(name, string(b[i+2:i+size]))
		}
		i += size
	}
	return h
}

func (h *headers) set(name, value string) {
	switch name {
	case ":event-type":
		h.eventType = value
	case ":message-type":
		h.messageType = value
	case ":exception-type":
		h.exceptionType = value
	case ":error-code":
		h.errorCode = value
	case ":error-message":
		h.errorMessage = value
	}
}

func errorEvent(h headers, payload []byte) hive.StreamEvent {
	kind := h.exceptionType
	if kind == "" {
		kind = h.errorCode
	}
	msg := h.errorMessage
	if msg == "" {
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &body) == nil {
			msg = body.Message
		}
	}
	if msg == "" {
		msg = string(payload)
	}
	type apiError struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	out, _ := json.Marshal(struct {
		Type  string   `json:"type"`
		Error apiError `json:"error"`
	}{Type: hive.TypeError, Error: apiError{Type: kind, Message: msg}})
	return hive.StreamEvent{Type: hive.TypeError, Payload: out}
}
