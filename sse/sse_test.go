package sse_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(events []hive.StreamEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDecode_BareLines(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	events := d.Decode([]byte(`{"type":"message_start","message":{}}` + "\n" + `{"type":"message_stop"}` + "\n"))
	require.Len(t, events, 2)
	assert.Equal(t, "message_start", events[0].Type)
	assert.JSONEq(t, `{"type":"message_start","message":{}}`, string(events[0].Payload))
	assert.Equal(t, "message_stop", events[1].Type)
}

func TestDecode_SSEFraming(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	input := ": keepalive\n" +
		"event: content_block_delta\n" +
		"id: 7\n" +
		"retry: 1000\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}` + "\r\n" +
		"\n" +
		"event: ping\n" +
		`data: {"type":"ping"}` + "\n\n"
	events := d.Decode([]byte(input))
	require.Len(t, events, 1)
	assert.Equal(t, "content_block_delta", events[0].Type)
}

func TestDecode_DataWithoutSpace(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	events := d.Decode([]byte(`data:{"type":"message_stop"}` + "\n"))
	assert.Equal(t, []string{"message_stop"}, types(events))
}

func TestDecode_SplitAcrossReads(t *testing.T) {
	t.Parallel()
	line := `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hello"}}` + "\n"
	for split := 1; split < len(line); split++ {
		d := sse.NewDecoder()
		first := d.Decode([]byte(line[:split]))
		assert.Empty(t, first, "split at %d", split)
		second := d.Decode([]byte(line[split:]))
		require.Len(t, second, 1, "split at %d", split)
		assert.JSONEq(t, strings.TrimSpace(line), string(second[0].Payload))
	}
}

func TestDecode_ByteAtATime(t *testing.T) {
	t.Parallel()
	input := "data: {\"type\":\"message_start\"}\n\ndata: {\"type\":\"message_delta\",\"delta\":{}}\n"
	d := sse.NewDecoder()
	var all []hive.StreamEvent
	for i := range len(input) {
		all = append(all, d.Decode([]byte{input[i]})...)
	}
	assert.Equal(t, []string{"message_start", "message_delta"}, types(all))
}

func TestDecode_IgnoresNoise(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "hello world\n"},
		{"broken json", `{"type":"message_start"` + "\n"},
		{"no type", `{"foo":1}` + "\n"},
		{"unknown type", `{"type":"ping"}` + "\n"},
		{"type not string", `{"type":5}` + "\n"},
		{"empty lines", "\n\n\r\n"},
		{"array", `[1,2]` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := sse.NewDecoder()
			assert.Empty(t, d.Decode([]byte(tt.input)))
			assert.Empty(t, d.Flush())
		})
	}
}

func TestDecode_NoiseDoesNotStopDecoding(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	events := d.Decode([]byte("garbage\n{\"type\":\"message_stop\"}\n"))
	assert.Equal(t, []string{"message_stop"}, types(events))
}

func TestFlush_TrailingPartialLine(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	assert.Empty(t, d.Decode([]byte(`{"type":"message_stop"}`)))
	assert.Equal(t, []string{"message_stop"}, types(d.Flush()))
	assert.Empty(t, d.Flush())
}

func TestDecode_OverLongLineDiscarded(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder(sse.WithMaxLineSize(64))
	long := `{"type":"message_start","pad":"` + strings.Repeat("x", 100) + `"}`
	assert.Empty(t, d.Decode([]byte(long[:50])))
	assert.Empty(t, d.Decode([]byte(long[50:])))
	events := d.Decode([]byte("\n{\"type\":\"message_stop\"}\n"))
	assert.Equal(t, []string{"message_stop"}, types(events))
}

func TestDecode_OverLongCompleteLineDiscarded(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder(sse.WithMaxLineSize(32))
	long := `{"type":"message_start","pad":"` + strings.Repeat("x", 40) + `"}` + "\n"
	assert.Empty(t, d.Decode([]byte(long)))
}

func TestDecode_PayloadNotAliased(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	buf := []byte(`{"type":"message_stop"}` + "\n")
	events := d.Decode(buf)
	require.Len(t, events, 1)
	for i := range buf {
		buf[i] = 'z'
	}
	assert.JSONEq(t, `{"type":"message_stop"}`, string(events[0].Payload))
}
