package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/agent"
	"github.com/fwojciec/hive/anthropic"
	"github.com/fwojciec/hive/bedrock"
	"github.com/fwojciec/hive/config"
	hivejson "github.com/fwojciec/hive/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textStream = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":5,\"output_tokens\":0}}}\n\n" +
	"event: content_block_start\ndata: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\",\"text\":\"\"}}\n\n" +
	"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello from the model\"}}\n\n" +
	"event: content_block_stop\ndata: {\"type\":\"content_block_stop\",\"index\":0}\n\n" +
	"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":4}}\n\n" +
	"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

func TestRun_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(textStream))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("HIVE_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL)
	t.Setenv("HIVE_TRANSCRIPT_DIR", "")

	dir := t.TempDir()
	save := filepath.Join(dir, "conv.json")
	var stdout, stderr bytes.Buffer
	args := []string{"--env-file", filepath.Join(dir, "missing.env"), "--save", save, "say", "hi"}
	require.NoError(t, run(context.Background(), args, strings.NewReader(""), &stdout, &stderr))

	assert.Contains(t, stdout.String(), "Hello from the model")
	assert.Contains(t, stdout.String(), "5 in / 4 out tokens")

	tr, err := hivejson.Load(save)
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, hive.NewUserText("say hi"), tr.Messages[0])
	assert.Equal(t, 4, tr.TotalOutput)
	assert.NotEmpty(t, tr.ID)

	// Resuming appends to the same transcript.
	stdout.Reset()
	args = []string{"--env-file", filepath.Join(dir, "missing.env"), "--resume", save}
	require.NoError(t, run(context.Background(), args, strings.NewReader("again\n"), &stdout, &stderr))
	tr2, err := hivejson.Load(save)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, tr2.ID)
	assert.Len(t, tr2.Messages, 4)
	assert.Equal(t, 8, tr2.TotalOutput)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HIVE_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")

	var out bytes.Buffer
	err := run(context.Background(), []string{"--env-file", filepath.Join(t.TempDir(), "none"), "hi"}, strings.NewReader(""), &out, &out)
	require.ErrorIs(t, err, hive.ErrValidation)
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	o, rest, err := parseFlags([]string{"-p", "bedrock", "--model", "opus", "-e", "high", "--max-turns", "3", "-v", "fix", "it"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"fix", "it"}, rest)
	assert.True(t, o.verbose)

	cfg := config.Config{Provider: "anthropic", Model: "sonnet", Effort: "low", MaxTurns: 25}
	o.apply(&cfg)
	assert.Equal(t, config.Config{Provider: "bedrock", Model: "opus", Effort: "high", MaxTurns: 3}, cfg)

	_, _, err = parseFlags([]string{"--bogus"}, io.Discard)
	require.Error(t, err)
}

func TestReadPrompt(t *testing.T) {
	t.Parallel()

	p, err := readPrompt([]string{"a", "b"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "a b", p)

	p, err = readPrompt(nil, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", p)

	_, err = readPrompt(nil, strings.NewReader("\n"))
	require.ErrorIs(t, err, hive.ErrValidation)
}

func TestSavePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a.json", savePath(options{save: "a.json", resume: "b.json"}, config.Config{}, "id"))
	assert.Equal(t, "b.json", savePath(options{resume: "b.json"}, config.Config{}, "id"))
	assert.Equal(t, filepath.Join("dir", "id.json"), savePath(options{}, config.Config{TranscriptDir: "dir"}, "id"))
	assert.Empty(t, savePath(options{}, config.Config{}, "id"))
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p, err := newProvider(config.Config{Provider: config.ProviderAnthropic, Anthropic: config.Anthropic{APIKey: "k"}}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, p)

	p, err = newProvider(config.Config{Provider: config.ProviderBedrock, AWS: config.AWS{Region: "us-east-1"}}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &bedrock.Client{}, p)

	_, err = newProvider(config.Config{Provider: "openai"}, slog.Default())
	require.ErrorIs(t, err, hive.ErrValidation)
}

func TestUnavailableTools(t *testing.T) {
	t.Parallel()

	res, err := unavailableTools{}.Execute(context.Background(), "bash", nil, "/")
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Output, "bash")
}

func TestRenderer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := newRenderer(&buf, 0)
	for _, e := range []hive.Event{
		hive.EventThinkingDelta{Delta: "pondering"},
		hive.EventTextDelta{Delta: "Answer"},
		hive.EventToolUseStart{ID: "t1", Name: "read"},
		hive.EventToolResult{ToolUseID: "t1", Name: "read", Raw: "0123456789", Compressed: "01234"},
		hive.EventToolResult{ToolUseID: "t2", Name: "write", Raw: "denied", Compressed: "denied", IsError: true},
		hive.EventTurnResult{IsError: true, Message: "overloaded"},
		hive.EventUsage{TotalInput: 1},
	} {
		r.render(e)
	}
	r.summary(agent.Result{State: agent.StateSuccess, Usage: agent.Totals{TotalInput: 10, TotalOutput: 3}})

	out := buf.String()
	assert.Contains(t, out, "pondering")
	assert.Contains(t, out, "\nAnswer")
	assert.Contains(t, out, "read")
	assert.Contains(t, out, "(10 → 5 chars)")
	assert.Contains(t, out, "write (6 → 6 chars)")
	assert.Contains(t, out, "error: overloaded")
	assert.Contains(t, out, "success · 10 in / 3 out tokens")
}

func TestRenderer_Markdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := newRenderer(&buf, 40)
	r.render(hive.EventTextDelta{Delta: "# Plan\n\n- first"})
	r.render(hive.EventTextDelta{Delta: " step\n- second step"})
	assert.Empty(t, buf.String())

	r.render(hive.EventToolUseStart{ID: "t1", Name: "read"})
	r.render(hive.EventTextDelta{Delta: "**done**"})
	r.summary(agent.Result{State: agent.StateSuccess})

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Plan")
	assert.Contains(t, out, "- first step")
	assert.Contains(t, out, "- second step")
	assert.NotContains(t, out, "**")
	assert.Less(t, strings.Index(out, "second step"), strings.Index(out, "read"))
	assert.Less(t, strings.Index(out, "read"), strings.Index(out, "done"))
}
