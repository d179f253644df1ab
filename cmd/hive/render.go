package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/agent"
	"github.com/fwojciec/hive/markdown"
)

type renderer struct {
	w        io.Writer
	thinking lipgloss.Style
	tool     lipgloss.Style
	failure  lipgloss.Style
	muted    lipgloss.Style
	// inThinking is set while thinking deltas are streaming.
	inThinking bool
	// width > 0 buffers assistant text and renders it as markdown
	// once the text run ends.
	width int
	text  strings.Builder
}

func newRenderer(w io.Writer, width int) *renderer {
	return &renderer{
		w:        w,
		width:    width,
		thinking: lipgloss.NewStyle().Faint(true).Italic(true),
		tool:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r *renderer) render(e hive.Event) {
	if _, ok := e.(hive.EventThinkingDelta); !ok && r.inThinking {
		fmt.Fprintln(r.w)
		r.inThinking = false
	}
	if _, ok := e.(hive.EventTextDelta); !ok {
		r.flush()
	}
	switch e := e.(type) {
	case hive.EventTextDelta:
		if r.width > 0 {
			r.text.WriteString(e.Delta)
			return
		}
		fmt.Fprint(r.w, e.Delta)
	case hive.EventThinkingDelta:
		r.inThinking = true
		fmt.Fprint(r.w, r.thinking.Render(e.Delta))
	case hive.EventToolUseStart:
		fmt.Fprintf(r.w, "\n%s\n", r.tool.Render("▸ "+e.Name))
	case hive.EventToolResult:
		mark, style := "✓", r.muted
		if e.IsError {
			mark, style = "✗", r.failure
		}
		fmt.Fprintln(r.w, style.Render(fmt.Sprintf("%s %s (%d → %d chars)", mark, e.Name, len(e.Raw), len(e.Compressed))))
	case hive.EventTurnResult:
		if e.IsError {
			fmt.Fprintf(r.w, "\n%s\n", r.failure.Render("error: "+e.Message))
		}
	case hive.EventUsage, hive.EventToolUse:
	}
}

func (r *renderer) flush() {
	if r.text.Len() == 0 {
		return
	}
	fmt.Fprintln(r.w, markdown.Render(r.text.String(), r.width))
	r.text.Reset()
}

func (r *renderer) summary(res agent.Result) {
	r.flush()
	line := fmt.Sprintf("%s · %d in / %d out tokens", res.State, res.Usage.TotalInput, res.Usage.TotalOutput)
	fmt.Fprintf(r.w, "\n%s\n", r.muted.Render(line))
}
