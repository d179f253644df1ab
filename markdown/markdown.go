// Package markdown renders markdown to styled terminal text using
// goldmark for parsing and lipgloss for styling.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultWidth is used when Render is given a non-positive width.
const DefaultWidth = 80

const minItemWidth = 10

var (
	boldStyle      = lipgloss.NewStyle().Bold(true)
	italicStyle    = lipgloss.NewStyle().Italic(true)
	headingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)
	underlineStyle = lipgloss.NewStyle().Underline(true)
)

// Render returns source as styled terminal text. Paragraphs, headings and
// list items are wrapped to width; code blocks are never reflowed.
func Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	src := []byte(source)
	w := &writer{src: src, width: width}
	w.blocks(goldmark.DefaultParser().Parse(text.NewReader(src)))
	return strings.TrimRight(w.out.String(), "\n")
}

type writer struct {
	src   []byte
	width int
	out   strings.Builder
}

func (w *writer) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
		if n.NextSibling() != nil && n.Kind() != ast.KindHTMLBlock {
			w.out.WriteByte('\n')
		}
	}
}

func (w *writer) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n))
	case *ast.Heading:
		w.wrapped(headingStyle.Render(w.inline(n)))
	case *ast.FencedCodeBlock:
		if lang := n.Language(w.src); len(lang) > 0 {
			w.out.WriteString(mutedStyle.Render(string(lang)) + "\n")
		}
		w.code(n)
	case *ast.CodeBlock:
		w.code(n)
	case *ast.List:
		w.list(n, 0)
	case *ast.ThematicBreak:
		w.out.WriteString("---\n")
	case *ast.HTMLBlock:
		for i := 0; i < n.Lines().Len(); i++ {
			seg := n.Lines().At(i)
			w.out.Write(seg.Value(w.src))
		}
	default:
		w.blocks(n)
	}
}

func (w *writer) wrapped(s string) {
	w.out.WriteString(lipgloss.NewStyle().Width(w.width).Render(s))
	w.out.WriteByte('\n')
}

func (w *writer) code(n ast.Node) {
	gutter := mutedStyle.Render("│") + " "
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		w.out.WriteString(gutter + strings.TrimRight(string(seg.Value(w.src)), "\n") + "\n")
	}
}

func (w *writer) list(l *ast.List, depth int) {
	indent := strings.Repeat("  ", depth)
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		var pending strings.Builder
		for ic := c.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch ic := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				pending.WriteString(w.inline(ic))
			case *ast.List:
				if pending.Len() > 0 {
					w.item(indent+marker, pending.String())
					pending.Reset()
				}
				w.list(ic, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				sub := &writer{src: w.src, width: w.width}
				sub.block(ic)
				pending.WriteString(sub.out.String())
			}
		}
		if pending.Len() > 0 {
			w.item(indent+marker, pending.String())
		}
	}
}

// item writes a list item with continuation lines aligned under its text.
func (w *writer) item(prefix, content string) {
	width := max(w.width-len(prefix), minItemWidth)
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(lipgloss.NewStyle().Width(width).Render(content), "\n") {
		if i == 0 {
			w.out.WriteString(prefix + line + "\n")
		} else {
			w.out.WriteString(pad + line + "\n")
		}
	}
}

func (w *writer) inline(parent ast.Node) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.span(n, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		style := boldStyle
		if n.Level == 1 {
			style = italicStyle
		}
		b.WriteString(style.Render(w.inline(n)))
	case *ast.CodeSpan:
		b.WriteString(boldStyle.Render(w.inline(n)))
	case *ast.Link:
		b.WriteString(underlineStyle.Render(w.inline(n)) + " " + mutedStyle.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		b.WriteString(underlineStyle.Render(w.inline(n)) + " " + mutedStyle.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(underlineStyle.Render(string(n.URL(w.src))))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
