// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Archived reports are markdown: a claims section and a findings or
// ratings section, headings, lists, and the occasional fenced code
// block. This renderer covers that subset; anything it doesn't handle
// structurally (tables, images, raw HTML) falls through as plain
// faint text rather than disappearing.

var (
	reportParser     goldmark.Markdown
	reportParserOnce sync.Once
)

// getReportParser returns the shared goldmark parser. The parser
// configuration never changes and goldmark parsers are safe to share;
// per-call state lives in the reader.
func getReportParser() goldmark.Markdown {
	reportParserOnce.Do(func() {
		reportParser = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return reportParser
}

// renderReport parses markdown and renders it as styled terminal
// output wrapped to width. Soft line breaks become spaces so
// hard-wrapped source reflows at any terminal width.
func renderReport(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := getReportParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output always targets the
	// bubbletea viewport, and auto-detection yields uncolored output
	// when stderr is not a TTY (tests, tmux panes mid-resize).
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	r := &reportRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, r.walk)
	return strings.TrimRight(r.output.String(), "\n")
}

// reportRenderer walks the goldmark AST directly instead of using the
// renderer interface: paragraph inline content accumulates in a buffer
// and word-wraps as a unit when the paragraph closes, which goldmark's
// streaming renderer callbacks don't accommodate.
type reportRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder
	inline strings.Builder

	// Indentation prefix for nested lists and blockquotes.
	prefix string
	// pendingBullet replaces the prefix for the next emitted line.
	pendingBullet string

	boldDepth   int
	italicDepth int

	listStack []listLevel
	// itemIndent records the indent width each open list item pushed,
	// so variable-width ordered bullets (9. vs 10.) pop cleanly.
	itemIndent []int

	lipRenderer *lipgloss.Renderer
}

type listLevel struct {
	ordered bool
	counter int
}

func (r *reportRenderer) style() lipgloss.Style {
	return r.lipRenderer.NewStyle()
}

func (r *reportRenderer) contentWidth() int {
	width := r.width - len(r.prefix)
	if width < 10 {
		width = 10
	}
	return width
}

// writeLine emits one already-wrapped line with the current prefix.
// The pending bullet, when set, replaces the prefix once.
func (r *reportRenderer) writeLine(line string) {
	if r.pendingBullet != "" {
		r.output.WriteString(r.pendingBullet)
		r.pendingBullet = ""
	} else {
		r.output.WriteString(r.prefix)
	}
	r.output.WriteString(line)
	r.output.WriteString("\n")
}

// flushInline wraps the accumulated inline content and emits it line
// by line.
func (r *reportRenderer) flushInline() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	wrapped := ansi.Wrap(content, r.contentWidth(), " ,.;-+|")
	for _, line := range strings.Split(wrapped, "\n") {
		r.writeLine(line)
	}
}

func (r *reportRenderer) blankLine() {
	out := r.output.String()
	if out != "" && !strings.HasSuffix(out, "\n\n") {
		r.output.WriteString("\n")
	}
}

func (r *reportRenderer) styledText(content string) string {
	style := r.style().Foreground(r.theme.NormalText)
	if r.boldDepth > 0 {
		style = style.Bold(true)
	}
	if r.italicDepth > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

func (r *reportRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch typed := node.(type) {

	case *ast.Document:

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushInline()
			if len(r.listStack) == 0 {
				r.blankLine()
			}
		}

	case *ast.Heading:
		if entering {
			r.inline.Reset()
		} else {
			content := ansi.Strip(r.inline.String())
			r.inline.Reset()
			if content != "" {
				style := r.style().Bold(true)
				if typed.Level <= 2 {
					style = style.Foreground(r.theme.HeaderForeground)
				} else {
					style = style.Foreground(r.theme.NormalText)
				}
				r.blankLine()
				r.writeLine(style.Render(content))
				r.blankLine()
			}
		}

	case *ast.FencedCodeBlock:
		if entering {
			r.renderCode(r.nodeLines(typed), string(typed.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case *ast.CodeBlock:
		if entering {
			r.renderCode(r.nodeLines(typed), "")
			return ast.WalkSkipChildren, nil
		}

	case *ast.Blockquote:
		if entering {
			r.prefix += "│ "
		} else {
			r.prefix = r.prefix[:len(r.prefix)-len("│ ")]
			r.blankLine()
		}

	case *ast.List:
		if entering {
			start := 0
			if typed.IsOrdered() {
				start = typed.Start
			}
			r.listStack = append(r.listStack, listLevel{ordered: typed.IsOrdered(), counter: start})
		} else {
			r.listStack = r.listStack[:len(r.listStack)-1]
			if len(r.listStack) == 0 {
				r.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			top := &r.listStack[len(r.listStack)-1]
			bullet := "- "
			if top.ordered {
				bullet = fmt.Sprintf("%d. ", top.counter)
				top.counter++
			}
			r.pendingBullet = r.prefix + bullet
			r.prefix += strings.Repeat(" ", len(bullet))
			r.itemIndent = append(r.itemIndent, len(bullet))
		} else {
			indent := r.itemIndent[len(r.itemIndent)-1]
			r.itemIndent = r.itemIndent[:len(r.itemIndent)-1]
			r.prefix = r.prefix[:len(r.prefix)-indent]
			r.pendingBullet = ""
		}

	case *ast.ThematicBreak:
		if entering {
			rule := r.style().Foreground(r.theme.BorderColor).
				Render(strings.Repeat("─", r.contentWidth()))
			r.blankLine()
			r.writeLine(rule)
			r.blankLine()
		}

	case *ast.Text:
		if entering {
			r.inline.WriteString(r.styledText(string(typed.Segment.Value(r.source))))
			if typed.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
			if typed.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styledText(string(typed.Value)))
		}

	case *ast.Emphasis:
		if typed.Level >= 2 {
			if entering {
				r.boldDepth++
			} else {
				r.boldDepth--
			}
		} else {
			if entering {
				r.italicDepth++
			} else {
				r.italicDepth--
			}
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				switch seg := child.(type) {
				case *ast.Text:
					code.Write(seg.Segment.Value(r.source))
				case *ast.String:
					code.Write(seg.Value)
				}
			}
			r.inline.WriteString(r.style().Foreground(r.theme.FaintText).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Link:
		if entering {
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				ast.Walk(child, r.walk)
			}
			if url := string(typed.Destination); url != "" {
				faint := r.style().Foreground(r.theme.FaintText)
				r.inline.WriteString(" " + faint.Render("("+url+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case *ast.AutoLink:
		if entering {
			faint := r.style().Foreground(r.theme.FaintText)
			r.inline.WriteString(faint.Render(string(typed.URL(r.source))))
		}

	default:
		// Unhandled structural nodes (tables, images, raw HTML) fall
		// through: their text children still render via ast.Text.
	}

	return ast.WalkContinue, nil
}

// nodeLines joins a block node's line segments into one string.
func (r *reportRenderer) nodeLines(node ast.Node) string {
	var out strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		out.Write(segment.Value(r.source))
	}
	return out.String()
}

// renderCode emits a code block, syntax-highlighted via chroma when a
// language is tagged, faint otherwise.
func (r *reportRenderer) renderCode(code, language string) {
	code = strings.TrimRight(code, "\n")
	rendered := code
	if language != "" {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err == nil {
			rendered = strings.TrimRight(highlighted.String(), "\n")
		}
	}
	if language == "" || rendered == code {
		rendered = r.style().Foreground(r.theme.FaintText).Render(code)
	}

	r.blankLine()
	for _, line := range strings.Split(rendered, "\n") {
		r.writeLine(line)
	}
	r.blankLine()
}
