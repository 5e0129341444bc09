package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// generatedMarker tells readers not to edit generated pages by hand.
const generatedMarker = "<!-- Code generated by scripts/gendocs. DO NOT EDIT. -->"

// MarkdownWriter accumulates a markdown document.
type MarkdownWriter struct {
	sb strings.Builder
}

// NewMarkdownWriter creates an empty document.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes a YAML frontmatter block.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.sb.WriteString("---\n")
	w.sb.WriteString("title: " + quoteYAML(title) + "\n")
	w.sb.WriteString("description: " + quoteYAML(description) + "\n")
	w.sb.WriteString("---\n\n")
}

// GeneratedMarker writes the generated-file comment.
func (w *MarkdownWriter) GeneratedMarker() {
	w.sb.WriteString(generatedMarker + "\n\n")
}

// Header writes a header of the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	w.sb.WriteString(strings.Repeat("#", max(level, 1)) + " " + text + "\n\n")
}

// Paragraph writes a paragraph.
func (w *MarkdownWriter) Paragraph(text string) {
	w.sb.WriteString(strings.TrimSpace(text) + "\n\n")
}

// CodeBlock writes a fenced code block.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	w.sb.WriteString("```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```\n\n")
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		w.sb.WriteString("- " + item + "\n")
	}
	w.sb.WriteString("\n")
}

// Table writes a markdown table. Nothing is written without rows.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	t := table.NewWriter()
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	w.sb.WriteString(t.RenderMarkdown() + "\n\n")
}

// Bytes returns the document.
func (w *MarkdownWriter) Bytes() []byte {
	return []byte(w.sb.String())
}

// String returns the document.
func (w *MarkdownWriter) String() string {
	return w.sb.String()
}

// InlineCode wraps s in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// cleanDescription trims a flag or command description and drops the
// trailing period.
func cleanDescription(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}

func quoteYAML(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
