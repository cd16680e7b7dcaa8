package layout

import (
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wudi/afpkit/builder"
)

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func getMarkdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return markdownParser
}

// RenderMarkdown renders a markdown string and ends the last page. It
// returns the first error recorded by the builder.
func (e *Engine) RenderMarkdown(source string) error {
	src := []byte(source)
	doc := getMarkdownParser().Parser().Parse(text.NewReader(src))
	e.walkMarkdown(doc, src, 0)
	e.Finish()
	return e.b.Err()
}

func (e *Engine) walkMarkdown(node ast.Node, source []byte, indent float64) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		e.renderMarkdownBlock(child, source, indent)
	}
}

func (e *Engine) renderMarkdownBlock(node ast.Node, source []byte, indent float64) {
	switch n := node.(type) {
	case *ast.Heading:
		spans, _ := e.inlineSpans(n, source, e.DefaultFontSize)
		e.renderHeading(spans, n.Level)
	case *ast.Paragraph:
		e.renderMarkdownParagraph(n, source, indent)
		e.renderParagraphSpacing()
	case *ast.TextBlock:
		e.renderMarkdownParagraph(n, source, indent)
	case *ast.List:
		e.renderMarkdownList(n, source, indent)
		if indent == 0 {
			e.renderParagraphSpacing()
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if code := blockText(n, source); code != "" {
			e.renderCode(code, indent)
		}
	case *ast.Blockquote:
		e.walkMarkdown(n, source, indent+listIndent)
	case *ast.ThematicBreak:
		e.renderRule()
	case *extast.Table:
		e.renderMarkdownTable(n, source)
	}
}

func (e *Engine) renderMarkdownParagraph(n ast.Node, source []byte, indent float64) {
	spans, images := e.inlineSpans(n, source, e.DefaultFontSize)
	e.renderParagraph(spans, indent)
	for _, img := range images {
		e.renderImage(string(img.Destination), plainText(img, source), 0, 0)
	}
}

func (e *Engine) renderMarkdownList(list *ast.List, source []byte, indent float64) {
	num := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "-"
		if list.IsOrdered() {
			marker = strconv.Itoa(num) + string(list.Marker)
			num++
		}
		rest := item.FirstChild()
		var spans []TextSpan
		var images []*ast.Image
		switch rest.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			spans, images = e.inlineSpans(rest, source, e.DefaultFontSize)
			rest = rest.NextSibling()
		}
		e.renderListItem(marker, spans, indent)
		for _, img := range images {
			e.renderImage(string(img.Destination), plainText(img, source), 0, 0)
		}
		for ; rest != nil; rest = rest.NextSibling() {
			e.renderMarkdownBlock(rest, source, indent+listIndent)
		}
	}
}

func (e *Engine) renderMarkdownTable(t *extast.Table, source []byte) {
	var rows [][]string
	header := 0
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, plainText(cell, source))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			header++
		}
		rows = append(rows, cells)
	}
	aligns := make([]builder.HAlign, len(t.Alignments))
	for i, a := range t.Alignments {
		switch a {
		case extast.AlignCenter:
			aligns[i] = builder.HAlignCenter
		case extast.AlignRight:
			aligns[i] = builder.HAlignRight
		default:
			aligns[i] = builder.HAlignLeft
		}
	}
	e.renderTable(rows, header, aligns)
}

// inlineSpans converts the inline children of block to styled spans.
// Images are returned separately and drawn after the text.
func (e *Engine) inlineSpans(block ast.Node, source []byte, size float64) ([]TextSpan, []*ast.Image) {
	var spans []TextSpan
	var images []*ast.Image
	var st style
	add := func(s string) {
		if s != "" {
			spans = append(spans, e.span(s, st, size))
		}
	}
	ast.Walk(block, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		delta := 1
		if !entering {
			delta = -1
		}
		switch n := node.(type) {
		case *ast.Text:
			if entering {
				add(string(n.Segment.Value(source)))
				if n.SoftLineBreak() || n.HardLineBreak() {
					add(" ")
				}
			}
		case *ast.String:
			if entering {
				add(string(n.Value))
			}
		case *ast.Emphasis:
			if n.Level >= 2 {
				st.bold += delta
			} else {
				st.italic += delta
			}
		case *ast.CodeSpan:
			st.code += delta
		case *extast.Strikethrough:
			st.strike += delta
		case *ast.Link:
			if entering {
				st.link = string(n.Destination)
			} else {
				st.link = ""
			}
		case *ast.AutoLink:
			if entering {
				st.link = string(n.URL(source))
				add(string(n.Label(source)))
				st.link = ""
			}
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			if entering {
				images = append(images, n)
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return spans, images
}

// plainText concatenates the text below n.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
	return sb.String()
}
