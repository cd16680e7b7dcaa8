package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/afpkit/builder"
)

// RenderHTML renders an HTML string and ends the last page. It returns
// the first error recorded by the builder.
func (e *Engine) RenderHTML(source string) error {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return err
	}
	e.walkHTML(doc, 0)
	e.Finish()
	return e.b.Err()
}

func (e *Engine) walkHTML(n *html.Node, indent float64) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			e.renderParagraph([]TextSpan{e.span(collapseSpace(n.Data), style{}, e.DefaultFontSize)}, indent)
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			spans, _ := e.htmlSpans(n, e.DefaultFontSize)
			e.renderHeading(spans, headingLevel(n.DataAtom))
			return
		case atom.P:
			spans, images := e.htmlSpans(n, e.DefaultFontSize)
			e.renderParagraph(spans, indent)
			for _, img := range images {
				e.renderHTMLImage(img)
			}
			e.renderParagraphSpacing()
			return
		case atom.Ul, atom.Ol:
			e.renderHTMLList(n, indent)
			if indent == 0 {
				e.renderParagraphSpacing()
			}
			return
		case atom.Pre:
			if code := textContent(n); strings.TrimSpace(code) != "" {
				e.renderCode(strings.TrimPrefix(code, "\n"), indent)
			}
			return
		case atom.Hr:
			e.renderRule()
			return
		case atom.Img:
			e.renderHTMLImage(n)
			return
		case atom.Table:
			e.renderHTMLTable(n)
			return
		case atom.Blockquote:
			indent += listIndent
		case atom.B, atom.Strong, atom.I, atom.Em, atom.U, atom.A, atom.Span, atom.Code, atom.S, atom.Del:
			spans, images := e.htmlSpans(n, e.DefaultFontSize)
			e.renderParagraph(spans, indent)
			for _, img := range images {
				e.renderHTMLImage(img)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walkHTML(c, indent)
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	default:
		return 4
	}
}

func (e *Engine) renderHTMLList(list *html.Node, indent float64) {
	ordered := list.DataAtom == atom.Ol
	num := 1
	if v, err := strconv.Atoi(attr(list, "start")); err == nil {
		num = v
	}
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		marker := "-"
		if ordered {
			marker = strconv.Itoa(num) + "."
			num++
		}
		spans, images := e.htmlSpans(li, e.DefaultFontSize)
		e.renderListItem(marker, spans, indent)
		for _, img := range images {
			e.renderHTMLImage(img)
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
				e.renderHTMLList(c, indent+listIndent)
			}
		}
	}
}

func (e *Engine) renderHTMLImage(n *html.Node) {
	e.renderImage(attr(n, "src"), attr(n, "alt"), dimension(attr(n, "width")), dimension(attr(n, "height")))
}

func (e *Engine) renderHTMLTable(table *html.Node) {
	var rows [][]string
	var aligns []builder.HAlign
	header := 0
	var collect func(n *html.Node, inHead bool)
	collect = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				collect(c, true)
			case atom.Tbody, atom.Tfoot:
				collect(c, false)
			case atom.Tr:
				var cells []string
				allTH := true
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.DataAtom != atom.Td && cell.DataAtom != atom.Th {
						continue
					}
					allTH = allTH && cell.DataAtom == atom.Th
					cells = append(cells, collapseSpace(strings.TrimSpace(textContent(cell))))
					if len(rows) == 0 {
						aligns = append(aligns, builder.HAlign(attr(cell, "align")))
					}
				}
				if len(cells) == 0 {
					continue
				}
				// Header rows must lead the table.
				if (inHead || allTH) && header == len(rows) {
					header++
				}
				rows = append(rows, cells)
			}
		}
	}
	collect(table, false)
	e.renderTable(rows, header, aligns)
}

// htmlSpans converts the inline content of n to styled spans. Nested
// lists and tables are skipped; images are returned separately.
func (e *Engine) htmlSpans(n *html.Node, size float64) ([]TextSpan, []*html.Node) {
	var spans []TextSpan
	var images []*html.Node
	var walk func(n *html.Node, st style)
	walk = func(n *html.Node, st style) {
		switch n.Type {
		case html.TextNode:
			if s := collapseSpace(n.Data); s != "" {
				spans = append(spans, e.span(s, st, size))
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Ul, atom.Ol, atom.Table, atom.Script, atom.Style:
				return
			case atom.Img:
				images = append(images, n)
				return
			case atom.Br:
				spans = append(spans, e.span(" ", st, size))
				return
			case atom.B, atom.Strong:
				st.bold++
			case atom.I, atom.Em:
				st.italic++
			case atom.U, atom.Ins:
				st.underline++
			case atom.S, atom.Del, atom.Strike:
				st.strike++
			case atom.Code, atom.Tt, atom.Kbd, atom.Samp:
				st.code++
			case atom.A:
				st.link = attr(n, "href")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, st)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, style{})
	}
	// Leading whitespace of the block is not drawn.
	if len(spans) > 0 {
		spans[0].Text = strings.TrimLeft(spans[0].Text, " ")
	}
	return spans, images
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// dimension parses an HTML length in pixels, taken as points.
func dimension(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

// collapseSpace folds runs of white space to one space, keeping a
// single leading or trailing space where the input had one.
func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return " "
	}
	out := strings.Join(words, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}
