// Package layout flows structured content (Markdown or HTML) onto AFP
// pages through a builder.DocumentBuilder. The cursor starts below the
// top margin and moves down the page.
package layout

import (
	"path/filepath"
	"strings"

	"github.com/wudi/afpkit/builder"
)

// Engine handles the layout and rendering of structured content into pages.
type Engine struct {
	b builder.DocumentBuilder

	// Configuration
	DefaultFont     string
	DefaultFontSize float64
	LineHeight      float64 // Multiplier, e.g., 1.2
	Margins         Margins
	Styles          StyleFonts
	LinkColor       builder.Color
	// BaseDir resolves relative image paths.
	BaseDir string

	// State
	currentPage builder.PageBuilder
	cursorX     float64
	cursorY     float64
	pageWidth   float64
	pageHeight  float64
}

// Margins defines page margins in points.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// StyleFonts names the registered fonts used for styled runs.
type StyleFonts struct {
	Bold, Italic, BoldItalic, Code string
}

// Option defines a configuration option for the Engine.
type Option func(*Engine)

// WithDefaultFont sets the default font.
func WithDefaultFont(font string) Option {
	return func(e *Engine) {
		e.DefaultFont = font
	}
}

// WithDefaultFontSize sets the default font size.
func WithDefaultFontSize(size float64) Option {
	return func(e *Engine) {
		e.DefaultFontSize = size
	}
}

// WithLineHeight sets the line height multiplier.
func WithLineHeight(height float64) Option {
	return func(e *Engine) {
		e.LineHeight = height
	}
}

// WithMargins sets the page margins.
func WithMargins(margins Margins) Option {
	return func(e *Engine) {
		e.Margins = margins
	}
}

// WithStyleFonts sets the fonts for bold, italic and code runs.
func WithStyleFonts(fonts StyleFonts) Option {
	return func(e *Engine) {
		e.Styles = fonts
	}
}

// WithBaseDir sets the directory relative image paths are resolved in.
func WithBaseDir(dir string) Option {
	return func(e *Engine) {
		e.BaseDir = dir
	}
}

// WithPageSize sets the page dimensions.
func WithPageSize(width, height float64) Option {
	return func(e *Engine) {
		e.pageWidth = width
		e.pageHeight = height
	}
}

// WithPaperSize sets the page dimensions using a standard paper size.
func WithPaperSize(size builder.PaperSize) Option {
	return func(e *Engine) {
		e.pageWidth = size.Width
		e.pageHeight = size.Height
	}
}

// NewEngine creates a new layout engine with optional configuration.
func NewEngine(b builder.DocumentBuilder, opts ...Option) *Engine {
	e := &Engine{
		b:               b,
		DefaultFont:     builder.DefaultFont,
		DefaultFontSize: 12,
		LineHeight:      1.2,
		Margins: Margins{
			Top:    50,
			Bottom: 50,
			Left:   50,
			Right:  50,
		},
		Styles: StyleFonts{
			Bold:       "Helvetica-Bold",
			Italic:     "Helvetica-Oblique",
			BoldItalic: "Helvetica-BoldOblique",
			Code:       "Courier",
		},
		LinkColor:  builder.Color{B: 0.8},
		pageWidth:  builder.A4.Width,
		pageHeight: builder.A4.Height,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPageSize sets the dimensions for new pages.
func (e *Engine) SetPageSize(width, height float64) {
	e.pageWidth = width
	e.pageHeight = height
}

// Finish ends the current page. The next block starts a new one.
func (e *Engine) Finish() {
	if e.currentPage != nil {
		e.currentPage.Finish()
		e.currentPage = nil
	}
}

// ensurePage makes sure there is a current page and the cursor is valid.
func (e *Engine) ensurePage() {
	if e.currentPage == nil {
		e.newPage()
	}
}

// newPage starts a new page and resets the cursor.
func (e *Engine) newPage() {
	e.currentPage = e.b.NewPage(e.pageWidth, e.pageHeight)
	e.cursorX = e.Margins.Left
	e.cursorY = e.Margins.Top
}

// checkPageBreak checks if there is enough space for height; if not, adds a new page.
func (e *Engine) checkPageBreak(height float64) {
	if e.currentPage == nil {
		e.newPage()
		return
	}
	if e.cursorY+height > e.pageHeight-e.Margins.Bottom && e.cursorY > e.Margins.Top {
		e.currentPage.Finish()
		e.newPage()
	}
}

func (e *Engine) contentWidth() float64 {
	return e.pageWidth - e.Margins.Left - e.Margins.Right
}

// TextSpan represents a segment of text with specific styling.
type TextSpan struct {
	Text          string
	Font          string
	FontSize      float64
	Link          string
	Color         builder.Color
	Underline     bool
	Strikethrough bool
}

// style tracks nested inline formatting while a block is converted
// to spans.
type style struct {
	bold, italic, code, strike, underline int
	link                                  string
}

func (e *Engine) span(text string, st style, size float64) TextSpan {
	s := TextSpan{Text: text, Font: e.DefaultFont, FontSize: size}
	switch {
	case st.code > 0:
		s.Font = e.Styles.Code
	case st.bold > 0 && st.italic > 0:
		s.Font = e.Styles.BoldItalic
	case st.bold > 0:
		s.Font = e.Styles.Bold
	case st.italic > 0:
		s.Font = e.Styles.Italic
	}
	s.Strikethrough = st.strike > 0
	s.Underline = st.underline > 0
	if st.link != "" {
		s.Link = st.link
		s.Color = e.LinkColor
		s.Underline = true
	}
	return s
}

func (e *Engine) headingSize(level int) float64 {
	switch level {
	case 1:
		return e.DefaultFontSize * 2.0
	case 2:
		return e.DefaultFontSize * 1.5
	default:
		return e.DefaultFontSize * 1.25
	}
}

func (e *Engine) renderHeading(spans []TextSpan, level int) {
	size := e.headingSize(level)
	for i := range spans {
		spans[i].FontSize = size
		if spans[i].Font == e.DefaultFont {
			spans[i].Font = e.Styles.Bold
		}
	}
	e.ensurePage()
	e.renderSpans(spans, e.cursorX, size*e.LineHeight)
	e.renderParagraphSpacing()
}

func (e *Engine) renderParagraph(spans []TextSpan, indent float64) {
	if len(spans) == 0 {
		return
	}
	e.ensurePage()
	e.renderSpans(spans, e.Margins.Left+indent, e.DefaultFontSize*e.LineHeight)
}

func (e *Engine) renderParagraphSpacing() {
	if e.currentPage != nil {
		e.cursorY += e.DefaultFontSize * e.LineHeight / 2
	}
}

// renderListItem draws marker at indent and the item text after it.
func (e *Engine) renderListItem(marker string, spans []TextSpan, indent float64) {
	e.ensurePage()
	lineHeight := e.DefaultFontSize * e.LineHeight
	e.checkPageBreak(lineHeight)
	x := e.Margins.Left + indent
	e.currentPage.DrawText(marker, x, e.cursorY+e.DefaultFontSize, builder.TextOptions{
		Font:     e.DefaultFont,
		FontSize: e.DefaultFontSize,
	})
	if len(spans) == 0 {
		e.cursorY += lineHeight
		return
	}
	e.renderSpans(spans, x+listIndent, lineHeight)
}

const listIndent = 15.0

func (e *Engine) renderCode(code string, indent float64) {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	size := e.DefaultFontSize * 0.9
	lineHeight := size * e.LineHeight
	pad := size / 2
	e.ensurePage()
	e.cursorY += pad
	for _, line := range lines {
		e.checkPageBreak(lineHeight)
		x := e.Margins.Left + indent
		e.currentPage.DrawRectangle(x-pad, e.cursorY, e.pageWidth-e.Margins.Right-x+2*pad, lineHeight, builder.RectOptions{
			Fill:      true,
			FillColor: builder.Color{R: 0.95, G: 0.95, B: 0.95},
		})
		e.currentPage.DrawText(strings.ReplaceAll(line, "\t", "    "), x, e.cursorY+size, builder.TextOptions{
			Font:     e.Styles.Code,
			FontSize: size,
		})
		e.cursorY += lineHeight
	}
	e.cursorY += pad
	e.renderParagraphSpacing()
}

func (e *Engine) renderRule() {
	e.ensurePage()
	e.checkPageBreak(e.DefaultFontSize)
	y := e.cursorY + e.DefaultFontSize/2
	e.currentPage.DrawLine(e.Margins.Left, y, e.pageWidth-e.Margins.Right, y, builder.LineOptions{
		StrokeColor: builder.Color{R: 0.6, G: 0.6, B: 0.6},
		LineWidth:   0.5,
	})
	e.cursorY += e.DefaultFontSize
}

// renderImage draws the image at src scaled to width by height points,
// or to its natural size capped at the content width when either is
// zero. Images that cannot be loaded are replaced by their alt text.
func (e *Engine) renderImage(src, alt string, width, height float64) {
	path := src
	if !filepath.IsAbs(path) && e.BaseDir != "" {
		path = filepath.Join(e.BaseDir, path)
	}
	img, err := builder.ImageFromFile(path)
	if err != nil {
		if alt != "" {
			e.renderParagraph([]TextSpan{{Text: "[" + alt + "]", Font: e.Styles.Italic, FontSize: e.DefaultFontSize}}, 0)
		}
		return
	}
	if width == 0 && height == 0 {
		width, height = float64(img.Width), float64(img.Height)
	} else if width == 0 {
		width = height * float64(img.Width) / float64(img.Height)
	} else if height == 0 {
		height = width * float64(img.Height) / float64(img.Width)
	}
	if limit := e.contentWidth(); width > limit {
		height *= limit / width
		width = limit
	}
	e.ensurePage()
	e.checkPageBreak(height)
	e.currentPage.DrawImage(img, e.Margins.Left, e.cursorY, width, height, builder.ImageOptions{Resample: true})
	e.cursorY += height
	e.renderParagraphSpacing()
}

// renderTable lays rows out over equal-width columns. The first header
// rows are shaded and repeated after page breaks.
func (e *Engine) renderTable(rows [][]string, header int, aligns []builder.HAlign) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	width := e.contentWidth() / float64(cols)
	table := builder.Table{Columns: make([]float64, cols), HeaderRows: header}
	for i := range table.Columns {
		table.Columns[i] = width
	}
	for i, r := range rows {
		row := builder.TableRow{Cells: make([]builder.TableCell, cols)}
		for j := range row.Cells {
			if j < len(r) {
				row.Cells[j].Text = r[j]
			}
			if j < len(aligns) {
				row.Cells[j].HAlign = aligns[j]
			}
			if i < header {
				row.Cells[j].Font = e.Styles.Bold
			}
		}
		table.Rows = append(table.Rows, row)
	}

	e.ensurePage()
	var finalY float64
	e.currentPage = e.currentPage.DrawTable(table, builder.TableOptions{
		X:            e.Margins.Left,
		Y:            e.cursorY,
		TopMargin:    e.Margins.Top,
		BottomMargin: e.Margins.Bottom,
		HeaderFill:   builder.Color{R: 0.9, G: 0.9, B: 0.9},
		DefaultFont:  e.DefaultFont,
		DefaultSize:  e.DefaultFontSize,
		FinalY:       &finalY,
	})
	e.cursorY = finalY
	e.renderParagraphSpacing()
}

func (e *Engine) renderSpans(spans []TextSpan, x, lineHeight float64) {
	if len(spans) == 0 {
		return
	}

	maxWidth := e.pageWidth - e.Margins.Right - x

	type wordSpan struct {
		text  string
		span  TextSpan
		width float64
	}

	var currentLine []wordSpan
	currentLineWidth := 0.0
	tagged := make(map[string]bool)

	flushLine := func() {
		if len(currentLine) == 0 {
			return
		}
		// Trailing spaces take no room.
		for len(currentLine) > 0 && currentLine[len(currentLine)-1].text == " " {
			currentLine = currentLine[:len(currentLine)-1]
		}
		e.checkPageBreak(lineHeight)

		ascent := 0.0
		for _, ws := range currentLine {
			ascent = max(ascent, ws.span.FontSize)
		}
		baseline := e.cursorY + ascent
		curX := x
		for _, ws := range currentLine {
			if ws.text != " " {
				e.currentPage.DrawText(ws.text, curX, baseline, builder.TextOptions{
					Font:     ws.span.Font,
					FontSize: ws.span.FontSize,
					Color:    ws.span.Color,
				})
			}
			if ws.span.Underline {
				y := baseline + ws.span.FontSize*0.15
				e.currentPage.DrawLine(curX, y, curX+ws.width, y, builder.LineOptions{
					StrokeColor: ws.span.Color,
					LineWidth:   ws.span.FontSize / 20,
				})
			}
			if ws.span.Strikethrough {
				y := baseline - ws.span.FontSize*0.3
				e.currentPage.DrawLine(curX, y, curX+ws.width, y, builder.LineOptions{
					StrokeColor: ws.span.Color,
					LineWidth:   ws.span.FontSize / 20,
				})
			}
			// AFP has no link annotations; the target is kept as a tag.
			if ws.span.Link != "" && !tagged[ws.span.Link] {
				tagged[ws.span.Link] = true
				e.currentPage.AddTag("URL", ws.span.Link)
			}
			curX += ws.width
		}
		e.cursorY += lineHeight
		currentLine = nil
		currentLineWidth = 0
	}

	spaceWidths := make(map[string]float64)
	getSpaceWidth := func(font string, size float64) float64 {
		if w, ok := spaceWidths[font]; ok {
			return w * size / 12.0
		}
		w := e.b.MeasureText(" ", 12, font) // Measure at 12 then scale
		spaceWidths[font] = w
		return w * size / 12.0
	}

	for _, span := range spans {
		if span.Text == "" {
			continue
		}

		font := span.Font
		if font == "" {
			font = e.DefaultFont
		}
		size := span.FontSize
		if size == 0 {
			size = e.DefaultFontSize
		}
		span.Font = font
		span.FontSize = size

		spaceW := getSpaceWidth(font, size)

		// Tokenize preserving spaces
		var tokens []string
		var currentToken strings.Builder
		for _, r := range span.Text {
			if r == ' ' || r == '\n' || r == '\t' {
				if currentToken.Len() > 0 {
					tokens = append(tokens, currentToken.String())
					currentToken.Reset()
				}
				tokens = append(tokens, " ")
			} else {
				currentToken.WriteRune(r)
			}
		}
		if currentToken.Len() > 0 {
			tokens = append(tokens, currentToken.String())
		}

		for _, token := range tokens {
			if token == " " {
				if len(currentLine) == 0 {
					continue
				}
				if currentLineWidth+spaceW > maxWidth {
					flushLine()
				} else {
					currentLine = append(currentLine, wordSpan{text: " ", span: span, width: spaceW})
					currentLineWidth += spaceW
				}
				continue
			}

			w := e.b.MeasureText(token, size, font)

			if currentLineWidth+w > maxWidth {
				// Check if the word itself is longer than the line
				if w > maxWidth {
					// Character-level wrapping
					flushLine()
					var subToken strings.Builder
					subWidth := 0.0
					for _, r := range token {
						rw := e.b.MeasureText(string(r), size, font)
						if subWidth+rw > maxWidth {
							if subToken.Len() > 0 {
								currentLine = append(currentLine, wordSpan{text: subToken.String(), span: span, width: subWidth})
								flushLine()
							}
							subToken.Reset()
							subWidth = 0
						}
						subToken.WriteRune(r)
						subWidth += rw
					}
					if subToken.Len() > 0 {
						currentLine = append(currentLine, wordSpan{text: subToken.String(), span: span, width: subWidth})
						currentLineWidth = subWidth
					}
				} else {
					flushLine()
					currentLine = append(currentLine, wordSpan{text: token, span: span, width: w})
					currentLineWidth = w
				}
			} else {
				currentLine = append(currentLine, wordSpan{text: token, span: span, width: w})
				currentLineWidth += w
			}
		}
	}
	flushLine()
}
