package builder

// Table defines a matrix of cells to draw.
type Table struct {
	Columns    []float64
	Rows       []TableRow
	HeaderRows int
}

// TableRow wraps a slice of cells.
type TableRow struct {
	Cells []TableCell
}

// TableCell configures individual table cell rendering.
type TableCell struct {
	Text            string
	Font            string
	FontSize        float64
	Padding         *CellPadding
	BackgroundColor Color
	TextColor       Color
	BorderColor     Color
	BorderWidth     float64
	ColSpan         int
	HAlign          HAlign
	VAlign          VAlign
}

// CellPadding defines per-side padding.
type CellPadding struct {
	Top, Right, Bottom, Left float64
}

// TableOptions configures table rendering. Y is the top edge of the
// table; rows that would cross BottomMargin continue on a new page.
type TableOptions struct {
	X             float64
	Y             float64
	RowHeight     float64
	CellPadding   float64
	BorderColor   Color
	BorderWidth   float64
	HeaderFill    Color
	RepeatHeaders bool
	BottomMargin  float64
	TopMargin     float64
	LeftMargin    float64
	DefaultFont   string
	DefaultSize   float64
	// FinalY receives the bottom edge of the last row.
	FinalY *float64
}

// HAlign controls horizontal text alignment within a cell.
type HAlign string

const (
	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"
)

// VAlign controls vertical text alignment within a cell.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// DrawTable draws the table and returns the page holding its last row.
func (p *pageBuilderImpl) DrawTable(table Table, opts TableOptions) PageBuilder {
	if len(table.Columns) == 0 || len(table.Rows) == 0 || !p.active() {
		return p
	}
	cur := p
	borderWidth := opts.BorderWidth
	if borderWidth == 0 {
		borderWidth = 0.5
	}
	cellPad := opts.CellPadding
	if cellPad == 0 {
		cellPad = 4
	}
	defaultSize := opts.DefaultSize
	if defaultSize == 0 {
		defaultSize = defaultFontSize
	}
	if opts.X == 0 && opts.LeftMargin > 0 {
		opts.X = opts.LeftMargin
	}
	if opts.Y == 0 && opts.TopMargin > 0 {
		opts.Y = opts.TopMargin
	}
	bottom := p.height - opts.BottomMargin
	headerCount := min(table.HeaderRows, len(table.Rows))
	repeatHeaders := opts.RepeatHeaders || headerCount > 0

	resolvePadding := func(pad *CellPadding) CellPadding {
		if pad != nil {
			return *pad
		}
		return CellPadding{Top: cellPad, Right: cellPad, Bottom: cellPad, Left: cellPad}
	}
	rowHeights := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		var h float64
		for _, cell := range row.Cells {
			size := cell.FontSize
			if size == 0 {
				size = defaultSize
			}
			pad := resolvePadding(cell.Padding)
			h = max(h, size*1.2+pad.Top+pad.Bottom)
		}
		h = max(h, opts.RowHeight)
		if h == 0 {
			h = defaultSize*1.2 + 2*cellPad
		}
		rowHeights[i] = h
	}
	spanWidth := func(startCol, span int) float64 {
		end := min(startCol+max(span, 1), len(table.Columns))
		width := 0.0
		for i := startCol; i < end; i++ {
			width += table.Columns[i]
		}
		return width
	}

	curY := opts.Y
	var renderRow func(row TableRow, height float64, isHeader, allowBreak bool)
	renderHeaders := func() {
		if !repeatHeaders {
			return
		}
		for i := 0; i < headerCount; i++ {
			renderRow(table.Rows[i], rowHeights[i], true, false)
		}
	}
	renderRow = func(row TableRow, height float64, isHeader, allowBreak bool) {
		if allowBreak && curY+height > bottom && curY > opts.Y {
			next, ok := cur.parent.NewPage(cur.width, cur.height).(*pageBuilderImpl)
			if !ok {
				return
			}
			cur = next
			curY = opts.Y
			renderHeaders()
		}
		x := opts.X
		for col := 0; col < len(table.Columns) && col < len(row.Cells); col++ {
			cell := row.Cells[col]
			span := max(cell.ColSpan, 1)
			width := spanWidth(col, span)
			pad := resolvePadding(cell.Padding)

			fill := cell.BackgroundColor
			if isHeader && isZeroColor(fill) {
				fill = opts.HeaderFill
			}
			if !isZeroColor(fill) {
				cur.DrawRectangle(x, curY, width, height, RectOptions{Fill: true, FillColor: fill})
			}
			bw := cell.BorderWidth
			if bw == 0 {
				bw = borderWidth
			}
			bc := cell.BorderColor
			if isZeroColor(bc) {
				bc = opts.BorderColor
			}
			if bw > 0 {
				cur.DrawRectangle(x, curY, width, height, RectOptions{Stroke: true, StrokeColor: bc, LineWidth: bw})
			}

			size := cell.FontSize
			if size == 0 {
				size = defaultSize
			}
			font := cell.Font
			if font == "" {
				font = opts.DefaultFont
			}
			textX := x + pad.Left
			switch cell.HAlign {
			case HAlignCenter, HAlignRight:
				txtWidth := cur.parent.MeasureText(cell.Text, size, font)
				if cell.HAlign == HAlignCenter {
					textX = x + pad.Left + (width-pad.Left-pad.Right-txtWidth)/2
				} else {
					textX = x + width - pad.Right - txtWidth
				}
			}
			textY := curY + pad.Top + size
			switch cell.VAlign {
			case VAlignMiddle:
				textY = curY + height/2 + size/2
			case VAlignBottom:
				textY = curY + height - pad.Bottom
			}
			cur.DrawText(cell.Text, textX, textY, TextOptions{Font: font, FontSize: size, Color: cell.TextColor})
			x += width
			col += span - 1
		}
		curY += height
	}

	for i, row := range table.Rows {
		renderRow(row, rowHeights[i], i < headerCount, true)
	}
	if opts.FinalY != nil {
		*opts.FinalY = curY
	}
	return cur
}
