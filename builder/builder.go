// Package builder provides a fluent API over modca.DataStream. Positions
// and sizes are in points with the origin at the top left of the page;
// text is placed by its baseline.
package builder

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/wudi/afpkit/goca"
	"github.com/wudi/afpkit/modca"
	"github.com/wudi/afpkit/ptoca"
)

// DocumentBuilder provides a fluent API for AFP document construction.
// Errors are kept and returned by Build; calls after an error do
// nothing.
type DocumentBuilder interface {
	NewPage(width, height float64) PageBuilder
	NewPageGroup() DocumentBuilder
	SetName(name string) DocumentBuilder
	RegisterFont(name string, font FontSpec) DocumentBuilder
	InvokeMediumMap(name string) DocumentBuilder
	MeasureText(text string, fontSize float64, fontName string) float64
	Err() error
	Build(ctx context.Context) error
}

// PageBuilder provides a fluent API for page construction.
type PageBuilder interface {
	DrawText(text string, x, y float64, opts TextOptions) PageBuilder
	DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder
	DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder
	DrawImage(img *Image, x, y, width, height float64, opts ImageOptions) PageBuilder
	DrawGraphics(orders []goca.Order, x, y, width, height float64) PageBuilder
	DrawTable(table Table, opts TableOptions) PageBuilder
	IncludePageSegment(name string, x, y float64) PageBuilder
	IncludeOverlay(name string, x, y float64) PageBuilder
	AddTag(name, value string) PageBuilder
	AddComment(text string) PageBuilder
	SetRotation(degrees int) PageBuilder
	Finish() DocumentBuilder
}

// TextOptions configures text drawing.
type TextOptions struct {
	Font     string
	FontSize float64
	Color    Color
	// CharSpacing and WordSpacing are extra space in points.
	CharSpacing float64
	WordSpacing float64
	Underline   bool
}

// RectOptions configures rectangle drawing (defaults to stroke if neither
// fill nor stroke is set).
type RectOptions struct {
	StrokeColor Color
	FillColor   Color
	LineWidth   float64
	Fill        bool
	Stroke      bool
}

// LineOptions configures line drawing.
type LineOptions struct {
	StrokeColor Color
	LineWidth   float64
}

// ImageOptions configures image drawing.
type ImageOptions struct {
	// Gray reduces the image to 8-bit gray, Monochrome to 1 bit.
	Gray       bool
	Monochrome bool
	// Resample scales the raster down to the page resolution when the
	// source has more pixels than the area can show.
	Resample bool
	// Inline embeds the image in the page instead of a resource group.
	Inline      bool
	PageSegment bool
}

// Color represents an RGB color with components in 0..1.
type Color struct {
	R, G, B float64
	A       float64
}

// FontSpec names a coded font installed on the printer.
type FontSpec struct {
	CharacterSet string
	CodePage     string
	// Monospace selects fixed-pitch metrics for MeasureText.
	Monospace bool
}

// PaperSize is a page size in points.
type PaperSize struct {
	Width, Height float64
}

var (
	A4     = PaperSize{Width: 595.28, Height: 841.89}
	A3     = PaperSize{Width: 841.89, Height: 1190.55}
	Letter = PaperSize{Width: 612, Height: 792}
	Legal  = PaperSize{Width: 612, Height: 1008}
)

const (
	DefaultFont     = "Helvetica"
	defaultFontSize = 12
	pointsPerInch   = 72
)

// defaultFonts maps the base names to IBM outline character sets.
var defaultFonts = map[string]FontSpec{
	"Helvetica":             {CharacterSet: "CZH200", CodePage: "T1V10500"},
	"Helvetica-Oblique":     {CharacterSet: "CZH300", CodePage: "T1V10500"},
	"Helvetica-Bold":        {CharacterSet: "CZH400", CodePage: "T1V10500"},
	"Helvetica-BoldOblique": {CharacterSet: "CZH500", CodePage: "T1V10500"},
	"Times":                 {CharacterSet: "CZN200", CodePage: "T1V10500"},
	"Times-Bold":            {CharacterSet: "CZN400", CodePage: "T1V10500"},
	"Courier":               {CharacterSet: "CZ4200", CodePage: "T1V10500", Monospace: true},
}

type fontKey struct {
	name string
	size float64
}

type builderImpl struct {
	ds         *modca.DataStream
	resolution int
	fonts      map[string]FontSpec
	refs       map[fontKey]int
	nextRef    int
	page       *pageBuilderImpl
	err        error
}

type pageBuilderImpl struct {
	parent        *builderImpl
	width, height float64
}

// NewBuilder returns a builder writing to ds. The document is started
// on the first call that needs it.
func NewBuilder(ds *modca.DataStream) DocumentBuilder {
	b := &builderImpl{
		ds:         ds,
		resolution: ds.Config().Resolution,
		fonts:      make(map[string]FontSpec, len(defaultFonts)),
		refs:       make(map[fontKey]int),
	}
	for name, spec := range defaultFonts {
		b.fonts[name] = spec
	}
	return b
}

func (b *builderImpl) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

func (b *builderImpl) document() bool {
	if b.err != nil {
		return false
	}
	if b.ds.Document() == nil {
		b.fail(b.ds.StartDocument())
	}
	return b.err == nil
}

// units converts points to page units.
func (b *builderImpl) units(pt float64) int {
	return int(math.Round(pt * float64(b.resolution) / pointsPerInch))
}

func (b *builderImpl) NewPage(width, height float64) PageBuilder {
	if b.page != nil {
		b.page.Finish()
	}
	p := &pageBuilderImpl{parent: b, width: width, height: height}
	if b.document() {
		b.fail(b.ds.StartPage(b.units(width), b.units(height), 0, b.resolution, b.resolution))
	}
	b.page = p
	return p
}

func (b *builderImpl) NewPageGroup() DocumentBuilder {
	if b.page != nil {
		b.page.Finish()
	}
	if b.document() {
		b.fail(b.ds.StartPageGroup())
	}
	return b
}

func (b *builderImpl) SetName(name string) DocumentBuilder {
	if b.document() {
		b.fail(b.ds.SetDocumentName(name))
	}
	return b
}

func (b *builderImpl) RegisterFont(name string, font FontSpec) DocumentBuilder {
	b.fonts[name] = font
	return b
}

func (b *builderImpl) InvokeMediumMap(name string) DocumentBuilder {
	if b.page != nil {
		b.page.Finish()
	}
	if b.document() {
		b.fail(b.ds.CreateInvokeMediumMap(name))
	}
	return b
}

func (b *builderImpl) MeasureText(text string, fontSize float64, fontName string) float64 {
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	spec, ok := b.fonts[fontName]
	if !ok {
		spec = b.fonts[DefaultFont]
	}
	return measureText(text, fontSize, spec.Monospace)
}

func (b *builderImpl) Err() error { return b.err }

// Build ends the open page and writes the document.
func (b *builderImpl) Build(ctx context.Context) error {
	if b.page != nil {
		b.page.Finish()
	}
	if !b.document() {
		return b.err
	}
	b.fail(b.ds.EndDocument(ctx))
	return b.err
}

// fontRef maps name at size to a local font id, declaring the font on
// the current page.
func (b *builderImpl) fontRef(name string, size float64) (int, error) {
	if name == "" {
		name = DefaultFont
	}
	spec, ok := b.fonts[name]
	if !ok {
		return 0, fmt.Errorf("font %q is not registered", name)
	}
	key := fontKey{name: name, size: size}
	ref, ok := b.refs[key]
	if !ok {
		if b.nextRef == 0xFF {
			return 0, fmt.Errorf("font %q: %w", name, ptoca.ErrInvalidFont)
		}
		b.nextRef++
		ref = b.nextRef
		b.refs[key] = ref
	}
	err := b.ds.CreateFont(modca.Font{
		Ref:          ref,
		CharacterSet: spec.CharacterSet,
		CodePage:     spec.CodePage,
		PointSize:    int(math.Round(size)),
	})
	return ref, err
}

func (p *pageBuilderImpl) active() bool {
	return p.parent.err == nil && p.parent.page == p
}

func (p *pageBuilderImpl) DrawText(text string, x, y float64, opts TextOptions) PageBuilder {
	if !p.active() || text == "" {
		return p
	}
	b := p.parent
	size := opts.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	ref, err := b.fontRef(opts.Font, size)
	if err != nil {
		b.fail(err)
		return p
	}
	b.fail(b.ds.CreateText(ptoca.TextRun{
		X:                        b.units(x),
		Y:                        b.units(y),
		Font:                     ref,
		Color:                    opts.Color.rgba(),
		InterCharacterAdjustment: b.units(opts.CharSpacing),
		VariableSpaceIncrement:   b.units(opts.WordSpacing),
		Data:                     b.ds.Factory().Encoder().Encode(text),
	}))
	if opts.Underline {
		w := b.MeasureText(text, size, opts.Font)
		p.DrawLine(x, y+size*0.1, x+w, y+size*0.1, LineOptions{StrokeColor: opts.Color, LineWidth: size / 20})
	}
	return p
}

func (p *pageBuilderImpl) DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder {
	if !p.active() {
		return p
	}
	b := p.parent
	width := opts.LineWidth
	if width <= 0 {
		width = 1
	}
	ux1, uy1, ux2, uy2 := b.units(x1), b.units(y1), b.units(x2), b.units(y2)
	if ux1 != ux2 && uy1 != uy2 {
		p.drawDiagonal(x1, y1, x2, y2, width, opts.StrokeColor)
		return p
	}
	if ux1 > ux2 {
		ux1, ux2 = ux2, ux1
	}
	if uy1 > uy2 {
		uy1, uy2 = uy2, uy1
	}
	b.fail(b.ds.CreateLine(ptoca.Rule{
		X1: ux1, Y1: uy1, X2: ux2, Y2: uy2,
		Thickness: max(1, b.units(width)),
		Color:     opts.StrokeColor.rgba(),
	}))
	return p
}

// drawDiagonal draws a line PTOCA cannot express as a GOCA object
// spanning its bounding box.
func (p *pageBuilderImpl) drawDiagonal(x1, y1, x2, y2, width float64, c Color) {
	left, top := math.Min(x1, x2), math.Min(y1, y2)
	w, h := math.Abs(x2-x1), math.Abs(y2-y1)
	b := p.parent
	uh := b.units(h)
	// GOCA's y axis points up from the bottom of the window.
	pt := func(x, y float64) goca.Point {
		return goca.Point{X: b.units(x - left), Y: uh - b.units(y-top)}
	}
	var orders []goca.Order
	if rgb := c.rgba(); rgb != nil {
		orders = append(orders, goca.SetProcessColor{Color: rgb})
	}
	orders = append(orders,
		goca.SetLineWidth{Width: max(1, int(math.Round(width)))},
		goca.Line{Points: []goca.Point{pt(x1, y1), pt(x2, y2)}},
	)
	p.DrawGraphics(orders, left, top, w, h)
}

func (p *pageBuilderImpl) DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder {
	if !p.active() {
		return p
	}
	b := p.parent
	if !opts.Stroke && !opts.Fill {
		opts.Stroke = true
	}
	if opts.Fill {
		b.fail(b.ds.CreateShading(b.units(x), b.units(y), b.units(width), b.units(height), opts.FillColor.rgba()))
	}
	if opts.Stroke {
		lo := LineOptions{StrokeColor: opts.StrokeColor, LineWidth: opts.LineWidth}
		p.DrawLine(x, y, x+width, y, lo)
		p.DrawLine(x, y+height, x+width, y+height, lo)
		p.DrawLine(x, y, x, y+height, lo)
		p.DrawLine(x+width, y, x+width, y+height, lo)
	}
	return p
}

func (p *pageBuilderImpl) area(x, y, width, height float64) modca.ObjectArea {
	b := p.parent
	return modca.ObjectArea{
		X: b.units(x), Y: b.units(y),
		Width: b.units(width), Height: b.units(height),
		XRes: b.resolution, YRes: b.resolution,
	}
}

func (p *pageBuilderImpl) DrawImage(img *Image, x, y, width, height float64, opts ImageOptions) PageBuilder {
	if !p.active() || img == nil {
		return p
	}
	b := p.parent
	if width == 0 {
		width = float64(img.Width) * pointsPerInch / float64(b.resolution)
	}
	if height == 0 {
		height = float64(img.Height) * pointsPerInch / float64(b.resolution)
	}
	if opts.Resample {
		img = img.Fit(b.units(width), b.units(height))
	}
	info := modca.DataObjectInfo{
		URI:         img.URI,
		Area:        p.area(x, y, width, height),
		Data:        img.Data,
		ForceInline: opts.Inline,
		PageSegment: opts.PageSegment,
		Image:       &modca.ImageInfo{Width: img.Width, Height: img.Height, BitsPerPixel: 24, Color: true},
	}
	switch {
	case opts.Monochrome:
		info.Image.Color, info.Image.BitsPerPixel = false, 1
	case opts.Gray:
		info.Image.Color, info.Image.BitsPerPixel = false, 8
	}
	b.fail(b.ds.CreateObject(info))
	return p
}

func (p *pageBuilderImpl) DrawGraphics(orders []goca.Order, x, y, width, height float64) PageBuilder {
	if !p.active() || len(orders) == 0 {
		return p
	}
	b := p.parent
	b.fail(b.ds.CreateObject(modca.DataObjectInfo{
		Area:        p.area(x, y, width, height),
		Graphics:    orders,
		ForceInline: true,
	}))
	return p
}

func (p *pageBuilderImpl) IncludePageSegment(name string, x, y float64) PageBuilder {
	if p.active() {
		b := p.parent
		b.fail(b.ds.CreateIncludePageSegment(name, b.units(x), b.units(y)))
	}
	return p
}

func (p *pageBuilderImpl) IncludeOverlay(name string, x, y float64) PageBuilder {
	if p.active() {
		b := p.parent
		b.fail(b.ds.CreateIncludePageOverlay(name, b.units(x), b.units(y), 0))
	}
	return p
}

func (p *pageBuilderImpl) AddTag(name, value string) PageBuilder {
	if p.active() {
		p.parent.fail(p.parent.ds.CreateTagLogicalElement(name, value))
	}
	return p
}

func (p *pageBuilderImpl) AddComment(text string) PageBuilder {
	if p.active() {
		p.parent.fail(p.parent.ds.CreateNoOperation(text))
	}
	return p
}

func (p *pageBuilderImpl) SetRotation(degrees int) PageBuilder {
	if p.active() {
		p.parent.fail(p.parent.ds.SetRotation(normalizeRotation(degrees)))
	}
	return p
}

func (p *pageBuilderImpl) Finish() DocumentBuilder {
	b := p.parent
	if b.page != p {
		return b
	}
	b.page = nil
	if b.err == nil {
		b.fail(b.ds.EndPage())
	}
	return b
}

func (c Color) rgba() color.Color {
	if isZeroColor(c) {
		return nil
	}
	return color.RGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 0xFF}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func isZeroColor(c Color) bool {
	return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 0
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
