// Package goca encodes GOCA drawing orders and packs them into the
// chained segments carried by graphics data (GAD) fields.
package goca

import (
	"image/color"
	"math"

	"github.com/wudi/afpkit/codec"
)

// Order codes.
const (
	CodeNoOp                   byte = 0x00
	CodeComment                byte = 0x01
	CodeSetColor               byte = 0x0A
	CodeSetFractionalLineWidth byte = 0x11
	CodeSetLineType            byte = 0x18
	CodeSetLineWidth           byte = 0x19
	CodeSetCurrentPosition     byte = 0x21
	CodeSetArcParameters       byte = 0x22
	CodeSetPatternSymbol       byte = 0x28
	CodeEndArea                byte = 0x60
	CodeBeginArea              byte = 0x68
	CodeLineAtCurrent          byte = 0x81
	CodeSetProcessColor        byte = 0xB2
	CodeBox                    byte = 0xC0
	CodeLine                   byte = 0xC1
	CodeCharacterString        byte = 0xC3
	CodeFillet                 byte = 0xC5
	CodeFullArc                byte = 0xC7
)

// Line types.
const (
	LineDefault    byte = 0x00
	LineDotted     byte = 0x01
	LineShortDash  byte = 0x02
	LineDashDot    byte = 0x03
	LineDoubleDot  byte = 0x04
	LineLongDash   byte = 0x05
	LineDashDotDot byte = 0x06
	LineSolid      byte = 0x07
	LineInvisible  byte = 0x08
)

// Pattern symbols.
const (
	PatternDefault byte = 0x00
	PatternSolid   byte = 0x10
	PatternBlank   byte = 0x0F
)

// Order is one drawing order.
type Order interface {
	Len() int
	AppendTo(b []byte) []byte
}

// Point is a position in graphics presentation space units.
type Point struct{ X, Y int }

func appendPoints(b []byte, pts []Point) []byte {
	for _, p := range pts {
		b = codec.AppendUint16(b, p.X)
		b = codec.AppendUint16(b, p.Y)
	}
	return b
}

// long is a variable length order: code, length, data.
func long(b []byte, code byte, n int) []byte { return append(b, code, byte(n)) }

type SetCurrentPosition struct{ X, Y int }

func (SetCurrentPosition) Len() int { return 6 }
func (o SetCurrentPosition) AppendTo(b []byte) []byte {
	return appendPoints(long(b, CodeSetCurrentPosition, 4), []Point{{o.X, o.Y}})
}

// Line draws a polyline starting at the first point.
type Line struct{ Points []Point }

func (o Line) Len() int { return 2 + 4*len(o.Points) }
func (o Line) AppendTo(b []byte) []byte {
	return appendPoints(long(b, CodeLine, 4*len(o.Points)), o.Points)
}

// LineAtCurrent draws a polyline from the current position.
type LineAtCurrent struct{ Points []Point }

func (o LineAtCurrent) Len() int { return 2 + 4*len(o.Points) }
func (o LineAtCurrent) AppendTo(b []byte) []byte {
	return appendPoints(long(b, CodeLineAtCurrent, 4*len(o.Points)), o.Points)
}

// Box draws a rectangle between two corners.
type Box struct{ X0, Y0, X1, Y1 int }

func (Box) Len() int { return 12 }
func (o Box) AppendTo(b []byte) []byte {
	b = append(long(b, CodeBox, 10), 0x20, 0x00)
	return appendPoints(b, []Point{{o.X0, o.Y0}, {o.X1, o.Y1}})
}

// FullArc draws a circle around a center using the current arc
// parameters scaled by Multiplier.
type FullArc struct {
	X, Y       int
	Multiplier float64
}

func (FullArc) Len() int { return 8 }
func (o FullArc) AppendTo(b []byte) []byte {
	b = appendPoints(long(b, CodeFullArc, 6), []Point{{o.X, o.Y}})
	whole, frac := math.Modf(o.Multiplier)
	return append(b, byte(int(whole)), byte(int(frac*256)))
}

// Fillet draws a curve tangent to the lines joining the points.
type Fillet struct{ Points []Point }

func (o Fillet) Len() int { return 2 + 4*len(o.Points) }
func (o Fillet) AppendTo(b []byte) []byte {
	return appendPoints(long(b, CodeFillet, 4*len(o.Points)), o.Points)
}

// SetArcParameters sets the transform used by FullArc: P and Q scale the
// axes, R and S shear them.
type SetArcParameters struct{ P, Q, R, S int }

func (SetArcParameters) Len() int { return 10 }
func (o SetArcParameters) AppendTo(b []byte) []byte {
	b = long(b, CodeSetArcParameters, 8)
	for _, v := range []int{o.P, o.Q, o.R, o.S} {
		b = codec.AppendUint16(b, v)
	}
	return b
}

type SetLineWidth struct{ Width int }

func (SetLineWidth) Len() int                   { return 2 }
func (o SetLineWidth) AppendTo(b []byte) []byte { return append(b, CodeSetLineWidth, byte(o.Width)) }

// SetFractionalLineWidth sets a line width multiplier with 1/256
// precision.
type SetFractionalLineWidth struct{ Width float64 }

func (SetFractionalLineWidth) Len() int { return 4 }
func (o SetFractionalLineWidth) AppendTo(b []byte) []byte {
	whole, frac := math.Modf(o.Width)
	return append(long(b, CodeSetFractionalLineWidth, 2), byte(int(whole)), byte(int(frac*256)))
}

type SetLineType struct{ Type byte }

func (SetLineType) Len() int                   { return 2 }
func (o SetLineType) AppendTo(b []byte) []byte { return append(b, CodeSetLineType, o.Type) }

// SetColor selects a named OCA color.
type SetColor struct{ Color byte }

func (SetColor) Len() int                   { return 2 }
func (o SetColor) AppendTo(b []byte) []byte { return append(b, CodeSetColor, o.Color) }

// SetProcessColor selects an RGB or CMYK color.
type SetProcessColor struct{ Color color.Color }

func (o SetProcessColor) components() (space byte, bits []byte, comps []byte) {
	if c, ok := o.Color.(color.CMYK); ok {
		return 0x04, []byte{8, 8, 8, 8}, []byte{c.C, c.M, c.Y, c.K}
	}
	n := color.NRGBAModel.Convert(o.Color).(color.NRGBA)
	return 0x01, []byte{8, 8, 8, 0}, []byte{n.R, n.G, n.B}
}

func (o SetProcessColor) Len() int {
	_, _, comps := o.components()
	return 12 + len(comps)
}

func (o SetProcessColor) AppendTo(b []byte) []byte {
	space, bits, comps := o.components()
	b = append(long(b, CodeSetProcessColor, 10+len(comps)), 0x00, space, 0x00, 0x00, 0x00, 0x00)
	b = append(b, bits...)
	return append(b, comps...)
}

type SetPatternSymbol struct{ Symbol byte }

func (SetPatternSymbol) Len() int                   { return 2 }
func (o SetPatternSymbol) AppendTo(b []byte) []byte { return append(b, CodeSetPatternSymbol, o.Symbol) }

// BeginArea starts a filled area; Boundary also strokes its outline.
type BeginArea struct{ Boundary bool }

func (BeginArea) Len() int { return 2 }
func (o BeginArea) AppendTo(b []byte) []byte {
	flags := byte(0x80)
	if o.Boundary {
		flags |= 0x40
	}
	return append(b, CodeBeginArea, flags)
}

type EndArea struct{}

func (EndArea) Len() int                 { return 2 }
func (EndArea) AppendTo(b []byte) []byte { return append(b, CodeEndArea, 0x00) }

// CharacterString draws code page text at a position.
type CharacterString struct {
	X, Y int
	Data []byte
}

func (o CharacterString) Len() int { return 6 + len(o.Data) }
func (o CharacterString) AppendTo(b []byte) []byte {
	b = appendPoints(long(b, CodeCharacterString, 4+len(o.Data)), []Point{{o.X, o.Y}})
	return append(b, o.Data...)
}

type Comment struct{ Data []byte }

func (o Comment) Len() int                 { return 2 + len(o.Data) }
func (o Comment) AppendTo(b []byte) []byte { return append(long(b, CodeComment, len(o.Data)), o.Data...) }

type NoOp struct{}

func (NoOp) Len() int                 { return 1 }
func (NoOp) AppendTo(b []byte) []byte { return append(b, CodeNoOp) }
