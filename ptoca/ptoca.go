// Package ptoca builds PTOCA control sequence chains for presentation
// text data (PTX) records.
package ptoca

import (
	"errors"
	"fmt"
	"image/color"
)

// Escape starts a chain of control sequences.
var Escape = [2]byte{0x2B, 0xD3}

// Control sequence function types, unchained form. The chained form sets
// the low bit.
const (
	SIM  byte = 0xC0 // set inline margin
	SIA  byte = 0xC2 // set intercharacter adjustment
	SVI  byte = 0xC4 // set variable space character increment
	AMI  byte = 0xC6 // absolute move inline
	RMI  byte = 0xC8 // relative move inline
	SBI  byte = 0xD0 // set baseline increment
	AMB  byte = 0xD2 // absolute move baseline
	RMB  byte = 0xD4 // relative move baseline
	TRN  byte = 0xDA // transparent data
	DIR  byte = 0xE4 // draw I-axis rule
	DBR  byte = 0xE6 // draw B-axis rule
	RPS  byte = 0xEE // repeat string
	SCFL byte = 0xF0 // set coded font local
	BSU  byte = 0xF2 // begin suppression
	ESU  byte = 0xF4 // end suppression
	STO  byte = 0xF6 // set text orientation
	NOP  byte = 0xF8
	STC  byte = 0x74 // set text color
	USC  byte = 0x76 // underscore
	SEC  byte = 0x80 // set extended text color
)

// ChainBit marks a control sequence as followed by another.
const ChainBit byte = 0x01

const (
	// MaxTransparentData is the most data one TRN can carry.
	MaxTransparentData = 253
	// DefaultMaxRecordSize bounds one PTX field, header included.
	DefaultMaxRecordSize = 8192
	// Unset marks a state value that has not been established yet.
	Unset = -1
)

var (
	ErrInvalidOrientation = errors.New("orientation must be 0, 90, 180 or 270")
	ErrInvalidFont        = errors.New("font local id must be 0..255")
	ErrChainEnded         = errors.New("control sequence chain already ended")
)

// Status reports the outcome of an emit call.
type Status int

const (
	// Emitted means the control sequences were appended.
	Emitted Status = iota
	// NeedsNewSegment means nothing was appended because the record is
	// full; the caller starts a new record and repeats the call.
	NeedsNewSegment
	// Dropped means the request cannot be expressed and was ignored.
	Dropped
)

func (s Status) String() string {
	switch s {
	case Emitted:
		return "emitted"
	case NeedsNewSegment:
		return "needs-new-segment"
	case Dropped:
		return "dropped"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// State is the current text state of a presentation text object.
type State struct {
	X                        int
	Y                        int
	Font                     int
	Orientation              int
	Color                    color.Color
	VariableSpaceIncrement   int
	InterCharacterAdjustment int
}

// NewState returns the state at the start of a text object: position,
// font and color are unknown, the rest hold the architected defaults.
func NewState() State {
	return State{X: Unset, Y: Unset, Font: Unset}
}

// Reposition returns s with the current position forgotten. Used when a
// chain continues into a new record.
func (s State) Reposition() State {
	s.X, s.Y = Unset, Unset
	return s
}

// TextRun places pre-encoded text.
type TextRun struct {
	X, Y                     int
	Font                     int
	Orientation              int
	Color                    color.Color
	VariableSpaceIncrement   int
	InterCharacterAdjustment int
	Data                     []byte
}

// Rule is an axis-aligned line drawn with PTOCA rules.
type Rule struct {
	X1, Y1, X2, Y2 int
	Thickness      int
	Orientation    int
	Color          color.Color
}

// Named OCA colors for STC.
const (
	ColorDefault   uint16 = 0xFF07
	ColorBlue      uint16 = 0x0001
	ColorRed       uint16 = 0x0002
	ColorMagenta   uint16 = 0x0003
	ColorGreen     uint16 = 0x0004
	ColorCyan      uint16 = 0x0005
	ColorYellow    uint16 = 0x0006
	ColorWhite     uint16 = 0x0007
	ColorBlack     uint16 = 0x0008
	ColorDarkBlue  uint16 = 0x0009
	ColorOrange    uint16 = 0x000A
	ColorPurple    uint16 = 0x000B
	ColorDarkGreen uint16 = 0x000C
	ColorTurquoise uint16 = 0x000D
	ColorMustard   uint16 = 0x000E
	ColorGray      uint16 = 0x000F
	ColorBrown     uint16 = 0x0010
	ColorOfMedium  uint16 = 0xFF08
)

// ValidOrientation reports whether o is a quarter turn.
func ValidOrientation(o int) bool {
	return o == 0 || o == 90 || o == 180 || o == 270
}

func checkOrientation(o int) error {
	if !ValidOrientation(o) {
		return fmt.Errorf("orientation %d: %w", o, ErrInvalidOrientation)
	}
	return nil
}

// OrientationBytes returns the I-axis and B-axis orientation pair for o.
func OrientationBytes(o int) [4]byte {
	switch o {
	case 90:
		return [4]byte{0x2D, 0x00, 0x5A, 0x00}
	case 180:
		return [4]byte{0x5A, 0x00, 0x87, 0x00}
	case 270:
		return [4]byte{0x87, 0x00, 0x00, 0x00}
	default:
		return [4]byte{0x00, 0x00, 0x2D, 0x00}
	}
}

// SameColor compares colors by color space and components. nil only
// equals nil.
func SameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, aCMYK := a.(color.CMYK)
	cb, bCMYK := b.(color.CMYK)
	if aCMYK || bCMYK {
		return aCMYK && bCMYK && ca == cb
	}
	return color.NRGBAModel.Convert(a) == color.NRGBAModel.Convert(b)
}

// extendedColor returns the SEC data for c.
func extendedColor(c color.Color) []byte {
	if cmyk, ok := c.(color.CMYK); ok {
		return []byte{0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 8, 8, 8, 8, cmyk.C, cmyk.M, cmyk.Y, cmyk.K}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 8, 8, 8, 0, n.R, n.G, n.B}
}
