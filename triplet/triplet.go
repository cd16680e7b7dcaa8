// Package triplet encodes MO:DCA triplets: self-describing
// length/id/data records carried by structured fields.
package triplet

import (
	"errors"
	"fmt"

	"github.com/wudi/afpkit/codec"
)

// MaxData is the most data a triplet can carry; its length byte counts
// itself and the id byte.
const MaxData = 253

var ErrTripletTooLarge = errors.New("triplet data exceeds 253 bytes")

// Triplet identifiers.
const (
	IDCodedGraphicCharacterSetGlobalID byte = 0x01
	IDFullyQualifiedName               byte = 0x02
	IDMappingOption                    byte = 0x04
	IDObjectClassification             byte = 0x10
	IDFontDescriptorSpecification      byte = 0x1F
	IDResourceObjectType               byte = 0x21
	IDResourceLocalIdentifier          byte = 0x24
	IDCharacterRotation                byte = 0x26
	IDAttributeValue                   byte = 0x36
	IDDescriptorPosition               byte = 0x43
	IDMeasurementUnits                 byte = 0x4B
	IDObjectAreaSize                   byte = 0x4C
	IDObjectByteExtent                 byte = 0x57
	IDComment                          byte = 0x65
	IDPresentationSpaceResetMixing     byte = 0x70
	IDAttributeQualifier               byte = 0x80
)

// Triplet is one encoded attribute.
type Triplet struct {
	ID   byte
	Data []byte
}

// New validates and returns a triplet.
func New(id byte, data []byte) (Triplet, error) {
	if len(data) > MaxData {
		return Triplet{}, fmt.Errorf("triplet 0x%02X with %d bytes: %w", id, len(data), ErrTripletTooLarge)
	}
	return Triplet{ID: id, Data: data}, nil
}

// Len is the encoded length, including the length and id bytes.
func (t Triplet) Len() int { return 2 + len(t.Data) }

// AppendTo appends the encoded triplet to b.
func (t Triplet) AppendTo(b []byte) []byte {
	b = append(b, byte(t.Len()), t.ID)
	return append(b, t.Data...)
}

// Bytes returns the encoded triplet.
func (t Triplet) Bytes() []byte { return t.AppendTo(make([]byte, 0, t.Len())) }

// Set is an ordered list of triplets attached to one field.
type Set []Triplet

// Len sums the encoded lengths.
func (s Set) Len() int {
	n := 0
	for _, t := range s {
		n += t.Len()
	}
	return n
}

func (s Set) AppendTo(b []byte) []byte {
	for _, t := range s {
		b = t.AppendTo(b)
	}
	return b
}

func (s Set) Bytes() []byte { return s.AppendTo(make([]byte, 0, s.Len())) }

// Find returns the first triplet with the given id.
func (s Set) Find(id byte) (Triplet, bool) {
	for _, t := range s {
		if t.ID == id {
			return t, true
		}
	}
	return Triplet{}, false
}

// Parse splits encoded triplets. A zero or overrunning length ends
// parsing with an error.
func Parse(b []byte) (Set, error) {
	var out Set
	for off := 0; off < len(b); {
		l := int(b[off])
		if l < 2 || off+l > len(b) {
			return out, fmt.Errorf("triplet at offset %d has length %d", off, l)
		}
		out = append(out, Triplet{ID: b[off+1], Data: append([]byte(nil), b[off+2:off+l]...)})
		off += l
	}
	return out, nil
}

// FQN types.
const (
	FQNReplaceFirstGID        byte = 0x01
	FQNFontFamilyName         byte = 0x07
	FQNFontTypefaceName       byte = 0x08
	FQNMediumMapReference     byte = 0x09
	FQNAttributeGID           byte = 0x0B
	FQNBeginDocumentReference byte = 0x83
	FQNBeginResourceObjectRef byte = 0x84
	FQNCodePageNameReference  byte = 0x85
	FQNFontCharsetNameRef     byte = 0x86
	FQNBeginPageReference     byte = 0x87
	FQNMediumMapRef           byte = 0x8D
	FQNCodedFontNameReference byte = 0x8E
	FQNBeginDocumentIndexRef  byte = 0x98
	FQNOverlayReference       byte = 0xB0
	FQNDataObjectInternalRes  byte = 0xBE
	FQNIndexElementGID        byte = 0xCA
	FQNOtherObjectData        byte = 0xCE
	FQNDataObjectExternalRes  byte = 0xDE
)

// FQN formats.
const (
	FormatCharString byte = 0x00
	FormatOID        byte = 0x10
	FormatURL        byte = 0x20
)

// FullyQualifiedName builds an FQN triplet. name must already be encoded
// for the format (code page text, OID or ASCII URL).
func FullyQualifiedName(typ, format byte, name []byte) (Triplet, error) {
	data := make([]byte, 0, 2+len(name))
	data = append(data, typ, format)
	return New(IDFullyQualifiedName, append(data, name...))
}

// Object classes.
const (
	ClassTimeInvariantPaginated byte = 0x01
	ClassTimeVariant            byte = 0x10
	ClassExecutable             byte = 0x20
	ClassSetupFile              byte = 0x30
	ClassSecondaryResource      byte = 0x40
	ClassDataObjectFont         byte = 0x41
)

// Classification describes the registered object type of a container.
type Classification struct {
	Class           byte
	OID             []byte
	TypeName        string
	Level           string
	Company         string
	DataInContainer bool
	ContainerHasOEG bool
	DataInOCD       bool
}

// StructureFlags encodes the container structure bits.
func (c Classification) StructureFlags() [2]byte {
	var f byte
	f |= flagPair(c.DataInContainer) << 6
	f |= flagPair(c.ContainerHasOEG) << 4
	f |= flagPair(c.DataInOCD) << 2
	return [2]byte{f, 0x00}
}

func flagPair(v bool) byte {
	if v {
		return 3
	}
	return 1
}

// ObjectClassification builds the 96-byte 0x10 triplet. Text fields are
// encoded with enc and padded with code page spaces.
func ObjectClassification(c Classification, enc *codec.Encoder) Triplet {
	data := make([]byte, 94)
	data[1] = c.Class
	flags := c.StructureFlags()
	data[4], data[5] = flags[0], flags[1]
	copy(data[6:22], c.OID)
	copy(data[22:54], enc.Encode(codec.PadRight(c.TypeName, 32)))
	copy(data[54:62], enc.Encode(codec.PadRight(c.Level, 8)))
	copy(data[62:94], enc.Encode(codec.PadRight(c.Company, 32)))
	return Triplet{ID: IDObjectClassification, Data: data}
}

// Mapping options.
const (
	MapPosition         byte = 0x00
	MapPositionAndTrim  byte = 0x10
	MapScaleToFit       byte = 0x20
	MapCenterAndTrim    byte = 0x30
	MapReplicateAndTrim byte = 0x50
	MapScaleToFill      byte = 0x60
	MapUPA              byte = 0x41
)

func MappingOption(option byte) Triplet {
	return Triplet{ID: IDMappingOption, Data: []byte{option}}
}

// Measurement bases.
const (
	Base10Inches     byte = 0x00
	Base10Centimeter byte = 0x01
)

// MeasurementUnits gives the units per base for both axes.
func MeasurementUnits(base byte, xUnits, yUnits int) Triplet {
	data := []byte{base, base}
	data = codec.AppendUint16(data, xUnits)
	data = codec.AppendUint16(data, yUnits)
	return Triplet{ID: IDMeasurementUnits, Data: data}
}

// ObjectAreaSize gives the actual size of an object area.
func ObjectAreaSize(x, y int) Triplet {
	data := []byte{0x02}
	data = codec.AppendUint24(data, x)
	data = codec.AppendUint24(data, y)
	return Triplet{ID: IDObjectAreaSize, Data: data}
}

// DescriptorPosition binds an OBD to an OBP by id.
func DescriptorPosition(id byte) Triplet {
	return Triplet{ID: IDDescriptorPosition, Data: []byte{id}}
}

// Resource local id types.
const (
	LocalIDChargeback  byte = 0x00
	LocalIDCodedFont   byte = 0x05
	LocalIDPageOverlay byte = 0x02
)

func ResourceLocalIdentifier(typ, id byte) Triplet {
	return Triplet{ID: IDResourceLocalIdentifier, Data: []byte{typ, id}}
}

// ResourceObjectType identifies the content of a BRS/ERS resource.
func ResourceObjectType(objType byte) Triplet {
	data := make([]byte, 8)
	data[0] = objType
	return Triplet{ID: IDResourceObjectType, Data: data}
}

// AttributeValue carries a TLE value, already encoded.
func AttributeValue(value []byte) (Triplet, error) {
	data := make([]byte, 2, 2+len(value))
	return New(IDAttributeValue, append(data, value...))
}

// AttributeQualifier orders TLEs with a sequence and level number.
func AttributeQualifier(seq, level int) Triplet {
	data := make([]byte, 8)
	copy(data[0:4], codec.Convert(seq, 4))
	copy(data[4:8], codec.Convert(level, 4))
	return Triplet{ID: IDAttributeQualifier, Data: data}
}

func Comment(text []byte) (Triplet, error) {
	return New(IDComment, text)
}

// CharacterRotation gives the rotation of a coded font in degrees.
func CharacterRotation(degrees int) Triplet {
	data := codec.AppendUint16(nil, degrees/90*0x2D00)
	return Triplet{ID: IDCharacterRotation, Data: data}
}

// FontDescriptorSpecification sets the vertical size of an outline font,
// in twentieths of a point.
func FontDescriptorSpecification(height int) Triplet {
	data := make([]byte, 18)
	codec.PutUint16(data[2:4], height)
	return Triplet{ID: IDFontDescriptorSpecification, Data: data}
}

func ObjectByteExtent(n int) Triplet {
	return Triplet{ID: IDObjectByteExtent, Data: codec.Convert(n, 4)}
}

// PresentationSpaceResetMixing with reset set clears the presentation
// space to the color of medium before drawing.
func PresentationSpaceResetMixing(reset bool) Triplet {
	var b byte
	if reset {
		b = 0x80
	}
	return Triplet{ID: IDPresentationSpaceResetMixing, Data: []byte{b}}
}
