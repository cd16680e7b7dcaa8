package modca

import (
	"io"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/triplet"
)

// PageGeometry is the size of a page or overlay in units of its
// resolution (dots per inch).
type PageGeometry struct {
	Width, Height int
	Rotation      int
	XRes, YRes    int
}

// pageDescriptor is the PGD payload.
func (g PageGeometry) pageDescriptor() []byte {
	b := []byte{triplet.Base10Inches, triplet.Base10Inches}
	b = codec.AppendUint16(b, resolutionUnits(g.XRes))
	b = codec.AppendUint16(b, resolutionUnits(g.YRes))
	b = codec.AppendUint24(b, g.Width)
	b = codec.AppendUint24(b, g.Height)
	return append(b, 0x00, 0x00, 0x00)
}

// textDescriptor is the PTD payload covering the whole page.
func (g PageGeometry) textDescriptor() []byte {
	b := []byte{triplet.Base10Inches, triplet.Base10Inches}
	b = codec.AppendUint16(b, resolutionUnits(g.XRes))
	b = codec.AppendUint16(b, resolutionUnits(g.YRes))
	b = codec.AppendUint24(b, g.Width)
	b = codec.AppendUint24(b, g.Height)
	return append(b, 0x00, 0x00)
}

// Font maps a coded font to a local id used by SCFL.
type Font struct {
	Ref          int
	CharacterSet string
	CodePage     string
	Rotation     int
	// PointSize is set for outline fonts; raster fonts carry their size
	// in the character set.
	PointSize int
}

// maxMapCodedFontData keeps one MCF within a comfortable field size.
const maxMapCodedFontData = 32759

// ActiveEnvironmentGroup holds the page level mappings and descriptors:
// BAG, MCF, MPO, PGD, PTD, EAG.
type ActiveEnvironmentGroup struct {
	named
	geometry PageGeometry
	enc      *codec.Encoder
	fonts    []Font
	overlays []overlayMapping
}

type overlayMapping struct {
	name    []byte
	localID byte
}

// AddFont maps f unless its reference is already mapped.
func (aeg *ActiveEnvironmentGroup) AddFont(f Font) bool {
	for _, have := range aeg.fonts {
		if have.Ref == f.Ref {
			return false
		}
	}
	aeg.fonts = append(aeg.fonts, f)
	return true
}

// Fonts returns the mapped fonts in mapping order.
func (aeg *ActiveEnvironmentGroup) Fonts() []Font { return aeg.fonts }

// mapOverlay adds an MPO entry and returns the overlay's local id.
func (aeg *ActiveEnvironmentGroup) mapOverlay(nameBytes []byte) byte {
	for _, m := range aeg.overlays {
		if string(m.name) == string(nameBytes) {
			return m.localID
		}
	}
	id := byte(len(aeg.overlays) + 1)
	aeg.overlays = append(aeg.overlays, overlayMapping{name: nameBytes, localID: id})
	return id
}

func (aeg *ActiveEnvironmentGroup) WriteTo(w io.Writer) (int64, error) {
	return writeDataStream(w, aeg)
}

func (aeg *ActiveEnvironmentGroup) writeStart(fw *fieldWriter) {
	fw.field(field.BeginActiveEnvironmentGroup, aeg.beginData(0))
}

func (aeg *ActiveEnvironmentGroup) writeContent(fw *fieldWriter) {
	for _, data := range aeg.mapCodedFonts() {
		fw.field(field.MapCodedFont, data)
	}
	if len(aeg.overlays) > 0 {
		fw.field(field.MapPageOverlay, aeg.mapPageOverlay())
	}
	fw.field(field.PageDescriptor, aeg.geometry.pageDescriptor())
	fw.field(field.PresentationTextDescriptor, aeg.geometry.textDescriptor())
}

func (aeg *ActiveEnvironmentGroup) writeEnd(fw *fieldWriter) {
	fw.field(field.EndActiveEnvironmentGroup, aeg.nameBytes)
}

// mapCodedFonts returns the MCF payloads, one repeating group per font.
func (aeg *ActiveEnvironmentGroup) mapCodedFonts() [][]byte {
	var out [][]byte
	var cur []byte
	for _, f := range aeg.fonts {
		rg := aeg.fontGroup(f)
		if len(cur)+len(rg) > maxMapCodedFontData {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, rg...)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func (aeg *ActiveEnvironmentGroup) fontGroup(f Font) []byte {
	var ts triplet.Set
	if t, err := triplet.FullyQualifiedName(triplet.FQNCodePageNameReference, triplet.FormatCharString,
		aeg.enc.Encode(codec.PadRight(f.CodePage, NameLen))); err == nil {
		ts = append(ts, t)
	}
	if t, err := triplet.FullyQualifiedName(triplet.FQNFontCharsetNameRef, triplet.FormatCharString,
		aeg.enc.Encode(codec.PadRight(f.CharacterSet, NameLen))); err == nil {
		ts = append(ts, t)
	}
	ts = append(ts, triplet.CharacterRotation(f.Rotation))
	ts = append(ts, triplet.ResourceLocalIdentifier(triplet.LocalIDCodedFont, byte(f.Ref)))
	if f.PointSize > 0 {
		ts = append(ts, triplet.FontDescriptorSpecification(f.PointSize*20))
	}
	rg := codec.AppendUint16(nil, 2+ts.Len())
	return ts.AppendTo(rg)
}

func (aeg *ActiveEnvironmentGroup) mapPageOverlay() []byte {
	var b []byte
	for _, m := range aeg.overlays {
		fqn, _ := triplet.FullyQualifiedName(triplet.FQNBeginResourceObjectRef, triplet.FormatCharString, m.name)
		ts := triplet.Set{fqn, triplet.ResourceLocalIdentifier(triplet.LocalIDPageOverlay, m.localID)}
		b = codec.AppendUint16(b, 2+ts.Len())
		b = ts.AppendTo(b)
	}
	return b
}

// ObjectEnvironmentGroup describes where a data object goes and how its
// content maps into the area: BOG, OBD, OBP, map field, descriptor, EOG.
type ObjectEnvironmentGroup struct {
	named
	area       ObjectArea
	mapID      field.Identifier
	mapping    byte
	descriptor *field.Field
}

// Area returns the object area.
func (oeg *ObjectEnvironmentGroup) Area() ObjectArea { return oeg.area }

func (oeg *ObjectEnvironmentGroup) WriteTo(w io.Writer) (int64, error) {
	return writeDataStream(w, oeg)
}

func (oeg *ObjectEnvironmentGroup) writeStart(fw *fieldWriter) {
	fw.field(field.BeginObjectEnvironmentGroup, oeg.beginData(0))
}

func (oeg *ObjectEnvironmentGroup) writeContent(fw *fieldWriter) {
	fw.field(field.ObjectAreaDescriptor, objectAreaDescriptor(oeg.area))
	fw.field(field.ObjectAreaPosition, objectAreaPosition(oeg.area))
	if oeg.mapID != (field.Identifier{}) {
		fw.field(oeg.mapID, mappingData(oeg.mapping))
	}
	if oeg.descriptor != nil {
		fw.field(oeg.descriptor.ID, oeg.descriptor.Data)
	}
}

func (oeg *ObjectEnvironmentGroup) writeEnd(fw *fieldWriter) {
	fw.field(field.EndObjectEnvironmentGroup, oeg.nameBytes)
}

// objectAreaDescriptor is the OBD payload.
func objectAreaDescriptor(a ObjectArea) []byte {
	ts := triplet.Set{
		triplet.DescriptorPosition(0x01),
		triplet.MeasurementUnits(triplet.Base10Inches, a.unitsX(), a.unitsY()),
		triplet.ObjectAreaSize(a.Width, a.Height),
	}
	return ts.Bytes()
}

// objectAreaPosition is the OBP payload: one repeating group placing the
// area on the page and the content at the area origin.
func objectAreaPosition(a ObjectArea) []byte {
	o := ptoca.OrientationBytes(a.Rotation)
	b := []byte{0x01, 0x17}
	b = codec.AppendUint24(b, a.X)
	b = codec.AppendUint24(b, a.Y)
	b = append(b, o[0], o[1], o[2], o[3])
	b = append(b, 0x00)
	b = codec.AppendUint24(b, 0)
	b = codec.AppendUint24(b, 0)
	b = append(b, 0x00, 0x00, 0x2D, 0x00)
	return append(b, 0x00)
}

// mappingData is the payload of MIO, MGO, MCD and MDR fields: one
// repeating group with a mapping option.
func mappingData(option byte) []byte {
	t := triplet.MappingOption(option)
	b := codec.AppendUint16(nil, 2+t.Len())
	return t.AppendTo(b)
}
