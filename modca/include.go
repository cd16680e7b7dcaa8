package modca

import (
	"io"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/triplet"
)

// defaultOffset tells the presentation system to use the offset from the
// object's own OBP.
const defaultOffset = 0xFFFFFF

// IncludeObject (IOB) places a resource on a page by name. It holds no
// reference to the resource itself.
type IncludeObject struct {
	Resource   []byte
	ObjectType byte
	Area       ObjectArea
	Triplets   triplet.Set
}

func (iob *IncludeObject) WriteTo(w io.Writer) (int64, error) {
	return field.Write(w, field.IncludeObject, iob.data())
}

func (iob *IncludeObject) data() []byte {
	o := ptoca.OrientationBytes(iob.Area.Rotation)
	b := append([]byte(nil), iob.Resource...)
	b = append(b, 0x00, iob.ObjectType)
	b = codec.AppendUint24(b, iob.Area.X)
	b = codec.AppendUint24(b, iob.Area.Y)
	b = append(b, o[0], o[1], o[2], o[3])
	b = codec.AppendUint24(b, defaultOffset)
	b = codec.AppendUint24(b, defaultOffset)
	b = append(b, 0x01)
	return iob.Triplets.AppendTo(b)
}

// newInclude builds the IOB for resource name at area. Sizes and units
// let the presentation system scale the object into the area.
func newInclude(nameBytes []byte, objType byte, a ObjectArea) *IncludeObject {
	iob := &IncludeObject{Resource: nameBytes, ObjectType: objType, Area: a}
	if a.Width > 0 && a.Height > 0 {
		iob.Triplets = triplet.Set{
			triplet.MeasurementUnits(triplet.Base10Inches, a.unitsX(), a.unitsY()),
			triplet.ObjectAreaSize(a.Width, a.Height),
			triplet.MappingOption(triplet.MapScaleToFit),
		}
	}
	return iob
}

// IncludePageSegment (IPS) places a page segment.
type IncludePageSegment struct {
	Segment []byte
	X, Y    int
}

func (ips *IncludePageSegment) WriteTo(w io.Writer) (int64, error) {
	b := append([]byte(nil), ips.Segment...)
	b = codec.AppendUint24(b, ips.X)
	b = codec.AppendUint24(b, ips.Y)
	return field.Write(w, field.IncludePageSegment, b)
}

// IncludePageOverlay (IPO) places an overlay.
type IncludePageOverlay struct {
	Overlay  []byte
	X, Y     int
	Rotation int
}

func (ipo *IncludePageOverlay) WriteTo(w io.Writer) (int64, error) {
	b := append([]byte(nil), ipo.Overlay...)
	b = codec.AppendUint24(b, ipo.X)
	b = codec.AppendUint24(b, ipo.Y)
	o := ptoca.OrientationBytes(ipo.Rotation)
	b = append(b, o[0], o[1])
	return field.Write(w, field.IncludePageOverlay, b)
}

// TagLogicalElement (TLE) attaches an indexable attribute to a page or
// page group.
type TagLogicalElement struct {
	Name     []byte
	Value    []byte
	Sequence int
}

func (tle *TagLogicalElement) WriteTo(w io.Writer) (int64, error) {
	fqn, err := triplet.FullyQualifiedName(triplet.FQNAttributeGID, triplet.FormatCharString, tle.Name)
	if err != nil {
		return 0, err
	}
	val, err := triplet.AttributeValue(tle.Value)
	if err != nil {
		return 0, err
	}
	ts := triplet.Set{fqn, val, triplet.AttributeQualifier(tle.Sequence, 1)}
	return field.Write(w, field.TagLogicalElement, ts.Bytes())
}

// NoOperation (NOP) carries comment bytes that presentation ignores.
type NoOperation struct {
	Content []byte
}

func (nop *NoOperation) WriteTo(w io.Writer) (int64, error) {
	return field.WriteChunked(w, field.NoOperation, nop.Content, field.MaxNoOperationData)
}

// InvokeMediumMap (IMM) selects a medium map of the form definition for
// the pages that follow.
type InvokeMediumMap struct {
	Map []byte
}

func (imm *InvokeMediumMap) WriteTo(w io.Writer) (int64, error) {
	return field.Write(w, field.InvokeMediumMap, imm.Map)
}
