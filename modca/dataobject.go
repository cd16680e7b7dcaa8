package modca

import (
	"fmt"
	"io"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/goca"
	"github.com/wudi/afpkit/ioca"
	"github.com/wudi/afpkit/triplet"
)

// Include object types, also used as resource object types where they
// coincide.
const (
	ObjectTypePageSegment byte = 0x5F
	ObjectTypeOther       byte = 0x92
	ObjectTypeGraphics    byte = 0xBB
	ObjectTypeOverlay     byte = 0xDF
	ObjectTypeImage       byte = 0xFB
)

// Resource object types of BRS.
const (
	ResourceTypeGraphics        byte = 0x03
	ResourceTypeBarCode         byte = 0x05
	ResourceTypeImage           byte = 0x06
	ResourceTypeCharacterSet    byte = 0x40
	ResourceTypeCodePage        byte = 0x41
	ResourceTypeCodedFont       byte = 0x42
	ResourceTypeObjectContainer byte = 0x92
	ResourceTypeDocument        byte = 0xA8
	ResourceTypePageSegment     byte = 0xFB
	ResourceTypeOverlay         byte = 0xFC
)

// Image is an IOCA image object: BIM, OEG with IDD, IPD records, EIM.
type Image struct {
	named
	oeg     *ObjectEnvironmentGroup
	segment ioca.Segment
	fs      ioca.FunctionSet
}

// SetArea places the image.
func (img *Image) SetArea(a ObjectArea) {
	img.oeg.area = a
	img.oeg.mapID = field.MapImageObject
	img.oeg.mapping = triplet.MapScaleToFit
}

// SetSegment sets the image content. The resolution is taken from the
// object area.
func (img *Image) SetSegment(s ioca.Segment) {
	img.segment = s
	img.fs = ioca.FunctionSetFor(s.IDESize, s.ColorModel != 0)
}

// FunctionSet returns the IOCA function set of the content.
func (img *Image) FunctionSet() ioca.FunctionSet { return img.fs }

func (img *Image) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, img) }

func (img *Image) writeStart(fw *fieldWriter) {
	fw.field(field.BeginImage, img.beginData(0))
}

func (img *Image) writeContent(fw *fieldWriter) {
	s := img.segment
	a := img.oeg.area
	s.XRes, s.YRes = a.unitsX(), a.unitsY()
	img.oeg.descriptor = &field.Field{
		ID:   field.ImageDataDescriptor,
		Data: ioca.DescriptorData(s.XRes, s.YRes, s.Width, s.Height, img.fs),
	}
	fw.object(img.oeg)
	fw.chunked(field.ImagePictureData, s.Bytes(), field.MaxImageSegmentData)
}

func (img *Image) writeEnd(fw *fieldWriter) {
	fw.field(field.EndImage, img.nameBytes)
}

// Graphics is a GOCA graphics object: BGR, OEG with GDD, GAD records,
// EGR.
type Graphics struct {
	named
	oeg  *ObjectEnvironmentGroup
	data []*goca.Data
}

// SetArea places the graphics and sizes the drawing window.
func (g *Graphics) SetArea(a ObjectArea) {
	g.oeg.area = a
	g.oeg.mapID = field.MapGraphicsObject
	g.oeg.mapping = triplet.MapPosition
}

// Add appends a drawing order, starting a new GAD record when the
// current one is full.
func (g *Graphics) Add(o goca.Order) error {
	if len(g.data) == 0 {
		g.data = append(g.data, goca.NewData(1))
	}
	cur := g.data[len(g.data)-1]
	st, err := cur.Add(o)
	if err != nil || st != goca.NeedsNewSegment {
		return err
	}
	next := goca.NewData(cur.NextID())
	if _, err := next.Add(o); err != nil {
		return err
	}
	g.data = append(g.data, next)
	return nil
}

// Records returns the number of GAD records.
func (g *Graphics) Records() int { return len(g.data) }

func (g *Graphics) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, g) }

func (g *Graphics) writeStart(fw *fieldWriter) {
	fw.field(field.BeginGraphics, g.beginData(0))
}

func (g *Graphics) writeContent(fw *fieldWriter) {
	a := g.oeg.area
	g.oeg.descriptor = &field.Field{
		ID:   field.GraphicsDataDescriptor,
		Data: goca.DescriptorData(a.unitsX(), a.unitsY(), a.Width, a.Height),
	}
	fw.object(g.oeg)
	for _, d := range g.data {
		if d.Empty() {
			continue
		}
		fw.field(field.GraphicsData, d.Bytes())
	}
}

func (g *Graphics) writeEnd(fw *fieldWriter) {
	fw.field(field.EndGraphics, g.nameBytes)
}

// ObjectContainer carries a non-OCA object (TIFF, JPEG, PDF, ...) as
// opaque data: BOC, OEG, OCD records, EOC.
type ObjectContainer struct {
	named
	oeg  *ObjectEnvironmentGroup
	data []byte
}

// SetArea places the container.
func (oc *ObjectContainer) SetArea(a ObjectArea) {
	oc.oeg.area = a
	oc.oeg.mapID = field.MapContainerData
	oc.oeg.mapping = triplet.MapScaleToFit
}

// SetData sets the contained object bytes.
func (oc *ObjectContainer) SetData(b []byte) { oc.data = b }

// Classify attaches the object classification triplet.
func (oc *ObjectContainer) Classify(c triplet.Classification, f *Factory) {
	oc.AddTriplet(triplet.ObjectClassification(c, f.Encoder()))
}

func (oc *ObjectContainer) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, oc) }

func (oc *ObjectContainer) writeStart(fw *fieldWriter) {
	fw.field(field.BeginObjectContainer, oc.beginData(2))
}

func (oc *ObjectContainer) writeContent(fw *fieldWriter) {
	if oc.oeg.mapID != (field.Identifier{}) {
		fw.object(oc.oeg)
	}
	fw.chunked(field.ObjectContainerData, oc.data, field.MaxObjectContainerData)
}

func (oc *ObjectContainer) writeEnd(fw *fieldWriter) {
	fw.field(field.EndObjectContainer, oc.nameBytes)
}

func (oc *ObjectContainer) String() string {
	return fmt.Sprintf("%s(%d bytes)", oc.name, len(oc.data))
}
