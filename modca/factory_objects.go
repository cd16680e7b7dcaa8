package modca

import (
	"fmt"

	"github.com/wudi/afpkit/goca"
	"github.com/wudi/afpkit/ioca"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/resources"
	"github.com/wudi/afpkit/triplet"
)

// DataObjectInfo describes a data object to place on the current page.
type DataObjectInfo struct {
	// URI identifies the source. Objects sharing a URI are encoded once
	// per resource group. An empty URI or one ending in "/" marks an
	// instream object.
	URI string
	// MimeType selects the object type of containers. Images and
	// graphics derive theirs.
	MimeType string
	// Level overrides the configured resource level. Unset, the zero
	// value, keeps the default. ForceInline embeds the object whatever
	// the level.
	Level       resources.Level
	ForceInline bool
	Area        ObjectArea
	// Data holds the raster of an image or the bytes of a container.
	Data     []byte
	Image    *ImageInfo
	Graphics []goca.Order
	// PageSegment wraps a print-file or external image in a page segment.
	PageSegment bool
}

// ImageInfo describes raster data.
type ImageInfo struct {
	Width, Height int
	// BitsPerPixel of the output. Color images use 24 (RGB) or 32 (CMYK).
	BitsPerPixel int
	Color        bool
	Compression  ioca.SourceCompression
}

func (info *DataObjectInfo) kind() resources.Kind {
	switch {
	case info.Graphics != nil:
		return resources.KindGraphics
	case info.Image != nil:
		return resources.KindImage
	}
	return resources.KindObjectContainer
}

// mimeType returns the registry key of the object.
func (info *DataObjectInfo) mimeType() string {
	switch info.kind() {
	case resources.KindGraphics:
		return resources.MimeGOCA
	case resources.KindImage:
		switch ioca.FunctionSetFor(info.Image.bits(), info.Image.Color) {
		case ioca.FS10:
			return resources.MimeIOCAFS10
		case ioca.FS45:
			return resources.MimeIOCAFS45
		default:
			return resources.MimeIOCAFS11
		}
	}
	return info.MimeType
}

// bits returns the IDE size. Color images are 24-bit RGB unless 32 bits
// ask for CMYK.
func (ii *ImageInfo) bits() int {
	switch {
	case ii.Color && ii.BitsPerPixel == 32:
		return 32
	case ii.Color:
		return 24
	case ii.BitsPerPixel > 0:
		return ii.BitsPerPixel
	}
	return 1
}

// DataObjectFactory builds image, graphics and container objects.
type DataObjectFactory struct {
	f      *Factory
	logger observability.Logger
}

// NewDataObjectFactory returns a factory naming objects through f.
func NewDataObjectFactory(f *Factory, logger observability.Logger) *DataObjectFactory {
	return &DataObjectFactory{f: f, logger: observability.OrNop(logger)}
}

// CreateImage builds an IOCA image. Uncompressed non-color RGB input is
// reduced to gray at the requested depth; color input is kept as RGB.
func (d *DataObjectFactory) CreateImage(info *DataObjectInfo) (*Image, error) {
	ii := info.Image
	comp, err := ioca.CompressionFor(ii.Compression)
	if err != nil {
		return nil, err
	}
	seg := ioca.Segment{Width: ii.Width, Height: ii.Height, Compression: comp, IDESize: ii.bits(), Data: info.Data}
	switch {
	case ii.Color:
		seg.ColorModel = ioca.ColorModelRGB
		if seg.IDESize == 32 {
			seg.ColorModel = ioca.ColorModelCMYK
		}
	case comp == ioca.CompressionNone && len(info.Data) >= ii.Width*ii.Height*3 && ii.Width*ii.Height > 0:
		gray, err := ioca.ConvertToGrayscale(info.Data, ii.Width, ii.Height, seg.IDESize)
		if err != nil {
			return nil, err
		}
		seg.Data = gray
	}
	img := d.f.NewImage()
	img.SetArea(info.Area)
	img.SetSegment(seg)
	return img, nil
}

// CreateGraphics builds a GOCA object from the drawing orders.
func (d *DataObjectFactory) CreateGraphics(info *DataObjectInfo) (*Graphics, error) {
	g := d.f.NewGraphics()
	g.SetArea(info.Area)
	for i, o := range info.Graphics {
		if err := g.Add(o); err != nil {
			return nil, fmt.Errorf("graphics order %d: %w", i, err)
		}
	}
	return g, nil
}

// CreateObjectContainer wraps data of type ot.
func (d *DataObjectFactory) CreateObjectContainer(info *DataObjectInfo, ot resources.ObjectType) *ObjectContainer {
	oc := d.f.NewObjectContainer()
	oc.SetArea(info.Area)
	oc.SetData(info.Data)
	if oid := ot.OID(); oid != nil {
		oc.Classify(d.classification(ot), d.f)
	}
	return oc
}

func (d *DataObjectFactory) classification(ot resources.ObjectType) triplet.Classification {
	return triplet.Classification{
		Class:           triplet.ClassTimeInvariantPaginated,
		OID:             ot.OID(),
		TypeName:        ot.Name,
		DataInContainer: true,
		ContainerHasOEG: true,
		DataInOCD:       true,
	}
}

// CreateInclude builds the include field referencing a resource.
func (d *DataObjectFactory) CreateInclude(nameBytes []byte, objType byte, area ObjectArea, ot *resources.ObjectType) *IncludeObject {
	iob := newInclude(nameBytes, objType, area)
	if ot != nil && ot.OID() != nil {
		iob.Triplets = append(iob.Triplets, triplet.ObjectClassification(d.classification(*ot), d.f.Encoder()))
	}
	return iob
}

// CreateResource wraps obj in a resource object of the matching type.
func (d *DataObjectFactory) CreateResource(obj NamedObject) *ResourceObject {
	return d.f.NewResourceObject(obj, resourceType(obj))
}

func resourceType(obj Object) byte {
	switch obj.(type) {
	case *Image:
		return ResourceTypeImage
	case *Graphics:
		return ResourceTypeGraphics
	case *PageSegment:
		return ResourceTypePageSegment
	case *Overlay:
		return ResourceTypeOverlay
	}
	return ResourceTypeObjectContainer
}

func includeType(obj Object) byte {
	switch obj.(type) {
	case *Image:
		return ObjectTypeImage
	case *Graphics:
		return ObjectTypeGraphics
	case *PageSegment:
		return ObjectTypePageSegment
	case *Overlay:
		return ObjectTypeOverlay
	}
	return ObjectTypeOther
}
