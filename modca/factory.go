package modca

import (
	"strconv"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/observability"
)

// Name prefixes of generated object names.
const (
	prefixPage               = "PGN"
	prefixPageGroup          = "PGP"
	prefixOverlay            = "OVL"
	prefixImage              = "IMG"
	prefixGraphics           = "GRA"
	prefixObjectContainer    = "OC"
	prefixResource           = "RES"
	prefixResourceGroup      = "RG"
	prefixPresentationText   = "PT"
	prefixDocument           = "DOC"
	prefixActiveEnvironment  = "AEG"
	prefixObjectEnvironment  = "OEG"
	prefixPageSegment        = "S1"
	prefixPageSegmentReplace = "S10"
)

// Factory creates MO:DCA objects with sequential names. One Factory
// serves one data stream; its counters are not shared.
type Factory struct {
	enc    *codec.Encoder
	logger observability.Logger

	pages, pageGroups, overlays        int
	images, graphics, containers       int
	resourceObjects, resourceGroups    int
	texts, documents, aegs, oegs, segs int
}

// NewFactory returns a factory encoding names with enc.
func NewFactory(enc *codec.Encoder, logger observability.Logger) *Factory {
	logger = observability.OrNop(logger)
	if enc == nil {
		enc = codec.NewEncoder(codec.DefaultEncoding, logger)
	}
	return &Factory{enc: enc, logger: logger}
}

// Encoder returns the name encoder.
func (f *Factory) Encoder() *codec.Encoder { return f.enc }

func nextName(prefix string, counter *int, width int) string {
	*counter++
	return prefix + codec.LeftPad(strconv.Itoa(*counter), '0', width)
}

func (f *Factory) named(name string) named { return newNamed(name, f.enc, f.logger) }

// NewDocument returns a document named DOCnnnnn.
func (f *Factory) NewDocument() *Document {
	return newDocument(f, nextName(prefixDocument, &f.documents, 5))
}

// NewPageGroup returns a page group named PGPnnnnn.
func (f *Factory) NewPageGroup() *PageGroup {
	return newPageGroup(f, nextName(prefixPageGroup, &f.pageGroups, 5))
}

// NewPage returns a page named PGNnnnnn.
func (f *Factory) NewPage(g PageGeometry, opts TextOptions) *Page {
	return newPage(f, nextName(prefixPage, &f.pages, 5), g, opts)
}

// NewOverlay returns an overlay named OVLnnnnn.
func (f *Factory) NewOverlay(g PageGeometry, opts TextOptions) *Overlay {
	return newOverlay(f, nextName(prefixOverlay, &f.overlays, 5), g, opts)
}

// NewPresentationText returns a text object named PTnnnnnn.
func (f *Factory) NewPresentationText(opts TextOptions) *PresentationText {
	return newPresentationText(f.named(nextName(prefixPresentationText, &f.texts, 6)), opts)
}

// NewImage returns an image object named IMGnnnnn.
func (f *Factory) NewImage() *Image {
	return &Image{named: f.named(nextName(prefixImage, &f.images, 5)), oeg: f.newObjectEnvironmentGroup()}
}

// NewGraphics returns a graphics object named GRAnnnnn.
func (f *Factory) NewGraphics() *Graphics {
	return &Graphics{named: f.named(nextName(prefixGraphics, &f.graphics, 5)), oeg: f.newObjectEnvironmentGroup()}
}

// NewObjectContainer returns a container named OCnnnnnn.
func (f *Factory) NewObjectContainer() *ObjectContainer {
	return &ObjectContainer{named: f.named(nextName(prefixObjectContainer, &f.containers, 6)), oeg: f.newObjectEnvironmentGroup()}
}

// NewResourceGroup returns a resource group named RGnnnnnn.
func (f *Factory) NewResourceGroup() *ResourceGroup {
	return newResourceGroup(f.named(nextName(prefixResourceGroup, &f.resourceGroups, 6)))
}

// NewResourceObject wraps obj in a BRS/ERS envelope carrying obj's name.
func (f *Factory) NewResourceObject(obj NamedObject, typ byte) *ResourceObject {
	f.resourceObjects++
	return &ResourceObject{named: f.named(obj.Name()), Type: typ, Object: obj}
}

// NewNamedResourceObject wraps obj under a generated RESnnnnn name.
func (f *Factory) NewNamedResourceObject(obj Object, typ byte) *ResourceObject {
	return &ResourceObject{named: f.named(nextName(prefixResource, &f.resourceObjects, 5)), Type: typ, Object: obj}
}

// NewPageSegment returns a page segment. An empty name is generated.
func (f *Factory) NewPageSegment(name string) *PageSegment {
	if name == "" {
		name = nextName(prefixPageSegment, &f.segs, 6)
	}
	return &PageSegment{named: f.named(name)}
}

func (f *Factory) newActiveEnvironmentGroup(g PageGeometry) *ActiveEnvironmentGroup {
	return &ActiveEnvironmentGroup{named: f.named(nextName(prefixActiveEnvironment, &f.aegs, 5)), geometry: g, enc: f.enc}
}

func (f *Factory) newObjectEnvironmentGroup() *ObjectEnvironmentGroup {
	return &ObjectEnvironmentGroup{named: f.named(nextName(prefixObjectEnvironment, &f.oegs, 5))}
}

// segmentName derives the page segment name of a wrapped object:
// IMG00001 becomes S1000001.
func segmentName(objectName string) string {
	if len(objectName) <= 3 {
		return prefixPageSegmentReplace + objectName
	}
	return prefixPageSegmentReplace + objectName[3:]
}
