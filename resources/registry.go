package resources

import "strings"

// Kind is the content architecture of a data object.
type Kind int

const (
	KindObjectContainer Kind = iota
	KindImage
	KindGraphics
	KindFont
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindGraphics:
		return "graphics"
	case KindFont:
		return "font"
	}
	return "object-container"
}

// Registered component ids.
const (
	ComponentGOCA     = 3
	ComponentIOCAFS10 = 5
	ComponentIOCAFS11 = 11
	ComponentIOCAFS45 = 12
	ComponentEPS      = 13
	ComponentTIFF     = 14
	ComponentGIF      = 22
	ComponentJFIF     = 23
	ComponentPDF      = 25
	ComponentPCL      = 34
	ComponentTrueType = 51
)

// MIME types known to the default registry.
const (
	MimeIOCAFS10 = "image/x-afp+fs10"
	MimeIOCAFS11 = "image/x-afp+fs11"
	MimeIOCAFS45 = "image/x-afp+fs45"
	MimeGOCA     = "image/x-afp+goca"
	MimeTIFF     = "image/tiff"
	MimeGIF      = "image/gif"
	MimeJPEG     = "image/jpeg"
	MimePDF      = "application/pdf"
	MimeEPS      = "application/postscript"
	MimePCL      = "application/vnd.hp-pcl"
	MimeTrueType = "application/x-font-truetype"
)

// oidPrefix is the MO:DCA registered object id arc; the component id
// completes it.
var oidPrefix = []byte{0x06, 0x07, 0x2B, 0x12, 0x00, 0x04, 0x01, 0x01}

// ObjectType describes a registered data object type.
type ObjectType struct {
	Name        string
	MimeType    string
	ComponentID int
	Includable  bool
	Kind        Kind
}

// OID returns the encoded registered object id.
func (t ObjectType) OID() []byte {
	if t.ComponentID == 0 {
		return nil
	}
	oid := append([]byte(nil), oidPrefix...)
	return append(oid, byte(t.ComponentID))
}

// Registry maps MIME types to object types. It is built by the caller
// and handed to the resource manager.
type Registry struct {
	types map[string]ObjectType
}

// NewRegistry returns a registry with the standard object types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]ObjectType)}
	for _, t := range []ObjectType{
		{Name: "IOCA FS10", MimeType: MimeIOCAFS10, ComponentID: ComponentIOCAFS10, Includable: true, Kind: KindImage},
		{Name: "IOCA FS11", MimeType: MimeIOCAFS11, ComponentID: ComponentIOCAFS11, Includable: true, Kind: KindImage},
		{Name: "IOCA FS45", MimeType: MimeIOCAFS45, ComponentID: ComponentIOCAFS45, Includable: true, Kind: KindImage},
		{Name: "GOCA", MimeType: MimeGOCA, ComponentID: ComponentGOCA, Includable: true, Kind: KindGraphics},
		{Name: "TIFF", MimeType: MimeTIFF, ComponentID: ComponentTIFF, Includable: true},
		{Name: "GIF", MimeType: MimeGIF, ComponentID: ComponentGIF, Includable: true},
		{Name: "JFIF", MimeType: MimeJPEG, ComponentID: ComponentJFIF, Includable: true},
		{Name: "PDF Single-page Object", MimeType: MimePDF, ComponentID: ComponentPDF, Includable: true},
		{Name: "Encapsulated PostScript", MimeType: MimeEPS, ComponentID: ComponentEPS, Includable: true},
		{Name: "PCL Page Object", MimeType: MimePCL, ComponentID: ComponentPCL},
		{Name: "TrueType/OpenType Font", MimeType: MimeTrueType, ComponentID: ComponentTrueType, Kind: KindFont},
	} {
		r.Register(t)
	}
	return r
}

// Register adds or replaces t.
func (r *Registry) Register(t ObjectType) {
	r.types[strings.ToLower(t.MimeType)] = t
}

// Lookup returns the object type registered for mime.
func (r *Registry) Lookup(mime string) (ObjectType, bool) {
	t, ok := r.types[strings.ToLower(strings.TrimSpace(mime))]
	return t, ok
}

// Routing is the outcome of Route.
type Routing struct {
	// Includable reports whether the object may live in a resource group
	// and be referenced with an include.
	Includable bool
	ObjectType ObjectType
	// Known is false for MIME types missing from the registry; ObjectType
	// then holds best-effort defaults.
	Known bool
}

// Route looks mime up and combines the object type's capability with
// what the interchange set permits.
func (r *Registry) Route(set InterchangeSet, mime string) Routing {
	t, ok := r.Lookup(mime)
	if !ok {
		return Routing{ObjectType: ObjectType{Name: mime, MimeType: mime, Kind: KindObjectContainer}}
	}
	includable := t.Includable && set.SupportsIncludes()
	if t.Kind == KindObjectContainer && !set.SupportsObjectContainers() {
		includable = false
	}
	return Routing{Includable: includable, ObjectType: t, Known: true}
}
