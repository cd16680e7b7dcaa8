package modca

import (
	"io"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/triplet"
)

// ResourceGroup holds named resources: BRG, resources in insertion
// order, ERG. Each name is kept once.
type ResourceGroup struct {
	named
	objects []NamedObject
	index   map[string]NamedObject
}

func newResourceGroup(n named) *ResourceGroup {
	return &ResourceGroup{named: n, index: make(map[string]NamedObject)}
}

// AddObject adds obj unless a resource with the same name is present.
// It reports whether obj was added.
func (rg *ResourceGroup) AddObject(obj NamedObject) bool {
	if _, ok := rg.index[obj.Name()]; ok {
		return false
	}
	rg.index[obj.Name()] = obj
	rg.objects = append(rg.objects, obj)
	return true
}

// Lookup returns the resource named name.
func (rg *ResourceGroup) Lookup(name string) (NamedObject, bool) {
	obj, ok := rg.index[name]
	return obj, ok
}

// ResourceCount returns the number of distinct resources.
func (rg *ResourceGroup) ResourceCount() int { return len(rg.objects) }

// Empty reports whether the group holds nothing.
func (rg *ResourceGroup) Empty() bool { return len(rg.objects) == 0 }

func (rg *ResourceGroup) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, rg) }

func (rg *ResourceGroup) writeStart(fw *fieldWriter) {
	fw.field(field.BeginResourceGroup, rg.beginData(0))
}

func (rg *ResourceGroup) writeContent(fw *fieldWriter) {
	for _, obj := range rg.objects {
		fw.object(obj)
	}
}

func (rg *ResourceGroup) writeEnd(fw *fieldWriter) {
	fw.field(field.EndResourceGroup, rg.nameBytes)
}

// ResourceObject wraps a resource kept at print-file or external level:
// BRS, the object, ERS.
type ResourceObject struct {
	named
	Type   byte
	Object Object
}

func (ro *ResourceObject) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, ro) }

func (ro *ResourceObject) writeStart(fw *fieldWriter) {
	ts := append(triplet.Set{triplet.ResourceObjectType(ro.Type)}, ro.triplets...)
	data := append(append([]byte(nil), ro.nameBytes...), 0x00, 0x00)
	fw.field(field.BeginResource, ts.AppendTo(data))
}

func (ro *ResourceObject) writeContent(fw *fieldWriter) { fw.object(ro.Object) }

func (ro *ResourceObject) writeEnd(fw *fieldWriter) {
	fw.field(field.EndResource, ro.nameBytes)
}

// PageSegment groups objects included together with IPS: BPS, objects,
// EPS.
type PageSegment struct {
	named
	objects []Object
}

// AddObject appends obj to the segment.
func (ps *PageSegment) AddObject(obj Object) { ps.objects = append(ps.objects, obj) }

func (ps *PageSegment) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, ps) }

func (ps *PageSegment) writeStart(fw *fieldWriter) {
	fw.field(field.BeginPageSegment, ps.beginData(0))
}

func (ps *PageSegment) writeContent(fw *fieldWriter) {
	for _, obj := range ps.objects {
		fw.object(obj)
	}
}

func (ps *PageSegment) writeEnd(fw *fieldWriter) {
	fw.field(field.EndPageSegment, ps.nameBytes)
}
