package modca

import (
	"fmt"
	"io"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/resources"
	"github.com/wudi/afpkit/triplet"
)

// container is shared by documents and page groups. Unlike pages they
// are written incrementally: each WriteTo emits the begin field once,
// then every leading child that is complete, stopping at the first one
// still open so document order is kept. The end field follows once the
// container has ended and every child has been written.
type container struct {
	named
	f         *Factory
	level     resources.Level
	beginID   field.Identifier
	endID     field.Identifier
	reserved  int
	children  []Object
	resources *ResourceGroup
	parent    resources.Scope
	started   bool
	ended     bool
	closed    bool
}

func (c *container) init(f *Factory, name string, level resources.Level, begin, end field.Identifier, reserved int) {
	c.named = f.named(name)
	c.f = f
	c.level = level
	c.beginID, c.endID = begin, end
	c.reserved = reserved
}

func (c *container) Level() resources.Level       { return c.level }
func (c *container) Accepts() bool                { return !c.started }
func (c *container) ParentScope() resources.Scope { return c.parent }

// ResourceGroup returns the container's resource group. Resources can
// only be added before the begin field has been written.
func (c *container) ResourceGroup() *ResourceGroup {
	if c.resources == nil {
		c.resources = c.f.NewResourceGroup()
	}
	return c.resources
}

func (c *container) resourceGroup() *ResourceGroup { return c.ResourceGroup() }

// Ended reports whether End has been called.
func (c *container) Ended() bool { return c.ended }

// Complete reports whether the container has ended.
func (c *container) Complete() bool { return c.ended }

// Started reports whether the begin field has been written.
func (c *container) Started() bool { return c.started }

// Pending returns the number of children not yet written.
func (c *container) Pending() int { return len(c.children) }

func (c *container) add(obj Object) error {
	if c.ended {
		return fmt.Errorf("%s: %w", c.name, ErrContainerEnded)
	}
	c.children = append(c.children, obj)
	return nil
}

// AddPage appends a page. The page is written once it has ended and
// every earlier child has been written.
func (c *container) AddPage(p *Page) error { return c.add(p) }

// AddObject appends a non-page child such as an IMM or a TLE.
func (c *container) AddObject(obj Object) error { return c.add(obj) }

// End marks the container ended. Children still open are presumed
// final and are written by the next WriteTo.
func (c *container) End() { c.ended = true }

func (c *container) partial() bool { return true }

// partialWriter is a child that may be written before it is complete.
type partialWriter interface {
	Object
	partial() bool
}

func (c *container) writeStart(fw *fieldWriter) {
	if c.started {
		return
	}
	fw.field(c.beginID, c.beginData(c.reserved))
	if c.resources != nil && !c.resources.Empty() {
		fw.object(c.resources)
	}
	if fw.err == nil {
		c.started = true
	}
}

func (c *container) writeContent(fw *fieldWriter) {
	for len(c.children) > 0 && fw.err == nil {
		child := c.children[0]
		if !complete(child) {
			if pw, ok := child.(partialWriter); ok && pw.partial() && !c.ended {
				fw.object(pw)
				return
			}
			if !c.ended {
				return
			}
			if p, ok := child.(interface{ End() }); ok {
				p.End()
			}
		}
		fw.object(child)
		if fw.err == nil {
			c.children = c.children[1:]
		}
	}
}

func (c *container) writeEnd(fw *fieldWriter) {
	if !c.ended || c.closed || len(c.children) > 0 || fw.err != nil {
		return
	}
	fw.field(c.endID, c.nameBytes)
	if fw.err == nil {
		c.closed = true
	}
}

// Closed reports whether the end field has been written.
func (c *container) Closed() bool { return c.closed }

// PageGroup groups pages: BNG, [TLE, IMM, pages]..., ENG.
type PageGroup struct {
	container
}

func newPageGroup(f *Factory, name string) *PageGroup {
	g := &PageGroup{}
	g.init(f, name, resources.PageGroup, field.BeginPageGroup, field.EndPageGroup, 0)
	return g
}

// WriteTo writes whatever is ready. It can be called repeatedly.
func (g *PageGroup) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, g) }

// Document is the outermost container: BDT, [resource group], page
// groups and pages, EDT.
type Document struct {
	container
}

func newDocument(f *Factory, name string) *Document {
	d := &Document{}
	d.init(f, name, resources.Document, field.BeginDocument, field.EndDocument, 2)
	return d
}

// SetFullyQualifiedName names the document with an FQN triplet.
func (d *Document) SetFullyQualifiedName(name string) error {
	t, err := triplet.FullyQualifiedName(triplet.FQNBeginDocumentReference, triplet.FormatCharString,
		d.f.Encoder().Encode(name))
	if err != nil {
		return err
	}
	for i, have := range d.triplets {
		if have.ID == triplet.IDFullyQualifiedName && len(have.Data) > 0 && have.Data[0] == triplet.FQNBeginDocumentReference {
			d.triplets[i] = t
			return nil
		}
	}
	d.AddTriplet(t)
	return nil
}

// WriteTo writes whatever is ready. It can be called repeatedly.
func (d *Document) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, d) }
