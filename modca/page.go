package modca

import (
	"fmt"
	"image/color"
	"io"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/resources"
)

// pageBase is shared by pages and overlays. The page is written in one
// piece once it has ended:
//
//	begin, [resource group], AEG, content objects..., end
type pageBase struct {
	named
	f         *Factory
	geometry  PageGeometry
	text      TextOptions
	aeg       *ActiveEnvironmentGroup
	resources *ResourceGroup
	objects   []Object
	current   *PresentationText
	ended     bool
	parent    resources.Scope
	beginID   field.Identifier
	endID     field.Identifier
}

func (p *pageBase) init(f *Factory, name string, g PageGeometry, opts TextOptions, begin, end field.Identifier) {
	p.named = f.named(name)
	p.f = f
	p.geometry = g
	p.text = opts
	p.beginID, p.endID = begin, end
}

// Geometry returns the page size and resolution.
func (p *pageBase) Geometry() PageGeometry { return p.geometry }

// ActiveEnvironmentGroup returns the AEG, creating it on first use.
func (p *pageBase) ActiveEnvironmentGroup() *ActiveEnvironmentGroup {
	if p.aeg == nil {
		p.aeg = p.f.newActiveEnvironmentGroup(p.geometry)
	}
	return p.aeg
}

// ResourceGroup returns the page level resource group, creating it on
// first use.
func (p *pageBase) ResourceGroup() *ResourceGroup {
	if p.resources == nil {
		p.resources = p.f.NewResourceGroup()
	}
	return p.resources
}

func (p *pageBase) Level() resources.Level       { return resources.Page }
func (p *pageBase) Accepts() bool                { return !p.ended }
func (p *pageBase) ParentScope() resources.Scope { return p.parent }

func (p *pageBase) resourceGroup() *ResourceGroup { return p.ResourceGroup() }

// Ended reports whether End has been called.
func (p *pageBase) Ended() bool { return p.ended }

// Complete is the same as Ended; containers flush children once they
// are complete.
func (p *pageBase) Complete() bool { return p.ended }

// Objects returns the content objects in insertion order.
func (p *pageBase) Objects() []Object { return p.objects }

func (p *pageBase) check() error {
	if p.ended {
		return fmt.Errorf("%s: %w", p.name, ErrContainerEnded)
	}
	return nil
}

// presentationText returns the open text object, starting one after
// any other content object.
func (p *pageBase) presentationText() *PresentationText {
	if p.current == nil {
		p.current = p.f.NewPresentationText(p.text)
		p.objects = append(p.objects, p.current)
	}
	return p.current
}

// endPresentationText closes the open text object, if any.
func (p *pageBase) endPresentationText() {
	if p.current != nil {
		p.current.End()
		p.current = nil
	}
}

// CreateText places a text run.
func (p *pageBase) CreateText(run ptoca.TextRun) error {
	if err := p.check(); err != nil {
		return err
	}
	return p.presentationText().CreateText(run)
}

// CreateLine draws an axis-aligned rule. Diagonal rules are logged and
// dropped.
func (p *pageBase) CreateLine(r ptoca.Rule) error {
	if err := p.check(); err != nil {
		return err
	}
	_, err := p.presentationText().CreateLine(r)
	return err
}

// CreateShading fills a rectangle with a rule as thick as the rectangle
// is tall.
func (p *pageBase) CreateShading(x, y, width, height int, c color.Color) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	return p.CreateLine(ptoca.Rule{X1: x, Y1: y, X2: x + width, Y2: y, Thickness: height, Color: c})
}

// CreateFont maps a coded font in the AEG.
func (p *pageBase) CreateFont(f Font) error {
	if err := p.check(); err != nil {
		return err
	}
	p.ActiveEnvironmentGroup().AddFont(f)
	return nil
}

// AddObject appends a content object. An open text object is closed
// first so content stays in insertion order.
func (p *pageBase) AddObject(obj Object) error {
	if err := p.check(); err != nil {
		return err
	}
	p.endPresentationText()
	p.objects = append(p.objects, obj)
	return nil
}

// CreateIncludePageOverlay maps the overlay in the AEG and places it.
func (p *pageBase) CreateIncludePageOverlay(name string, x, y, rotation int) error {
	if !ptoca.ValidOrientation(rotation) {
		return fmt.Errorf("overlay rotation %d: %w", rotation, ptoca.ErrInvalidOrientation)
	}
	if err := p.check(); err != nil {
		return err
	}
	n := p.f.named(name)
	p.ActiveEnvironmentGroup().mapOverlay(n.nameBytes)
	return p.AddObject(&IncludePageOverlay{Overlay: n.nameBytes, X: x, Y: y, Rotation: rotation})
}

// CreateIncludePageSegment places a page segment.
func (p *pageBase) CreateIncludePageSegment(name string, x, y int) error {
	n := p.f.named(name)
	return p.AddObject(&IncludePageSegment{Segment: n.nameBytes, X: x, Y: y})
}

// CreateTagLogicalElement attaches an attribute to the page.
func (p *pageBase) CreateTagLogicalElement(name, value string, seq int) error {
	enc := p.f.Encoder()
	return p.AddObject(&TagLogicalElement{Name: enc.Encode(name), Value: enc.Encode(value), Sequence: seq})
}

// CreateNoOperation adds a comment field.
func (p *pageBase) CreateNoOperation(content string) error {
	return p.AddObject(&NoOperation{Content: p.f.Encoder().Encode(content)})
}

// End closes the open text object and ends the page.
func (p *pageBase) End() {
	if p.ended {
		return
	}
	p.endPresentationText()
	p.ended = true
}

func (p *pageBase) writeStart(fw *fieldWriter) {
	fw.field(p.beginID, p.beginData(0))
	if p.resources != nil && !p.resources.Empty() {
		fw.object(p.resources)
	}
	fw.object(p.ActiveEnvironmentGroup())
}

func (p *pageBase) writeContent(fw *fieldWriter) {
	for _, obj := range p.objects {
		fw.object(obj)
	}
}

func (p *pageBase) writeEnd(fw *fieldWriter) {
	fw.field(p.endID, p.nameBytes)
}

func (p *pageBase) write(w io.Writer, self phases) (int64, error) {
	if !p.ended {
		return 0, fmt.Errorf("%s: %w", p.name, ErrPageOpen)
	}
	return writeDataStream(w, self)
}

// Page is one page of a document: BPG ... EPG.
type Page struct {
	pageBase
}

func newPage(f *Factory, name string, g PageGeometry, opts TextOptions) *Page {
	p := &Page{}
	p.init(f, name, g, opts, field.BeginPage, field.EndPage)
	return p
}

// WriteTo writes the page. The page must have ended.
func (p *Page) WriteTo(w io.Writer) (int64, error) { return p.write(w, p) }

// Overlay is a page overlay: BMO ... EMO. Overlays are kept as
// resources and placed with IPO.
type Overlay struct {
	pageBase
}

func newOverlay(f *Factory, name string, g PageGeometry, opts TextOptions) *Overlay {
	o := &Overlay{}
	o.init(f, name, g, opts, field.BeginOverlay, field.EndOverlay)
	return o
}

// WriteTo writes the overlay. The overlay must have ended.
func (o *Overlay) WriteTo(w io.Writer) (int64, error) { return o.write(w, o) }
