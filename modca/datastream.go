package modca

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/resources"
)

const (
	spanWrite = "afp.write"

	tagDocument       = "document"
	tagPages          = "pages"
	tagResources      = "resources"
	tagBytesWritten   = "bytes_written"
	tagInterchangeSet = "interchange_set"
	tagExternalGroups = "external_groups"
)

// Opener creates the file receiving an external resource group.
type Opener func(path string) (io.WriteCloser, error)

// Options configures a DataStream.
type Options struct {
	Config   Config
	Logger   observability.Logger
	Tracer   observability.Tracer
	Registry *resources.Registry
	// Opener defaults to os.Create.
	Opener Opener
}

// printFile is the outermost resource scope. Its group is written ahead
// of the document.
type printFile struct {
	group *ResourceGroup
	done  bool
}

func (pf *printFile) Level() resources.Level        { return resources.PrintFile }
func (pf *printFile) Accepts() bool                 { return !pf.done }
func (pf *printFile) ParentScope() resources.Scope  { return nil }
func (pf *printFile) resourceGroup() *ResourceGroup { return pf.group }

// DataStream is the entry point for building an AFP print file. Calls
// are not safe for concurrent use; build one document per DataStream.
//
// Pages are written to a spool as soon as they end and every earlier
// page has been written. EndDocument writes the print-file resource
// group, then the spooled document, to the output.
type DataStream struct {
	cfg     Config
	out     io.Writer
	logger  observability.Logger
	tracer  observability.Tracer
	opener  Opener
	factory *Factory
	manager *ResourceManager

	spool     io.ReadWriter
	spoolFile *os.File
	printFile *printFile
	external  map[string]*ResourceGroup
	extOrder  []string

	document    *Document
	pageGroup   *PageGroup
	page        *Page
	overlay     *Overlay
	rotation    int
	offsetX     int
	offsetY     int
	saved       map[*Page]bool
	tleSequence int
	pages       int
	complete    bool
}

// NewDataStream returns a data stream writing to out.
func NewDataStream(out io.Writer, opts Options) (*DataStream, error) {
	cfg := opts.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := observability.OrNop(opts.Logger)
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	opener := opts.Opener
	if opener == nil {
		opener = func(path string) (io.WriteCloser, error) { return os.Create(path) }
	}
	enc := codec.NewEncoder(cfg.Encoding, logger)
	f := NewFactory(enc, logger)
	objects := NewDataObjectFactory(f, logger)
	return &DataStream{
		cfg:       cfg,
		out:       out,
		logger:    logger,
		tracer:    tracer,
		opener:    opener,
		factory:   f,
		manager:   NewResourceManager(cfg, objects, opts.Registry, logger),
		printFile: &printFile{group: f.NewResourceGroup()},
		external:  make(map[string]*ResourceGroup),
		saved:     make(map[*Page]bool),
	}, nil
}

// Factory returns the object factory, for callers building objects
// themselves.
func (ds *DataStream) Factory() *Factory { return ds.factory }

// ResourceManager returns the manager routing data objects.
func (ds *DataStream) ResourceManager() *ResourceManager { return ds.manager }

// PrintFileResources returns the print-file level resource group.
func (ds *DataStream) PrintFileResources() *ResourceGroup { return ds.printFile.group }

// Config returns the settings in effect, defaults applied.
func (ds *DataStream) Config() Config { return ds.cfg }

// Complete reports whether EndDocument has run.
func (ds *DataStream) Complete() bool { return ds.complete }

// Document returns the current document.
func (ds *DataStream) Document() *Document { return ds.document }

// CurrentPage returns the open page, or nil.
func (ds *DataStream) CurrentPage() *Page { return ds.page }

func (ds *DataStream) check() error {
	if ds.complete {
		return ErrDataStreamComplete
	}
	return nil
}

func (ds *DataStream) checkDocument() error {
	if err := ds.check(); err != nil {
		return err
	}
	if ds.document == nil {
		return ErrNoDocument
	}
	return nil
}

// StartDocument begins the document and its spool.
func (ds *DataStream) StartDocument() error {
	if err := ds.check(); err != nil {
		return err
	}
	if ds.document != nil {
		return fmt.Errorf("document %s: already started", ds.document.Name())
	}
	if ds.cfg.SpoolToFile {
		f, err := os.CreateTemp(ds.cfg.SpoolDir, "afp-*.spool")
		if err != nil {
			return fmt.Errorf("create spool: %w", err)
		}
		ds.spool, ds.spoolFile = f, f
	} else {
		ds.spool = &bytes.Buffer{}
	}
	ds.document = ds.factory.NewDocument()
	ds.document.parent = ds.printFile
	ds.logger.Debug("document started", observability.String(tagDocument, ds.document.Name()))
	return nil
}

// SetDocumentName attaches a fully qualified name to the document.
func (ds *DataStream) SetDocumentName(name string) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.document.Started() {
		return fmt.Errorf("document name after begin document was written: %w", ErrContainerEnded)
	}
	return ds.document.SetFullyQualifiedName(name)
}

// StartPageGroup begins a page group, ending the previous one.
func (ds *DataStream) StartPageGroup() error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page != nil {
		return ErrPageOpen
	}
	if ds.pageGroup != nil {
		if err := ds.EndPageGroup(); err != nil {
			return err
		}
	}
	g := ds.factory.NewPageGroup()
	g.parent = ds.document
	if err := ds.document.AddObject(g); err != nil {
		return err
	}
	ds.pageGroup = g
	return nil
}

// EndPageGroup ends the current page group and flushes what is ready.
func (ds *DataStream) EndPageGroup() error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.pageGroup == nil {
		return nil
	}
	if ds.page != nil {
		if err := ds.EndPage(); err != nil {
			return err
		}
	}
	ds.pageGroup.End()
	ds.pageGroup = nil
	return ds.flush()
}

func (ds *DataStream) textOptions() TextOptions {
	return TextOptions{MaxRecordSize: ds.cfg.MaxTextRecordSize, Logger: ds.logger}
}

// StartPage opens a page. Sizes are in units of the resolutions, which
// are in dots per inch.
func (ds *DataStream) StartPage(width, height, rotation, xRes, yRes int) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page != nil {
		return ErrPageOpen
	}
	if !ptoca.ValidOrientation(rotation) {
		return fmt.Errorf("page rotation %d: %w", rotation, ptoca.ErrInvalidOrientation)
	}
	p := ds.factory.NewPage(PageGeometry{Width: width, Height: height, Rotation: rotation, XRes: xRes, YRes: yRes}, ds.textOptions())
	if ds.pageGroup != nil {
		p.parent = ds.pageGroup
	} else {
		p.parent = ds.document
	}
	ds.page = p
	ds.overlay = nil
	return nil
}

// container returns the page group or document receiving pages.
func (ds *DataStream) container() interface {
	AddPage(*Page) error
	AddObject(Object) error
} {
	if ds.pageGroup != nil {
		return ds.pageGroup
	}
	return ds.document
}

// EndPage ends the current page and writes every page that is ready.
func (ds *DataStream) EndPage() error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page == nil {
		return nil
	}
	if ds.overlay != nil {
		if err := ds.EndOverlay(); err != nil {
			return err
		}
	}
	ds.page.End()
	if ds.saved[ds.page] {
		delete(ds.saved, ds.page)
	} else if err := ds.container().AddPage(ds.page); err != nil {
		return err
	}
	ds.page = nil
	ds.pages++
	return ds.flush()
}

// SavePage hands the open page to its container without ending it, so
// later pages can be started. The document keeps its position and
// waits for RestorePage and EndPage before writing anything after it.
func (ds *DataStream) SavePage() (*Page, error) {
	if err := ds.checkDocument(); err != nil {
		return nil, err
	}
	if ds.page == nil {
		return nil, ErrNoPage
	}
	if ds.overlay != nil {
		if err := ds.EndOverlay(); err != nil {
			return nil, err
		}
	}
	p := ds.page
	if !ds.saved[p] {
		if err := ds.container().AddPage(p); err != nil {
			return nil, err
		}
		ds.saved[p] = true
	}
	ds.page = nil
	return p, nil
}

// RestorePage makes a saved page current again. EndPage on a restored
// page ends it without adding it twice.
func (ds *DataStream) RestorePage(p *Page) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page != nil {
		return ErrPageOpen
	}
	if p.Ended() {
		return fmt.Errorf("%s: %w", p.Name(), ErrContainerEnded)
	}
	if !ds.saved[p] {
		return fmt.Errorf("%s: page was not saved", p.Name())
	}
	ds.page = p
	return nil
}

// StartOverlay opens an overlay placed on the current page at x, y.
// Content calls go to the overlay until EndOverlay.
func (ds *DataStream) StartOverlay(x, y, width, height, xRes, yRes, rotation int) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page == nil {
		return ErrNoPage
	}
	if ds.overlay != nil {
		if err := ds.EndOverlay(); err != nil {
			return err
		}
	}
	o := ds.factory.NewOverlay(PageGeometry{Width: width, Height: height, Rotation: rotation, XRes: xRes, YRes: yRes}, ds.textOptions())
	o.parent = ds.page
	if err := ds.page.CreateIncludePageOverlay(o.Name(), x, y, rotation); err != nil {
		return err
	}
	ds.overlay = o
	return nil
}

// EndOverlay ends the overlay and keeps it in the page resource group.
func (ds *DataStream) EndOverlay() error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.overlay == nil {
		return nil
	}
	ds.overlay.End()
	ds.page.ResourceGroup().AddObject(ds.overlay)
	ds.overlay = nil
	return nil
}

// currentPage returns the overlay being built, or the page.
func (ds *DataStream) currentPage() (*pageBase, error) {
	if err := ds.checkDocument(); err != nil {
		return nil, err
	}
	if ds.overlay != nil {
		return &ds.overlay.pageBase, nil
	}
	if ds.page != nil {
		return &ds.page.pageBase, nil
	}
	return nil, ErrNoPage
}

func (ds *DataStream) externalGroup(path string) *ResourceGroup {
	g, ok := ds.external[path]
	if !ok {
		g = ds.factory.NewResourceGroup()
		ds.external[path] = g
		ds.extOrder = append(ds.extOrder, path)
	}
	return g
}

// SetRotation sets the rotation applied to text and object positions.
func (ds *DataStream) SetRotation(rotation int) error {
	if err := ds.check(); err != nil {
		return err
	}
	if !ptoca.ValidOrientation(rotation) {
		return fmt.Errorf("rotation %d: %w", rotation, ptoca.ErrInvalidOrientation)
	}
	ds.rotation = rotation
	return nil
}

// SetOffsets shifts every position by x, y before rotation.
func (ds *DataStream) SetOffsets(x, y int) {
	ds.offsetX, ds.offsetY = x, y
}

// point maps x, y in the rotated coordinate system to page coordinates.
func (ds *DataStream) point(p *pageBase, x, y int) (int, int) {
	x += ds.offsetX
	y += ds.offsetY
	w, h := p.geometry.Width, p.geometry.Height
	switch ds.rotation {
	case 90:
		return w - y, x
	case 180:
		return w - x, h - y
	case 270:
		return y, h - x
	}
	return x, y
}

// CreateText places a text run on the current page.
func (ds *DataStream) CreateText(run ptoca.TextRun) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	if ds.rotation != 0 || ds.offsetX != 0 || ds.offsetY != 0 {
		run.X, run.Y = ds.point(p, run.X, run.Y)
		run.Orientation = (run.Orientation + ds.rotation) % 360
	}
	return p.CreateText(run)
}

// CreateLine draws an axis-aligned rule on the current page.
func (ds *DataStream) CreateLine(r ptoca.Rule) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	if ds.rotation != 0 || ds.offsetX != 0 || ds.offsetY != 0 {
		r.X1, r.Y1 = ds.point(p, r.X1, r.Y1)
		r.X2, r.Y2 = ds.point(p, r.X2, r.Y2)
		if r.X1 > r.X2 {
			r.X1, r.X2 = r.X2, r.X1
		}
		if r.Y1 > r.Y2 {
			r.Y1, r.Y2 = r.Y2, r.Y1
		}
	}
	return p.CreateLine(r)
}

// CreateShading fills a rectangle on the current page.
func (ds *DataStream) CreateShading(x, y, width, height int, c color.Color) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	x1, y1 := ds.point(p, x, y)
	x2, y2 := ds.point(p, x+width, y+height)
	return p.CreateShading(min(x1, x2), min(y1, y2), abs(x2-x1), abs(y2-y1), c)
}

// CreateFont maps a coded font on the current page.
func (ds *DataStream) CreateFont(f Font) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	return p.CreateFont(f)
}

// CreateObject places a data object, routing it into a resource group
// when its type and the interchange set allow an include.
func (ds *DataStream) CreateObject(info DataObjectInfo) error {
	if p, err := ds.currentPage(); err == nil {
		info.Area.X, info.Area.Y = ds.point(p, info.Area.X, info.Area.Y)
		info.Area.Rotation = (info.Area.Rotation + ds.rotation) % 360
	}
	_, err := ds.manager.CreateObject(ds, info)
	return err
}

// CreateIncludePageOverlay places an overlay resource by name.
func (ds *DataStream) CreateIncludePageOverlay(name string, x, y, rotation int) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	return p.CreateIncludePageOverlay(name, x, y, rotation)
}

// CreateIncludePageSegment places a page segment by name.
func (ds *DataStream) CreateIncludePageSegment(name string, x, y int) error {
	p, err := ds.currentPage()
	if err != nil {
		return err
	}
	x, y = ds.point(p, x, y)
	return p.CreateIncludePageSegment(name, x, y)
}

// CreateTagLogicalElement tags the current page, or the page group when
// no page is open.
func (ds *DataStream) CreateTagLogicalElement(name, value string) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	seq := ds.tleSequence + 1
	var err error
	switch {
	case ds.page != nil:
		err = ds.page.CreateTagLogicalElement(name, value, seq)
	case ds.pageGroup != nil:
		enc := ds.factory.Encoder()
		err = ds.pageGroup.AddObject(&TagLogicalElement{Name: enc.Encode(name), Value: enc.Encode(value), Sequence: seq})
	default:
		err = fmt.Errorf("tag logical element %q: %w", name, ErrNoPage)
	}
	if err == nil {
		ds.tleSequence = seq
	}
	return err
}

// CreateNoOperation adds a comment to the current page, or between
// pages when none is open.
func (ds *DataStream) CreateNoOperation(content string) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if p, err := ds.currentPage(); err == nil {
		return p.CreateNoOperation(content)
	}
	return ds.container().AddObject(&NoOperation{Content: ds.factory.Encoder().Encode(content)})
}

// CreateInvokeMediumMap selects a medium map for the following pages.
func (ds *DataStream) CreateInvokeMediumMap(name string) error {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	if ds.page != nil {
		return ErrPageOpen
	}
	n := ds.factory.named(name)
	return ds.container().AddObject(&InvokeMediumMap{Map: n.nameBytes})
}

// flush writes whatever the document has ready to the spool.
func (ds *DataStream) flush() error {
	if _, err := ds.document.WriteTo(ds.spool); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// EndDocument ends open containers and writes the print file: the
// print-file resource group, then the document. External resource
// groups are written through the Opener. The include cache is cleared.
func (ds *DataStream) EndDocument(ctx context.Context) (err error) {
	if err := ds.checkDocument(); err != nil {
		return err
	}
	_, span := ds.tracer.StartSpan(ctx, spanWrite)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()
	defer ds.closeSpool()

	if ds.page != nil {
		if err := ds.EndPage(); err != nil {
			return err
		}
	}
	if ds.pageGroup != nil {
		if err := ds.EndPageGroup(); err != nil {
			return err
		}
	}
	ds.document.End()
	if err := ds.flush(); err != nil {
		return err
	}
	ds.printFile.done = true

	var written int64
	if !ds.printFile.group.Empty() {
		n, err := ds.printFile.group.WriteTo(ds.out)
		written += n
		if err != nil {
			return fmt.Errorf("write print-file resources: %w", err)
		}
	}
	n, err := ds.copySpool()
	written += n
	if err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	for _, path := range ds.extOrder {
		if err := ds.writeExternal(path, ds.external[path]); err != nil {
			return err
		}
	}

	span.SetTag(tagDocument, ds.document.Name())
	span.SetTag(tagPages, ds.pages)
	span.SetTag(tagResources, ds.manager.CachedResources())
	span.SetTag(tagBytesWritten, written)
	span.SetTag(tagInterchangeSet, ds.cfg.InterchangeSet.String())
	span.SetTag(tagExternalGroups, len(ds.extOrder))
	ds.logger.Info("document written",
		observability.String(tagDocument, ds.document.Name()),
		observability.Int(tagPages, ds.pages),
		observability.Int(tagResources, ds.manager.CachedResources()),
		observability.Int64(tagBytesWritten, written))

	ds.manager.Clear()
	ds.complete = true
	return nil
}

func (ds *DataStream) copySpool() (int64, error) {
	if ds.spoolFile != nil {
		if _, err := ds.spoolFile.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
	}
	return io.Copy(ds.out, ds.spool)
}

func (ds *DataStream) closeSpool() {
	if ds.spoolFile == nil {
		return
	}
	name := ds.spoolFile.Name()
	ds.spoolFile.Close()
	os.Remove(name)
	ds.spoolFile = nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (ds *DataStream) writeExternal(path string, g *ResourceGroup) error {
	w, err := ds.opener(path)
	if err != nil {
		return fmt.Errorf("open external resource group %s: %w", path, err)
	}
	if _, err := g.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("write external resource group %s: %w", path, err)
	}
	return w.Close()
}
