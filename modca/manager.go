package modca

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/resources"
)

// placement is what the resource manager needs from the data stream.
type placement interface {
	// currentPage is the page or overlay receiving content.
	currentPage() (*pageBase, error)
	// externalGroup returns the resource group written to path.
	externalGroup(path string) *ResourceGroup
}

// holder is a scope that keeps a resource group.
type holder interface {
	resources.Scope
	resourceGroup() *ResourceGroup
}

// cachedObject remembers how a resource is included and which scope
// holds it. A nil scope is an external resource group.
type cachedObject struct {
	name       []byte
	objectType byte
	segment    bool
	ot         *resources.ObjectType
	scope      resources.Scope
}

// visibleFrom reports whether the scope holding c encloses page.
func (c cachedObject) visibleFrom(page *pageBase) bool {
	if c.scope == nil {
		return true
	}
	for s := resources.Scope(page); s != nil; s = s.ParentScope() {
		if s == c.scope {
			return true
		}
	}
	return false
}

// ResourceManager decides for each data object whether it is embedded
// in the page or kept in a resource group and included by name, and
// keeps the include cache for one document.
type ResourceManager struct {
	cfg      Config
	objects  *DataObjectFactory
	registry *resources.Registry
	cache    *resources.Cache[cachedObject]
	instream int
	logger   observability.Logger
}

// NewResourceManager returns a manager routing objects through
// registry for the configured interchange set.
func NewResourceManager(cfg Config, objects *DataObjectFactory, registry *resources.Registry, logger observability.Logger) *ResourceManager {
	if registry == nil {
		registry = resources.NewRegistry()
	}
	return &ResourceManager{
		cfg:      cfg.withDefaults(),
		objects:  objects,
		registry: registry,
		cache:    resources.NewCache[cachedObject](),
		logger:   observability.OrNop(logger),
	}
}

// CachedResources returns the number of cached resources.
func (m *ResourceManager) CachedResources() int { return m.cache.Len() }

// Clear drops the include cache. Called when a document completes.
func (m *ResourceManager) Clear() {
	m.cache.Clear()
	m.instream = 0
}

// uri returns the cache key source of info. Instream objects get a
// unique "/#n" suffix, or a content fingerprint when de-duplication is
// enabled.
func (m *ResourceManager) uri(info *DataObjectInfo) string {
	uri := info.URI
	if uri != "" && !strings.HasSuffix(uri, "/") {
		return uri
	}
	if m.cfg.DeduplicateContent {
		return resources.Fingerprint(contentOf(info))
	}
	if uri == "" {
		uri = "/"
	}
	m.instream++
	return uri + "#" + strconv.Itoa(m.instream)
}

func contentOf(info *DataObjectInfo) []byte {
	if info.Graphics == nil {
		return info.Data
	}
	var b []byte
	for _, o := range info.Graphics {
		b = o.AppendTo(b)
	}
	return b
}

func (m *ResourceManager) level(info *DataObjectInfo) resources.Level {
	switch {
	case info.ForceInline:
		return resources.Inline
	case info.Level != resources.Unset:
		return info.Level
	}
	return m.cfg.ResourceLevel
}

// group returns the resource group holding objects at level and its
// scope, walking out to enclosing scopes when the requested one has
// already been written. External groups have no scope.
func (m *ResourceManager) group(p placement, page *pageBase, level resources.Level) (resources.Scope, *ResourceGroup, error) {
	if level == resources.External {
		if m.cfg.ExternalResourceGroup != "" {
			return nil, p.externalGroup(m.cfg.ExternalResourceGroup), nil
		}
		m.logger.Warn("no external resource group configured, using print-file level")
		level = resources.PrintFile
	}
	scope, err := resources.Resolve(page, level)
	if err != nil {
		return nil, nil, err
	}
	if scope.Level() != level {
		m.logger.Debug("resource level not available, using enclosing scope",
			observability.String("requested", level.String()), observability.String("used", scope.Level().String()))
	}
	h, ok := scope.(holder)
	if !ok {
		return nil, nil, fmt.Errorf("scope %s holds no resource group: %w", scope.Level(), resources.ErrNoScope)
	}
	return scope, h.resourceGroup(), nil
}

// CreateObject places info on the current page. It returns the include
// that references the resource, or nil when the object was embedded.
func (m *ResourceManager) CreateObject(p placement, info DataObjectInfo) (Object, error) {
	page, err := p.currentPage()
	if err != nil {
		return nil, err
	}
	mime := info.mimeType()
	routing := m.registry.Route(m.cfg.InterchangeSet, mime)
	level := m.level(&info)
	if !routing.Known {
		m.logger.Warn("unknown object type, embedding inline", observability.String("mime", mime))
	} else if !routing.Includable && level != resources.Inline {
		m.logger.Warn("object type cannot be included, embedding inline",
			observability.String("mime", mime), observability.String("interchange_set", m.cfg.InterchangeSet.String()))
	}
	if !routing.Includable {
		level = resources.Inline
	}

	// A URI is encoded once for as long as the scope holding it encloses
	// the page, whichever level later requests ask for.
	var scope resources.Scope
	var group *ResourceGroup
	var key string
	if level != resources.Inline {
		key = m.uri(&info)
		if cached, ok := m.cache.Get(key); ok && cached.visibleFrom(page) {
			inc := m.include(cached, info.Area)
			return inc, page.AddObject(inc)
		}
		if scope, group, err = m.group(p, page, level); err != nil {
			return nil, err
		}
		if scope != nil {
			level = scope.Level()
		}
	}

	obj, err := m.build(&info, routing.ObjectType)
	if err != nil {
		return nil, err
	}
	if level == resources.Inline {
		return nil, page.AddObject(obj)
	}

	cached := cachedObject{objectType: includeType(obj), scope: scope}
	if routing.ObjectType.Kind == resources.KindObjectContainer {
		ot := routing.ObjectType
		cached.ot = &ot
	}
	var res NamedObject = obj
	if level == resources.PrintFile || level == resources.External {
		if _, isImage := obj.(*Image); isImage && (info.PageSegment || m.cfg.PageSegments) {
			seg := m.objects.f.NewPageSegment(segmentName(obj.Name()))
			if r, ok := obj.(renamer); ok {
				r.rename(seg.named)
			}
			seg.AddObject(obj)
			res = seg
			cached.segment = true
		}
		res = m.objects.CreateResource(res)
	}
	group.AddObject(res)
	cached.name = nameBytesOf(res)
	m.cache.Put(key, cached)
	m.logger.Debug("resource added",
		observability.String("name", res.Name()), observability.String("group", group.Name()),
		observability.String("level", level.String()))

	inc := m.include(cached, info.Area)
	return inc, page.AddObject(inc)
}

func (m *ResourceManager) build(info *DataObjectInfo, ot resources.ObjectType) (NamedObject, error) {
	switch info.kind() {
	case resources.KindImage:
		return m.objects.CreateImage(info)
	case resources.KindGraphics:
		return m.objects.CreateGraphics(info)
	}
	return m.objects.CreateObjectContainer(info, ot), nil
}

func (m *ResourceManager) include(c cachedObject, area ObjectArea) Object {
	if c.segment {
		return &IncludePageSegment{Segment: c.name, X: area.X, Y: area.Y}
	}
	return m.objects.CreateInclude(c.name, c.objectType, area, c.ot)
}

func nameBytesOf(obj NamedObject) []byte {
	if n, ok := obj.(interface{ NameBytes() []byte }); ok {
		return n.NameBytes()
	}
	return nil
}
