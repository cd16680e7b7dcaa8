package resources

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for l, name := range levelNames {
		got, err := ParseLevel(strings.ToUpper(name))
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLevel("galaxy"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	var l Level
	if err := l.UnmarshalText([]byte("print-file")); err != nil || l != PrintFile {
		t.Fatalf("UnmarshalText = %v, %v", l, err)
	}
}

func TestUnsetLevel(t *testing.T) {
	var l Level
	if l != Unset || l.String() != "unset" {
		t.Fatalf("zero Level = %s", l)
	}
	for _, l := range []Level{Unset, Inline} {
		if l.IsResourceGroup() {
			t.Errorf("%s should not be a resource group level", l)
		}
	}
	for _, l := range []Level{Page, PageGroup, Document, PrintFile, External} {
		if !l.IsResourceGroup() {
			t.Errorf("%s should be a resource group level", l)
		}
	}
	if _, err := ParseLevel("unset"); err == nil {
		t.Error("unset is not a level name")
	}
}

func TestInterchangeSet(t *testing.T) {
	tests := map[string]InterchangeSet{
		"IS/1":          IS1,
		"MO:DCA-P IS/2": IS2,
		"is3":           IS3,
		"2":             IS2,
	}
	for in, want := range tests {
		got, err := ParseInterchangeSet(in)
		if err != nil || got != want {
			t.Errorf("ParseInterchangeSet(%q) = %v, %v", in, got, err)
		}
	}
	if IS1.SupportsIncludes() || !IS2.SupportsIncludes() || IS2.SupportsObjectContainers() || !IS3.SupportsObjectContainers() {
		t.Fatalf("capabilities wrong")
	}
	if _, err := ParseInterchangeSet("IS/9"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRoute(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		set        InterchangeSet
		mime       string
		includable bool
		known      bool
	}{
		{IS1, MimeIOCAFS45, false, true},
		{IS2, MimeIOCAFS45, true, true},
		{IS2, MimeGOCA, true, true},
		{IS2, MimeTIFF, false, true},
		{IS3, MimeTIFF, true, true},
		{IS3, "IMAGE/JPEG", true, true},
		{IS3, MimePCL, false, true},
		{IS3, "application/x-unknown", false, false},
	}
	for _, tt := range tests {
		got := r.Route(tt.set, tt.mime)
		if got.Includable != tt.includable || got.Known != tt.known {
			t.Errorf("Route(%v, %s) = %+v", tt.set, tt.mime, got)
		}
	}
	ot, _ := r.Lookup(MimeTIFF)
	if !bytes.Equal(ot.OID(), []byte{0x06, 0x07, 0x2B, 0x12, 0x00, 0x04, 0x01, 0x01, 14}) {
		t.Fatalf("TIFF OID % X", ot.OID())
	}
}

func TestRegistryIsIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.Register(ObjectType{Name: "custom", MimeType: "image/x-custom", ComponentID: 99, Includable: true})
	if _, ok := a.Lookup("image/x-custom"); !ok {
		t.Fatalf("registration lost")
	}
	if _, ok := b.Lookup("image/x-custom"); ok {
		t.Fatalf("registries share state")
	}
}

func TestCache(t *testing.T) {
	c := NewCache[int]()
	c.Put("b", 1)
	c.Put("a", 2)
	c.Put("b", 3)
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("Get(b) = %d, %v", v, ok)
	}
	if keys := c.Keys(); strings.Join(keys, ",") != "b,a" {
		t.Fatalf("Keys = %v", keys)
	}
	c.Clear()
	if _, ok := c.Get("a"); ok || c.Len() != 0 {
		t.Fatalf("Clear left entries")
	}
}

type testScope struct {
	level   Level
	accepts bool
	parent  Scope
}

func (s *testScope) Level() Level       { return s.level }
func (s *testScope) Accepts() bool      { return s.accepts }
func (s *testScope) ParentScope() Scope { return s.parent }

func TestResolve(t *testing.T) {
	printFile := &testScope{level: PrintFile, accepts: true}
	doc := &testScope{level: Document, accepts: false, parent: printFile}
	page := &testScope{level: Page, accepts: true, parent: doc}

	tests := []struct {
		level Level
		want  Scope
	}{
		{Page, page},
		{Document, printFile},
		{PrintFile, printFile},
	}
	for _, tt := range tests {
		got, err := Resolve(page, tt.level)
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%v) = %v, %v", tt.level, got, err)
		}
	}
	if _, err := Resolve(page, External); !errors.Is(err, ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("raster"))
	if a != Fingerprint([]byte("raster")) {
		t.Fatalf("fingerprint not stable")
	}
	if a == Fingerprint([]byte("raster2")) {
		t.Fatalf("fingerprint collision")
	}
	if !strings.HasPrefix(a, "blake3:") || len(a) != len("blake3:")+64 {
		t.Fatalf("fingerprint format %q", a)
	}
}
