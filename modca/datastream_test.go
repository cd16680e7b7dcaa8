package modca

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/resources"
	"github.com/wudi/afpkit/triplet"
)

func newTestStream(t *testing.T, cfg Config, logger observability.Logger) (*DataStream, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ds, err := NewDataStream(&out, Options{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	if err := ds.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	return ds, &out
}

func mustDecode(t *testing.T, b []byte) []field.Field {
	t.Helper()
	fields, err := field.DecodeAll(b)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return fields
}

func acronyms(fields []field.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.ID.String()
	}
	return strings.Join(names, " ")
}

func countFields(fields []field.Field, id field.Identifier) int {
	n := 0
	for _, f := range fields {
		if f.ID == id {
			n++
		}
	}
	return n
}

func endDocument(t *testing.T, ds *DataStream) {
	t.Helper()
	if err := ds.EndDocument(context.Background()); err != nil {
		t.Fatalf("EndDocument: %v", err)
	}
}

func testImage(uri string) DataObjectInfo {
	return DataObjectInfo{
		URI:   uri,
		Area:  ObjectArea{X: 10, Y: 20, Width: 8, Height: 2, XRes: 240, YRes: 240},
		Data:  []byte{0xF0, 0x0F},
		Image: &ImageInfo{Width: 8, Height: 2, BitsPerPixel: 1},
	}
}

func TestSingleTextPage(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	if err := ds.StartPage(2040, 2640, 0, 240, 240); err != nil {
		t.Fatalf("StartPage: %v", err)
	}
	run := ptoca.TextRun{X: 100, Y: 200, Font: 1, Color: color.RGBA{A: 0xFF}, Data: []byte{0xC8, 0xC9}}
	if err := ds.CreateText(run); err != nil {
		t.Fatalf("CreateText: %v", err)
	}
	if err := ds.EndPage(); err != nil {
		t.Fatalf("EndPage: %v", err)
	}
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	want := "BDT BPG BAG PGD PTD EAG BPT PTX EPT EPG EDT"
	if got := acronyms(fields); got != want {
		t.Fatalf("fields = %s, want %s", got, want)
	}
	ptx := fields[7].Data
	if !bytes.HasPrefix(ptx, ptoca.Escape[:]) {
		t.Fatalf("PTX does not start with the escape: % X", ptx)
	}
	if !bytes.HasSuffix(ptx, []byte{0x02, ptoca.NOP}) {
		t.Fatalf("PTX does not end the chain: % X", ptx)
	}
	var funcs []byte
	for i := 2; i < len(ptx); i += int(ptx[i]) {
		funcs = append(funcs, ptx[i+1]&^ptoca.ChainBit)
	}
	wantFuncs := []byte{ptoca.SCFL, ptoca.AMB, ptoca.AMI, ptoca.SEC, ptoca.TRN, ptoca.NOP}
	if !bytes.Equal(funcs, wantFuncs) {
		t.Fatalf("control sequences = % X, want % X", funcs, wantFuncs)
	}
	if !ds.Complete() {
		t.Fatal("data stream should be complete")
	}
}

func TestCompleteDataStreamRejectsCalls(t *testing.T) {
	ds, _ := newTestStream(t, Config{}, nil)
	endDocument(t, ds)
	calls := map[string]error{
		"StartPage":   ds.StartPage(100, 100, 0, 240, 240),
		"StartGroup":  ds.StartPageGroup(),
		"CreateText":  ds.CreateText(ptoca.TextRun{}),
		"CreateObj":   ds.CreateObject(testImage("a.img")),
		"EndDocument": ds.EndDocument(context.Background()),
		"SetRotation": ds.SetRotation(90),
	}
	for name, err := range calls {
		if !errors.Is(err, ErrDataStreamComplete) {
			t.Errorf("%s after EndDocument: got %v", name, err)
		}
	}
}

func TestContentWithoutPage(t *testing.T) {
	ds, _ := newTestStream(t, Config{}, nil)
	if err := ds.CreateText(ptoca.TextRun{}); !errors.Is(err, ErrNoPage) {
		t.Fatalf("CreateText without page: %v", err)
	}
	var out bytes.Buffer
	empty, err := NewDataStream(&out, Options{})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	if err := empty.StartPage(100, 100, 0, 240, 240); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("StartPage without document: %v", err)
	}
}

func TestIncludeDeduplication(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	if err := ds.StartPage(2040, 2640, 0, 240, 240); err != nil {
		t.Fatalf("StartPage: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := ds.CreateObject(testImage("logo.img")); err != nil {
			t.Fatalf("CreateObject %d: %v", i, err)
		}
	}
	if n := ds.PrintFileResources().ResourceCount(); n != 1 {
		t.Fatalf("print-file resources = %d, want 1", n)
	}
	if err := ds.EndPage(); err != nil {
		t.Fatalf("EndPage: %v", err)
	}
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	if fields[0].ID != field.BeginResourceGroup {
		t.Fatalf("print file starts with %s, want BRG", fields[0].ID)
	}
	if n := countFields(fields, field.BeginResource); n != 1 {
		t.Errorf("BRS count = %d, want 1", n)
	}
	if n := countFields(fields, field.BeginImage); n != 1 {
		t.Errorf("BIM count = %d, want 1", n)
	}
	if n := countFields(fields, field.IncludeObject); n != 2 {
		t.Errorf("IOB count = %d, want 2", n)
	}
	if ds.ResourceManager().CachedResources() != 0 {
		t.Error("cache should be cleared when the document completes")
	}
}

func TestInstreamObjectsAreNotShared(t *testing.T) {
	tests := []struct {
		name  string
		dedup bool
		want  int
	}{
		{"unique", false, 2},
		{"fingerprint", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, _ := newTestStream(t, Config{DeduplicateContent: tt.dedup}, nil)
			if err := ds.StartPage(2040, 2640, 0, 240, 240); err != nil {
				t.Fatalf("StartPage: %v", err)
			}
			for i := 0; i < 2; i++ {
				if err := ds.CreateObject(testImage("")); err != nil {
					t.Fatalf("CreateObject: %v", err)
				}
			}
			if n := ds.PrintFileResources().ResourceCount(); n != tt.want {
				t.Fatalf("resources = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestForceInlineEmbedsObject(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	ds.StartPage(2040, 2640, 0, 240, 240)
	info := testImage("inline.img")
	info.ForceInline = true
	if err := ds.CreateObject(info); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	got := acronyms(fields)
	want := "BDT BPG BAG PGD PTD EAG BIM BOG OBD OBP MIO IDD EOG IPD EIM EPG EDT"
	if got != want {
		t.Fatalf("fields = %s, want %s", got, want)
	}
}

func TestPageLevelResources(t *testing.T) {
	ds, out := newTestStream(t, Config{ResourceLevel: resources.Page}, nil)
	ds.StartPage(2040, 2640, 0, 240, 240)
	if err := ds.CreateObject(testImage("a.img")); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	got := acronyms(mustDecode(t, out.Bytes()))
	if !strings.HasPrefix(got, "BDT BPG BRG BIM") {
		t.Fatalf("page resource group not written after BPG: %s", got)
	}
	if strings.Contains(got, "BRS") {
		t.Fatalf("page level objects are not wrapped: %s", got)
	}
}

func TestInlineLevelEmbedsEveryCopy(t *testing.T) {
	ds, out := newTestStream(t, Config{ResourceLevel: resources.Inline}, nil)
	ds.StartPage(2040, 2640, 0, 240, 240)
	for i := 0; i < 2; i++ {
		if err := ds.CreateObject(testImage("logo.img")); err != nil {
			t.Fatalf("CreateObject: %v", err)
		}
	}
	ds.EndPage()
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	if n := countFields(fields, field.BeginImage); n != 2 {
		t.Fatalf("BIM count = %d, want 2", n)
	}
	if countFields(fields, field.IncludeObject) != 0 || countFields(fields, field.BeginResourceGroup) != 0 {
		t.Fatalf("inline objects must not be kept as resources: %s", acronyms(fields))
	}
}

func TestTwoPagesShareResource(t *testing.T) {
	tests := map[string]struct {
		level    resources.Level
		images   int
		includes int
	}{
		"document":   {resources.Document, 1, 2},
		"page group": {resources.PageGroup, 1, 2},
		"print file": {resources.PrintFile, 1, 2},
		"page":       {resources.Page, 2, 2},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds, out := newTestStream(t, Config{ResourceLevel: tt.level}, nil)
			if tt.level == resources.PageGroup {
				if err := ds.StartPageGroup(); err != nil {
					t.Fatalf("StartPageGroup: %v", err)
				}
			}
			for i := 0; i < 2; i++ {
				if err := ds.StartPage(2040, 2640, 0, 240, 240); err != nil {
					t.Fatalf("StartPage: %v", err)
				}
				if err := ds.CreateObject(testImage("logo.img")); err != nil {
					t.Fatalf("CreateObject on page %d: %v", i+1, err)
				}
				if err := ds.EndPage(); err != nil {
					t.Fatalf("EndPage: %v", err)
				}
			}
			if tt.level == resources.PageGroup {
				if err := ds.EndPageGroup(); err != nil {
					t.Fatalf("EndPageGroup: %v", err)
				}
			}
			endDocument(t, ds)

			fields := mustDecode(t, out.Bytes())
			if n := countFields(fields, field.BeginImage); n != tt.images {
				t.Errorf("BIM count = %d, want %d: %s", n, tt.images, acronyms(fields))
			}
			if n := countFields(fields, field.IncludeObject); n != tt.includes {
				t.Errorf("IOB count = %d, want %d", n, tt.includes)
			}
		})
	}
}

func TestPageSegmentWrapping(t *testing.T) {
	ds, out := newTestStream(t, Config{PageSegments: true}, nil)
	ds.StartPage(2040, 2640, 0, 240, 240)
	if err := ds.CreateObject(testImage("seg.img")); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	got := acronyms(fields)
	if !strings.HasPrefix(got, "BRG BRS BPS BIM") {
		t.Fatalf("segment not wrapped in resource: %s", got)
	}
	if countFields(fields, field.IncludePageSegment) != 1 || countFields(fields, field.IncludeObject) != 0 {
		t.Fatalf("expected one IPS and no IOB: %s", got)
	}
	enc := ds.Factory().Encoder()
	for _, f := range fields {
		if f.ID == field.BeginPageSegment {
			if name := enc.Decode(f.Data[:NameLen]); !strings.HasPrefix(name, "S10") {
				t.Fatalf("segment name = %q", name)
			}
		}
	}
}

func TestUnknownMimeTypeIsEmbedded(t *testing.T) {
	rec := observability.NewRecorder()
	ds, out := newTestStream(t, Config{InterchangeSet: resources.IS3}, rec)
	ds.StartPage(2040, 2640, 0, 240, 240)
	info := DataObjectInfo{URI: "doc.xyz", MimeType: "application/x-unknown", Data: []byte("payload")}
	if err := ds.CreateObject(info); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	if countFields(fields, field.IncludeObject) != 0 || countFields(fields, field.BeginObjectContainer) != 1 {
		t.Fatalf("unknown type should be embedded: %s", acronyms(fields))
	}
	found := false
	for _, w := range rec.Warnings() {
		if strings.Contains(w.Message, "unknown object type") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no warning recorded: %+v", rec.Warnings())
	}
}

func TestObjectContainerNeedsIS3(t *testing.T) {
	tests := []struct {
		set     resources.InterchangeSet
		include bool
	}{
		{resources.IS2, false},
		{resources.IS3, true},
	}
	for _, tt := range tests {
		ds, out := newTestStream(t, Config{InterchangeSet: tt.set}, nil)
		ds.StartPage(2040, 2640, 0, 240, 240)
		info := DataObjectInfo{URI: "a.tif", MimeType: resources.MimeTIFF, Data: []byte{1, 2, 3}}
		if err := ds.CreateObject(info); err != nil {
			t.Fatalf("CreateObject: %v", err)
		}
		ds.EndPage()
		endDocument(t, ds)
		fields := mustDecode(t, out.Bytes())
		if got := countFields(fields, field.IncludeObject) == 1; got != tt.include {
			t.Errorf("%s: include = %v, want %v (%s)", tt.set, got, tt.include, acronyms(fields))
		}
	}
}

func TestSavedPageKeepsDocumentOrder(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	ds.StartPage(100, 100, 0, 240, 240)
	first, err := ds.SavePage()
	if err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	ds.StartPage(100, 100, 0, 240, 240)
	ds.CreateNoOperation("second")
	if err := ds.EndPage(); err != nil {
		t.Fatalf("EndPage: %v", err)
	}
	if err := ds.RestorePage(first); err != nil {
		t.Fatalf("RestorePage: %v", err)
	}
	ds.CreateNoOperation("first")
	if err := ds.EndPage(); err != nil {
		t.Fatalf("EndPage: %v", err)
	}
	endDocument(t, ds)

	fields := mustDecode(t, out.Bytes())
	if n := countFields(fields, field.BeginPage); n != 2 {
		t.Fatalf("pages = %d, want 2", n)
	}
	enc := ds.Factory().Encoder()
	var comments []string
	for _, f := range fields {
		if f.ID == field.NoOperation {
			comments = append(comments, enc.Decode(f.Data))
		}
	}
	if strings.Join(comments, ",") != "first,second" {
		t.Fatalf("page order = %v", comments)
	}
}

func TestPageGroupTagsAndMediumMap(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	if err := ds.StartPageGroup(); err != nil {
		t.Fatalf("StartPageGroup: %v", err)
	}
	if err := ds.CreateTagLogicalElement("ACCOUNT", "12345"); err != nil {
		t.Fatalf("group TLE: %v", err)
	}
	if err := ds.CreateInvokeMediumMap("MM1"); err != nil {
		t.Fatalf("IMM: %v", err)
	}
	ds.StartPage(100, 100, 0, 240, 240)
	if err := ds.CreateInvokeMediumMap("MM2"); !errors.Is(err, ErrPageOpen) {
		t.Fatalf("IMM inside a page: %v", err)
	}
	if err := ds.CreateTagLogicalElement("PAGE", "1"); err != nil {
		t.Fatalf("page TLE: %v", err)
	}
	ds.EndPage()
	if err := ds.EndPageGroup(); err != nil {
		t.Fatalf("EndPageGroup: %v", err)
	}
	endDocument(t, ds)

	got := acronyms(mustDecode(t, out.Bytes()))
	want := "BDT BNG TLE IMM BPG BAG PGD PTD EAG TLE EPG ENG EDT"
	if got != want {
		t.Fatalf("fields = %s, want %s", got, want)
	}
}

func TestFailedTagKeepsSequence(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	if err := ds.CreateTagLogicalElement("LOST", "x"); !errors.Is(err, ErrNoPage) {
		t.Fatalf("TLE without page or group: %v", err)
	}
	ds.StartPage(100, 100, 0, 240, 240)
	for _, v := range []string{"1", "2"} {
		if err := ds.CreateTagLogicalElement("PAGE", v); err != nil {
			t.Fatalf("page TLE: %v", err)
		}
	}
	ds.EndPage()
	endDocument(t, ds)

	var seqs []int
	for _, f := range mustDecode(t, out.Bytes()) {
		if f.ID != field.TagLogicalElement {
			continue
		}
		ts, err := triplet.Parse(f.Data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		for _, tr := range ts {
			if tr.ID == triplet.IDAttributeQualifier {
				seqs = append(seqs, int(binary.BigEndian.Uint32(tr.Data[:4])))
			}
		}
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("attribute sequence numbers = %v, want [1 2]", seqs)
	}
}

func TestOverlayIsPageResource(t *testing.T) {
	ds, out := newTestStream(t, Config{}, nil)
	ds.StartPage(2040, 2640, 0, 240, 240)
	if err := ds.StartOverlay(100, 100, 500, 500, 240, 240, 0); err != nil {
		t.Fatalf("StartOverlay: %v", err)
	}
	if err := ds.CreateText(ptoca.TextRun{X: 1, Y: 1, Font: 1, Data: []byte{0xC1}}); err != nil {
		t.Fatalf("CreateText: %v", err)
	}
	if err := ds.EndOverlay(); err != nil {
		t.Fatalf("EndOverlay: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	got := acronyms(mustDecode(t, out.Bytes()))
	want := "BDT BPG BRG BMO BAG PGD PTD EAG BPT PTX EPT EMO ERG BAG MPO PGD PTD EAG IPO EPG EDT"
	if got != want {
		t.Fatalf("fields = %s, want %s", got, want)
	}
}

type memFile struct {
	bytes.Buffer
	closed bool
}

func (m *memFile) Close() error {
	m.closed = true
	return nil
}

func TestExternalResourceGroup(t *testing.T) {
	files := map[string]*memFile{}
	var out bytes.Buffer
	ds, err := NewDataStream(&out, Options{
		Config: Config{ResourceLevel: resources.External, ExternalResourceGroup: "res.afp"},
		Opener: func(path string) (io.WriteCloser, error) {
			files[path] = &memFile{}
			return files[path], nil
		},
	})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	ds.StartDocument()
	ds.StartPage(2040, 2640, 0, 240, 240)
	if err := ds.CreateObject(testImage("ext.img")); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	ds.EndPage()
	endDocument(t, ds)

	ext, ok := files["res.afp"]
	if !ok || !ext.closed {
		t.Fatal("external resource group not written and closed")
	}
	if got := acronyms(mustDecode(t, ext.Bytes())); !strings.HasPrefix(got, "BRG BRS BIM") {
		t.Fatalf("external group = %s", got)
	}
	if got := acronyms(mustDecode(t, out.Bytes())); strings.Contains(got, "BRG") {
		t.Fatalf("print file should not carry the resource: %s", got)
	}
}

func TestExternalConfigRequiresFile(t *testing.T) {
	_, err := NewDataStream(io.Discard, Options{Config: Config{ResourceLevel: resources.External}})
	if err == nil {
		t.Fatal("expected a config error")
	}
}

func TestSpoolToFile(t *testing.T) {
	ds, out := newTestStream(t, Config{SpoolToFile: true, SpoolDir: t.TempDir()}, nil)
	ds.StartPage(100, 100, 0, 240, 240)
	ds.EndPage()
	endDocument(t, ds)
	if got := acronyms(mustDecode(t, out.Bytes())); got != "BDT BPG BAG PGD PTD EAG EPG EDT" {
		t.Fatalf("fields = %s", got)
	}
}

func TestRotationMapsTextPosition(t *testing.T) {
	ds, _ := newTestStream(t, Config{}, nil)
	ds.StartPage(1000, 2000, 0, 240, 240)
	if err := ds.SetRotation(45); !errors.Is(err, ptoca.ErrInvalidOrientation) {
		t.Fatalf("SetRotation(45): %v", err)
	}
	if err := ds.SetRotation(90); err != nil {
		t.Fatalf("SetRotation: %v", err)
	}
	if err := ds.CreateText(ptoca.TextRun{X: 10, Y: 20, Font: 1, Data: []byte{0xC1}}); err != nil {
		t.Fatalf("CreateText: %v", err)
	}
	st := ds.CurrentPage().current.State()
	if st.X != 980 || st.Y != 10 || st.Orientation != 90 {
		t.Fatalf("state = %+v", st)
	}
}
