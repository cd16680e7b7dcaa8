package builder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/modca"
)

func newTestBuilder(t *testing.T) (DocumentBuilder, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ds, err := modca.NewDataStream(&out, modca.Options{})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	return NewBuilder(ds), &out
}

func build(t *testing.T, b DocumentBuilder, out *bytes.Buffer) []field.Field {
	t.Helper()
	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	fields, err := field.DecodeAll(out.Bytes())
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return fields
}

func count(fields []field.Field, id field.Identifier) int {
	n := 0
	for _, f := range fields {
		if f.ID == id {
			n++
		}
	}
	return n
}

func TestBuilder_DrawTextDeclaresFontOnce(t *testing.T) {
	b, out := newTestBuilder(t)
	b.NewPage(A4.Width, A4.Height).
		DrawText("Hello", 72, 72, TextOptions{FontSize: 14, Color: Color{R: 1}}).
		DrawText("World", 72, 90, TextOptions{FontSize: 14}).
		DrawText("Small", 72, 110, TextOptions{FontSize: 8}).
		Finish()
	fields := build(t, b, out)

	if n := count(fields, field.BeginPage); n != 1 {
		t.Fatalf("pages = %d", n)
	}
	if n := count(fields, field.MapCodedFont); n != 1 {
		t.Fatalf("MCF fields = %d, want 1", n)
	}
	var ptx []byte
	for _, f := range fields {
		if f.ID == field.PresentationTextData {
			ptx = append(ptx, f.Data...)
		}
	}
	// "Hello" in code page 500.
	if !bytes.Contains(ptx, []byte{0xC8, 0x85, 0x93, 0x93, 0x96}) {
		t.Fatalf("text not encoded: % X", ptx)
	}
}

func TestBuilder_UnknownFontFailsBuild(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.NewPage(200, 200).DrawText("x", 10, 10, TextOptions{Font: "Missing"}).Finish()
	if b.Err() == nil {
		t.Fatal("expected error for unregistered font")
	}
	if err := b.Build(context.Background()); err == nil {
		t.Fatal("Build succeeded after error")
	}
}

func TestBuilder_RegisterFont(t *testing.T) {
	b, out := newTestBuilder(t)
	b.RegisterFont("Mono", FontSpec{CharacterSet: "C0420000", CodePage: "T1V10500", Monospace: true})
	b.NewPage(200, 200).DrawText("x", 10, 10, TextOptions{Font: "Mono"}).Finish()
	fields := build(t, b, out)
	if n := count(fields, field.MapCodedFont); n != 1 {
		t.Fatalf("MCF fields = %d", n)
	}
}

func TestBuilder_LinesAndRectangles(t *testing.T) {
	b, out := newTestBuilder(t)
	b.NewPage(300, 300).
		DrawLine(10, 10, 100, 10, LineOptions{}).
		DrawRectangle(20, 20, 50, 50, RectOptions{Fill: true, FillColor: Color{B: 1}}).
		Finish()
	fields := build(t, b, out)
	if n := count(fields, field.BeginGraphics); n != 0 {
		t.Fatalf("axis-aligned shapes produced %d graphics objects", n)
	}
	if n := count(fields, field.PresentationTextData); n == 0 {
		t.Fatal("no presentation text for rules")
	}
}

func TestBuilder_DiagonalLineUsesGraphics(t *testing.T) {
	b, out := newTestBuilder(t)
	b.NewPage(300, 300).DrawLine(10, 10, 100, 80, LineOptions{StrokeColor: Color{R: 1}}).Finish()
	fields := build(t, b, out)
	if n := count(fields, field.BeginGraphics); n != 1 {
		t.Fatalf("graphics objects = %d, want 1", n)
	}
}

func TestBuilder_TableBreaksPages(t *testing.T) {
	b, out := newTestBuilder(t)
	table := Table{Columns: []float64{80, 80}, HeaderRows: 1}
	table.Rows = append(table.Rows, TableRow{Cells: []TableCell{{Text: "Name"}, {Text: "Value", HAlign: HAlignRight}}})
	for i := 0; i < 40; i++ {
		table.Rows = append(table.Rows, TableRow{Cells: []TableCell{{Text: "row"}, {Text: "1", HAlign: HAlignCenter}}})
	}
	var finalY float64
	last := b.NewPage(200, 300).DrawTable(table, TableOptions{X: 10, Y: 20, BottomMargin: 20, HeaderFill: Color{R: 0.9, G: 0.9, B: 0.9}, FinalY: &finalY})
	last.Finish()
	fields := build(t, b, out)

	pages := count(fields, field.BeginPage)
	if pages < 2 {
		t.Fatalf("pages = %d, want a break", pages)
	}
	if finalY <= 20 || finalY > 280 {
		t.Fatalf("final y = %v", finalY)
	}
}

func TestBuilder_PageGroupAndTags(t *testing.T) {
	b, out := newTestBuilder(t)
	b.SetName("REPORT")
	b.NewPageGroup()
	b.NewPage(200, 200).AddTag("Account", "42").AddComment("first").Finish()
	fields := build(t, b, out)
	if count(fields, field.BeginPageGroup) != 1 || count(fields, field.TagLogicalElement) != 1 || count(fields, field.NoOperation) != 1 {
		t.Fatalf("unexpected fields: %d BNG, %d TLE, %d NOP",
			count(fields, field.BeginPageGroup), count(fields, field.TagLogicalElement), count(fields, field.NoOperation))
	}
}

func TestBuilder_DrawImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for x := 0; x < 100; x++ {
		src.Set(x, 10, color.RGBA{R: 0xFF, A: 0xFF})
	}
	img := FromImage(src)
	img.URI = "logo.png"

	b, out := newTestBuilder(t)
	b.NewPage(300, 300).
		DrawImage(img, 10, 10, 10, 5, ImageOptions{Resample: true}).
		DrawImage(img, 10, 40, 10, 5, ImageOptions{Resample: true}).
		Finish()
	fields := build(t, b, out)
	if n := count(fields, field.BeginImage); n != 1 {
		t.Fatalf("images = %d, want 1 shared resource", n)
	}
	if n := count(fields, field.IncludeObject); n != 2 {
		t.Fatalf("includes = %d, want 2", n)
	}

	b, out = newTestBuilder(t)
	b.NewPage(300, 300).
		DrawImage(img, 10, 10, 10, 5, ImageOptions{Inline: true}).
		DrawImage(img, 10, 40, 10, 5, ImageOptions{Inline: true}).
		Finish()
	fields = build(t, b, out)
	if n := count(fields, field.BeginImage); n != 2 {
		t.Fatalf("inline images = %d, want 2 copies", n)
	}
	if n := count(fields, field.IncludeObject); n != 0 {
		t.Fatalf("inline includes = %d, want 0", n)
	}
}

func TestImage_Fit(t *testing.T) {
	img := FromImage(image.NewRGBA(image.Rect(0, 0, 100, 50)))
	img.URI = "a.png"
	got := img.Fit(20, 20)
	if got.Width != 20 || got.Height != 10 {
		t.Fatalf("Fit = %dx%d, want 20x10", got.Width, got.Height)
	}
	if len(got.Data) != 20*10*3 {
		t.Fatalf("samples = %d", len(got.Data))
	}
	if got.URI != "a.png#20x10" {
		t.Fatalf("uri = %q", got.URI)
	}
	if img.Fit(200, 200) != img {
		t.Fatal("image that fits was copied")
	}
}

func TestFromImage_CompositesOnWhite(t *testing.T) {
	img := FromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !bytes.Equal(img.Data, []byte{0xFF, 0xFF, 0xFF}) {
		t.Fatalf("transparent pixel = % X", img.Data)
	}
}

func TestMeasureText(t *testing.T) {
	b, _ := newTestBuilder(t)
	w12 := b.MeasureText("Hello", 12, DefaultFont)
	w24 := b.MeasureText("Hello", 24, DefaultFont)
	if w12 <= 0 || w24 < 1.99*w12 || w24 > 2.01*w12 {
		t.Fatalf("widths %v and %v do not scale", w12, w24)
	}
	if b.MeasureText("iiii", 12, "Courier") != b.MeasureText("MMMM", 12, "Courier") {
		t.Fatal("monospace widths differ")
	}
	if b.MeasureText("iiii", 12, DefaultFont) >= b.MeasureText("MMMM", 12, DefaultFont) {
		t.Fatal("proportional widths do not differ")
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 450: 90, -90: 270, 360: 0}
	for in, want := range tests {
		if got := normalizeRotation(in); got != want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestColorRGBA(t *testing.T) {
	if (Color{}).rgba() != nil {
		t.Fatal("zero color should mean the default")
	}
	got := Color{R: 1, G: 0.5, B: 2}.rgba().(color.RGBA)
	if got != (color.RGBA{R: 0xFF, G: 0x80, B: 0xFF, A: 0xFF}) {
		t.Fatalf("rgba = %+v", got)
	}
}
