package layout

import (
	"bytes"
	"context"
	"testing"

	"github.com/wudi/afpkit/builder"
	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/modca"
)

func renderAFP(t *testing.T, render func(*Engine) error) []field.Field {
	t.Helper()
	var out bytes.Buffer
	ds, err := modca.NewDataStream(&out, modca.Options{})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	b := builder.NewBuilder(ds)
	if err := render(NewEngine(b)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	fields, err := field.DecodeAll(out.Bytes())
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return fields
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

func TestEngine_RenderMarkdown(t *testing.T) {
	md := `# Title
## Subtitle

This is a paragraph with some text. It should wrap if it is long enough.

- List item 1
- List item 2

| A | B |
|---|---|
| 1 | 2 |

Another paragraph with a [link](http://example.com) and ![missing](nope.png).

` + "```" + `
code
` + "```" + `
`
	fields := renderAFP(t, func(e *Engine) error { return e.RenderMarkdown(md) })

	if n := countFields(fields, field.BeginPage); n != 1 {
		t.Fatalf("pages = %d", n)
	}
	if countFields(fields, field.PresentationTextData) == 0 {
		t.Fatal("no presentation text")
	}
	// All fonts of the page share one MCF.
	if n := countFields(fields, field.MapCodedFont); n != 1 {
		t.Fatalf("MCF fields = %d", n)
	}
	if n := countFields(fields, field.TagLogicalElement); n != 1 {
		t.Fatalf("TLE fields = %d", n)
	}
	if fields[0].ID != field.BeginDocument || fields[len(fields)-1].ID != field.EndDocument {
		t.Fatalf("stream not framed by BDT/EDT")
	}
}

func TestEngine_RenderHTML(t *testing.T) {
	htmlStr := `
<h1>Title</h1>
<h2>Subtitle</h2>
<p>This is a paragraph with some text. It should wrap if it is long enough.</p>
<ul>
	<li>List item 1</li>
	<li>List item 2</li>
</ul>
<hr>
<p>Another paragraph.</p>
`
	fields := renderAFP(t, func(e *Engine) error { return e.RenderHTML(htmlStr) })
	if n := countFields(fields, field.BeginPage); n != 1 {
		t.Fatalf("pages = %d", n)
	}
	if countFields(fields, field.PresentationTextData) == 0 {
		t.Fatal("no presentation text")
	}
}

func TestEngine_LongDocumentBreaksPages(t *testing.T) {
	var md bytes.Buffer
	for i := 0; i < 120; i++ {
		md.WriteString("Paragraph of filler text that takes up a line.\n\n")
	}
	fields := renderAFP(t, func(e *Engine) error { return e.RenderMarkdown(md.String()) })
	if n := countFields(fields, field.BeginPage); n < 2 {
		t.Fatalf("pages = %d, want several", n)
	}
	if countFields(fields, field.BeginPage) != countFields(fields, field.EndPage) {
		t.Fatal("unbalanced pages")
	}
}
