package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/docforge/docmark/model"
)

func spans(texts ...string) []model.Span {
	var out []model.Span
	for _, t := range texts {
		out = append(out, &model.Text{Value: t})
	}
	return out
}

func render(t *testing.T, doc *model.Document, paths map[string]string) string {
	t.Helper()
	out, err := Render(doc, paths)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out
}

func TestRender_HelloWorld(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.Paragraph{Content: []model.Span{
		&model.Text{Value: "Hello "},
		&model.Bold{Content: spans("world")},
	}})

	if got := render(t, doc, nil); got != "Hello **world**\n" {
		t.Errorf("got %q, want %q", got, "Hello **world**\n")
	}
}

func TestRender_Headings(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(
		&model.Heading{Level: 1, Content: spans("Top")},
		&model.Heading{Level: 3, Content: spans("Deep")},
		&model.Paragraph{Content: spans("body")},
	)

	want := "# Top\n\n### Deep\n\nbody\n"
	if got := render(t, doc, nil); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_NestedEmphasis(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.Paragraph{Content: []model.Span{
		&model.Bold{Content: []model.Span{
			&model.Italic{Content: spans("text")},
		}},
	}})

	if got := render(t, doc, nil); got != "***text***\n" {
		t.Errorf("got %q, want %q", got, "***text***\n")
	}
}

func TestRender_Table(t *testing.T) {
	cell := func(s string) model.Cell {
		return model.Cell{Content: spans(s)}
	}
	doc := model.NewDocument()
	doc.Append(model.NewTable([][]model.Cell{
		{cell("Name"), cell("Value")},
		{cell("pipe | char"), cell("a\nb")},
		{cell("short")},
	}))

	want := strings.Join([]string{
		"| Name | Value |",
		"| --- | --- |",
		`| pipe \| char | a<br>b |`,
		"| short |  |",
		"",
	}, "\n")
	if got := render(t, doc, nil); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRender_TableSeparatorMatchesColumnCount(t *testing.T) {
	cells := make([]model.Cell, 4)
	doc := model.NewDocument()
	doc.Append(model.NewTable([][]model.Cell{cells}))

	out := render(t, doc, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if got := strings.Count(lines[1], "---"); got != 4 {
		t.Errorf("separator has %d dashes groups, want 4: %q", got, lines[1])
	}
}

func TestRender_Formulas(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(
		&model.Formula{LaTeX: `\frac{a}{b}`, Display: true},
		&model.Paragraph{Content: []model.Span{
			&model.Text{Value: "where "},
			&model.InlineFormula{LaTeX: `x_{i}^{2} * \_raw`},
		}},
	)

	want := "$$\\frac{a}{b}$$\n\nwhere $x_{i}^{2} * \\_raw$\n"
	got := render(t, doc, nil)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// LaTeX passes through byte-for-byte, Markdown specials included.
	if !strings.Contains(got, `$x_{i}^{2} * \_raw$`) {
		t.Error("inline LaTeX was modified")
	}
}

func TestRender_Images(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/image1.png", Alt: "a chart"})
	paths := map[string]string{"word/media/image1.png": "images/abc123def456.png"}

	want := "![a chart](images/abc123def456.png)\n"
	if got := render(t, doc, paths); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_DanglingImageRef(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/ghost.png"})

	_, err := Render(doc, map[string]string{})
	var dangling *DanglingRefError
	if !errors.As(err, &dangling) {
		t.Fatalf("error = %v, want *DanglingRefError", err)
	}
	if dangling.Ref != "word/media/ghost.png" {
		t.Errorf("Ref = %q", dangling.Ref)
	}
}

func TestRender_Lists(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.List{Ordered: true, Items: []model.Block{
		&model.Paragraph{Content: spans("first")},
		&model.List{Items: []model.Block{
			&model.Paragraph{Content: spans("sub a")},
			&model.Paragraph{Content: spans("sub b")},
		}},
		&model.Paragraph{Content: spans("second")},
	}})

	want := strings.Join([]string{
		"1. first",
		"  - sub a",
		"  - sub b",
		"2. second",
		"",
	}, "\n")
	if got := render(t, doc, nil); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRender_CollapsesWhitespaceRuns(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(&model.Paragraph{Content: spans("too   many\t spaces")})

	if got := render(t, doc, nil); got != "too many spaces\n" {
		t.Errorf("got %q", got)
	}
}

func TestRender_SingleTrailingNewline(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(
		&model.Paragraph{Content: spans("a")},
		&model.Paragraph{Content: spans("b")},
	)

	out := render(t, doc, nil)
	if !strings.HasSuffix(out, "b\n") || strings.HasSuffix(out, "b\n\n") {
		t.Errorf("output should end with exactly one newline: %q", out)
	}
}

func TestRender_Deterministic(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(
		&model.Heading{Level: 2, Content: spans("Results")},
		model.NewTable([][]model.Cell{
			{{Content: spans("k")}, {Content: spans("v")}},
		}),
	)

	first := render(t, doc, nil)
	second := render(t, doc, nil)
	if first != second {
		t.Error("renders of the same model differ")
	}
}

// TestRender_ParsesAsMarkdown feeds rendered output through a Markdown
// parser and checks the block structure survives the round trip.
func TestRender_ParsesAsMarkdown(t *testing.T) {
	doc := model.NewDocument()
	doc.Append(
		&model.Heading{Level: 1, Content: spans("Title")},
		&model.Paragraph{Content: []model.Span{
			&model.Text{Value: "intro with "},
			&model.Bold{Content: spans("emphasis")},
		}},
		model.NewTable([][]model.Cell{
			{{Content: spans("h1")}, {Content: spans("h2")}},
			{{Content: spans("a")}, {Content: spans("b")}},
		}),
		&model.List{Items: []model.Block{
			&model.Paragraph{Content: spans("item")},
		}},
	)

	out := render(t, doc, nil)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader([]byte(out)))

	var kinds []string
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		kinds = append(kinds, c.Kind().String())
	}

	want := []string{"Heading", "Paragraph", "Table", "List"}
	if len(kinds) != len(want) {
		t.Fatalf("got blocks %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("block %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}
