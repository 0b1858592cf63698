package docmark_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/docforge/docmark"
	"github.com/docforge/docmark/convert"
)

const docHeader = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">
<w:body>`

func createDocx(t *testing.T, name, body string, extra map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(docHeader + body + `</w:body></w:document>`))
	for partName, data := range extra {
		w, _ := zw.Create(partName)
		w.Write(data)
	}
	zw.Close()
	f.Close()
	return path
}

// noPandoc hides any installed pandoc so tests exercise the fallback.
func noPandoc(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

func TestConvert_HelloWorld(t *testing.T) {
	noPandoc(t)
	input := createDocx(t, "hello.docx", `
<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r>
<w:r><w:rPr><w:b/></w:rPr><w:t>world</w:t></w:r></w:p>`, nil)
	outDir := t.TempDir()

	res, err := docmark.Convert(input, outDir)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Hello **world**\n" {
		t.Errorf("output = %q, want %q", string(data), "Hello **world**\n")
	}
}

func TestConvert_FormulaPassThrough(t *testing.T) {
	noPandoc(t)
	input := createDocx(t, "math.docx", `
<w:p><m:oMathPara><m:oMath>
<m:f><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f>
</m:oMath></m:oMathPara></w:p>`, nil)

	res, err := docmark.Convert(input, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(res.OutputPath)
	if !strings.Contains(string(data), `$$\frac{a}{b}$$`) {
		t.Errorf("formula not wrapped byte-for-byte: %q", string(data))
	}
}

func TestConvert_IdempotentImageNames(t *testing.T) {
	noPandoc(t)
	rels := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
</Relationships>`
	body := `<w:p><w:r><w:drawing><wp:inline>
<wp:extent cx="95250" cy="95250"/><wp:docPr id="1" name="p" descr="dot"/>
<a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="rId1"/></pic:blipFill></pic:pic></a:graphicData></a:graphic>
</wp:inline></w:drawing></w:r></w:p>`
	input := createDocx(t, "img.docx", body, map[string][]byte{
		"word/_rels/document.xml.rels": []byte(rels),
		"word/media/image1.png":        []byte("pretend png bytes"),
	})
	outDir := t.TempDir()

	first, err := docmark.Convert(input, outDir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := docmark.Convert(input, outDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.ImagePaths) != 1 || len(second.ImagePaths) != 1 {
		t.Fatalf("image paths = %v / %v, want one each", first.ImagePaths, second.ImagePaths)
	}
	if first.ImagePaths[0] != second.ImagePaths[0] {
		t.Errorf("image names differ across runs: %q vs %q", first.ImagePaths[0], second.ImagePaths[0])
	}
	firstMD, _ := os.ReadFile(first.OutputPath)
	secondMD, _ := os.ReadFile(second.OutputPath)
	if string(firstMD) != string(secondMD) {
		t.Error("markup differs across runs")
	}
}

func TestConvertBatch_ReportsEveryFile(t *testing.T) {
	noPandoc(t)
	good := createDocx(t, "good.docx", `<w:p><w:r><w:t>fine</w:t></w:r></w:p>`, nil)
	bad := filepath.Join(t.TempDir(), "bad.docx")
	if err := os.WriteFile(bad, []byte("not a document"), 0o644); err != nil {
		t.Fatal(err)
	}

	var progressFiles []string
	report := docmark.ConvertBatch([]string{good, bad}, t.TempDir(),
		func(done, total int, file string) {
			progressFiles = append(progressFiles, file)
		})

	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
	if report.Succeeded() != 1 || report.Failed() != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 1/1", report.Succeeded(), report.Failed())
	}
	if len(progressFiles) != 2 {
		t.Errorf("progress called %d times, want 2", len(progressFiles))
	}
}

// TestConvert_StrategiesStructurallyEquivalent converts the same
// document through a simulated external tool and through the native
// parser, then compares the parsed block structure of both outputs.
func TestConvert_StrategiesStructurallyEquivalent(t *testing.T) {
	body := `
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p><w:r><w:t>Some </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r><w:r><w:t> prose.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>k</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>v</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>`
	input := createDocx(t, "report.docx", body, nil)

	// Simulated external tool emitting the same structure.
	fakeDir := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then echo "pandoc 3.0"; exit 0; fi
printf '# Report\n\nSome **bold** prose.\n\n| k | v |\n| --- | --- |\n| a | 1 |\n'
`
	if err := os.WriteFile(filepath.Join(fakeDir, "pandoc"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", fakeDir)

	primary := docmark.NewConverter(docmark.Options{})
	primaryRes, err := primary.Convert(context.Background(), input, t.TempDir())
	if err != nil {
		t.Fatalf("primary convert: %v", err)
	}
	if primaryRes.Strategy != convert.StrategyPrimary {
		t.Fatalf("strategy = %s, want primary", primaryRes.Strategy)
	}

	fallback := docmark.NewConverter(docmark.Options{DisablePrimary: true})
	fallbackRes, err := fallback.Convert(context.Background(), input, t.TempDir())
	if err != nil {
		t.Fatalf("fallback convert: %v", err)
	}
	if fallbackRes.Strategy != convert.StrategyFallback {
		t.Fatalf("strategy = %s, want fallback", fallbackRes.Strategy)
	}

	if got, want := blockKinds(t, primaryRes.OutputPath), blockKinds(t, fallbackRes.OutputPath); !equal(got, want) {
		t.Errorf("block structure differs: primary %v, fallback %v", got, want)
	}
}

// blockKinds parses a Markdown file and returns its top-level block
// kinds.
func blockKinds(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(data))

	var kinds []string
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		kinds = append(kinds, c.Kind().String())
	}
	return kinds
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
