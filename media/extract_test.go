package media

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/docforge/docmark/docx"
	"github.com/docforge/docmark/model"
)

// pngBytes encodes a solid image of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// createPackage writes a minimal docx with the given media parts.
func createPackage(t *testing.T, media map[string][]byte) *docx.Package {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`))
	for name, data := range media {
		w, _ := zw.Create(name)
		w.Write(data)
	}
	zw.Close()
	f.Close()

	pkg, err := docx.OpenPackage(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pkg.Close() })
	return pkg
}

func TestExtract_ContentHashedNames(t *testing.T) {
	img := pngBytes(t, 4, 2)
	pkg := createPackage(t, map[string][]byte{"word/media/image1.png": img})
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/image1.png"})
	outDir := t.TempDir()

	paths, err := Extract(pkg, doc, outDir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	rel, ok := paths["word/media/image1.png"]
	if !ok {
		t.Fatal("no path for referenced image")
	}
	want := "images/" + StableName(img, ".png")
	if rel != want {
		t.Errorf("path = %q, want %q", rel, want)
	}
	if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	img := pngBytes(t, 4, 2)
	pkg := createPackage(t, map[string][]byte{"word/media/image1.png": img})
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/image1.png"})
	outDir := t.TempDir()

	first, err := Extract(pkg, doc, outDir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Extract(pkg, doc, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if first["word/media/image1.png"] != second["word/media/image1.png"] {
		t.Errorf("paths differ across runs: %q vs %q",
			first["word/media/image1.png"], second["word/media/image1.png"])
	}

	entries, err := os.ReadDir(filepath.Join(outDir, Subdir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files after two runs, want 1", len(entries))
	}
}

func TestExtract_DuplicateRefsWrittenOnce(t *testing.T) {
	img := pngBytes(t, 4, 2)
	pkg := createPackage(t, map[string][]byte{"word/media/image1.png": img})
	doc := model.NewDocument()
	doc.Append(
		&model.Image{Ref: "word/media/image1.png"},
		&model.Paragraph{Content: []model.Span{&model.ImageRef{Ref: "word/media/image1.png"}}},
	)
	outDir := t.TempDir()

	if _, err := Extract(pkg, doc, outDir); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(outDir, Subdir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}
}

func TestExtract_MissingPartSkipped(t *testing.T) {
	pkg := createPackage(t, nil)
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/ghost.png"})

	paths, err := Extract(pkg, doc, t.TempDir())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, ok := paths["word/media/ghost.png"]; ok {
		t.Error("missing part should not get a path")
	}
}

func TestExtract_NoImages(t *testing.T) {
	pkg := createPackage(t, nil)
	doc := model.NewDocument()
	doc.Append(&model.Paragraph{Content: []model.Span{&model.Text{Value: "text only"}}})
	outDir := t.TempDir()

	paths, err := Extract(pkg, doc, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("got %d paths, want 0", len(paths))
	}
	if _, err := os.Stat(filepath.Join(outDir, Subdir)); !os.IsNotExist(err) {
		t.Error("images dir should not be created when nothing is extracted")
	}
}

func TestExtract_CorrectsMislabeledExtension(t *testing.T) {
	img := pngBytes(t, 2, 2)
	pkg := createPackage(t, map[string][]byte{"word/media/image1.jpg": img})
	doc := model.NewDocument()
	doc.Append(&model.Image{Ref: "word/media/image1.jpg"})

	paths, err := Extract(pkg, doc, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rel := paths["word/media/image1.jpg"]
	if filepath.Ext(rel) != ".png" {
		t.Errorf("extension = %q, want .png for PNG data", filepath.Ext(rel))
	}
}

func TestStableName(t *testing.T) {
	a := StableName([]byte("same"), ".png")
	b := StableName([]byte("same"), ".png")
	c := StableName([]byte("different"), ".png")

	if a != b {
		t.Errorf("same data produced different names: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different data produced the same name")
	}
	if filepath.Ext(a) != ".png" {
		t.Errorf("extension = %q, want .png", filepath.Ext(a))
	}
	if StableName([]byte("x"), ".PNG") != StableName([]byte("x"), ".png") {
		t.Error("extension case should be normalized")
	}
}
