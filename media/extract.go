// Package media extracts embedded images from word-processing packages
// into an output directory, naming each file by a digest of its content
// so repeated conversions of the same document are idempotent.
package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/docforge/docmark/docx"
	"github.com/docforge/docmark/model"
)

// Subdir is the directory under the output root that holds extracted
// images, and the prefix of every path Extract returns.
const Subdir = "images"

// hashLen is the number of hex digest characters used in filenames.
// Twelve characters keep names short while making collisions between
// distinct images in one corpus implausible.
const hashLen = 12

// StableName returns the content-addressed filename for image data:
// a truncated SHA-256 digest plus the original extension. The same
// bytes always produce the same name.
func StableName(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	ext = strings.ToLower(ext)
	if ext == "" {
		ext = ".bin"
	}
	return hex.EncodeToString(sum[:])[:hashLen] + ext
}

// Extract writes every image the document references to outDir/images/
// and returns a map from package part name to the relative path the
// renderer should emit. Duplicate references to one part are written
// once, and a file that already exists with the right name is left
// alone.
func Extract(pkg *docx.Package, doc *model.Document, outDir string) (map[string]string, error) {
	refs := collectRefs(doc)
	if len(refs) == 0 {
		return map[string]string{}, nil
	}

	dir := filepath.Join(outDir, Subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}

	paths := make(map[string]string, len(refs))
	for _, ref := range refs {
		data, err := pkg.Part(ref)
		if err != nil {
			// A reference to a missing part is resolved at render
			// time as a dangling reference; skip it here.
			continue
		}
		name := StableName(data, sniffExt(data, path.Ext(ref)))
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			if err := writeAtomic(dest, data); err != nil {
				return nil, err
			}
		}
		paths[ref] = path.Join(Subdir, name)
	}
	return paths, nil
}

// collectRefs gathers distinct image part names in document order.
func collectRefs(doc *model.Document) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	for b := range doc.All() {
		switch v := b.(type) {
		case *model.Image:
			add(v.Ref)
		case *model.Paragraph:
			addInline(v.Content, add)
		case *model.Heading:
			addInline(v.Content, add)
		case *model.Table:
			for _, row := range v.Rows {
				for _, cell := range row {
					addInline(cell.Content, add)
				}
			}
		}
	}
	return refs
}

func addInline(spans []model.Span, add func(string)) {
	for s := range model.Inline(spans) {
		if r, ok := s.(*model.ImageRef); ok {
			add(r.Ref)
		}
	}
}

// sniffExt corrects the file extension from the decoded image format,
// so a mislabeled part (a PNG stored as image1.jpg) gets the right
// extension. Unrecognized data keeps the part's own extension.
func sniffExt(data []byte, partExt string) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return partExt
	}
	switch format {
	case "jpeg":
		return ".jpg"
	case "":
		return partExt
	default:
		return "." + format
	}
}

// writeAtomic writes data through a temp file and rename so a crash
// never leaves a half-written image behind.
func writeAtomic(dest string, data []byte) error {
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing media file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing media file: %w", err)
	}
	return nil
}
