// Package docx parses Office Open XML word-processing documents into
// the engine's content model without external tools. It reads the OPC
// zip container directly, walks the body XML in document order, and
// transcodes embedded equations to LaTeX.
//
// The parser deliberately covers the constructs the markup renderer can
// express: headings, paragraphs, nested bold/italic/code runs, tables,
// numbered and bulleted lists, embedded images, and equations. Anything
// else in the document is skipped rather than guessed at.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/docforge/docmark/model"
)

// documentPart is the main document part every word-processing package
// must contain.
const documentPart = "word/document.xml"

// oleMagic is the compound-file signature of legacy binary .doc files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Options controls parsing behavior.
type Options struct {
	// FormulaPlaceholders degrades equations the transcoder cannot
	// express: instead of failing with a FormulaError, the equation is
	// emitted as its literal text content. Used for retry after a
	// transcoding failure.
	FormulaPlaceholders bool
}

// Package is an open word-processing OPC container. It provides access
// to the document parts, including embedded media, until closed.
type Package struct {
	path  string
	zr    *zip.ReadCloser
	parts map[string]*zip.File
}

// OpenPackage opens the file at path as a word-processing package.
// Legacy binary .doc files return ErrUnsupported; unreadable archives
// and packages missing the main document part return ErrMalformed.
func OpenPackage(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	magic := make([]byte, 8)
	n, _ := io.ReadFull(f, magic)
	f.Close()
	if bytes.HasPrefix(magic[:n], oleMagic) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
	}

	pkg := &Package{
		path:  path,
		zr:    zr,
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, zf := range zr.File {
		pkg.parts[zf.Name] = zf
	}
	if !pkg.HasPart(documentPart) {
		zr.Close()
		return nil, fmt.Errorf("%s: %w: missing %s", path, ErrMalformed, documentPart)
	}
	return pkg, nil
}

// Path returns the filesystem path the package was opened from.
func (p *Package) Path() string { return p.path }

// HasPart reports whether the named part exists in the package.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// Part returns the content of the named part.
func (p *Package) Part(name string) ([]byte, error) {
	zf, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", name, os.ErrNotExist)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// MediaParts returns the names of all parts under word/media/, sorted
// by the archive's own order.
func (p *Package) MediaParts() []string {
	var names []string
	for _, zf := range p.zr.File {
		if strings.HasPrefix(zf.Name, "word/media/") {
			names = append(names, zf.Name)
		}
	}
	return names
}

// Close releases the underlying archive.
func (p *Package) Close() error {
	return p.zr.Close()
}

// Parse opens, parses, and closes the document at path. Callers that
// also need package media should use OpenPackage and ParsePackage so
// the container stays open for extraction.
func Parse(path string, opts Options) (*model.Document, error) {
	pkg, err := OpenPackage(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()
	return ParsePackage(pkg, opts)
}

// ParsePackage parses the open package's main document into the
// content model.
func ParsePackage(pkg *Package, opts Options) (*model.Document, error) {
	data, err := pkg.Part(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var docXML documentXML
	if err := xml.Unmarshal(data, &docXML); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrMalformed, documentPart, err)
	}
	if docXML.Body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrMalformed, documentPart)
	}

	b := &builder{
		opts:     opts,
		rels:     loadRelationships(pkg),
		headings: loadHeadingStyles(pkg),
		numFmts:  loadNumbering(pkg),
	}
	return b.build(docXML.Body)
}

// loadRelationships maps relationship IDs to package part names.
// Relationship targets are relative to the word/ directory.
func loadRelationships(pkg *Package) map[string]string {
	rels := make(map[string]string)
	data, err := pkg.Part("word/_rels/document.xml.rels")
	if err != nil {
		return rels
	}
	var relsXML relationshipsXML
	if err := xml.Unmarshal(data, &relsXML); err != nil {
		return rels
	}
	for _, r := range relsXML.Relationships {
		target := strings.TrimPrefix(r.Target, "/")
		if !strings.HasPrefix(target, "word/") {
			target = path.Join("word", target)
		}
		rels[r.ID] = target
	}
	return rels
}

// loadHeadingStyles maps paragraph style IDs to heading levels 1-6.
// Built-in Heading1..Heading6 styles are recognized even without a
// styles part; styles.xml adds custom styles via their outline level
// or display name.
func loadHeadingStyles(pkg *Package) map[string]int {
	levels := make(map[string]int)
	for i := 1; i <= 6; i++ {
		levels[fmt.Sprintf("Heading%d", i)] = i
		levels[fmt.Sprintf("heading%d", i)] = i
	}

	data, err := pkg.Part("word/styles.xml")
	if err != nil {
		return levels
	}
	var styles stylesXML
	if err := xml.Unmarshal(data, &styles); err != nil {
		return levels
	}
	for _, s := range styles.Styles {
		if lvl, err := strconv.Atoi(s.PPr.OutlineLvl.Val); err == nil && lvl >= 0 && lvl < 6 {
			levels[s.StyleID] = lvl + 1
			continue
		}
		name := strings.ToLower(s.Name.Val)
		if rest, ok := strings.CutPrefix(name, "heading "); ok {
			if lvl, err := strconv.Atoi(rest); err == nil && lvl >= 1 && lvl <= 6 {
				levels[s.StyleID] = lvl
			}
		}
	}
	return levels
}

// loadNumbering maps numId → ilvl → numFmt from word/numbering.xml.
func loadNumbering(pkg *Package) map[string]map[int]string {
	fmts := make(map[string]map[int]string)
	data, err := pkg.Part("word/numbering.xml")
	if err != nil {
		return fmts
	}
	var numbering numberingXML
	if err := xml.Unmarshal(data, &numbering); err != nil {
		return fmts
	}

	abstract := make(map[string]map[int]string, len(numbering.AbstractNums))
	for _, an := range numbering.AbstractNums {
		levels := make(map[int]string, len(an.Levels))
		for _, lvl := range an.Levels {
			if i, err := strconv.Atoi(lvl.ILvl); err == nil {
				levels[i] = lvl.NumFmt.Val
			}
		}
		abstract[an.AbstractNumID] = levels
	}
	for _, num := range numbering.Nums {
		if levels, ok := abstract[num.AbstractNumID.Val]; ok {
			fmts[num.NumID] = levels
		}
	}
	return fmts
}
