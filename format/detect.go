// Package format provides input file format detection for the docmark engine.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a detected input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates an Office Open XML word-processing document.
	DOCX
	// LegacyDoc indicates the legacy binary Word format (.doc, OLE
	// compound file). The fallback parser does not handle it; detection
	// exists so the caller can report a clear, non-retryable reason.
	LegacyDoc
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case LegacyDoc:
		return "DOC (legacy binary)"
	default:
		return "Unknown"
	}
}

// zipMagic is the local-file-header signature of a ZIP archive.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// oleMagic is the OLE compound-file signature used by legacy .doc files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// DetectExt determines the format from the filename extension alone.
func DetectExt(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return DOCX
	case ".doc":
		return LegacyDoc
	default:
		return Unknown
	}
}

// Detect inspects the file's content to determine its format. Content
// detection is authoritative: a .docx extension on an OLE file still
// reports LegacyDoc.
func Detect(filename string) (Format, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Unknown, err
	}
	return DetectFromReader(f, info.Size())
}

// DetectFromReader inspects content to determine format. A ZIP archive
// is only reported as DOCX when it contains the word/ part tree.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 8)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, oleMagic) {
		return LegacyDoc, nil
	}
	if bytes.HasPrefix(magic, zipMagic) {
		return detectZIPFormat(r, size)
	}
	return Unknown, nil
}

// detectZIPFormat checks a ZIP archive for word-processing content.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/") {
			return DOCX, nil
		}
	}
	return Unknown, nil
}
