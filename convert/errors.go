package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/docforge/docmark/docx"
	"github.com/docforge/docmark/markdown"
	"github.com/docforge/docmark/pandoc"
)

// Kind classifies a conversion failure for reporting.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPrimaryUnavailable and KindPrimaryConversion never surface in
	// results; they trigger the fallback handoff internally.
	KindPrimaryUnavailable
	KindPrimaryConversion
	KindMalformedDocument
	KindUnsupportedDocument
	KindFormulaTranscode
	KindIOWrite
	KindDanglingImageRef
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindPrimaryUnavailable:
		return "primary unavailable"
	case KindPrimaryConversion:
		return "primary conversion failed"
	case KindMalformedDocument:
		return "malformed document"
	case KindUnsupportedDocument:
		return "unsupported document"
	case KindFormulaTranscode:
		return "formula transcoding failed"
	case KindIOWrite:
		return "output write failed"
	case KindDanglingImageRef:
		return "dangling image reference"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// Error is a classified, job-terminal conversion failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify wraps err with the matching failure kind.
func classify(err error) *Error {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr
	}

	kind := KindUnknown
	var formulaErr *docx.FormulaError
	var danglingErr *markdown.DanglingRefError
	var runErr *pandoc.RunError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCancelled
	case errors.Is(err, docx.ErrUnsupported):
		kind = KindUnsupportedDocument
	case errors.Is(err, docx.ErrMalformed):
		kind = KindMalformedDocument
	case errors.As(err, &formulaErr):
		kind = KindFormulaTranscode
	case errors.As(err, &danglingErr):
		kind = KindDanglingImageRef
	case errors.Is(err, pandoc.ErrUnavailable):
		kind = KindPrimaryUnavailable
	case errors.As(err, &runErr):
		kind = KindPrimaryConversion
	}
	return &Error{Kind: kind, Err: err}
}

// ioError wraps a filesystem failure during output writing.
func ioError(err error) *Error {
	return &Error{Kind: KindIOWrite, Err: err}
}
