// Package docmark converts Word documents to Markdown. It prefers the
// external pandoc tool when one is installed and falls back to a
// native parser when it is missing or fails, so conversion works the
// same either way.
//
// Single document:
//
//	res, err := docmark.Convert("report.docx", "out/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("wrote", res.OutputPath)
//
// Batch with progress:
//
//	report := docmark.ConvertBatch(files, "out/", func(done, total int, file string) {
//	    fmt.Printf("[%d/%d] %s\n", done, total, file)
//	})
//	fmt.Printf("%d succeeded, %d failed\n", report.Succeeded(), report.Failed())
//
// Output layout: <outputDir>/<basename>.md plus extracted images under
// <outputDir>/images/, named by content hash so re-running a conversion
// is idempotent.
package docmark

import (
	"context"
	"sync"

	"github.com/docforge/docmark/convert"
)

// Result reports one document's conversion outcome.
type Result = convert.Result

// BatchReport aggregates per-file results in input order.
type BatchReport = convert.BatchReport

// ProgressFunc receives a notification after each batch job finishes.
type ProgressFunc = convert.ProgressFunc

// Options configures conversion.
type Options = convert.Options

var (
	defaultOnce      sync.Once
	defaultConverter *convert.Converter
)

// shared returns the process-wide converter, so the external tool is
// probed once no matter how many conversions run.
func shared() *convert.Converter {
	defaultOnce.Do(func() {
		defaultConverter = convert.New(convert.Options{})
	})
	return defaultConverter
}

// Convert converts a single document, writing <outputDir>/<basename>.md
// and any extracted images.
func Convert(inputPath, outputDir string) (Result, error) {
	return shared().Convert(context.Background(), inputPath, outputDir)
}

// ConvertBatch converts documents independently; one failure never
// aborts the rest. progress may be nil.
func ConvertBatch(inputPaths []string, outputDir string, progress ProgressFunc) BatchReport {
	return shared().ConvertBatch(context.Background(), inputPaths, outputDir, progress)
}

// NewConverter returns a converter with explicit options for callers
// that need a worker pool size, cancellation, or fallback-only mode.
func NewConverter(opts Options) *convert.Converter {
	return convert.New(opts)
}
