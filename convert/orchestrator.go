// Package convert orchestrates document conversions: it selects between
// the external primary tool and the native fallback parser, runs batch
// jobs across a bounded worker pool, and writes output atomically.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/docforge/docmark/docx"
	"github.com/docforge/docmark/format"
	"github.com/docforge/docmark/markdown"
	"github.com/docforge/docmark/media"
	"github.com/docforge/docmark/pandoc"
)

// Options configures a Converter.
type Options struct {
	// Workers bounds batch concurrency. Zero or negative means one.
	Workers int
	// DisablePrimary skips the external tool entirely and converts
	// with the native parser only.
	DisablePrimary bool
	// PandocPath probes a specific binary instead of searching PATH.
	PandocPath string
}

// Converter runs conversions. The external tool is probed once per
// Converter and the result reused for its lifetime.
type Converter struct {
	opts Options

	probeOnce sync.Once
	tool      pandoc.Capability

	// Injection points for tests.
	probe      func(context.Context) pandoc.Capability
	runPrimary func(context.Context, pandoc.Capability, string, string) (*pandoc.Output, error)
}

// New creates a Converter.
func New(opts Options) *Converter {
	return &Converter{
		opts:       opts,
		probe:      pandoc.Probe,
		runPrimary: pandoc.Convert,
	}
}

// capability returns the cached probe result.
func (c *Converter) capability(ctx context.Context) pandoc.Capability {
	c.probeOnce.Do(func() {
		switch {
		case c.opts.DisablePrimary:
		case c.opts.PandocPath != "":
			c.tool = pandoc.ProbePath(ctx, c.opts.PandocPath)
		default:
			c.tool = c.probe(ctx)
		}
	})
	return c.tool
}

// Convert converts a single document to <outDir>/<basename>.md plus
// extracted images under <outDir>/images/. The primary tool runs first
// when available; any primary failure hands off to the fallback parser
// exactly once. The returned Result carries the failure when both
// strategies fail; the error return reports the same failure for
// callers that prefer error handling.
func (c *Converter) Convert(ctx context.Context, inputPath, outDir string) (Result, error) {
	j := newJob(inputPath)
	res := c.run(ctx, j, outDir)
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

func (c *Converter) run(ctx context.Context, j *job, outDir string) Result {
	j.Status = StatusSelectingStrategy

	if err := ctx.Err(); err != nil {
		return c.fail(j, classify(err))
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return c.fail(j, ioError(err))
	}

	// Legacy binary .doc fails fast: neither strategy reads it, so
	// there is no point invoking the external tool.
	f, err := format.Detect(j.Input)
	if err != nil {
		return c.fail(j, classify(fmt.Errorf("%w: %v", docx.ErrMalformed, err)))
	}
	if f == format.LegacyDoc {
		return c.fail(j, classify(fmt.Errorf("%s: %w", j.Input, docx.ErrUnsupported)))
	}

	tool := c.capability(ctx)
	if tool.Available {
		j.Status = StatusConverting
		j.Strategy = StrategyPrimary
		res, err := c.convertPrimary(ctx, tool, j, outDir)
		if err == nil {
			return res
		}
		if ctx.Err() != nil {
			return c.fail(j, classify(ctx.Err()))
		}
		// Unavailable or failed: hand off to the fallback, at most once.
		// Anything else (an output write failure) is terminal.
		var runErr *pandoc.RunError
		if !errors.Is(err, pandoc.ErrUnavailable) && !errors.As(err, &runErr) {
			return c.fail(j, classify(err))
		}
	}

	j.Status = StatusConverting
	j.Strategy = StrategyFallback
	res, err := c.convertFallback(ctx, j, outDir)
	if err != nil {
		return c.fail(j, classify(err))
	}
	return res
}

func (c *Converter) fail(j *job, convErr *Error) Result {
	j.Status = StatusFailed
	return Result{
		JobID:    j.ID,
		Input:    j.Input,
		Status:   StatusFailed,
		Strategy: j.Strategy,
		Err:      convErr,
	}
}

// convertPrimary runs the external tool and writes its normalized
// output.
func (c *Converter) convertPrimary(ctx context.Context, tool pandoc.Capability, j *job, outDir string) (Result, error) {
	out, err := c.runPrimary(ctx, tool, j.Input, outDir)
	if err != nil {
		return Result{}, err
	}

	outputPath, err := writeMarkdown(j.Input, outDir, out.Markdown)
	if err != nil {
		return Result{}, ioError(err)
	}
	j.Status = StatusSucceeded
	return Result{
		JobID:      j.ID,
		Input:      j.Input,
		Status:     StatusSucceeded,
		Strategy:   StrategyPrimary,
		OutputPath: outputPath,
		ImagePaths: out.ImagePaths,
	}, nil
}

// convertFallback parses the document natively, extracts media, renders
// markup, and writes the result. A formula transcoding failure retries
// the parse once in degraded mode.
func (c *Converter) convertFallback(ctx context.Context, j *job, outDir string) (Result, error) {
	pkg, err := docx.OpenPackage(j.Input)
	if err != nil {
		return Result{}, err
	}
	defer pkg.Close()

	degraded := false
	doc, err := docx.ParsePackage(pkg, docx.Options{})
	if err != nil {
		var formulaErr *docx.FormulaError
		if !errors.As(err, &formulaErr) {
			return Result{}, err
		}
		doc, err = docx.ParsePackage(pkg, docx.Options{FormulaPlaceholders: true})
		if err != nil {
			return Result{}, err
		}
		degraded = true
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	mediaPaths, err := media.Extract(pkg, doc, outDir)
	if err != nil {
		return Result{}, ioError(err)
	}
	markup, err := markdown.Render(doc, mediaPaths)
	if err != nil {
		return Result{}, err
	}
	outputPath, err := writeMarkdown(j.Input, outDir, markup)
	if err != nil {
		return Result{}, ioError(err)
	}

	imagePaths := make([]string, 0, len(mediaPaths))
	for _, p := range mediaPaths {
		imagePaths = append(imagePaths, p)
	}
	slices.Sort(imagePaths)

	j.Status = StatusSucceeded
	return Result{
		JobID:      j.ID,
		Input:      j.Input,
		Status:     StatusSucceeded,
		Strategy:   StrategyFallback,
		OutputPath: outputPath,
		ImagePaths: imagePaths,
		Degraded:   degraded,
	}, nil
}

// writeMarkdown writes content to <outDir>/<basename>.md through a
// temp file and rename, so a failed job never leaves a partial file.
func writeMarkdown(inputPath, outDir, content string) (string, error) {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".md"
	dest := filepath.Join(outDir, name)

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// ConvertBatch converts inputs independently across the worker pool.
// Results come back in input order regardless of completion order, and
// one job's failure never aborts the others. progress, when non-nil,
// is called synchronously after each job finishes. Cancelling ctx stops
// new jobs from starting; jobs never started are reported as failed
// with a cancellation cause.
func (c *Converter) ConvertBatch(ctx context.Context, inputs []string, outDir string, progress ProgressFunc) BatchReport {
	total := len(inputs)
	results := make([]Result, total)

	workers := c.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	type indexed struct {
		idx   int
		input string
	}
	jobs := make(chan indexed)

	var mu sync.Mutex
	completed := 0
	report := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil {
			progress(completed, total, res.Input)
		}
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				j := newJob(item.input)
				var res Result
				if ctx.Err() != nil {
					res = c.fail(j, classify(ctx.Err()))
				} else {
					res = c.run(ctx, j, outDir)
				}
				results[item.idx] = res
				report(res)
			}
		}()
	}

	for i, input := range inputs {
		jobs <- indexed{idx: i, input: input}
	}
	close(jobs)
	wg.Wait()

	return BatchReport{Results: results}
}
