// Package pandoc adapts the external pandoc tool as the primary
// conversion strategy. The adapter probes for the binary once, invokes
// it with a fixed argument set, and normalizes the output so callers
// cannot tell whether a document was converted by pandoc or by the
// native fallback parser.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docforge/docmark/media"
)

// ErrUnavailable indicates the pandoc binary was not found. The caller
// falls back to the native parser.
var ErrUnavailable = errors.New("pandoc not available")

// RunError reports a pandoc invocation that started but failed. The
// caller falls back to the native parser.
type RunError struct {
	ExitCode int
	Stderr   string
}

func (e *RunError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("pandoc exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("pandoc exited with code %d: %s", e.ExitCode, detail)
}

// Capability is the result of probing for the tool. A zero Capability
// means unavailable.
type Capability struct {
	Available bool
	Path      string
	Version   string
}

// Probe locates the pandoc binary and reads its version. The probe
// runs the binary rather than only checking PATH so a broken install
// is detected up front. Callers should probe once per process and
// reuse the result.
func Probe(ctx context.Context) Capability {
	bin, err := exec.LookPath("pandoc")
	if err != nil {
		return Capability{}
	}
	return ProbePath(ctx, bin)
}

// ProbePath probes a specific binary instead of searching PATH, for
// installs outside the search path.
func ProbePath(ctx context.Context, bin string) Capability {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return Capability{}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	version := strings.TrimPrefix(strings.TrimSpace(line), "pandoc ")
	return Capability{Available: true, Path: bin, Version: version}
}

// Output is a normalized conversion result.
type Output struct {
	Markdown   string
	ImagePaths []string // relative paths under the output directory
}

// Convert runs pandoc on the input document and normalizes the result:
// extracted media is re-hashed into content-addressed names under
// outDir/images/ and the markup's references are rewritten to match.
// The context cancels the external process.
func Convert(ctx context.Context, tool Capability, inputPath, outDir string) (*Output, error) {
	if !tool.Available {
		return nil, ErrUnavailable
	}

	mediaTmp, err := os.MkdirTemp("", "docmark-media-*")
	if err != nil {
		return nil, fmt.Errorf("creating media staging directory: %w", err)
	}
	defer os.RemoveAll(mediaTmp)

	args := []string{
		inputPath,
		"-f", "docx",
		"-t", "gfm+tex_math_dollars+pipe_tables",
		"--wrap=none",
		"--extract-media=" + mediaTmp,
	}
	cmd := exec.CommandContext(ctx, tool.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &RunError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, &RunError{ExitCode: -1, Stderr: err.Error()}
	}

	return normalize(stdout.String(), mediaTmp, outDir)
}

// mediaRefPattern matches image destinations pointing into the staging
// directory, as pandoc writes them: (path) in inline images.
var mediaRefPattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// htmlSrcPattern matches the src attribute of raw HTML img tags, which
// pandoc emits instead of inline images when a picture carries explicit
// sizing.
var htmlSrcPattern = regexp.MustCompile(`(<img\b[^>]*\bsrc=")([^"]+)(")`)

// normalize rewrites pandoc's output to the engine's conventions:
// staged media files move to outDir/images/ under content-hashed names,
// image links are rewritten to the new relative paths, and the text is
// trimmed to exactly one trailing newline.
func normalize(markup, mediaTmp, outDir string) (*Output, error) {
	renames := make(map[string]string) // original link target → new relative path
	var imagePaths []string

	staged, err := stagedFiles(mediaTmp)
	if err != nil {
		return nil, err
	}
	if len(staged) > 0 {
		imagesDir := filepath.Join(outDir, media.Subdir)
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating media directory: %w", err)
		}
		for _, file := range staged {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("reading staged media: %w", err)
			}
			name := media.StableName(data, filepath.Ext(file))
			rel := path.Join(media.Subdir, name)
			dest := filepath.Join(imagesDir, name)
			if _, err := os.Stat(dest); os.IsNotExist(err) {
				if err := os.WriteFile(dest, data, 0o644); err != nil {
					return nil, fmt.Errorf("writing media file: %w", err)
				}
			}
			renames[file] = rel
			renames[filepath.ToSlash(file)] = rel
			imagePaths = append(imagePaths, rel)
		}
	}

	markup = mediaRefPattern.ReplaceAllStringFunc(markup, func(m string) string {
		sub := mediaRefPattern.FindStringSubmatch(m)
		alt, target := sub[1], sub[2]
		if rel, ok := renames[target]; ok {
			return "![" + alt + "](" + rel + ")"
		}
		return m
	})

	markup = htmlSrcPattern.ReplaceAllStringFunc(markup, func(m string) string {
		sub := htmlSrcPattern.FindStringSubmatch(m)
		if rel, ok := renames[sub[2]]; ok {
			return sub[1] + rel + sub[3]
		}
		return m
	})

	markup = strings.TrimRight(strings.TrimLeft(markup, "\n"), "\n") + "\n"
	return &Output{Markdown: markup, ImagePaths: imagePaths}, nil
}

// stagedFiles lists every file pandoc wrote under the staging
// directory, in stable order.
func stagedFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing staged media: %w", err)
	}
	return files, nil
}
