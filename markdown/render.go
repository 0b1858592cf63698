// Package markdown serializes a content model into GitHub-flavored
// Markdown. Rendering is deterministic: the same model and media paths
// always produce byte-identical output.
package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docforge/docmark/model"
)

// DanglingRefError reports an image reference without a media mapping
// entry. The extractor is expected to run before the renderer, so this
// indicates a bug or a reference to a part missing from the package.
type DanglingRefError struct {
	Ref string
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("image reference %q has no extracted media path", e.Ref)
}

// Render serializes the document to Markdown. mediaPaths maps image
// part names to the relative paths the media extractor wrote them to.
// The output ends with exactly one trailing newline.
func Render(doc *model.Document, mediaPaths map[string]string) (string, error) {
	r := &renderer{paths: mediaPaths}
	for _, b := range doc.Blocks {
		if err := r.block(b, 0); err != nil {
			return "", err
		}
	}
	out := strings.TrimRight(r.sb.String(), "\n")
	if out == "" {
		return "\n", nil
	}
	return out + "\n", nil
}

type renderer struct {
	sb    strings.Builder
	paths map[string]string
}

func (r *renderer) block(b model.Block, indent int) error {
	switch v := b.(type) {
	case *model.Heading:
		content, err := r.inline(v.Content, false)
		if err != nil {
			return err
		}
		r.sb.WriteString(strings.Repeat("#", v.Level) + " " + content + "\n\n")

	case *model.Paragraph:
		content, err := r.inline(v.Content, false)
		if err != nil {
			return err
		}
		r.sb.WriteString(content + "\n\n")

	case *model.Formula:
		r.sb.WriteString("$$" + v.LaTeX + "$$\n\n")

	case *model.Image:
		path, ok := r.paths[v.Ref]
		if !ok {
			return &DanglingRefError{Ref: v.Ref}
		}
		r.sb.WriteString("![" + v.Alt + "](" + path + ")\n\n")

	case *model.Table:
		if err := r.table(v); err != nil {
			return err
		}

	case *model.List:
		if err := r.list(v, indent); err != nil {
			return err
		}
		if indent == 0 {
			r.sb.WriteString("\n")
		}
	}
	return nil
}

// table renders a pipe table. The first row serves as the header; the
// separator row repeats "---" ColumnCount times so every row, separator
// included, has the same cell count.
func (r *renderer) table(t *model.Table) error {
	if len(t.Rows) == 0 || t.ColumnCount == 0 {
		return nil
	}
	row := func(cells []model.Cell) error {
		r.sb.WriteString("|")
		for _, c := range cells {
			content, err := r.inline(c.Content, false)
			if err != nil {
				return err
			}
			r.sb.WriteString(" " + cellText(content) + " |")
		}
		r.sb.WriteString("\n")
		return nil
	}

	if err := row(t.Rows[0]); err != nil {
		return err
	}
	r.sb.WriteString("|" + strings.Repeat(" --- |", t.ColumnCount) + "\n")
	for _, cells := range t.Rows[1:] {
		if err := row(cells); err != nil {
			return err
		}
	}
	r.sb.WriteString("\n")
	return nil
}

// cellText flattens embedded line breaks to <br> and escapes pipes so
// cell content cannot break the table structure.
func cellText(s string) string {
	s = strings.ReplaceAll(s, "\n", "<br>")
	return strings.ReplaceAll(s, "|", `\|`)
}

// list renders items with two spaces of indentation per nesting level.
// Ordered items number from 1 at each level.
func (r *renderer) list(l *model.List, indent int) error {
	prefix := strings.Repeat("  ", indent)
	n := 0
	for _, item := range l.Items {
		if sub, ok := item.(*model.List); ok {
			if err := r.list(sub, indent+1); err != nil {
				return err
			}
			continue
		}
		n++
		marker := "- "
		if l.Ordered {
			marker = strconv.Itoa(n) + ". "
		}
		switch v := item.(type) {
		case *model.Paragraph:
			content, err := r.inline(v.Content, false)
			if err != nil {
				return err
			}
			r.sb.WriteString(prefix + marker + content + "\n")
		case *model.Formula:
			r.sb.WriteString(prefix + marker + "$" + v.LaTeX + "$\n")
		}
	}
	return nil
}

// inline renders spans to Markdown. Runs of whitespace in plain text
// collapse to single spaces; formula content is emitted byte-for-byte.
// The preserve flag disables collapsing for content already normalized.
func (r *renderer) inline(spans []model.Span, preserve bool) (string, error) {
	var sb strings.Builder
	for _, s := range spans {
		switch v := s.(type) {
		case *model.Text:
			if preserve {
				sb.WriteString(v.Value)
			} else {
				sb.WriteString(collapseSpaces(v.Value))
			}
		case *model.Bold:
			inner, err := r.inline(v.Content, preserve)
			if err != nil {
				return "", err
			}
			sb.WriteString("**" + inner + "**")
		case *model.Italic:
			inner, err := r.inline(v.Content, preserve)
			if err != nil {
				return "", err
			}
			sb.WriteString("*" + inner + "*")
		case *model.Code:
			sb.WriteString("`" + v.Value + "`")
		case *model.InlineFormula:
			sb.WriteString("$" + v.LaTeX + "$")
		case *model.ImageRef:
			path, ok := r.paths[v.Ref]
			if !ok {
				return "", &DanglingRefError{Ref: v.Ref}
			}
			sb.WriteString("![](" + path + ")")
		}
	}
	return sb.String(), nil
}

// collapseSpaces reduces each run of whitespace to a single space,
// keeping leading and trailing runs as single spaces too.
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var sb strings.Builder
	inSpace := false
	for _, c := range s {
		if c == ' ' || c == '\t' {
			inSpace = true
			continue
		}
		if inSpace {
			sb.WriteByte(' ')
			inSpace = false
		}
		sb.WriteRune(c)
	}
	if inSpace {
		sb.WriteByte(' ')
	}
	return sb.String()
}
