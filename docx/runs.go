package docx

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/docforge/docmark/model"
)

// spanBuilder assembles inline spans from a sequence of runs. Bold and
// italic are OOXML toggle properties, so the builder tracks them as a
// stack of open formatting containers rather than descending a tree:
// when a run's toggles differ from the open set, containers are closed
// and opened to match, producing properly nested spans.
type spanBuilder struct {
	out   []model.Span
	stack []openSpan
}

// openSpan is one open formatting container.
type openSpan struct {
	kind    model.SpanType // SpanTypeBold or SpanTypeItalic
	content *[]model.Span
}

// target returns the span slice new leaves should be appended to.
func (sb *spanBuilder) target() *[]model.Span {
	if len(sb.stack) == 0 {
		return &sb.out
	}
	return sb.stack[len(sb.stack)-1].content
}

// add appends a leaf span at the current nesting level.
func (sb *spanBuilder) add(s model.Span) {
	t := sb.target()
	*t = append(*t, s)
}

// setState adjusts the open containers to match the run's toggles. The
// longest still-valid prefix of the stack is kept; everything past it
// is closed, then missing toggles open bold-outermost.
func (sb *spanBuilder) setState(bold, italic bool) {
	want := func(kind model.SpanType) bool {
		if kind == model.SpanTypeBold {
			return bold
		}
		return italic
	}

	keep := 0
	for keep < len(sb.stack) && want(sb.stack[keep].kind) {
		keep++
	}
	sb.stack = sb.stack[:keep]

	open := func(kind model.SpanType) bool {
		for _, o := range sb.stack {
			if o.kind == kind {
				return true
			}
		}
		return false
	}
	if bold && !open(model.SpanTypeBold) {
		b := &model.Bold{}
		sb.add(b)
		sb.stack = append(sb.stack, openSpan{kind: model.SpanTypeBold, content: &b.Content})
	}
	if italic && !open(model.SpanTypeItalic) {
		i := &model.Italic{}
		sb.add(i)
		sb.stack = append(sb.stack, openSpan{kind: model.SpanTypeItalic, content: &i.Content})
	}
}

// segment is one ordered piece of a paragraph's content: either a run
// of inline spans or a display equation. Exactly one field is set.
type segment struct {
	spans   []model.Span
	display *model.Formula
}

// buildSegments converts a paragraph's children into ordered segments,
// keeping display equations at their position among the surrounding
// inline content.
func (b *builder) buildSegments(children []paraChild) ([]segment, error) {
	var segs []segment
	sb := &spanBuilder{}
	flush := func() {
		if len(sb.out) > 0 {
			segs = append(segs, segment{spans: sb.out})
			sb = &spanBuilder{}
		}
	}

	for _, child := range children {
		switch {
		case child.Math != nil && child.MathBlock:
			latex, err := b.transcode(child.Math)
			if err != nil {
				return nil, err
			}
			flush()
			segs = append(segs, segment{display: &model.Formula{LaTeX: latex, Display: true}})

		case child.Math != nil:
			latex, err := b.transcode(child.Math)
			if err != nil {
				return nil, err
			}
			sb.setState(false, false)
			sb.add(&model.InlineFormula{LaTeX: latex})

		case child.Run != nil:
			if err := b.buildRun(sb, child.Run); err != nil {
				return nil, err
			}
		}
	}
	flush()
	return segs, nil
}

// flattenSegments joins segments into one span sequence for contexts
// that cannot hold block-level equations; displays degrade to inline.
func flattenSegments(segs []segment) []model.Span {
	var spans []model.Span
	for _, seg := range segs {
		if seg.display != nil {
			spans = append(spans, &model.InlineFormula{LaTeX: seg.display.LaTeX})
			continue
		}
		spans = append(spans, seg.spans...)
	}
	return spans
}

// transcode converts an equation subtree to LaTeX, degrading to the
// equation's literal text when placeholders are enabled.
func (b *builder) transcode(node *ommlNode) (string, error) {
	latex, err := transcodeOMML(node)
	if err != nil {
		var fe *FormulaError
		if b.opts.FormulaPlaceholders && errors.As(err, &fe) {
			return `\text{` + node.plainText() + `}`, nil
		}
		return "", err
	}
	return latex, nil
}

// buildRun appends one run's content to the span builder.
func (b *builder) buildRun(sb *spanBuilder, r *runXML) error {
	props := r.Properties
	code := isCodeRun(props)

	for _, atom := range r.Atoms {
		switch atom.Kind {
		case atomText:
			text := norm.NFC.String(atom.Text)
			if code {
				sb.setState(false, false)
				sb.add(&model.Code{Value: text})
				continue
			}
			sb.setState(props.Bold.On(), props.Italic.On())
			appendText(sb, text)

		case atomTab:
			sb.setState(props.Bold.On(), props.Italic.On())
			appendText(sb, " ")

		case atomBreak:
			// Page and column breaks have no inline representation.
			if atom.Break == "" || atom.Break == "textWrapping" {
				sb.setState(props.Bold.On(), props.Italic.On())
				appendText(sb, "\n")
			}

		case atomDrawing:
			dr := atom.Drawing.ref()
			if dr == nil || dr.Blip == nil {
				continue
			}
			part, ok := b.rels[dr.Blip.Embed]
			if !ok {
				continue
			}
			sb.setState(false, false)
			sb.add(&model.ImageRef{Ref: part})
		}
	}
	return nil
}

// appendText adds run text, splitting out Unicode math symbols as
// inline formulas and merging adjacent plain text.
func appendText(sb *spanBuilder, text string) {
	segs := mathSymbolRuns(text)
	if segs == nil {
		addText(sb, text)
		return
	}
	for _, seg := range segs {
		if seg.IsMath {
			sb.add(&model.InlineFormula{LaTeX: seg.LaTeX})
			continue
		}
		addText(sb, seg.Text)
	}
}

// addText appends plain text, extending a trailing Text span when one
// is already open at the current level.
func addText(sb *spanBuilder, text string) {
	t := sb.target()
	if n := len(*t); n > 0 {
		if last, ok := (*t)[n-1].(*model.Text); ok {
			last.Value += text
			return
		}
	}
	*t = append(*t, &model.Text{Value: text})
}

// isCodeRun reports whether run properties mark the text as inline
// code, either through a code character style or a monospace font.
func isCodeRun(props runPropsXML) bool {
	style := strings.ToLower(props.Style.Val)
	if style == "code" || style == "codechar" || style == "verbatimchar" ||
		strings.Contains(style, "sourcecode") {
		return true
	}
	return isMonospaceFont(props.Fonts.ASCII)
}
