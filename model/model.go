package model

// BlockType identifies the variant of a Block node.
type BlockType int

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeHeading
	BlockTypeParagraph
	BlockTypeTable
	BlockTypeImage
	BlockTypeFormula
	BlockTypeList
)

func (bt BlockType) String() string {
	switch bt {
	case BlockTypeHeading:
		return "Heading"
	case BlockTypeParagraph:
		return "Paragraph"
	case BlockTypeTable:
		return "Table"
	case BlockTypeImage:
		return "Image"
	case BlockTypeFormula:
		return "Formula"
	case BlockTypeList:
		return "List"
	default:
		return "Unknown"
	}
}

// Block is the interface for all block-level document nodes.
type Block interface {
	Type() BlockType
}

// SpanType identifies the variant of a Span node.
type SpanType int

const (
	SpanTypeUnknown SpanType = iota
	SpanTypeText
	SpanTypeBold
	SpanTypeItalic
	SpanTypeCode
	SpanTypeInlineFormula
	SpanTypeImageRef
)

func (st SpanType) String() string {
	switch st {
	case SpanTypeText:
		return "Text"
	case SpanTypeBold:
		return "Bold"
	case SpanTypeItalic:
		return "Italic"
	case SpanTypeCode:
		return "Code"
	case SpanTypeInlineFormula:
		return "InlineFormula"
	case SpanTypeImageRef:
		return "ImageRef"
	default:
		return "Unknown"
	}
}

// Span is the interface for all inline nodes within a block.
type Span interface {
	Type() SpanType
}

// Document is an ordered sequence of block nodes.
type Document struct {
	Blocks []Block
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Append adds blocks to the end of the document.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// Heading is a section heading with level 1-6.
type Heading struct {
	Level   int
	Content []Span
}

func (h *Heading) Type() BlockType { return BlockTypeHeading }

// Paragraph is a block of inline content.
type Paragraph struct {
	Content []Span
}

func (p *Paragraph) Type() BlockType { return BlockTypeParagraph }

// Cell is one table cell's inline content. Text from multiple source
// paragraphs is joined with "\n"; renderers flatten the break.
type Cell struct {
	Content []Span
}

// Table is a grid of cells. Every row has exactly ColumnCount cells;
// irregular source rows are padded with empty cells at construction.
type Table struct {
	Rows        [][]Cell
	ColumnCount int
}

func (t *Table) Type() BlockType { return BlockTypeTable }

// NewTable builds a table from possibly ragged rows, padding each row
// with empty cells so all rows share the widest column count.
func NewTable(rows [][]Cell) *Table {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < cols {
			r = append(r, Cell{})
		}
		rows[i] = r
	}
	return &Table{Rows: rows, ColumnCount: cols}
}

// Image is a block-level embedded image. Ref is the package-internal
// part name the media extractor resolves to a written file. Width and
// Height are pixel dimensions when known, zero otherwise.
type Image struct {
	Ref    string
	Alt    string
	Width  int
	Height int
}

func (i *Image) Type() BlockType { return BlockTypeImage }

// Formula is a mathematical expression carried as LaTeX source. The
// LaTeX is never modified after extraction; renderers emit it
// byte-for-byte. Display selects block ($$) versus inline ($) layout.
type Formula struct {
	LaTeX   string
	Display bool
}

func (f *Formula) Type() BlockType { return BlockTypeFormula }

// List is an ordered or unordered list. Items are blocks: typically
// paragraphs, with nested List blocks for sub-lists.
type List struct {
	Ordered bool
	Items   []Block
}

func (l *List) Type() BlockType { return BlockTypeList }

// Text is a run of plain text.
type Text struct {
	Value string
}

func (t *Text) Type() SpanType { return SpanTypeText }

// Bold wraps inline content in strong emphasis.
type Bold struct {
	Content []Span
}

func (b *Bold) Type() SpanType { return SpanTypeBold }

// Italic wraps inline content in emphasis.
type Italic struct {
	Content []Span
}

func (i *Italic) Type() SpanType { return SpanTypeItalic }

// Code is a run of inline code.
type Code struct {
	Value string
}

func (c *Code) Type() SpanType { return SpanTypeCode }

// InlineFormula is an inline mathematical expression in LaTeX.
type InlineFormula struct {
	LaTeX string
}

func (f *InlineFormula) Type() SpanType { return SpanTypeInlineFormula }

// ImageRef is an inline reference to an embedded image part.
type ImageRef struct {
	Ref string
}

func (r *ImageRef) Type() SpanType { return SpanTypeImageRef }

// PlainText returns the concatenated text content of spans, descending
// into nested formatting. Formulas contribute their LaTeX source and
// image references contribute nothing.
func PlainText(spans []Span) string {
	var out string
	for _, s := range spans {
		switch v := s.(type) {
		case *Text:
			out += v.Value
		case *Code:
			out += v.Value
		case *Bold:
			out += PlainText(v.Content)
		case *Italic:
			out += PlainText(v.Content)
		case *InlineFormula:
			out += v.LaTeX
		}
	}
	return out
}
