package model

import "testing"

func TestNewTable_PadsRaggedRows(t *testing.T) {
	rows := [][]Cell{
		{{Content: []Span{&Text{Value: "a"}}}, {Content: []Span{&Text{Value: "b"}}}, {Content: []Span{&Text{Value: "c"}}}},
		{{Content: []Span{&Text{Value: "d"}}}},
	}

	tbl := NewTable(rows)

	if tbl.ColumnCount != 3 {
		t.Fatalf("ColumnCount = %d, want 3", tbl.ColumnCount)
	}
	for i, row := range tbl.Rows {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row))
		}
	}
	if got := PlainText(tbl.Rows[1][1].Content); got != "" {
		t.Errorf("padded cell text = %q, want empty", got)
	}
}

func TestDocument_All_DepthFirst(t *testing.T) {
	doc := NewDocument()
	doc.Append(
		&Heading{Level: 1, Content: []Span{&Text{Value: "Title"}}},
		&List{Items: []Block{
			&Paragraph{Content: []Span{&Text{Value: "item"}}},
			&List{Ordered: true, Items: []Block{
				&Paragraph{Content: []Span{&Text{Value: "nested"}}},
			}},
		}},
	)

	var kinds []BlockType
	for b := range doc.All() {
		kinds = append(kinds, b.Type())
	}

	want := []BlockType{
		BlockTypeHeading,
		BlockTypeList,
		BlockTypeParagraph,
		BlockTypeList,
		BlockTypeParagraph,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d blocks, want %d (%v)", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("block %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestDocument_All_Restartable(t *testing.T) {
	doc := NewDocument()
	doc.Append(&Paragraph{}, &Paragraph{})

	seq := doc.All()
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Errorf("counts = %d, %d; want 2, 2", first, second)
	}
}

func TestDocument_All_EarlyStop(t *testing.T) {
	doc := NewDocument()
	doc.Append(&Paragraph{}, &List{Items: []Block{&Paragraph{}}}, &Paragraph{})

	count := 0
	for range doc.All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestInline_DescendsNesting(t *testing.T) {
	spans := []Span{
		&Text{Value: "plain "},
		&Bold{Content: []Span{
			&Italic{Content: []Span{&Text{Value: "both"}}},
		}},
	}

	var kinds []SpanType
	for s := range Inline(spans) {
		kinds = append(kinds, s.Type())
	}

	want := []SpanType{SpanTypeText, SpanTypeBold, SpanTypeItalic, SpanTypeText}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("span %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestPlainText(t *testing.T) {
	spans := []Span{
		&Text{Value: "x = "},
		&Bold{Content: []Span{&Text{Value: "2"}}},
		&InlineFormula{LaTeX: `\pi`},
		&ImageRef{Ref: "word/media/image1.png"},
	}
	if got := PlainText(spans); got != `x = 2\pi` {
		t.Errorf("PlainText = %q", got)
	}
}
