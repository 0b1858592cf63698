package model

import "iter"

// All returns a depth-first sequence of every block in the document,
// including blocks nested inside list items. The sequence is lazy,
// finite, and restartable.
func (d *Document) All() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		walkBlocks(d.Blocks, yield)
	}
}

func walkBlocks(blocks []Block, yield func(Block) bool) bool {
	for _, b := range blocks {
		if !yield(b) {
			return false
		}
		if l, ok := b.(*List); ok {
			if !walkBlocks(l.Items, yield) {
				return false
			}
		}
	}
	return true
}

// Inline returns a depth-first sequence of every span reachable from
// the given inline content, descending into nested formatting spans.
func Inline(spans []Span) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		walkSpans(spans, yield)
	}
}

func walkSpans(spans []Span, yield func(Span) bool) bool {
	for _, s := range spans {
		if !yield(s) {
			return false
		}
		switch v := s.(type) {
		case *Bold:
			if !walkSpans(v.Content, yield) {
				return false
			}
		case *Italic:
			if !walkSpans(v.Content, yield) {
				return false
			}
		}
	}
	return true
}
