package docx

import (
	"strconv"

	"github.com/docforge/docmark/model"
)

// buildList consumes the run of consecutive list paragraphs at the
// start of elements and builds a possibly nested list block. It returns
// the list and the number of body elements consumed.
//
// Nesting follows w:ilvl: a deeper level opens a sublist appended to
// the current level's items, matching how word processors indent.
func (b *builder) buildList(elements []bodyElement) (*model.List, int, error) {
	consumed := 0
	for consumed < len(elements) {
		el := elements[consumed]
		if el.Paragraph == nil || !b.isListParagraph(el.Paragraph) {
			break
		}
		consumed++
	}

	root := &model.List{}
	// stack[i] is the open list at indent level i.
	stack := []*model.List{root}
	rootSet := false

	for _, el := range elements[:consumed] {
		p := el.Paragraph
		lvl := listLevel(p)
		ordered := b.isOrdered(p)

		if !rootSet {
			root.Ordered = ordered
			rootSet = true
		}

		// Close levels deeper than this item.
		if lvl < len(stack)-1 {
			stack = stack[:lvl+1]
		}
		// Open intermediate levels as needed.
		for lvl > len(stack)-1 {
			sub := &model.List{Ordered: ordered}
			parent := stack[len(stack)-1]
			parent.Items = append(parent.Items, sub)
			stack = append(stack, sub)
		}

		segs, err := b.buildSegments(p.Children)
		if err != nil {
			return nil, 0, err
		}
		cur := stack[len(stack)-1]
		for _, seg := range segs {
			if seg.display != nil {
				cur.Items = append(cur.Items, seg.display)
				continue
			}
			cur.Items = append(cur.Items, &model.Paragraph{Content: seg.spans})
		}
	}
	return root, consumed, nil
}

// listLevel returns the paragraph's indent level, 0 when unspecified.
func listLevel(p *paragraphXML) int {
	lvl, err := strconv.Atoi(p.Properties.NumPr.ILvl.Val)
	if err != nil || lvl < 0 {
		return 0
	}
	return lvl
}

// isOrdered reports whether the paragraph's numbering definition uses a
// numbered format. Bullet formats and unknown numIds are unordered.
func (b *builder) isOrdered(p *paragraphXML) bool {
	levels, ok := b.numFmts[p.Properties.NumPr.NumID.Val]
	if !ok {
		return false
	}
	numFmt, ok := levels[listLevel(p)]
	if !ok {
		// Undefined deeper levels inherit level 0's format.
		numFmt = levels[0]
	}
	switch numFmt {
	case "bullet", "none", "":
		return false
	}
	return true
}
