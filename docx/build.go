package docx

import (
	"strconv"

	"github.com/docforge/docmark/model"
)

// builder assembles the content model from decoded body XML. It holds
// the package-level lookup tables resolved before the walk starts.
type builder struct {
	opts     Options
	rels     map[string]string         // rId → part name
	headings map[string]int            // style ID → heading level
	numFmts  map[string]map[int]string // numId → ilvl → numFmt
}

// build walks body elements in document order, grouping consecutive
// list paragraphs into list blocks.
func (b *builder) build(body *bodyXML) (*model.Document, error) {
	doc := model.NewDocument()

	i := 0
	for i < len(body.Elements) {
		el := body.Elements[i]

		if el.Table != nil {
			tbl, err := b.buildTable(el.Table)
			if err != nil {
				return nil, err
			}
			doc.Append(tbl)
			i++
			continue
		}

		p := el.Paragraph
		if b.isListParagraph(p) {
			list, consumed, err := b.buildList(body.Elements[i:])
			if err != nil {
				return nil, err
			}
			doc.Append(list)
			i += consumed
			continue
		}

		blocks, err := b.buildParagraph(p)
		if err != nil {
			return nil, err
		}
		doc.Append(blocks...)
		i++
	}
	return doc, nil
}

// isListParagraph reports whether p carries numbering properties.
func (b *builder) isListParagraph(p *paragraphXML) bool {
	id := p.Properties.NumPr.NumID.Val
	return id != "" && id != "0"
}

// buildParagraph converts one paragraph into zero or more blocks. A
// paragraph whose sole content is a display equation becomes a Formula
// block and one holding a single image becomes an Image block; empty
// paragraphs produce nothing. Display equations keep their position
// among the paragraph's text, splitting it around them.
func (b *builder) buildParagraph(p *paragraphXML) ([]model.Block, error) {
	segs, err := b.buildSegments(p.Children)
	if err != nil {
		return nil, err
	}

	// Lone image.
	if len(segs) == 1 && segs[0].display == nil {
		if img := soleImage(p, segs[0].spans); img != nil {
			return []model.Block{img}, nil
		}
	}

	var blocks []model.Block
	for _, seg := range segs {
		if seg.display != nil {
			blocks = append(blocks, seg.display)
			continue
		}
		if lvl, ok := b.headingLevel(p); ok {
			blocks = append(blocks, &model.Heading{Level: lvl, Content: seg.spans})
		} else {
			blocks = append(blocks, &model.Paragraph{Content: seg.spans})
		}
	}
	return blocks, nil
}

// headingLevel resolves a paragraph's heading level from its style or
// explicit outline level.
func (b *builder) headingLevel(p *paragraphXML) (int, bool) {
	if lvl, ok := b.headings[p.Properties.Style.Val]; ok {
		return lvl, true
	}
	if v := p.Properties.OutlineLvl.Val; v != "" {
		if lvl, err := strconv.Atoi(v); err == nil && lvl >= 0 && lvl < 6 {
			return lvl + 1, true
		}
	}
	return 0, false
}

// soleImage returns a block-level Image when the paragraph's only
// rendered content is a single image reference.
func soleImage(p *paragraphXML, spans []model.Span) *model.Image {
	if len(spans) != 1 {
		return nil
	}
	ref, ok := spans[0].(*model.ImageRef)
	if !ok {
		return nil
	}
	img := &model.Image{Ref: ref.Ref}
	for _, child := range p.Children {
		if child.Run == nil {
			continue
		}
		for _, atom := range child.Run.Atoms {
			if atom.Kind != atomDrawing {
				continue
			}
			if dr := atom.Drawing.ref(); dr != nil {
				img.Alt = dr.DocPr.Descr
				if img.Alt == "" {
					img.Alt = dr.DocPr.Name
				}
				img.Width, img.Height = dr.pixelSize()
			}
		}
	}
	return img
}

// ref returns whichever placement variant the drawing uses.
func (d *drawingXML) ref() *drawingRefXML {
	if d.Inline != nil {
		return d.Inline
	}
	return d.Anchor
}

// emuPerPixel converts English Metric Units to CSS pixels at 96 DPI.
const emuPerPixel = 9525

// pixelSize converts the drawing extent from EMUs to pixels.
func (d *drawingRefXML) pixelSize() (w, h int) {
	cx, _ := strconv.Atoi(d.Extent.CX)
	cy, _ := strconv.Atoi(d.Extent.CY)
	return cx / emuPerPixel, cy / emuPerPixel
}
