package docx

import "github.com/docforge/docmark/model"

// buildTable converts a decoded table into the content model. Cells
// holding several paragraphs get their content joined with a newline;
// the renderer flattens it to a line break. Ragged rows are padded at
// model construction.
func (b *builder) buildTable(t *tableXML) (*model.Table, error) {
	rows := make([][]model.Cell, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]model.Cell, 0, len(row.Cells))
		for _, cell := range row.Cells {
			c, err := b.buildCell(&cell)
			if err != nil {
				return nil, err
			}
			cells = append(cells, c)
		}
		rows = append(rows, cells)
	}
	return model.NewTable(rows), nil
}

// buildCell flattens a cell's paragraphs into one span sequence.
func (b *builder) buildCell(cell *tableCellXML) (model.Cell, error) {
	var content []model.Span
	for i := range cell.Paragraphs {
		segs, err := b.buildSegments(cell.Paragraphs[i].Children)
		if err != nil {
			return model.Cell{}, err
		}
		// Display equations inside cells degrade to inline.
		spans := flattenSegments(segs)
		if len(spans) == 0 {
			continue
		}
		if len(content) > 0 {
			content = append(content, &model.Text{Value: "\n"})
		}
		content = append(content, spans...)
	}
	return model.Cell{Content: content}, nil
}
