package ooxml

import (
	"encoding/xml"
	"strings"
)

// CellBlock is any block-level element that can appear inside a table cell.
type CellBlock interface {
	isCellBlock()
}

// Table represents a w:tbl element. Properties and the column grid stay raw.
type Table struct {
	Properties *RawXML
	Grid       *RawXML
	Rows       []*TableRow
}

func (t *Table) isBodyElement() {}
func (t *Table) isCellBlock() {}

// TableRow represents a w:tr element.
type TableRow struct {
	Properties *RawXML
	Cells      []*TableCell

	// Extras holds non-cell children such as w:tblPrEx, in document order
	// before the cells.
	Extras []*RawXML
}

// TableCell represents a w:tc element. Blocks keeps paragraphs and nested
// tables in order.
type TableCell struct {
	Properties *RawXML
	Blocks     []CellBlock
}

func parseTable(d *xml.Decoder, start xml.StartElement) (*Table, error) {
	tbl := &Table{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Properties = raw
			case "tblGrid":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Grid = raw
			case "tr":
				row, err := parseTableRow(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Rows = append(tbl.Rows, row)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return tbl, nil
			}
		}
	}
}

func parseTableRow(d *xml.Decoder, start xml.StartElement) (*TableRow, error) {
	row := &TableRow{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				row.Properties = raw
			case "tc":
				cell, err := parseTableCell(d, t)
				if err != nil {
					return nil, err
				}
				row.Cells = append(row.Cells, cell)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				row.Extras = append(row.Extras, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, nil
			}
		}
	}
}

func parseTableCell(d *xml.Decoder, start xml.StartElement) (*TableCell, error) {
	cell := &TableCell{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				cell.Properties = raw
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, err
				}
				cell.Blocks = append(cell.Blocks, para)
			case "tbl":
				nested, err := parseTable(d, t)
				if err != nil {
					return nil, err
				}
				cell.Blocks = append(cell.Blocks, nested)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				cell.Blocks = append(cell.Blocks, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return cell, nil
			}
		}
	}
}

func (t *Table) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:tbl>")
	if t.Properties != nil {
		t.Properties.writeXML(sb)
	}
	if t.Grid != nil {
		t.Grid.writeXML(sb)
	}
	for _, row := range t.Rows {
		row.writeXML(sb)
	}
	sb.WriteString("</w:tbl>")
}

func (row *TableRow) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:tr>")
	if row.Properties != nil {
		row.Properties.writeXML(sb)
	}
	for _, extra := range row.Extras {
		extra.writeXML(sb)
	}
	for _, cell := range row.Cells {
		cell.writeXML(sb)
	}
	sb.WriteString("</w:tr>")
}

func (c *TableCell) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:tc>")
	if c.Properties != nil {
		c.Properties.writeXML(sb)
	}
	wroteBlock := false
	for _, block := range c.Blocks {
		switch b := block.(type) {
		case *Paragraph:
			b.writeXML(sb)
			wroteBlock = true
		case *Table:
			b.writeXML(sb)
			wroteBlock = true
		case *RawXML:
			b.writeXML(sb)
			wroteBlock = true
		}
	}
	// A cell must end with at least one paragraph or Word rejects the file.
	if !wroteBlock {
		sb.WriteString("<w:p/>")
	}
	sb.WriteString("</w:tc>")
}

// Paragraphs returns the cell's own paragraphs, excluding nested tables.
func (c *TableCell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, block := range c.Blocks {
		if p, ok := block.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// NestedTables returns the tables nested directly inside the cell.
func (c *TableCell) NestedTables() []*Table {
	var out []*Table
	for _, block := range c.Blocks {
		if t, ok := block.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// GetText returns the cell's visible text, paragraphs joined by newlines.
// Nested table content is excluded.
func (c *TableCell) GetText() string {
	paras := c.Paragraphs()
	parts := make([]string, 0, len(paras))
	for _, p := range paras {
		parts = append(parts, p.GetText())
	}
	return strings.Join(parts, "\n")
}

// SetText replaces the cell's content with a single paragraph holding the
// given text. The formatting of the first existing paragraph and its first
// run is kept so populated cells match the template's styling.
func (c *TableCell) SetText(text string) {
	var para *Paragraph
	if paras := c.Paragraphs(); len(paras) > 0 {
		para = paras[0]
	} else {
		para = &Paragraph{}
	}
	para.SetText(text)
	c.Blocks = []CellBlock{para}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Properties: cloneRaw(t.Properties),
		Grid:       cloneRaw(t.Grid),
	}
	for _, row := range t.Rows {
		c.Rows = append(c.Rows, row.Clone())
	}
	return c
}

// Clone returns a deep copy of the row, template styling included. Cloned
// rows are how populated tables grow one row per record.
func (row *TableRow) Clone() *TableRow {
	c := &TableRow{Properties: cloneRaw(row.Properties)}
	for _, extra := range row.Extras {
		c.Extras = append(c.Extras, cloneRaw(extra))
	}
	for _, cell := range row.Cells {
		c.Cells = append(c.Cells, cell.Clone())
	}
	return c
}

// Clone returns a deep copy of the cell.
func (c *TableCell) Clone() *TableCell {
	cc := &TableCell{Properties: cloneRaw(c.Properties)}
	for _, block := range c.Blocks {
		switch b := block.(type) {
		case *Paragraph:
			cc.Blocks = append(cc.Blocks, b.Clone())
		case *Table:
			cc.Blocks = append(cc.Blocks, b.Clone())
		case *RawXML:
			cc.Blocks = append(cc.Blocks, cloneRaw(b))
		}
	}
	return cc
}
