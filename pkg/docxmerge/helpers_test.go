package docxmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// buildDOCXBytes creates a minimal DOCX archive whose body is the given
// WordprocessingML markup.
func buildDOCXBytes(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	rels, _ := w.Create("_rels/.rels")
	io.WriteString(rels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)

	wordRels, _ := w.Create("word/_rels/document.xml.rels")
	io.WriteString(wordRels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`)

	doc, _ := w.Create("word/document.xml")
	io.WriteString(doc, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+body+`</w:body></w:document>`)

	ct, _ := w.Create("[Content_Types].xml")
	io.WriteString(ct, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`)

	w.Close()
	return buf.Bytes()
}

func buildTemplate(t *testing.T, body string) *Template {
	t.Helper()
	tpl, err := ParseTemplate(buildDOCXBytes(body))
	require.NoError(t, err)
	return tpl
}

func para(text string) string {
	return "<w:p><w:r><w:t>" + text + "</w:t></w:r></w:p>"
}

// tableOf builds a table where each inner slice is a row of cell texts.
func tableOf(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc>" + para(cell) + "</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

func parseBody(t *testing.T, body string) *ooxml.Document {
	t.Helper()
	doc, err := buildTemplate(t, body).Instance()
	require.NoError(t, err)
	return doc
}

// writeWorkbook writes rows into the first sheet of a new xlsx file and
// returns its path.
func writeWorkbook(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &cells))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// primaryRows builds a minimal primary dataset: three label rows, the
// header row with the given labels plus KEY, then the data rows with the
// key appended.
func primaryRows(labels []string, data [][]string) [][]string {
	header := append(append([]string{}, labels...), "KEY")
	rows := [][]string{{}, {}, {}, header}
	for i, d := range data {
		rows = append(rows, append(append([]string{}, d...), fmt.Sprintf("K%d", i+1)))
	}
	return rows
}

// docText extracts all visible text from a generated DOCX file.
func docText(t *testing.T, path string) string {
	t.Helper()
	tpl, err := LoadTemplate(path)
	require.NoError(t, err)
	doc, err := tpl.Instance()
	require.NoError(t, err)

	var parts []string
	for _, p := range doc.Paragraphs() {
		parts = append(parts, p.GetText())
	}
	var walk func(tables []*ooxml.Table)
	walk = func(tables []*ooxml.Table) {
		for _, tbl := range tables {
			for _, row := range tbl.Rows {
				for _, cell := range row.Cells {
					parts = append(parts, cell.GetText())
					walk(cell.NestedTables())
				}
			}
		}
	}
	walk(doc.Tables())
	return strings.Join(parts, "\n")
}
