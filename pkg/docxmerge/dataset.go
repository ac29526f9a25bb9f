package docxmerge

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// headerRowCount is the number of candidate column-label rows at the top of
// a dataset. The row after them (index 3) doubles as the definitive header
// row carrying the KEY / PARENT_KEY marker; data starts at index 4.
const (
	headerRowCount = 4
	dataStartRow   = 4
	keyMarker      = "KEY"
)

// Dataset is the primary workbook loaded into memory: rows of the first
// sheet, the resolved key column, and nothing else. All access is by row
// and column index so the column mapping stays stable across rows.
type Dataset struct {
	Path      string
	Rows      [][]string
	KeyColumn int
}

// LoadDataset reads the first sheet of the primary workbook and locates the
// KEY column in row 3 (trimmed, case-insensitive match). A missing KEY
// column is fatal.
func LoadDataset(path string) (*Dataset, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}

	keyCol := findMarkerColumn(rows, keyMarker)
	if keyCol < 0 {
		return nil, ErrMissingKeyColumn
	}

	return &Dataset{Path: path, Rows: rows, KeyColumn: keyCol}, nil
}

// DataRows returns the data portion of the dataset, row 4 onward.
func (ds *Dataset) DataRows() [][]string {
	if len(ds.Rows) <= dataStartRow {
		return nil
	}
	return ds.Rows[dataStartRow:]
}

// Cell returns the trimmed cell value at (row, col), or "" when the row is
// ragged. excelize trims trailing empty cells from GetRows output, so
// short rows are normal, not an error.
func (ds *Dataset) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, NewDatasetError(path, "failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewDatasetError(path, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, NewDatasetError(path, "failed to read sheet "+sheets[0], err)
	}
	return rows, nil
}

// findMarkerColumn scans row 3 for a cell equal to the marker after
// trimming, case-insensitively. Returns -1 when absent.
func findMarkerColumn(rows [][]string, marker string) int {
	if len(rows) <= 3 {
		return -1
	}
	for col, cell := range rows[3] {
		if strings.EqualFold(strings.TrimSpace(cell), marker) {
			return col
		}
	}
	return -1
}

// findHeaderColumn scans the header candidate rows top to bottom, left to
// right, for a cell whose trimmed text case-insensitively equals name.
// Returns -1 when absent.
func (ds *Dataset) findHeaderColumn(name string) int {
	searchRows := headerRowCount
	if len(ds.Rows) < searchRows {
		searchRows = len(ds.Rows)
	}
	for rowIdx := 0; rowIdx < searchRows; rowIdx++ {
		for colIdx, cell := range ds.Rows[rowIdx] {
			if strings.EqualFold(strings.TrimSpace(cell), name) {
				return colIdx
			}
		}
	}
	return -1
}

// ColumnMapping maps a placeholder name to its dataset column index.
// Built once per run and treated as read-only afterwards.
type ColumnMapping map[string]int

// BuildColumnMapping resolves each placeholder to a column: rows 0..3 are
// scanned top to bottom, left to right, and the first cell whose trimmed
// text case-insensitively equals the placeholder name wins. Placeholders
// with no match are dropped with a warning.
func BuildColumnMapping(placeholders PlaceholderSet, ds *Dataset) ColumnMapping {
	mapping := make(ColumnMapping)
	for _, placeholder := range placeholders.Names() {
		if col := ds.findHeaderColumn(placeholder); col >= 0 {
			mapping[placeholder] = col
		} else {
			log().Warn("placeholder not found in any of the first 4 rows",
				zap.String("placeholder", placeholder))
		}
	}
	return mapping
}
