package docxmerge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		index    int
		expected string
	}{
		{
			"barangay and last name truncated",
			map[string]string{"pckg_brgy": "San Isidro", "resp_lname": "Dela Cruz Garcia III"},
			1,
			"San Isidro_Dela Cruz Garci_001.docx",
		},
		{
			"last name only",
			map[string]string{"resp_lname": "O'Neil/Smith"},
			2,
			"O'Neil_Smith_002.docx",
		},
		{
			"neither field",
			map[string]string{"name": "Alice"},
			3,
			"document_003.docx",
		},
		{
			"blank fields fall through",
			map[string]string{"pckg_brgy": "  ", "resp_lname": ""},
			12,
			"document_012.docx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveFilename(tt.values, tt.index))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, `a_b_c_d_e_f_g`, sanitizeFilename(`a<b>c:d"e\f|g`, 20))
	assert.Equal(t, "abcde", sanitizeFilename("abcdefgh", 5))
}

func newTestContext(t *testing.T, body string, labels []string, data [][]string, aux AuxiliaryIndex) *RenderContext {
	t.Helper()
	ds := &Dataset{Rows: primaryRows(labels, data), KeyColumn: len(labels)}
	rc, err := NewRenderContext(buildTemplate(t, body), ds, aux, Options{})
	require.NoError(t, err)
	return rc
}

func TestNewRenderContextPreconditions(t *testing.T) {
	ds := &Dataset{Rows: primaryRows([]string{"name"}, [][]string{{"Alice"}})}

	_, err := NewRenderContext(buildTemplate(t, para("no tokens here")), ds, nil, Options{})
	assert.ErrorIs(t, err, ErrNoPlaceholders)

	_, err = NewRenderContext(buildTemplate(t, para("{nowhere}")), ds, nil, Options{})
	assert.ErrorIs(t, err, ErrNoColumnMapping)
}

func TestRenderRowSubstitutesValues(t *testing.T) {
	rc := newTestContext(t,
		para("Name: {name}")+para("Age: {age}"),
		[]string{"name", "age"},
		[][]string{{"Alice", "30"}},
		nil,
	)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "document_001.docx", filepath.Base(path))

	text := docText(t, path)
	assert.Contains(t, text, "Name: Alice")
	assert.Contains(t, text, "Age: 30")
}

func TestRenderRowClearsUnmatchedPlaceholders(t *testing.T) {
	rc := newTestContext(t,
		para("{name} {unmapped_field}"),
		[]string{"name"},
		[][]string{{"Alice"}},
		nil,
	)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)

	text := docText(t, path)
	assert.Contains(t, text, "Alice")
	assert.NotContains(t, text, "{")
}

func TestRenderRowNoCrossRowContamination(t *testing.T) {
	rc := newTestContext(t,
		para("{name}"),
		[]string{"name"},
		[][]string{{"Alice"}, {"Bob"}},
		nil,
	)
	dir := t.TempDir()

	pathA, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: dir})
	require.NoError(t, err)
	pathB, err := rc.RenderRow(RenderJob{Index: 2, Row: rc.Dataset.DataRows()[1], OutputDir: dir})
	require.NoError(t, err)

	textA := docText(t, pathA)
	textB := docText(t, pathB)
	assert.Contains(t, textA, "Alice")
	assert.NotContains(t, textA, "Bob")
	assert.Contains(t, textB, "Bob")
	assert.NotContains(t, textB, "Alice")
}

func TestRenderRowInlinesRankedNeeds(t *testing.T) {
	rc := newTestContext(t,
		para("{bus_info_needs}"),
		[]string{"bus_info_needs", "bus_info_needs_o"},
		[][]string{{"A, B, Others, specify", "X"}},
		nil,
	)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)

	text := docText(t, path)
	assert.Contains(t, text, "A\nB\nOthers, specify: X")
}

func TestRenderRowRankedNeedsCompanionsWithoutPlaceholders(t *testing.T) {
	// The free-text companion and the reason columns feed the expansion
	// even though the template only carries the multiselect token itself.
	body := para("{bus_info_needs}") + tableOf(
		[]string{"What types of information would be helpful", "Rank", "Why"},
		[]string{"", "", ""},
		[]string{"stale", "stale", "stale"},
	)
	rc := newTestContext(t, body,
		[]string{"bus_info_needs", "bus_info_needs_o", "bus_info_needs_rank_reason1"},
		[][]string{{"A, Others, specify", "X", "ask me"}},
		nil,
	)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)

	text := docText(t, path)
	assert.Contains(t, text, "A\nOthers, specify: X")
	assert.Contains(t, text, "ask me")
	assert.NotContains(t, text, "stale")
}

func TestRenderRowPopulatesRostersAndIncomeSum(t *testing.T) {
	body := para("Respondent: {name}") +
		tableOf(
			[]string{"Labor Force Status", "", "", "", "", "", "", "", "", "", "", ""},
			[]string{"", "", "", "", "", "", "", "", "", "", "", ""},
			[]string{"", "", "", "", "", "", "", "", "", "", "", ""},
			[]string{"sample", "", "", "", "", "", "", "", "", "", "", ""},
		) +
		para("Total income: {hh_calc_total_sum}")
	aux := AuxiliaryIndex{
		"K1": {
			NewRecord([]string{"hh_labor_stat", "hh_calc_total_inc"}, []string{"Employed", "1500"}),
			NewRecord([]string{"hh_labor_stat", "hh_calc_total_inc"}, []string{"Self-employed", "500.5"}),
		},
	}
	rc := newTestContext(t, body, []string{"name"}, [][]string{{"Alice"}}, aux)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)

	text := docText(t, path)
	assert.Contains(t, text, "Employed")
	assert.Contains(t, text, "Self-employed")
	assert.Contains(t, text, "Total income: 2000.5")
	assert.NotContains(t, text, "sample", "stale roster rows are removed")
}

func TestRenderRowMissingKeyLeavesRostersAlone(t *testing.T) {
	body := para("{name}") + tableOf(
		[]string{"13.4 Trees"},
		[]string{"", "", "", "", ""},
	)
	aux := AuxiliaryIndex{"OTHER": {NewRecord([]string{"tree_type"}, []string{"Mango"})}}
	rc := newTestContext(t, body, []string{"name"}, [][]string{{"Alice"}}, aux)

	path, err := rc.RenderRow(RenderJob{Index: 1, Row: rc.Dataset.DataRows()[0], OutputDir: t.TempDir()})
	require.NoError(t, err)

	doc := docText(t, path)
	assert.NotContains(t, doc, "Mango")
}
