package docxmerge

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiveEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	entries := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = data
	}
	return entries
}

func TestGeneratorRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.docx")
	require.NoError(t, os.WriteFile(templatePath,
		buildDOCXBytes(para("Name: {name}")+para("Age: {age}")), 0o644))
	datasetPath := writeWorkbook(t, dir, "data.xlsx",
		primaryRows([]string{"name", "age"}, [][]string{{"Alice", "30"}, {"Bob", "40"}}))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	result, err := Generate(context.Background(), templatePath, datasetPath, nil, destDir, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.RowErrors)
	assert.Equal(t, filepath.Join(destDir, "Generated_Documents.zip"), result.ArchivePath)

	entries := archiveEntries(t, result.ArchivePath)
	require.Len(t, entries, 2)
	require.Contains(t, entries, "document_001.docx")
	require.Contains(t, entries, "document_002.docx")

	first := filepath.Join(dir, "first.docx")
	require.NoError(t, os.WriteFile(first, entries["document_001.docx"], 0o644))
	second := filepath.Join(dir, "second.docx")
	require.NoError(t, os.WriteFile(second, entries["document_002.docx"], 0o644))
	assert.Contains(t, docText(t, first), "Name: Alice")
	assert.Contains(t, docText(t, first), "Age: 30")
	assert.Contains(t, docText(t, second), "Name: Bob")
	assert.Contains(t, docText(t, second), "Age: 40")

	_, err = os.Stat(filepath.Join(destDir, tempDirName))
	assert.True(t, os.IsNotExist(err), "temp directory must be cleaned up")
}

func TestGeneratorProgressReaches100(t *testing.T) {
	dir := t.TempDir()
	rc := newTestContext(t, para("{name}"), []string{"name"}, [][]string{{"Alice"}}, nil)

	progress := make(chan ProgressEvent, 64)
	result, err := NewGenerator(rc).WithProgress(progress).Run(context.Background(), dir)
	close(progress)
	require.NoError(t, err)
	require.Equal(t, 1, result.Generated)

	var events []ProgressEvent
	for ev := range progress {
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, 100.0, last.Percent)
	prev := -1.0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Percent, prev, "progress never goes backwards")
		prev = ev.Percent
	}
}

func TestGeneratorRunNoDataRows(t *testing.T) {
	ds := &Dataset{Rows: primaryRows([]string{"name"}, nil)}
	rc, err := NewRenderContext(buildTemplate(t, para("{name}")), ds, nil, Options{})
	require.NoError(t, err)

	_, err = NewGenerator(rc).Run(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestGeneratorRunCancelledContext(t *testing.T) {
	rc := newTestContext(t, para("{name}"), []string{"name"},
		[][]string{{"Alice"}, {"Bob"}, {"Carol"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(rc).Run(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteArchiveFlattensPaths(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	file := filepath.Join(sub, "doc.docx")
	require.NoError(t, os.WriteFile(file, []byte("payload"), 0o644))

	archive := filepath.Join(dir, "out.zip")
	require.NoError(t, writeArchive(archive, []string{file}))

	entries := archiveEntries(t, archive)
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("payload"), entries["doc.docx"])
}
