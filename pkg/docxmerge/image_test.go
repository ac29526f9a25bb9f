package docxmerge

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// writePNG writes a solid-color PNG with the given dimensions and returns
// its path.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestResolveImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "photo.png", 2, 2)

	assert.Equal(t, filepath.Join(dir, "photo.png"), resolveImage(dir, "photo.png"), "verbatim name")
	assert.Equal(t, filepath.Join(dir, "photo.png"), resolveImage(dir, "photo"), "extension probed")
	assert.Equal(t, filepath.Join(dir, "photo.png"), resolveImage(dir, "photo.heic"), "wrong extension replaced")
	assert.Equal(t, "", resolveImage(dir, "absent"))
	assert.Equal(t, "", resolveImage(dir, "nan"), "missing-cell marker is not a filename")
	assert.Equal(t, "", resolveImage("", "photo.png"), "no folder configured")
}

func TestResolveImageProbeOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "shot.png", 2, 2)
	writePNG(t, dir, "shot.jpg", 2, 2)

	assert.Equal(t, filepath.Join(dir, "shot.png"), resolveImage(dir, "shot"),
		"png probed before jpg")
}

func TestAddImageKeepsAspectRatio(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "wide.png", 200, 100)

	c := &mediaCollector{}
	run, err := c.addImage(path, 2.0)
	require.NoError(t, err)
	require.NotNil(t, run)

	require.Len(t, c.files, 1)
	assert.Equal(t, "rIdImg1", c.files[0].RelID)
	assert.Equal(t, "image1.png", c.files[0].Name)

	drawing, ok := run.Children[0].(*ooxml.RawXML)
	require.True(t, ok)
	// 2.0in wide at a 2:1 source ratio: 1828800 x 914400 EMU.
	assert.Contains(t, drawing.Content, `cx="1828800"`)
	assert.Contains(t, drawing.Content, `cy="914400"`)
	assert.Contains(t, drawing.Content, `r:embed="rIdImg1"`)
}

func TestAddImageNumbersMediaSequentially(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 4, 4)
	b := writePNG(t, dir, "b.png", 4, 4)

	c := &mediaCollector{}
	_, err := c.addImage(a, 1.0)
	require.NoError(t, err)
	_, err = c.addImage(b, 1.0)
	require.NoError(t, err)

	require.Len(t, c.files, 2)
	assert.Equal(t, "rIdImg1", c.files[0].RelID)
	assert.Equal(t, "rIdImg2", c.files[1].RelID)
	assert.Equal(t, "image2.png", c.files[1].Name)
}

func TestAddImageMissingFile(t *testing.T) {
	c := &mediaCollector{}
	_, err := c.addImage(filepath.Join(t.TempDir(), "absent.png"), 1.0)
	assert.Error(t, err)
	assert.Empty(t, c.files)
}
