package docxmerge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// emuPerInch is the OOXML English Metric Unit scale.
const emuPerInch = 914400

// imageExtensions is the probe order when the referenced filename does not
// exist verbatim.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp"}

// resolveImage finds an image file in dir by name: the verbatim name first,
// then the name with its extension stripped and each known extension tried
// in order. Returns "" when nothing matches.
func resolveImage(dir, name string) string {
	name = strings.TrimSpace(name)
	if dir == "" || name == "" || strings.EqualFold(name, "nan") {
		return ""
	}

	candidate := filepath.Join(dir, name)
	if fileExists(candidate) {
		return candidate
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range imageExtensions {
		candidate = filepath.Join(dir, base+ext)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// mediaCollector assigns relationship IDs and media filenames to the
// images one render job embeds. Each job owns its own collector, so the
// rIdImg numbering restarts per document and never collides with the
// template's own rId entries.
type mediaCollector struct {
	files    []MediaFile
	docPrSeq int
}

// addImage reads the file, registers it as a media part, and returns a run
// carrying the inline drawing at the given display width. The height keeps
// the source aspect ratio; formats Go cannot decode get a 4:3 fallback.
func (c *mediaCollector) addImage(path string, widthInches float64) (*ooxml.Run, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".png"
	}
	n := len(c.files) + 1
	media := MediaFile{
		RelID:   fmt.Sprintf("rIdImg%d", n),
		Name:    fmt.Sprintf("image%d%s", n, ext),
		Content: content,
	}
	c.files = append(c.files, media)
	c.docPrSeq++

	cx := int64(widthInches * emuPerInch)
	cy := cx * 3 / 4
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(content)); err == nil && cfg.Width > 0 {
		cy = cx * int64(cfg.Height) / int64(cfg.Width)
	}

	drawing := inlineDrawing(media.RelID, media.Name, c.docPrSeq, cx, cy)
	return &ooxml.Run{Children: []ooxml.RunChild{drawing}}, nil
}

// inlineDrawing builds the w:drawing markup for an inline picture. The
// DrawingML namespaces are declared locally so the markup stands on its
// own regardless of what the template's root element declares.
func inlineDrawing(relID, name string, docPrID int, cx, cy int64) *ooxml.RawXML {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		`<w:drawing><wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" distT="0" distB="0" distL="0" distR="0">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name="%s"/>`+
			`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
			`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`,
		cx, cy, docPrID, name, docPrID, name, relID, cx, cy)
	return &ooxml.RawXML{
		Name:    xml.Name{Local: "drawing"},
		Content: sb.String(),
	}
}
