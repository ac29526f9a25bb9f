package docxmerge

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// Relationship represents a relationship in the DOCX package.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

const imageRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

// Word requires standalone="yes" in part headers.
const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// ContentTypes represents [Content_Types].xml.
type ContentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []ContentTypeDefault  `xml:"Default"`
	Overrides []ContentTypeOverride `xml:"Override"`
}

// ContentTypeDefault maps a file extension to a content type.
type ContentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypeOverride maps a single part to a content type.
type ContentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// MediaFile is an image added to a generated document's media folder.
type MediaFile struct {
	RelID   string
	Name    string
	Content []byte
}

// Template is a loaded DOCX template. All package parts are held in memory;
// each render job parses its own private Document from the stored
// word/document.xml so concurrent jobs never share mutable state.
type Template struct {
	path      string
	partNames []string
	parts     map[string][]byte
}

// LoadTemplate reads a DOCX template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewTemplateError(path, "failed to read file", err)
	}
	t, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}
	t.path = path
	return t, nil
}

// ParseTemplate reads a DOCX template from a byte slice.
func ParseTemplate(data []byte) (*Template, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewTemplateError("", "failed to read zip archive", err)
	}

	t := &Template{parts: make(map[string][]byte)}
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, NewTemplateError(file.Name, "failed to open part", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, NewTemplateError(file.Name, "failed to read part", err)
		}
		t.partNames = append(t.partNames, file.Name)
		t.parts[file.Name] = content
	}

	if _, ok := t.parts["word/document.xml"]; !ok {
		return nil, NewTemplateError("", "not a valid DOCX file: missing word/document.xml", nil)
	}
	return t, nil
}

// Path returns the file path the template was loaded from, if any.
func (t *Template) Path() string {
	return t.path
}

// Instance parses a fresh, independent document tree from the template.
func (t *Template) Instance() (*ooxml.Document, error) {
	doc, err := ooxml.ParseDocument(bytes.NewReader(t.parts["word/document.xml"]))
	if err != nil {
		return nil, NewTemplateError(t.path, "failed to parse word/document.xml", err)
	}
	return doc, nil
}

// WriteDocument writes a rendered document to path, swapping in the new
// document.xml and appending any media the render produced, with matching
// relationship and content-type entries.
func (t *Template) WriteDocument(path string, doc *ooxml.Document, media []MediaFile) error {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, name := range t.partNames {
		var content []byte
		switch {
		case name == "word/document.xml":
			content = doc.Marshal()
		case name == "word/_rels/document.xml.rels" && len(media) > 0:
			updated, err := t.relationshipsWithMedia(media)
			if err != nil {
				return err
			}
			content = updated
		case name == "[Content_Types].xml" && len(media) > 0:
			updated, err := t.contentTypesWithMedia(media)
			if err != nil {
				return err
			}
			content = updated
		default:
			content = t.parts[name]
		}

		fw, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	for _, m := range media {
		fw, err := w.Create("word/media/" + m.Name)
		if err != nil {
			return fmt.Errorf("failed to create media file %s: %w", m.Name, err)
		}
		if _, err := fw.Write(m.Content); err != nil {
			return fmt.Errorf("failed to write media file %s: %w", m.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize document archive: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (t *Template) relationshipsWithMedia(media []MediaFile) ([]byte, error) {
	rels := &Relationships{
		Namespace: "http://schemas.openxmlformats.org/package/2006/relationships",
	}
	if existing, ok := t.parts["word/_rels/document.xml.rels"]; ok {
		if err := xml.Unmarshal(existing, rels); err != nil {
			return nil, fmt.Errorf("failed to parse document.xml.rels: %w", err)
		}
	}
	for _, m := range media {
		rels.Relationship = append(rels.Relationship, Relationship{
			ID:     m.RelID,
			Type:   imageRelationshipType,
			Target: "media/" + m.Name,
		})
	}

	output, err := xml.Marshal(rels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relationships: %w", err)
	}
	return append([]byte(xmlHeader), output...), nil
}

func (t *Template) contentTypesWithMedia(media []MediaFile) ([]byte, error) {
	ct := &ContentTypes{}
	if err := xml.Unmarshal(t.parts["[Content_Types].xml"], ct); err != nil {
		return nil, fmt.Errorf("failed to parse [Content_Types].xml: %w", err)
	}
	if ct.Namespace == "" {
		ct.Namespace = "http://schemas.openxmlformats.org/package/2006/content-types"
	}

	registered := make(map[string]bool)
	for _, def := range ct.Defaults {
		registered[strings.ToLower(def.Extension)] = true
	}
	for _, m := range media {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(m.Name), "."))
		if ext == "" || registered[ext] {
			continue
		}
		contentType, ok := extensionContentTypes[ext]
		if !ok {
			contentType = "image/" + ext
		}
		ct.Defaults = append(ct.Defaults, ContentTypeDefault{
			Extension:   ext,
			ContentType: contentType,
		})
		registered[ext] = true
	}

	output, err := xml.Marshal(ct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal [Content_Types].xml: %w", err)
	}
	return append([]byte(xmlHeader), output...), nil
}
