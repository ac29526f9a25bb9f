package ooxml

import (
	"encoding/xml"
	"strings"
)

// RawXML holds an element the model does not parse. Content is the complete
// markup including the element's own open and close tags, with namespace
// URIs folded back to their conventional prefixes.
type RawXML struct {
	Name    xml.Name
	Content string
}

func (r *RawXML) isBodyElement() {}
func (r *RawXML) isCellBlock() {}
func (r *RawXML) isParagraphChild() {}
func (r *RawXML) isRunChild() {}

func (r *RawXML) writeXML(sb *strings.Builder) {
	sb.WriteString(r.Content)
}

// namespacePrefix maps a namespace URI to its conventional prefix.
// encoding/xml resolves prefixes to URIs while decoding; when we capture
// unparsed elements we have to fold them back, otherwise the re-emitted
// markup would carry full URIs in place of prefixes.
func namespacePrefix(uri string) string {
	prefixes := map[string]string{
		"http://schemas.openxmlformats.org/wordprocessingml/2006/main":           "w",
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships":    "r",
		"http://schemas.openxmlformats.org/officeDocument/2006/math":             "m",
		"http://www.w3.org/XML/1998/namespace":                                   "xml",
		"http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing": "wp",
		"http://schemas.openxmlformats.org/drawingml/2006/main":                  "a",
		"http://schemas.openxmlformats.org/drawingml/2006/picture":               "pic",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing":    "wp14",
		"http://schemas.microsoft.com/office/drawing/2010/main":                  "a14",
		"urn:schemas-microsoft-com:vml":                                          "v",
		"urn:schemas-microsoft-com:office:office":                                "o",
		"urn:schemas-microsoft-com:office:word":                                  "w10",
		"http://schemas.openxmlformats.org/markup-compatibility/2006":            "mc",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":      "wps",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas":     "wpc",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingGroup":      "wpg",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingInk":        "wpi",
		"http://schemas.microsoft.com/office/word/2010/wordml":                   "w14",
		"http://schemas.microsoft.com/office/word/2012/wordml":                   "w15",
		"http://schemas.microsoft.com/office/word/2018/wordml":                   "w16",
		"http://schemas.microsoft.com/office/word/2006/wordml":                   "wne",
	}
	if p, ok := prefixes[uri]; ok {
		return p
	}
	return uri
}

func writeQName(sb *strings.Builder, name xml.Name) {
	if name.Space != "" {
		sb.WriteString(namespacePrefix(name.Space))
		sb.WriteByte(':')
	}
	sb.WriteString(name.Local)
}

func writeAttrs(sb *strings.Builder, attrs []xml.Attr) {
	for _, attr := range attrs {
		sb.WriteByte(' ')
		switch {
		case attr.Name.Space == "xmlns":
			sb.WriteString("xmlns:")
			sb.WriteString(attr.Name.Local)
		case attr.Name.Local == "xmlns" && attr.Name.Space == "":
			sb.WriteString("xmlns")
		default:
			writeQName(sb, attr.Name)
		}
		sb.WriteString(`="`)
		sb.WriteString(escapeText(attr.Value))
		sb.WriteByte('"')
	}
}

// captureRaw consumes the element opened by start, including all nested
// content, and returns its complete markup.
func captureRaw(d *xml.Decoder, start xml.StartElement) (*RawXML, error) {
	var sb strings.Builder
	sb.WriteByte('<')
	writeQName(&sb, start.Name)
	writeAttrs(&sb, start.Attr)
	sb.WriteByte('>')

	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			sb.WriteByte('<')
			writeQName(&sb, t.Name)
			writeAttrs(&sb, t.Attr)
			sb.WriteByte('>')
		case xml.EndElement:
			depth--
			sb.WriteString("</")
			writeQName(&sb, t.Name)
			sb.WriteByte('>')
		case xml.CharData:
			sb.WriteString(escapeText(string(t)))
		}
	}

	return &RawXML{Name: start.Name, Content: sb.String()}, nil
}

func escapeText(s string) string {
	if !strings.ContainsAny(s, "&<>\"") {
		return s
	}
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
