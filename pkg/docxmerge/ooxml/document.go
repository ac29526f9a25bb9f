package ooxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// BodyElement is any element that can appear directly in the document body.
type BodyElement interface {
	isBodyElement()
}

// Document represents a parsed word/document.xml.
type Document struct {
	Body *Body

	// rootAttrs is the attribute list of the w:document element, kept
	// verbatim so namespace declarations survive the round trip.
	rootAttrs string
}

// Body holds the ordered elements of the document body. Section properties
// (w:sectPr) are kept raw at the end; Word requires them there.
type Body struct {
	Elements []BodyElement
	SectPr   *RawXML
}

// ParseDocument parses word/document.xml.
func ParseDocument(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	doc := &Document{}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "document":
			var sb strings.Builder
			writeAttrs(&sb, start.Attr)
			doc.rootAttrs = sb.String()
		case "body":
			body, err := parseBody(d)
			if err != nil {
				return nil, fmt.Errorf("failed to parse document body: %w", err)
			}
			doc.Body = body
		default:
			if err := d.Skip(); err != nil {
				return nil, err
			}
		}
	}

	if doc.Body == nil {
		return nil, fmt.Errorf("document has no body")
	}
	return doc, nil
}

func parseBody(d *xml.Decoder) (*Body, error) {
	body := &Body{}
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, para)
			case "tbl":
				tbl, err := parseTable(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, tbl)
			case "sectPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				body.SectPr = raw
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				return body, nil
			}
		}
	}
	return body, nil
}

// Marshal serializes the document back to word/document.xml bytes.
func (doc *Document) Marshal() []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString("<w:document")
	sb.WriteString(doc.rootAttrs)
	sb.WriteString("><w:body>")
	for _, elem := range doc.Body.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			el.writeXML(&sb)
		case *Table:
			el.writeXML(&sb)
		case *RawXML:
			el.writeXML(&sb)
		}
	}
	if doc.Body.SectPr != nil {
		doc.Body.SectPr.writeXML(&sb)
	}
	sb.WriteString("</w:body></w:document>")
	return []byte(sb.String())
}

// Paragraphs returns the top-level paragraphs of the body.
func (doc *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, elem := range doc.Body.Elements {
		if p, ok := elem.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the top-level tables of the body.
func (doc *Document) Tables() []*Table {
	var out []*Table
	for _, elem := range doc.Body.Elements {
		if t, ok := elem.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}
