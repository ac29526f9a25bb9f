package ooxml

import (
	"encoding/xml"
	"strings"
)

// RunChild is any element that can appear inside a run.
type RunChild interface {
	isRunChild()
}

// Run represents a w:r element.
type Run struct {
	Properties *RawXML
	Children   []RunChild
}

func (r *Run) isParagraphChild() {}

func parseRun(d *xml.Decoder, start xml.StartElement) (*Run, error) {
	r := &Run{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				r.Properties = raw
			case "t":
				text, err := parseText(d, t)
				if err != nil {
					return nil, err
				}
				r.Children = append(r.Children, text)
			case "br":
				br := &Break{}
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" {
						br.Type = attr.Value
					}
				}
				if err := d.Skip(); err != nil {
					return nil, err
				}
				r.Children = append(r.Children, br)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				r.Children = append(r.Children, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return r, nil
			}
		}
	}
}

func (r *Run) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:r>")
	if r.Properties != nil {
		r.Properties.writeXML(sb)
	}
	for _, child := range r.Children {
		switch c := child.(type) {
		case *Text:
			c.writeXML(sb)
		case *Break:
			c.writeXML(sb)
		case *RawXML:
			c.writeXML(sb)
		}
	}
	sb.WriteString("</w:r>")
}

// GetText returns the run's text. Breaks read as newlines so placeholder
// scanning sees the text the way Word renders it.
func (r *Run) GetText() string {
	var sb strings.Builder
	for _, child := range r.Children {
		switch c := child.(type) {
		case *Text:
			sb.WriteString(c.Content)
		case *Break:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// SetText replaces the run's content with a single text element, keeping
// run properties. Newlines become w:br elements.
func (r *Run) SetText(text string) {
	r.Children = nil
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			r.Children = append(r.Children, &Break{})
		}
		if line != "" {
			r.Children = append(r.Children, &Text{Content: line})
		}
	}
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	c := &Run{Properties: cloneRaw(r.Properties)}
	for _, child := range r.Children {
		switch ch := child.(type) {
		case *Text:
			t := *ch
			c.Children = append(c.Children, &t)
		case *Break:
			b := *ch
			c.Children = append(c.Children, &b)
		case *RawXML:
			c.Children = append(c.Children, cloneRaw(ch))
		}
	}
	return c
}

// Text represents a w:t element.
type Text struct {
	Content string
}

func (t *Text) isRunChild() {}

func parseText(d *xml.Decoder, start xml.StartElement) (*Text, error) {
	t := &Text{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch tk := tok.(type) {
		case xml.CharData:
			t.Content += string(tk)
		case xml.EndElement:
			if tk.Name.Local == "t" {
				return t, nil
			}
		case xml.StartElement:
			if err := d.Skip(); err != nil {
				return nil, err
			}
		}
	}
}

func (t *Text) writeXML(sb *strings.Builder) {
	// Always preserve space; Word strips leading and trailing whitespace
	// otherwise and substituted values often carry it.
	sb.WriteString(`<w:t xml:space="preserve">`)
	sb.WriteString(escapeText(t.Content))
	sb.WriteString("</w:t>")
}

// Break represents a w:br element.
type Break struct {
	Type string
}

func (b *Break) isRunChild() {}

func (b *Break) writeXML(sb *strings.Builder) {
	if b.Type != "" {
		sb.WriteString(`<w:br w:type="`)
		sb.WriteString(escapeText(b.Type))
		sb.WriteString(`"/>`)
		return
	}
	sb.WriteString("<w:br/>")
}
