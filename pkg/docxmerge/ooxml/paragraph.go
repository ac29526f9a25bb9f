package ooxml

import (
	"encoding/xml"
	"strings"
)

// ParagraphChild is any element that can appear inside a paragraph.
type ParagraphChild interface {
	isParagraphChild()
}

// Paragraph represents a w:p element. Properties are kept raw; Children
// preserves the order of runs, hyperlinks and anything else the paragraph
// contained.
type Paragraph struct {
	Properties *RawXML
	Children   []ParagraphChild
}

func (p *Paragraph) isBodyElement() {}
func (p *Paragraph) isCellBlock() {}

func parseParagraph(d *xml.Decoder, start xml.StartElement) (*Paragraph, error) {
	p := &Paragraph{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				p.Properties = raw
			case "r":
				run, err := parseRun(d, t)
				if err != nil {
					return nil, err
				}
				p.Children = append(p.Children, run)
			case "hyperlink":
				link, err := parseHyperlink(d, t)
				if err != nil {
					return nil, err
				}
				p.Children = append(p.Children, link)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				p.Children = append(p.Children, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return p, nil
			}
		}
	}
}

func (p *Paragraph) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:p>")
	if p.Properties != nil {
		p.Properties.writeXML(sb)
	}
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			c.writeXML(sb)
		case *Hyperlink:
			c.writeXML(sb)
		case *RawXML:
			c.writeXML(sb)
		}
	}
	sb.WriteString("</w:p>")
}

// GetText returns the concatenated text of all runs in the paragraph,
// including runs inside hyperlinks.
func (p *Paragraph) GetText() string {
	var sb strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			sb.WriteString(c.GetText())
		case *Hyperlink:
			sb.WriteString(c.GetText())
		}
	}
	return sb.String()
}

// Runs returns the paragraph's runs, including those inside hyperlinks.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			out = append(out, c)
		case *Hyperlink:
			out = append(out, c.Runs...)
		}
	}
	return out
}

// SetText replaces the paragraph's content with the given text, keeping the
// paragraph properties and the formatting of its first run. Newlines in the
// text become w:br elements; a literal "\n" inside w:t would be dropped by
// Word.
func (p *Paragraph) SetText(text string) {
	var props *RawXML
	if runs := p.Runs(); len(runs) > 0 {
		props = runs[0].Properties
	}
	p.Children = nil
	p.AppendText(text, props)
}

// Clear removes all content from the paragraph, keeping its properties.
func (p *Paragraph) Clear() {
	p.Children = nil
}

// AppendText appends runs carrying the given text, splitting on newlines.
func (p *Paragraph) AppendText(text string, props *RawXML) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		run := &Run{Properties: cloneRaw(props)}
		if i > 0 {
			run.Children = append(run.Children, &Break{})
		}
		if line != "" {
			run.Children = append(run.Children, &Text{Content: line})
		}
		if len(run.Children) > 0 {
			p.Children = append(p.Children, run)
		}
	}
}

// AppendRun appends a run to the paragraph.
func (p *Paragraph) AppendRun(r *Run) {
	p.Children = append(p.Children, r)
}

// Clone returns a deep copy of the paragraph.
func (p *Paragraph) Clone() *Paragraph {
	c := &Paragraph{Properties: cloneRaw(p.Properties)}
	for _, child := range p.Children {
		switch ch := child.(type) {
		case *Run:
			c.Children = append(c.Children, ch.Clone())
		case *Hyperlink:
			c.Children = append(c.Children, ch.Clone())
		case *RawXML:
			c.Children = append(c.Children, cloneRaw(ch))
		}
	}
	return c
}

// Hyperlink represents a w:hyperlink element. Attributes are preserved
// verbatim; the contained runs stay addressable so substitution reaches
// linked text.
type Hyperlink struct {
	Attrs string
	Runs  []*Run
}

func (h *Hyperlink) isParagraphChild() {}

func parseHyperlink(d *xml.Decoder, start xml.StartElement) (*Hyperlink, error) {
	var sb strings.Builder
	writeAttrs(&sb, start.Attr)
	h := &Hyperlink{Attrs: sb.String()}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "r" {
				run, err := parseRun(d, t)
				if err != nil {
					return nil, err
				}
				h.Runs = append(h.Runs, run)
			} else if err := d.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "hyperlink" {
				return h, nil
			}
		}
	}
}

func (h *Hyperlink) writeXML(sb *strings.Builder) {
	sb.WriteString("<w:hyperlink")
	sb.WriteString(h.Attrs)
	sb.WriteString(">")
	for _, run := range h.Runs {
		run.writeXML(sb)
	}
	sb.WriteString("</w:hyperlink>")
}

// GetText returns the concatenated text of the hyperlink's runs.
func (h *Hyperlink) GetText() string {
	var sb strings.Builder
	for _, run := range h.Runs {
		sb.WriteString(run.GetText())
	}
	return sb.String()
}

// Clone returns a deep copy of the hyperlink.
func (h *Hyperlink) Clone() *Hyperlink {
	c := &Hyperlink{Attrs: h.Attrs}
	for _, run := range h.Runs {
		c.Runs = append(c.Runs, run.Clone())
	}
	return c
}

func cloneRaw(r *RawXML) *RawXML {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
