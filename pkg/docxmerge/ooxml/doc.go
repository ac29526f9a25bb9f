// Package ooxml implements the WordprocessingML document model used by
// docxmerge. It parses word/document.xml into a tree of paragraphs, runs and
// tables (including tables nested inside cells to arbitrary depth), and
// marshals the tree back to XML.
//
// The model is deliberately shallow: formatting properties (pPr, rPr, tblPr,
// trPr, tcPr) and any element the model does not understand are captured as
// raw XML and written back verbatim, so a round trip through the model
// preserves the template's styling.
package ooxml
