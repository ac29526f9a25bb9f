package docxmerge

import (
	"regexp"
	"sort"
	"strings"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// placeholderPattern matches {name} tokens. Non-greedy by construction:
// the name may contain anything except braces.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// PlaceholderSet is the set of distinct placeholder names found in a
// template. Computed once per template and treated as read-only.
type PlaceholderSet map[string]struct{}

// Contains reports whether the set holds the given name.
func (s PlaceholderSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the placeholder names in sorted order.
func (s PlaceholderSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractPlaceholders scans every paragraph and every table cell, including
// tables nested inside cells to arbitrary depth, and returns the distinct
// placeholder names.
func ExtractPlaceholders(doc *ooxml.Document) PlaceholderSet {
	set := make(PlaceholderSet)
	for _, p := range doc.Paragraphs() {
		collectPlaceholders(p.GetText(), set)
	}
	extractFromTables(doc.Tables(), set)
	return set
}

func extractFromTables(tables []*ooxml.Table, set PlaceholderSet) {
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				collectPlaceholders(cell.GetText(), set)
				extractFromTables(cell.NestedTables(), set)
			}
		}
	}
}

func collectPlaceholders(text string, set PlaceholderSet) {
	if !strings.Contains(text, "{") {
		return
	}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		set[m[1]] = struct{}{}
	}
}

// substituteText replaces every {key} occurrence with its value. Returns
// the new text and whether anything changed.
func substituteText(text string, values map[string]string) (string, bool) {
	if !strings.Contains(text, "{") {
		return text, false
	}
	result := text
	for key, value := range values {
		token := "{" + key + "}"
		if strings.Contains(result, token) {
			result = strings.ReplaceAll(result, token, value)
		}
	}
	return result, result != text
}

// clearPlaceholders strips every remaining {...} token from the text.
func clearPlaceholders(text string) (string, bool) {
	if !strings.Contains(text, "{") {
		return text, false
	}
	cleared := placeholderPattern.ReplaceAllString(text, "")
	return cleared, cleared != text
}

// clearDocumentPlaceholders removes every remaining placeholder token from
// all paragraphs in the document, nested tables included. Runs after all
// substitution and table population so no unresolved token reaches output.
func clearDocumentPlaceholders(doc *ooxml.Document) {
	for _, p := range doc.Paragraphs() {
		if cleared, changed := clearPlaceholders(p.GetText()); changed {
			p.SetText(cleared)
		}
	}
	clearTablePlaceholders(doc.Tables())
}

func clearTablePlaceholders(tables []*ooxml.Table) {
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs() {
					if cleared, changed := clearPlaceholders(p.GetText()); changed {
						p.SetText(cleared)
					}
				}
				clearTablePlaceholders(cell.NestedTables())
			}
		}
	}
}
