package docxmerge

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
	"go.uber.org/zap"
)

// Field names used for image substitution and filename derivation.
const (
	imageField    = "resp_pix"
	lastNameField = "resp_lname"
	barangayField = "pckg_brgy"
	incomeSumKey  = "hh_calc_total_sum"
)

// RenderContext holds everything a render job needs: the template, the
// placeholder set, the column mapping, the auxiliary index, and the run
// options. Built once per run before fan-out and read-only afterwards, so
// concurrent jobs share it without locking.
type RenderContext struct {
	Template     *Template
	Placeholders PlaceholderSet
	Mapping      ColumnMapping
	Dataset      *Dataset
	Aux          AuxiliaryIndex
	Options      Options

	// rankedColumns locates the ranked multiselect and its companion
	// fields in the dataset headers. Resolved independently of the
	// placeholder set: the free-text companion and the reason slots feed
	// the expansion even when the template never references them.
	rankedColumns ColumnMapping
}

// NewRenderContext analyzes the template and builds the run artifacts.
// The fatal preconditions are enforced here: the template must yield
// placeholders and at least one of them must map to a dataset column.
func NewRenderContext(tpl *Template, ds *Dataset, aux AuxiliaryIndex, opts Options) (*RenderContext, error) {
	doc, err := tpl.Instance()
	if err != nil {
		return nil, err
	}

	placeholders := ExtractPlaceholders(doc)
	if len(placeholders) == 0 {
		return nil, ErrNoPlaceholders
	}

	mapping := BuildColumnMapping(placeholders, ds)
	if len(mapping) == 0 {
		return nil, ErrNoColumnMapping
	}

	if aux == nil {
		aux = make(AuxiliaryIndex)
	}

	rankedColumns := make(ColumnMapping)
	for _, field := range rankedNeedsFields() {
		if col := ds.findHeaderColumn(field); col >= 0 {
			rankedColumns[field] = col
		}
	}

	return &RenderContext{
		Template:      tpl,
		Placeholders:  placeholders,
		Mapping:       mapping,
		Dataset:       ds,
		Aux:           aux,
		Options:       opts.withDefaults(),
		rankedColumns: rankedColumns,
	}, nil
}

// RenderJob is the unit of parallel work: one primary data row rendered
// into one document.
type RenderJob struct {
	// Index is the 1-based position of the row within the batch.
	Index     int
	Row       []string
	OutputDir string
}

// RenderRow renders one primary row into a document file and returns its
// path. Errors are per-row: the caller records them and moves on.
func (rc *RenderContext) RenderRow(job RenderJob) (string, error) {
	doc, err := rc.Template.Instance()
	if err != nil {
		return "", err
	}

	key := rc.Dataset.Cell(job.Row, rc.Dataset.KeyColumn)
	records := rc.Aux.Lookup(key)

	values := make(map[string]string, len(rc.Mapping))
	for placeholder, col := range rc.Mapping {
		values[placeholder] = rc.Dataset.Cell(job.Row, col)
	}

	rankedValues := make(map[string]string, len(rc.rankedColumns))
	for field, col := range rc.rankedColumns {
		rankedValues[field] = rc.Dataset.Cell(job.Row, col)
	}
	ranked := ProcessRankedNeeds(rankedValues)
	if _, ok := rc.rankedColumns[rankedNeedsField]; ok && rc.Options.ShouldInlineRankedNeeds() {
		ranked.Merge(values)
	}

	media := &mediaCollector{}
	for _, p := range doc.Paragraphs() {
		rc.substituteParagraph(p, values, media)
	}
	rc.substituteTables(doc.Tables(), values, ranked, media)

	if len(records) > 0 {
		total := populateRosterTables(doc, records, rc, media)
		substituteEverywhere(doc, map[string]string{
			incomeSumKey: strconv.FormatFloat(total, 'f', -1, 64),
		})
	}

	clearDocumentPlaceholders(doc)

	outputPath := filepath.Join(job.OutputDir, deriveFilename(values, job.Index))
	if err := rc.Template.WriteDocument(outputPath, doc, media.files); err != nil {
		return "", err
	}
	return outputPath, nil
}

// substituteParagraph performs text substitution on one paragraph, with the
// image special case: when the image placeholder resolves to a file on
// disk the paragraph is rebuilt as before-text, picture, after-text.
func (rc *RenderContext) substituteParagraph(p *ooxml.Paragraph, values map[string]string, media *mediaCollector) {
	text := p.GetText()
	if !strings.Contains(text, "{") {
		return
	}

	if rc.Options.ImageDir != "" && strings.Contains(text, "{"+imageField+"}") {
		if name, ok := values[imageField]; ok {
			if path := resolveImage(rc.Options.ImageDir, name); path != "" {
				if rc.insertParagraphImage(p, text, path, media) {
					return
				}
			}
		}
	}

	if newText, changed := substituteText(text, values); changed {
		p.SetText(newText)
	}
}

func (rc *RenderContext) insertParagraphImage(p *ooxml.Paragraph, text, path string, media *mediaCollector) bool {
	run, err := media.addImage(path, rc.Options.ImageWidthInches)
	if err != nil {
		log().Warn("failed to embed image, falling back to text substitution",
			zap.String("path", path), zap.Error(err))
		return false
	}

	var props *ooxml.RawXML
	if runs := p.Runs(); len(runs) > 0 {
		props = runs[0].Properties
	}

	token := "{" + imageField + "}"
	parts := strings.SplitN(text, token, 2)
	p.Clear()
	if parts[0] != "" {
		p.AppendText(parts[0], props)
	}
	p.AppendRun(run)
	if len(parts) > 1 && parts[1] != "" {
		p.AppendText(parts[1], props)
	}
	return true
}

// substituteTables walks tables recursively. The ranked-needs roster is
// recognized here, before per-cell substitution, because its population
// consumes the whole table.
func (rc *RenderContext) substituteTables(tables []*ooxml.Table, values map[string]string, ranked RankedNeeds, media *mediaCollector) {
	for _, tbl := range tables {
		if ClassifyTable(tbl) == CategoryRankedNeeds {
			populateRankedNeedsTable(tbl, ranked)
			continue
		}
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs() {
					rc.substituteParagraph(p, values, media)
				}
				rc.substituteTables(cell.NestedTables(), values, ranked, media)
			}
		}
	}
}

// substituteEverywhere replaces tokens in every paragraph of the document,
// nested tables included, with no image handling.
func substituteEverywhere(doc *ooxml.Document, values map[string]string) {
	for _, p := range doc.Paragraphs() {
		if newText, changed := substituteText(p.GetText(), values); changed {
			p.SetText(newText)
		}
	}
	substituteTablesText(doc.Tables(), values)
}

func substituteTablesText(tables []*ooxml.Table, values map[string]string) {
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs() {
					if newText, changed := substituteText(p.GetText(), values); changed {
						p.SetText(newText)
					}
				}
				substituteTablesText(cell.NestedTables(), values)
			}
		}
	}
}

// deriveFilename builds the output filename from the barangay and last-name
// fields with a three-level fallback.
func deriveFilename(values map[string]string, index int) string {
	lname := strings.TrimSpace(values[lastNameField])
	brgy := strings.TrimSpace(values[barangayField])
	switch {
	case brgy != "" && lname != "":
		return fmt.Sprintf("%s_%s_%03d.docx", sanitizeFilename(brgy, 15), sanitizeFilename(lname, 15), index)
	case lname != "":
		return fmt.Sprintf("%s_%03d.docx", sanitizeFilename(lname, 20), index)
	default:
		return fmt.Sprintf("document_%03d.docx", index)
	}
}

// sanitizeFilename replaces characters Windows rejects in filenames and
// truncates to maxLen runes.
func sanitizeFilename(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			sb.WriteByte('_')
		} else {
			sb.WriteRune(r)
		}
	}
	runes := []rune(sb.String())
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}
