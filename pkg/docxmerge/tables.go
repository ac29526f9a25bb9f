package docxmerge

import (
	"strconv"
	"strings"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge/ooxml"
)

// Category identifies which population strategy a roster table gets.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryRankedNeeds
	CategoryHouseholdMember
	CategorySavings
	CategoryLabor
	CategoryDebt
	CategoryLand
	CategoryStructure
	CategoryAffectedStructure
	CategoryTrees
	CategoryCrops
	CategoryIncomeLoss
	CategoryOthers
)

// signature matches a table when any of its exact substrings appears in the
// concatenated text of the table's first two rows, or any folded substring
// appears case-insensitively.
type signature struct {
	category Category
	exact    []string
	folded   []string
}

// categorySignatures is checked in order and the first match wins, so the
// most specific signatures come first. The ranked-needs signature leads
// because its placeholder token can appear inside other rosters' sample
// rows.
var categorySignatures = []signature{
	{CategoryRankedNeeds, []string{"{bus_info_needs}", "What types of information would be helpful", "Information Needs"}, nil},
	{CategoryHouseholdMember, []string{"Name of HH Member"}, nil},
	{CategorySavings, []string{"Ownership of at least one savings account"}, nil},
	{CategoryLabor, []string{"Labor Force Status"}, nil},
	{CategoryDebt, []string{"With formal loan contract? (Y/N)"}, nil},
	{CategoryLand, []string{"13.1 Affected Assets: Land", "10.0 Affected Assets: Land"}, nil},
	{CategoryStructure, []string{"13.2 Affected Assets: Structure", "10.2 Affected Assets: Structure"}, nil},
	{CategoryAffectedStructure, []string{"13.3 Affected Structure", "10.3 Affected Structure"}, nil},
	{CategoryTrees, []string{"13.4 Trees", "10.4 Trees"}, nil},
	{CategoryCrops, []string{"13.5 Crops", "10.5 Crops"}, []string{"crops_grp_converted"}},
	{CategoryIncomeLoss, []string{"13.6 Income Loss", "10.6 Income Loss"}, []string{"income_loss_grp_converted"}},
	{CategoryOthers, []string{"13.7 Others", "10.7 Others"}, []string{"others_grp_converted"}},
}

// categoryHeaderRows is how many leading rows each roster keeps when its
// stale data rows are removed.
var categoryHeaderRows = map[Category]int{
	CategoryRankedNeeds:       2,
	CategoryHouseholdMember:   2,
	CategorySavings:           1,
	CategoryLabor:             3,
	CategoryDebt:              1,
	CategoryLand:              2,
	CategoryStructure:         2,
	CategoryAffectedStructure: 2,
	CategoryTrees:             1,
	CategoryCrops:             1,
	CategoryIncomeLoss:        1,
	CategoryOthers:            1,
}

// ClassifyTable inspects the concatenated text of a table's first two rows
// against the ordered signature list.
func ClassifyTable(tbl *ooxml.Table) Category {
	text := firstTwoRowsText(tbl)
	folded := strings.ToLower(text)
	for _, sig := range categorySignatures {
		for _, sub := range sig.exact {
			if strings.Contains(text, sub) {
				return sig.category
			}
		}
		for _, sub := range sig.folded {
			if strings.Contains(folded, sub) {
				return sig.category
			}
		}
	}
	return CategoryGeneric
}

func firstTwoRowsText(tbl *ooxml.Table) string {
	var parts []string
	for i, row := range tbl.Rows {
		if i >= 2 {
			break
		}
		for _, cell := range row.Cells {
			parts = append(parts, cell.GetText())
		}
	}
	return strings.Join(parts, " ")
}

// roster wraps a table for population: the sample data row is captured as a
// style template before the stale rows are dropped.
type roster struct {
	table       *ooxml.Table
	rowTemplate *ooxml.TableRow
}

// newRoster removes every row beyond the category's header rows, keeping
// the last removed row (the template's sample row) as the style template
// for appended rows.
func newRoster(tbl *ooxml.Table, headerRows int) *roster {
	r := &roster{table: tbl}
	if len(tbl.Rows) > 0 {
		r.rowTemplate = tbl.Rows[len(tbl.Rows)-1].Clone()
	}
	if len(tbl.Rows) > headerRows {
		tbl.Rows = tbl.Rows[:headerRows]
	}
	return r
}

// appendRow adds one data row cloned from the style template and returns it.
func (r *roster) appendRow() *ooxml.TableRow {
	if r.rowTemplate == nil {
		return nil
	}
	row := r.rowTemplate.Clone()
	r.table.Rows = append(r.table.Rows, row)
	return row
}

func setCell(row *ooxml.TableRow, idx int, text string) {
	if row != nil && idx < len(row.Cells) {
		row.Cells[idx].SetText(text)
	}
}

// withSpecify joins a coded field with its free-text companion when the
// companion is non-empty.
func withSpecify(main, other, label string) string {
	if isBlank(other) {
		return main
	}
	return main + label + other
}

// populateRosterTables classifies every top-level table and fills the
// recognized rosters from the categorized auxiliary records. Returns the
// labor income total for the document-wide sum placeholder.
func populateRosterTables(doc *ooxml.Document, records []Record, rc *RenderContext, media *mediaCollector) float64 {
	groups := categorizeRecords(records)
	for _, tbl := range doc.Tables() {
		switch ClassifyTable(tbl) {
		case CategoryHouseholdMember:
			populateHouseholdMemberTable(tbl, groups.householdMembers)
		case CategorySavings:
			populateSavingsTable(tbl, groups.householdMembers)
		case CategoryLabor:
			populateLaborTable(tbl, groups.labor)
		case CategoryDebt:
			populateDebtTable(tbl, groups.debt)
		case CategoryLand:
			populateLandAssetsTable(tbl, groups.land)
		case CategoryStructure:
			populateStructureAssetsTable(tbl, groups.structures)
		case CategoryAffectedStructure:
			populateAffectedStructureTable(tbl, groups.affectedStructures, rc, media)
		case CategoryTrees:
			populateTreesTable(tbl, groups.trees)
		case CategoryCrops:
			populateCropsTable(tbl, groups.crops)
		case CategoryIncomeLoss:
			populateIncomeLossTable(tbl, groups.incomeLoss)
		case CategoryOthers:
			populateOthersTable(tbl, groups.others)
		}
	}
	return groups.totalIncome
}

// populateRankedNeedsTable fills the ranked multiselect roster: one row per
// item carrying the item text, its rank number, and the reason when one was
// supplied. Empty expansions leave the table untouched.
func populateRankedNeedsTable(tbl *ooxml.Table, ranked RankedNeeds) {
	if len(ranked.Items) == 0 {
		return
	}
	r := newRoster(tbl, categoryHeaderRows[CategoryRankedNeeds])
	for i, item := range ranked.Items {
		row := r.appendRow()
		setCell(row, 0, item)
		setCell(row, 1, strconv.Itoa(i+1))
		reason := ""
		if i < len(ranked.Reasons) && !strings.HasPrefix(ranked.Reasons[i], "{") {
			reason = ranked.Reasons[i]
		}
		setCell(row, 2, reason)
	}
}

func populateHouseholdMemberTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryHouseholdMember])
	for idx, rec := range records {
		row := r.appendRow()
		setCell(row, 0, strconv.Itoa(idx+1))
		fullName := strings.TrimSpace(strings.Join([]string{
			rec.Get("hhcomp_hhmmbr_fname"),
			rec.Get("hhcomp_hhmmbr_mname"),
			rec.Get("hhcomp_hhmmbr_lname"),
		}, " "))
		setCell(row, 1, strings.Join(strings.Fields(fullName), " "))
		setCell(row, 2, rec.Get("hhcomp_hhmmbr_hhreltn"))
		setCell(row, 3, rec.Get("hhcomp_hhmmbr_hhage"))
		setCell(row, 4, rec.Get("hhcomp_hhmmbr_hhsex"))
		setCell(row, 5, rec.Get("hhcomp_hhmmbr_status"))
		setCell(row, 6, withSpecify(rec.Get("hhcomp_hhmmbr_relg"), rec.Get("hhcomp_hhmmbr_relg_o"), " Pls. Specify: "))
		setCell(row, 7, rec.Get("hhcomp_hhmmbr_brtplc"))
		setCell(row, 8, rec.Get("hhcomp_hhmmbr_educ"))
		setCell(row, 9, rec.Get("hhcomp_hhmmbr_ethn"))
	}
}

func populateSavingsTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategorySavings])
	for idx, rec := range records {
		row := r.appendRow()
		setCell(row, 0, strconv.Itoa(idx+1))
		setCell(row, 1, rec.Get("hhcomp_hhmmbr_ethn"))
		setCell(row, 2, withSpecify(rec.Get("hhcomp_hhmmbr_savings"), rec.Get("hhcomp_hhmmbr_savings_o"), " Pls. Specify "))
		setCell(row, 3, rec.Get("hhcomp_hhmmbr_phone"))
		setCell(row, 4, withSpecify(rec.Get("hhcomp_hhmmbr_org"), rec.Get("hhcomp_hhmmbr_org_o"), " Pls. Specify "))
		setCell(row, 5, rec.Get("hhcomp_hhmmbr_org_mem"))
		setCell(row, 6, rec.Get("hhcomp_hhmmbr_disability"))
	}
}

func populateLaborTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryLabor])
	for idx, rec := range records {
		row := r.appendRow()
		setCell(row, 0, strconv.Itoa(idx+1))
		setCell(row, 1, rec.Get("hh_labor_stat"))
		setCell(row, 2, withSpecify(rec.Get("hh_labor_pri_src"), rec.Get("hh_labor_pri_src_o"), " Pls. Specify "))
		setCell(row, 3, rec.Get("hh_labor_pri_industry"))
		setCell(row, 4, rec.Get("hh_labor_pri_plc_work"))
		setCell(row, 5, rec.Get("hh_labor_pri_inc"))
		setCell(row, 6, rec.Get("hh_labor_occ_other"))
		setCell(row, 7, rec.Get("hh_labor_other_industry"))
		setCell(row, 8, rec.Get("hh_labor_occ_other_plc_wrk"))
		setCell(row, 9, rec.Get("hh_labor_occ_other_inc"))
		setCell(row, 10, rec.Get("hh_calc_total_inc"))
		setCell(row, 11, rec.Get("hh_wrk_hrs"))
	}
}

func populateDebtTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryDebt])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, withSpecify(rec.Get("debt_src_name"), rec.Get("debt_src_name_o"), " Pls. Specify "))
		setCell(row, 1, rec.Get("debt_contract"))
		setCell(row, 2, rec.Get("debt_contract_y"))
		setCell(row, 3, rec.Get("debt_amt"))
		setCell(row, 4, withSpecify(rec.Get("loan_used"), rec.Get("loan_used_o"), " Pls. Specify "))
		terms := rec.Get("pymt_terms") + rec.Get("pymt_terms_int") + rec.Get("pymt_terms_amt") + ", " + rec.Get("pymt_terms_long")
		setCell(row, 5, terms)
		setCell(row, 6, rec.Get("debt_balance"))
		setCell(row, 7, rec.Get("debt_fam_proc"))
		setCell(row, 8, rec.Get("debt_fam_payment"))
	}
}

func populateLandAssetsTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryLand])
	for idx, rec := range records {
		row := r.appendRow()
		setCell(row, 0, strconv.Itoa(idx+1))
		setCell(row, 1, rec.Get("asset_land_area"))
		setCell(row, 2, rec.Get("asset_land_area_aff"))
		setCell(row, 3, rec.Get("asset_land_ext_impact"))
		setCell(row, 4, rec.Get("asset_land_type"))
		setCell(row, 5, withSpecify(rec.Get("asset_land_use"), rec.Get("asset_land_use_o"), ", Please Specify "))
		setCell(row, 6, withSpecify(rec.Get("asset_land_tenure_owner"), rec.Get("asset_land_tenure_owner_o"), ", Please Specify "))
		setCell(row, 7, withSpecify(rec.Get("asset_land_proof_owner"), rec.Get("asset_land_proof_owner_o"), ", Please Specify "))
		setCell(row, 8, rec.Get("asset_land_yrs_used"))
		setCell(row, 9, rec.Get("asset_land_price_prch"))
		setCell(row, 10, withSpecify(rec.Get("asset_land_pymnt_trms"), rec.Get("asset_land_pymnt_trms_o"), ", Please Specify "))
		setCell(row, 11, rec.Get("asset_land_pymnt_amt"))
	}
}

func populateStructureAssetsTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryStructure])
	for idx, rec := range records {
		row := r.appendRow()
		setCell(row, 0, strconv.Itoa(idx+1))
		setCell(row, 1, rec.Get("asset_struct_area"))
		setCell(row, 2, rec.Get("asset_struct_area_aff"))
		setCell(row, 3, rec.Get("asset_struct_ext_impact"))

		parts := []string{rec.Get("asset_struct_type")}
		if oth := rec.Get("asset_struct_type_oth"); !isBlank(oth) {
			parts = append(parts, "Please Specify "+oth)
		}
		if othO := rec.Get("asset_struct_type_oth_o"); !isBlank(othO) {
			parts = append(parts, othO)
		}
		setCell(row, 4, strings.Join(nonEmpty(parts), ", "))

		setCell(row, 5, withSpecify(rec.Get("asset_struct_use"), rec.Get("asset_struct_use_o"), ", Please Specify "))
		setCell(row, 6, withSpecify(rec.Get("asset_struct_tenure_owner"), rec.Get("asset_struct_tenure_owner_o"), ", Please Specify "))
		setCell(row, 7, withSpecify(rec.Get("asset_struct_proof_owner"), rec.Get("asset_struct_proof_owner_o"), ", Please Specify "))
		setCell(row, 8, rec.Get("asset_struct_yrs_used"))
		setCell(row, 9, rec.Get("asset_struct_price_prch"))
		setCell(row, 10, withSpecify(rec.Get("asset_struct_pymnt_trms"), rec.Get("asset_struct_pymnt_trms_o"), ", Please Specify "))
		setCell(row, 11, rec.Get("asset_struct_pymnt_amt"))
		setCell(row, 12, rec.Get("asset_struct_mrkt_val"))
	}
}

func populateAffectedStructureTable(tbl *ooxml.Table, records []Record, rc *RenderContext, media *mediaCollector) {
	r := newRoster(tbl, categoryHeaderRows[CategoryAffectedStructure])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, withSpecify(rec.Get("affctd_struct_type_zz"), rec.Get("affctd_struct_type_zz_o"), ", Please Specify "))
		setCell(row, 1, rec.Get("affctd_struct_mtrl_type"))
		setCell(row, 2, rec.Get("affctd_struct_dimension"))
		setCell(row, 3, strings.Join(nonEmpty([]string{rec.Get("affctd_struct_unit"), rec.Get("affctd_struct_ht")}), ", "))
		setCell(row, 4, rec.Get("affctd_struct_estvalue"))
		setCell(row, 5, rec.Get("affctd_struct_totalcost"))
		if row != nil && len(row.Cells) > 6 {
			insertRecordImages(row.Cells[6], rec, rc, media)
		}
	}
}

// insertRecordImages fills a cell with the record's Pix1..Pix10 images, two
// per line. Missing files degrade to a bracketed label; with no image
// folder configured the cell lists the raw filenames instead.
func insertRecordImages(cell *ooxml.TableCell, rec Record, rc *RenderContext, media *mediaCollector) {
	names := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		if v := rec.Get("Pix" + strconv.Itoa(i)); !isBlank(v) {
			names = append(names, v)
		}
	}

	if rc.Options.ImageDir == "" {
		cell.SetText(strings.Join(names, ", "))
		return
	}
	if len(names) == 0 {
		cell.SetText("No images")
		return
	}

	cell.Blocks = nil
	for i := 0; i < len(names); i += 2 {
		para := &ooxml.Paragraph{}
		appendRecordImage(para, names[i], rc, media)
		para.AppendText("    ", nil)
		if i+1 < len(names) {
			appendRecordImage(para, names[i+1], rc, media)
		}
		cell.Blocks = append(cell.Blocks, para)
	}
}

func appendRecordImage(para *ooxml.Paragraph, name string, rc *RenderContext, media *mediaCollector) {
	path := resolveImage(rc.Options.ImageDir, name)
	if path == "" {
		para.AppendText("[Image not found: "+name+"]", nil)
		return
	}
	run, err := media.addImage(path, rc.Options.RosterImageWidthInches)
	if err != nil {
		para.AppendText("[Error loading: "+name+"]", nil)
		return
	}
	para.AppendRun(run)
}

func populateTreesTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryTrees])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, rec.Get("tree_type"))
		setCell(row, 1, strings.Trim(rec.Get("tree_age")+", "+rec.Get("tree_height"), ", "))
		setCell(row, 2, rec.Get("tree_qty"))
		setCell(row, 3, rec.Get("tree_price"))
		setCell(row, 4, rec.Get("tree_totalcost"))
	}
}

func populateCropsTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryCrops])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, rec.Discover("crop", "type"))
		setCell(row, 1, rec.Discover("crop", "age"))
		setCell(row, 2, rec.Discover("crop", "area"))
		setCell(row, 3, rec.Discover("crop", "price"))
		total := rec.Discover("crop", "total")
		if total == "" {
			total = rec.Discover("crop", "cost")
		}
		setCell(row, 4, total)
	}
}

func populateIncomeLossTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryIncomeLoss])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, rec.Discover("income", "type"))
		qty := rec.Discover("income", "qty")
		if qty == "" {
			qty = rec.Discover("income", "quantity")
		}
		setCell(row, 1, qty)
		setCell(row, 2, rec.DiscoverExcluding("price", "income", "unit"))
		setCell(row, 3, rec.Discover("income", "price"))
		total := rec.Discover("income", "total")
		if total == "" {
			total = rec.Discover("income", "cost")
		}
		setCell(row, 4, total)
	}
}

func populateOthersTable(tbl *ooxml.Table, records []Record) {
	r := newRoster(tbl, categoryHeaderRows[CategoryOthers])
	for _, rec := range records {
		row := r.appendRow()
		setCell(row, 0, rec.Discover("others", "type"))
		qty := rec.Discover("others", "qty")
		if qty == "" {
			qty = rec.Discover("others", "quantity")
		}
		setCell(row, 1, qty)
		setCell(row, 2, rec.DiscoverExcluding("price", "others", "unit"))
		setCell(row, 3, rec.Discover("others", "price"))
		total := rec.Discover("others", "total")
		if total == "" {
			total = rec.Discover("others", "cost")
		}
		setCell(row, 4, total)
	}
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if !isBlank(p) {
			out = append(out, p)
		}
	}
	return out
}
