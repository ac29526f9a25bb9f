package docxmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAuxiliaryIndexGroupsByParentKey(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "aux.xlsx", [][]string{
		{}, {}, {},
		{"hhcomp_hhmmbr_fname", "hhcomp_hhmmbr_hhage", "PARENT_KEY"},
		{"Ana", "12", "K1"},
		{"Ben", "15", "K1"},
		{"Cara", "40", "K2"},
		{"ignored", "0", ""},
	})

	idx, err := BuildAuxiliaryIndex([]string{path})
	require.NoError(t, err)

	k1 := idx.Lookup("K1")
	require.Len(t, k1, 2)
	assert.Equal(t, "Ana", k1[0].Get("hhcomp_hhmmbr_fname"))
	assert.Equal(t, "Ben", k1[1].Get("hhcomp_hhmmbr_fname"))
	assert.Len(t, idx.Lookup("K2"), 1)
}

func TestAuxiliaryIndexUnmatchedKeyIsEmpty(t *testing.T) {
	idx := make(AuxiliaryIndex)
	assert.Empty(t, idx.Lookup("no-such-key"))
	assert.NotPanics(t, func() { idx.Lookup("") })
}

func TestBuildAuxiliaryIndexSkipsFileWithoutParentKey(t *testing.T) {
	dir := t.TempDir()
	bad := writeWorkbook(t, dir, "bad.xlsx", [][]string{
		{}, {}, {},
		{"some", "header"},
		{"a", "b"},
	})
	good := writeWorkbook(t, dir, "good.xlsx", [][]string{
		{}, {}, {},
		{"tree_type", "PARENT_KEY"},
		{"Mango", "K1"},
	})

	idx, err := BuildAuxiliaryIndex([]string{bad, good})
	require.NoError(t, err)
	require.Len(t, idx.Lookup("K1"), 1)
	assert.Equal(t, "Mango", idx.Lookup("K1")[0].Get("tree_type"))
}

func TestCategorizeRecordsByKeyPattern(t *testing.T) {
	records := []Record{
		NewRecord([]string{"hhcomp_hhmmbr_fname"}, []string{"Ana"}),
		NewRecord([]string{"hh_labor_stat", "hh_calc_total_inc"}, []string{"Employed", "1500.5"}),
		NewRecord([]string{"hh_labor_stat", "hh_calc_total_inc"}, []string{"Employed", "499.5"}),
		NewRecord([]string{"debt_src_name"}, []string{"Bank"}),
		NewRecord([]string{"asset_land_area"}, []string{"120"}),
		NewRecord([]string{"asset_struct_area"}, []string{"80"}),
		NewRecord([]string{"affctd_struct_type_zz"}, []string{"Fence"}),
		NewRecord([]string{"tree_type"}, []string{"Mango"}),
		NewRecord([]string{"crops_grp_type"}, []string{"Rice"}),
		NewRecord([]string{"income_loss_grp_type"}, []string{"Store"}),
		NewRecord([]string{"others_grp_type"}, []string{"Well"}),
	}

	groups := categorizeRecords(records)
	assert.Len(t, groups.householdMembers, 1)
	assert.Len(t, groups.labor, 2)
	assert.Len(t, groups.debt, 1)
	assert.Len(t, groups.land, 1)
	assert.Len(t, groups.structures, 1)
	assert.Len(t, groups.affectedStructures, 1)
	assert.Len(t, groups.trees, 1)
	assert.Len(t, groups.crops, 1)
	assert.Len(t, groups.incomeLoss, 1)
	assert.Len(t, groups.others, 1)
	assert.InDelta(t, 2000.0, groups.totalIncome, 0.001)
}

func TestCategorizeSubstringChecksBeforePrefixChecks(t *testing.T) {
	// A record whose keys would also match the tree_ prefix lands in crops
	// because the substring checks run first.
	rec := NewRecord([]string{"tree_crop_type"}, []string{"Cacao"})
	groups := categorizeRecords([]Record{rec})
	assert.Len(t, groups.crops, 1)
	assert.Empty(t, groups.trees)
}

func TestRecordDiscover(t *testing.T) {
	rec := NewRecord(
		[]string{"crops_grp_converted", "Crop_Type", "crop_age_yrs", "crop_total_cost"},
		[]string{"x", "Rice", "", "900"},
	)

	assert.Equal(t, "Rice", rec.Discover("crop", "type"))
	assert.Equal(t, "", rec.Discover("crop", "age"), "empty values are skipped")
	assert.Equal(t, "900", rec.Discover("crop", "total"))
	assert.Equal(t, "", rec.Discover("crop", "missing"))
}

func TestRecordDiscoverExcluding(t *testing.T) {
	rec := NewRecord(
		[]string{"income_unit_price", "income_unit"},
		[]string{"55", "kg"},
	)
	assert.Equal(t, "kg", rec.DiscoverExcluding("price", "income", "unit"))
}
