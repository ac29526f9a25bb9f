package docxmerge

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const parentKeyMarker = "PARENT_KEY"

// Record is one auxiliary-dataset row: header label to cell value, with the
// header order preserved so substring field discovery is deterministic.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord builds a record from parallel header and value slices. Headers
// are trimmed; empty headers and cells beyond the header row are ignored.
func NewRecord(headers, row []string) Record {
	r := Record{values: make(map[string]string, len(headers))}
	for i, header := range headers {
		label := strings.TrimSpace(header)
		if label == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		if _, seen := r.values[label]; !seen {
			r.keys = append(r.keys, label)
		}
		r.values[label] = value
	}
	return r
}

// Get returns the value for a header label, "" when absent.
func (r Record) Get(key string) string {
	return r.values[key]
}

// Keys returns the record's header labels in dataset order.
func (r Record) Keys() []string {
	return r.keys
}

// HasKeyPrefix reports whether any header label starts with one of the
// given prefixes.
func (r Record) HasKeyPrefix(prefixes ...string) bool {
	for _, key := range r.keys {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}
	return false
}

// HasKeySubstring reports whether any header label contains the given
// substring, case-insensitively.
func (r Record) HasKeySubstring(subs ...string) bool {
	for _, key := range r.keys {
		lower := strings.ToLower(key)
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

// Discover scans the record's headers in order for one containing every
// given term, case-insensitively, and returns the first non-empty value.
// Upstream column names vary, so roster categories that cannot rely on
// exact names use this instead.
func (r Record) Discover(terms ...string) string {
	for _, key := range r.keys {
		lower := strings.ToLower(key)
		match := true
		for _, term := range terms {
			if !strings.Contains(lower, term) {
				match = false
				break
			}
		}
		if match && r.values[key] != "" {
			return r.values[key]
		}
	}
	return ""
}

// DiscoverExcluding is Discover with a rejected term, for attribute names
// that are substrings of other attribute names (unit vs unit price).
func (r Record) DiscoverExcluding(exclude string, terms ...string) string {
	for _, key := range r.keys {
		lower := strings.ToLower(key)
		if strings.Contains(lower, exclude) {
			continue
		}
		match := true
		for _, term := range terms {
			if !strings.Contains(lower, term) {
				match = false
				break
			}
		}
		if match && r.values[key] != "" {
			return r.values[key]
		}
	}
	return ""
}

// AuxiliaryIndex groups auxiliary-dataset records by their parent key.
// Built once before any row is rendered and read-only afterwards.
type AuxiliaryIndex map[string][]Record

// Lookup returns the records linked to a key, empty for unmatched keys.
func (idx AuxiliaryIndex) Lookup(key string) []Record {
	return idx[strings.TrimSpace(key)]
}

// BuildAuxiliaryIndex loads every linked workbook and merges their records
// into one index. A workbook without a PARENT_KEY cell in row 3 is skipped
// with a warning; rows with an empty key are dropped.
func BuildAuxiliaryIndex(paths []string) (AuxiliaryIndex, error) {
	idx := make(AuxiliaryIndex)
	for _, path := range paths {
		rows, err := readSheet(path)
		if err != nil {
			return nil, err
		}

		keyCol := findMarkerColumn(rows, parentKeyMarker)
		if keyCol < 0 {
			log().Warn("PARENT_KEY column not found in row 4, skipping file",
				zap.String("path", path))
			continue
		}

		headers := rows[3]
		for _, row := range rows[dataStartRow:] {
			if keyCol >= len(row) {
				continue
			}
			key := strings.TrimSpace(row[keyCol])
			if key == "" {
				continue
			}
			idx[key] = append(idx[key], NewRecord(headers, row))
		}
	}
	return idx, nil
}

// recordGroups holds auxiliary records split by roster category. Savings
// rosters draw from the household-member group.
type recordGroups struct {
	householdMembers   []Record
	labor              []Record
	debt               []Record
	land               []Record
	structures         []Record
	affectedStructures []Record
	trees              []Record
	crops              []Record
	incomeLoss         []Record
	others             []Record

	// totalIncome accumulates hh_calc_total_inc across labor records for
	// the {hh_calc_total_sum} placeholder.
	totalIncome float64
}

// categorizeRecords assigns each record to the first category whose key
// pattern matches. The substring checks run before the prefix checks; the
// order is load-bearing because several schemas share prefixes.
func categorizeRecords(records []Record) *recordGroups {
	groups := &recordGroups{}
	for _, record := range records {
		switch {
		case record.HasKeySubstring("crop"):
			groups.crops = append(groups.crops, record)
		case record.HasKeySubstring("income_loss", "incomeloss"):
			groups.incomeLoss = append(groups.incomeLoss, record)
		case record.HasKeySubstring("others"):
			groups.others = append(groups.others, record)
		case record.HasKeyPrefix("hhcomp_hhmmbr_"):
			groups.householdMembers = append(groups.householdMembers, record)
		case record.HasKeyPrefix("hh_labor_", "hh_wrk_", "hh_calc_", "hh_total_"):
			groups.labor = append(groups.labor, record)
			if v := record.Get("hh_calc_total_inc"); v != "" {
				if inc, err := strconv.ParseFloat(v, 64); err == nil {
					groups.totalIncome += inc
				}
			}
		case record.HasKeyPrefix("debt_", "loan_", "pymt_"):
			groups.debt = append(groups.debt, record)
		case record.HasKeyPrefix("asset_land_"):
			groups.land = append(groups.land, record)
		case record.HasKeyPrefix("asset_struct_"):
			groups.structures = append(groups.structures, record)
		case record.HasKeyPrefix("affctd_struct_"):
			groups.affectedStructures = append(groups.affectedStructures, record)
		case record.HasKeyPrefix("tree_"):
			groups.trees = append(groups.trees, record)
		}
	}
	return groups
}
