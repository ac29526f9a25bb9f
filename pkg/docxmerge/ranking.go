package docxmerge

import (
	"fmt"
	"strings"
)

// Field names of the ranked multiselect and its companions.
const (
	rankedNeedsField       = "bus_info_needs"
	rankedNeedsOtherField  = "bus_info_needs_o"
	rankedNeedsRankField   = "bus_info_needs_rank"
	rankedNeedsReasonField = "bus_info_needs_rank_reason"
	rankedNeedsReasonSlots = 9
)

// rankedNeedsFields lists the dataset fields the expansion reads: the
// multiselect itself, its free-text companion, and the reason slots.
func rankedNeedsFields() []string {
	fields := []string{rankedNeedsField, rankedNeedsOtherField}
	for i := 1; i <= rankedNeedsReasonSlots; i++ {
		fields = append(fields, fmt.Sprintf("%s%d", rankedNeedsReasonField, i))
	}
	return fields
}

// RankedNeeds is the expansion of the ranked multiselect field: cleaned
// items in selection order, their 1..N ranks, and indexed reason slots.
type RankedNeeds struct {
	Items   []string
	Reasons []string
}

// ProcessRankedNeeds cleans the comma-separated multiselect value: items
// are trimmed, empty and "NA" entries dropped, and an "Others" or "specify"
// token merged with the companion free-text field. Reason slot i holds the
// caller-supplied reason when present, the literal placeholder when the
// slot is ranked but the reason is missing (left for manual completion),
// and "" beyond the ranked items.
func ProcessRankedNeeds(values map[string]string) RankedNeeds {
	raw := strings.TrimSpace(values[rankedNeedsField])
	other := strings.TrimSpace(values[rankedNeedsOtherField])

	result := RankedNeeds{Reasons: make([]string, rankedNeedsReasonSlots)}
	if isBlank(raw) {
		return result
	}

	// "Others, specify" arrives as two comma-separated tokens; the merged
	// item is emitted at most once per expansion.
	merged := false
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" || strings.EqualFold(item, "na") {
			continue
		}
		if strings.EqualFold(item, "others") || strings.EqualFold(item, "specify") {
			if merged {
				continue
			}
			merged = true
			if !isBlank(other) {
				result.Items = append(result.Items, "Others, specify: "+other)
			} else {
				result.Items = append(result.Items, "Others, specify")
			}
			continue
		}
		result.Items = append(result.Items, item)
	}

	for i := 0; i < rankedNeedsReasonSlots; i++ {
		if i >= len(result.Items) {
			continue
		}
		key := fmt.Sprintf("%s%d", rankedNeedsReasonField, i+1)
		if reason := strings.TrimSpace(values[key]); reason != "" && !strings.EqualFold(reason, "na") {
			result.Reasons[i] = reason
		} else {
			result.Reasons[i] = "{" + key + "}"
		}
	}
	return result
}

// ItemList returns the items joined one per line.
func (r RankedNeeds) ItemList() string {
	return strings.Join(r.Items, "\n")
}

// RankList returns the rank numbers 1..N joined one per line.
func (r RankedNeeds) RankList() string {
	ranks := make([]string, len(r.Items))
	for i := range r.Items {
		ranks[i] = fmt.Sprintf("%d", i+1)
	}
	return strings.Join(ranks, "\n")
}

// Merge writes the expansion into a replacement map, overwriting any
// same-named keys.
func (r RankedNeeds) Merge(values map[string]string) {
	values[rankedNeedsField] = r.ItemList()
	values[rankedNeedsRankField] = r.RankList()
	for i, reason := range r.Reasons {
		values[fmt.Sprintf("%s%d", rankedNeedsReasonField, i+1)] = reason
	}
}

// isBlank reports whether a multiselect value carries no data. "nan" shows
// up in exports of missing cells and counts as blank.
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "na")
}
