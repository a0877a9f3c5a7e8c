package core

import (
	"sort"
	"strings"

	"github.com/fieldline/importer/internal/tabular"
)

// FindDuplicates groups rows by the normalized (lowercased, trimmed) value
// of one source column and returns every group with more than one row.
// Empty cells are skipped. Groups come back sorted by first occurrence so
// callers can render them deterministically.
func FindDuplicates(rows []tabular.Row, column string) []DuplicateGroup {
	byValue := make(map[string][]int)
	display := make(map[string]string)

	for _, row := range rows {
		value := strings.TrimSpace(row.Cells[column])
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, seen := byValue[key]; !seen {
			display[key] = value
		}
		byValue[key] = append(byValue[key], row.Number)
	}

	var groups []DuplicateGroup
	for key, nums := range byValue {
		if len(nums) < 2 {
			continue
		}
		sort.Ints(nums)
		groups = append(groups, DuplicateGroup{
			Value:      display[key],
			RowNumbers: nums,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].RowNumbers[0] < groups[j].RowNumbers[0]
	})

	return groups
}
