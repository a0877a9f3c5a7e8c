package core

// mapper.go proposes column-to-field mappings for parsed headers.
//
// Matching runs in two tiers: an exact (normalized) match against a field's
// known aliases wins outright, otherwise headers are scored against the
// field's name, label, and aliases using containment and edit-distance
// similarity. Assignment is greedy by confidence and strictly one-to-one;
// a field can only be claimed by a single header.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/fieldline/importer/internal/schema"
)

// MinMappingConfidence is the threshold below which a header is left
// unmapped rather than guessed.
const MinMappingConfidence = 0.5

// ProposeMappings computes a ColumnMapping for every header against the
// target's field catalog. Output order matches header order regardless of
// assignment order. Headers with no confident match come back with an empty
// TargetField for manual assignment.
func ProposeMappings(headers []string, target schema.Target) []ColumnMapping {
	type candidate struct {
		headerIdx  int
		field      schema.FieldDefinition
		confidence float64
	}

	candidates := make([]candidate, 0, len(headers))
	for i, header := range headers {
		var best schema.FieldDefinition
		bestScore := 0.0

		for _, field := range target.Fields {
			score := fieldScore(header, field)
			if score > bestScore {
				bestScore = score
				best = field
			}
		}

		candidates = append(candidates, candidate{headerIdx: i, field: best, confidence: bestScore})
	}

	// Highest confidence claims its field first. Ties keep header order so
	// the outcome is deterministic.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].confidence > candidates[order[b]].confidence
	})

	claimed := make(map[string]bool, len(target.Fields))
	mappings := make([]ColumnMapping, len(headers))

	for _, idx := range order {
		c := candidates[idx]
		m := ColumnMapping{
			SourceColumn: headers[c.headerIdx],
			Transform:    TransformNone,
		}

		if c.confidence >= MinMappingConfidence && c.field.Name != "" && !claimed[c.field.Name] {
			claimed[c.field.Name] = true
			m = mappingFor(headers[c.headerIdx], c.field)
			m.Confidence = c.confidence
		}

		mappings[c.headerIdx] = m
	}

	return mappings
}

// mappingFor builds a mapping bound to a catalog field, carrying over the
// field's type, requiredness, enum domain, and the default transform for
// its type.
func mappingFor(header string, field schema.FieldDefinition) ColumnMapping {
	return ColumnMapping{
		SourceColumn: header,
		TargetField:  field.Name,
		DataType:     field.Type,
		Required:     field.Required,
		Transform:    defaultTransform(field.Type),
		EnumValues:   field.EnumValues,
	}
}

// defaultTransform picks the persistence-time transform that normalizes a
// field type's canonical storage format.
func defaultTransform(t schema.FieldType) Transform {
	switch t {
	case schema.FieldPhone:
		return TransformPhoneFormat
	case schema.FieldDate:
		return TransformDateFormat
	case schema.FieldCurrency:
		return TransformCurrencyFormat
	default:
		return TransformNone
	}
}

// fieldScore computes the confidence that header refers to field.
// An exact normalized match to a known alias (or the canonical name or
// label) short-circuits with 1.0; otherwise the best similarity across
// name, label, and aliases is used.
func fieldScore(header string, field schema.FieldDefinition) float64 {
	h := normalize(header)
	if h == "" {
		return 0
	}

	names := make([]string, 0, len(field.Aliases)+2)
	names = append(names, field.Name, field.Label)
	names = append(names, field.Aliases...)

	best := 0.0
	for _, name := range names {
		n := normalize(name)
		if n == "" {
			continue
		}
		if h == n {
			return 1.0
		}
		if s := similarity(h, n); s > best {
			best = s
		}
	}

	return best
}

// similarity scores two normalized strings: 0.8 when either contains the
// other, otherwise 1 - levenshtein/maxLen.
func similarity(a, b string) float64 {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UnmappedRequiredFields returns the target's required fields that no
// mapping claims. These block the transition out of the mapping stage.
func UnmappedRequiredFields(mappings []ColumnMapping, target schema.Target) []schema.FieldDefinition {
	mapped := mappedFieldSet(mappings)

	var missing []schema.FieldDefinition
	for _, f := range target.RequiredFields() {
		if !mapped[f.Name] {
			missing = append(missing, f)
		}
	}
	return missing
}

// AvailableFields returns catalog fields not yet claimed by any mapping,
// for manual assignment in a mapping UI.
func AvailableFields(mappings []ColumnMapping, target schema.Target) []schema.FieldDefinition {
	mapped := mappedFieldSet(mappings)

	var available []schema.FieldDefinition
	for _, f := range target.Fields {
		if !mapped[f.Name] {
			available = append(available, f)
		}
	}
	return available
}

// UpdateMapping reassigns sourceColumn to targetField, clearing any other
// mapping that previously claimed the same field so the one-to-one
// invariant holds. An empty targetField unmaps the column.
func UpdateMapping(mappings []ColumnMapping, sourceColumn, targetField string, target schema.Target) ([]ColumnMapping, error) {
	idx := -1
	for i, m := range mappings {
		if m.SourceColumn == sourceColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown source column %q", sourceColumn)
	}

	out := make([]ColumnMapping, len(mappings))
	copy(out, mappings)

	if targetField == "" {
		out[idx] = ColumnMapping{SourceColumn: sourceColumn, Transform: TransformNone}
		return out, nil
	}

	field, ok := target.Field(targetField)
	if !ok {
		return nil, fmt.Errorf("target %s has no field %q", target.Key, targetField)
	}

	for i := range out {
		if i != idx && out[i].TargetField == targetField {
			out[i] = ColumnMapping{SourceColumn: out[i].SourceColumn, Transform: TransformNone}
		}
	}

	m := mappingFor(sourceColumn, field)
	m.Confidence = 1.0 // explicit user assignment
	out[idx] = m

	return out, nil
}

// ValidateMappings checks that every required field is mapped and that no
// field is claimed twice. Returns ok=false with one human-readable reason
// per problem.
func ValidateMappings(mappings []ColumnMapping, target schema.Target) (bool, []string) {
	var reasons []string

	for _, f := range UnmappedRequiredFields(mappings, target) {
		reasons = append(reasons, fmt.Sprintf("required field %q is not mapped", f.Label))
	}

	seen := make(map[string]string, len(mappings))
	for _, m := range mappings {
		if m.TargetField == "" {
			continue
		}
		if prev, dup := seen[m.TargetField]; dup {
			reasons = append(reasons, fmt.Sprintf("columns %q and %q are both mapped to field %q", prev, m.SourceColumn, m.TargetField))
			continue
		}
		seen[m.TargetField] = m.SourceColumn
	}

	return len(reasons) == 0, reasons
}

func mappedFieldSet(mappings []ColumnMapping) map[string]bool {
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.TargetField != "" {
			mapped[m.TargetField] = true
		}
	}
	return mapped
}
