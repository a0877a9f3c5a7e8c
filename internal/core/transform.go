package core

// transform.go applies persistence-time value transforms.
//
// Transforms run after validation, never before, so validators always see
// the raw input. Every transform passes unparseable input through unchanged
// rather than guessing.

import (
	"fmt"
	"strings"

	"github.com/fieldline/importer/internal/tabular"
)

// ApplyTransform runs a single named transform over a raw value.
// Unknown transform names pass the value through.
func ApplyTransform(value string, t Transform) string {
	switch t {
	case TransformUppercase:
		return strings.ToUpper(value)
	case TransformLowercase:
		return strings.ToLower(value)
	case TransformTrim:
		return strings.TrimSpace(value)
	case TransformPhoneFormat:
		return formatPhone(value)
	case TransformDateFormat:
		return formatDate(value)
	case TransformCurrencyFormat:
		return formatCurrency(value)
	default:
		return value
	}
}

// BuildRecord produces the field map handed to the repository for one row:
// each mapped column's raw value with its transform applied, keyed by target
// field name. Unmapped columns and empty values are omitted.
func BuildRecord(row tabular.Row, mappings []ColumnMapping) map[string]string {
	record := make(map[string]string, len(mappings))

	for _, m := range mappings {
		if m.TargetField == "" {
			continue
		}
		value := strings.TrimSpace(row.Cells[m.SourceColumn])
		if value == "" {
			continue
		}
		record[m.TargetField] = ApplyTransform(value, m.Transform)
	}

	return record
}

// formatPhone reformats 10-digit US numbers to (XXX) XXX-XXXX and 11-digit
// leading-1 numbers to +1 (XXX) XXX-XXXX. Anything else passes through.
func formatPhone(value string) string {
	digits := phoneStripper.Replace(strings.TrimSpace(value))
	if !allDigits(digits) {
		return value
	}

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	default:
		return value
	}
}

// formatDate reformats any accepted date shape to ISO YYYY-MM-DD.
func formatDate(value string) string {
	t, ok := parseDate(strings.TrimSpace(value))
	if !ok {
		return value
	}
	return t.Format("2006-01-02")
}

// formatCurrency strips symbols and separators and fixes the amount to two
// decimal places.
func formatCurrency(value string) string {
	d, err := parseNumeric(value)
	if err != nil {
		return value
	}
	return d.StringFixed(2)
}
