package core

// validate.go checks mapped row values against their declared field types.
//
// Only mapped columns are checked; unmapped source columns are ignored.
// A failing required field produces an error-severity issue, a failing
// optional field only a warning. Rows import only when they carry no
// error-severity issue at all, parse-time or field-level.

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fieldline/importer/internal/schema"
	"github.com/fieldline/importer/internal/tabular"
	"github.com/shopspring/decimal"
)

var (
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	// phoneStripper removes the separators humans put in phone numbers.
	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "")
)

// dateLayouts are the textual date shapes accepted in addition to ISO.
// Layouts with both padded and unpadded variants cover common exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2-1-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ValidateRows runs the per-field validators over every row and classifies
// each as valid or invalid. Rows the parser already flagged with an
// error-severity issue (short rows with missing cells) are invalid no matter
// what the field checks say. The returned issues are the concatenation of
// all row issues, in ascending row order; parse issues are not repeated.
func ValidateRows(t *tabular.Table, mappings []ColumnMapping) ([]ValidatedRow, []Issue) {
	parseErrors := make(map[int]bool)
	for _, is := range t.Issues {
		if is.Row > 0 && is.Severity == tabular.SeverityError {
			parseErrors[is.Row] = true
		}
	}

	validated := make([]ValidatedRow, 0, len(t.Rows))
	var all []Issue

	for _, row := range t.Rows {
		vr := ValidatedRow{Row: row, Valid: !parseErrors[row.Number]}

		for _, m := range mappings {
			if m.TargetField == "" {
				continue
			}

			value := row.Cells[m.SourceColumn]
			msg := ValidateValue(value, m)
			if msg == "" {
				continue
			}

			sev := SeverityWarning
			if m.Required {
				sev = SeverityError
				vr.Valid = false
			}
			vr.Issues = append(vr.Issues, Issue{
				Row:      row.Number,
				Column:   m.SourceColumn,
				Value:    value,
				Message:  msg,
				Severity: sev,
			})
		}

		all = append(all, vr.Issues...)
		validated = append(validated, vr)
	}

	return validated, all
}

// ValidateValue checks a single raw cell value against its mapping's
// declared type. Returns an empty string when the value is acceptable, or a
// human-readable problem description.
//
// Empty optional values are always acceptable; empty required values never
// are, regardless of type.
func ValidateValue(value string, m ColumnMapping) string {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		if m.Required {
			return "required value is missing"
		}
		return ""
	}

	switch m.DataType {
	case schema.FieldString:
		return ""

	case schema.FieldEmail:
		if !emailRegex.MatchString(trimmed) {
			return "invalid email address"
		}

	case schema.FieldPhone:
		digits := phoneStripper.Replace(trimmed)
		if len(digits) < 7 || len(digits) > 15 || !allDigits(digits) {
			return "invalid phone number (expected 7-15 digits)"
		}

	case schema.FieldDate:
		if _, ok := parseDate(trimmed); !ok {
			return "unrecognized date format"
		}

	case schema.FieldNumber:
		if _, err := parseNumeric(trimmed); err != nil {
			return "invalid number"
		}

	case schema.FieldCurrency:
		d, err := parseNumeric(trimmed)
		if err != nil {
			return "invalid currency amount"
		}
		if d.IsNegative() {
			return "currency amount cannot be negative"
		}

	case schema.FieldBoolean:
		if !isBooleanWord(trimmed) {
			return "must be one of true/false, yes/no, 1/0, y/n"
		}

	case schema.FieldEnum:
		for _, ev := range m.EnumValues {
			if strings.EqualFold(ev, trimmed) {
				return ""
			}
		}
		return fmt.Sprintf("value must be one of: %s", strings.Join(m.EnumValues, ", "))
	}

	return ""
}

// parseDate tries ISO and the common textual layouts.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric strips currency symbols, thousands separators, and
// whitespace before parsing. Accounting-style negatives "(123.45)" are
// honored.
func parseNumeric(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
	if negative {
		s = "-" + s
	}

	return decimal.NewFromString(s)
}

func isBooleanWord(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no", "1", "0", "y", "n":
		return true
	default:
		return false
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
