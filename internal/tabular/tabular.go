// Package tabular parses delimited text exported from spreadsheets into an
// ordered table of header-addressed rows.
//
// The parser is deliberately tolerant: it detects the delimiter from a sample
// of the input, honors quoted fields (including escaped quotes), and keeps
// going when rows are malformed, recording issues instead of failing. Only an
// empty file is fatal.
package tabular

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Severity classifies how an issue affects the row it is attached to.
type Severity string

const (
	// SeverityError blocks the affected row from importing.
	SeverityError Severity = "error"
	// SeverityWarning is informational; the row still imports.
	SeverityWarning Severity = "warning"
)

// Issue is a diagnostic attached to a row, a column, or the file itself.
// Row is the 1-based data row number (the header is not counted); zero means
// the issue applies at file or header level.
type Issue struct {
	Row      int      `json:"row,omitempty"`
	Column   string   `json:"column,omitempty"`
	Value    string   `json:"value,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Row is a single data row keyed by header name.
type Row struct {
	Number              int               `json:"number"`
	Cells               map[string]string `json:"cells"`
	ColumnCountMismatch bool              `json:"columnCountMismatch,omitempty"`
}

// Table is the result of parsing one file.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
	Issues  []Issue  `json:"issues,omitempty"`
}

// Fatal reports whether the table carries a file-level error that blocks
// the import from progressing.
func (t *Table) Fatal() bool {
	for _, is := range t.Issues {
		if is.Row == 0 && is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Options controls parsing behavior.
type Options struct {
	// Delimiter forces a field separator. Zero means auto-detect.
	Delimiter rune
	// NoHeader treats the first line as data; headers become column_1..column_N.
	NoHeader bool
}

// candidateDelimiters are tried during detection, comma first so that ties
// resolve to comma.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffSampleLines is how many non-empty lines delimiter detection samples.
const sniffSampleLines = 5

// supportedExtensions are the file types accepted for parsing.
var supportedExtensions = map[string]bool{
	".csv": true,
	".tsv": true,
	".txt": true,
}

// SupportedFile reports whether the file name has an accepted extension.
// Unsupported types are rejected before parsing is attempted.
func SupportedFile(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Parse converts raw file bytes into a Table.
//
// Invalid UTF-8 is replaced, a leading BOM is stripped, and blank lines are
// ignored. An input with no remaining lines yields a table with zero rows and
// a single fatal issue.
func Parse(content []byte, opts Options) *Table {
	content = sanitizeUTF8(content)
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	lines := splitLines(string(content))

	t := &Table{}
	if len(lines) == 0 {
		t.Issues = append(t.Issues, Issue{
			Message:  "file is empty",
			Severity: SeverityError,
		})
		return t
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(lines)
	}

	var headerLine string
	dataLines := lines
	if opts.NoHeader {
		// Synthesize positional headers from the width of the first line.
		width := len(tokenizeLine(lines[0], delim))
		headers := make([]string, width)
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		t.Headers = headers
	} else {
		headerLine = lines[0]
		dataLines = lines[1:]
		t.Headers, t.Issues = buildHeaders(tokenizeLine(headerLine, delim), t.Issues)
	}

	for i, line := range dataLines {
		rowNum := i + 1
		cells := tokenizeLine(line, delim)
		row := Row{
			Number: rowNum,
			Cells:  make(map[string]string, len(t.Headers)),
		}

		if len(cells) != len(t.Headers) {
			row.ColumnCountMismatch = true
			sev := SeverityWarning
			if len(cells) < len(t.Headers) {
				sev = SeverityError
			}
			t.Issues = append(t.Issues, Issue{
				Row:      rowNum,
				Message:  fmt.Sprintf("row has %d columns, expected %d", len(cells), len(t.Headers)),
				Severity: sev,
			})
		}

		for j, h := range t.Headers {
			if j < len(cells) {
				row.Cells[h] = cells[j]
			} else {
				row.Cells[h] = ""
			}
		}
		// Cells beyond the header count are dropped.

		t.Rows = append(t.Rows, row)
	}

	return t
}

// buildHeaders trims header cells and disambiguates duplicates so every
// column stays individually addressable. Duplicate names (compared case- and
// whitespace-insensitively) are reported as warnings.
func buildHeaders(raw []string, issues []Issue) ([]string, []Issue) {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, h := range raw {
		name := strings.TrimSpace(h)
		key := strings.ToLower(name)

		if first, dup := seen[key]; dup {
			issues = append(issues, Issue{
				Column:   name,
				Message:  fmt.Sprintf("duplicate header %q (columns %d and %d)", name, first+1, i+1),
				Severity: SeverityWarning,
			})
			name = fmt.Sprintf("%s (%d)", name, i+1)
		} else {
			seen[key] = i
		}

		headers[i] = name
	}

	return headers, issues
}

// DetectDelimiter picks the most likely field separator by sampling the
// first few non-empty lines. For each candidate it counts occurrences per
// line while tracking quote state, then scores mean/(1+stddev) over the
// non-zero counts. Comma wins ties and is the fallback when nothing scores.
func DetectDelimiter(lines []string) rune {
	sample := lines
	if len(sample) > sniffSampleLines {
		sample = sample[:sniffSampleLines]
	}

	best := ','
	bestScore := 0.0

	for _, delim := range candidateDelimiters {
		var counts []float64
		for _, line := range sample {
			if n := countOutsideQuotes(line, delim); n > 0 {
				counts = append(counts, float64(n))
			}
		}
		if len(counts) == 0 {
			continue
		}

		mean := 0.0
		for _, c := range counts {
			mean += c
		}
		mean /= float64(len(counts))

		variance := 0.0
		for _, c := range counts {
			variance += (c - mean) * (c - mean)
		}
		stddev := math.Sqrt(variance / float64(len(counts)))

		score := mean / (1 + stddev)
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}

	return best
}

// countOutsideQuotes counts occurrences of delim that sit outside quoted
// sections. A doubled quote inside a quoted section is an escaped literal
// quote and does not toggle state.
func countOutsideQuotes(line string, delim rune) int {
	count := 0
	inQuotes := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				i++ // escaped quote, stay inside
				continue
			}
			inQuotes = !inQuotes
		case runes[i] == delim && !inQuotes:
			count++
		}
	}

	return count
}

// tokenizeLine splits a line on delim in a single pass, honoring quote state
// and unescaping doubled quotes. Each field is trimmed.
func tokenizeLine(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

// splitLines breaks content into lines, dropping blank ones.
func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
