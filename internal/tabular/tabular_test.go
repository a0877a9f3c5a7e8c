package tabular

import (
	"strings"
	"testing"
)

func TestParse_SimpleCSV(t *testing.T) {
	content := []byte("name,email,phone\nAcme Corp,info@acme.com,555-1234\nGlobex,hello@globex.com,555-5678\n")

	table := Parse(content, Options{})

	if table.Fatal() {
		t.Fatalf("Parse() unexpected fatal issues: %v", table.Issues)
	}
	wantHeaders := []string{"name", "email", "phone"}
	if len(table.Headers) != len(wantHeaders) {
		t.Fatalf("Headers = %v, want %v", table.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if table.Headers[i] != h {
			t.Errorf("Headers[%d] = %q, want %q", i, table.Headers[i], h)
		}
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if got := table.Rows[0].Cells["email"]; got != "info@acme.com" {
		t.Errorf("Rows[0][email] = %q, want %q", got, "info@acme.com")
	}
	if table.Rows[0].Number != 1 || table.Rows[1].Number != 2 {
		t.Errorf("row numbers = %d, %d, want 1, 2", table.Rows[0].Number, table.Rows[1].Number)
	}
}

func TestParse_QuotedFieldWithDelimiter(t *testing.T) {
	content := []byte("name,notes\n\"Smith, John\",regular\n")

	table := Parse(content, Options{})

	if len(table.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(table.Rows))
	}
	if got := table.Rows[0].Cells["name"]; got != "Smith, John" {
		t.Errorf("name = %q, want %q", got, "Smith, John")
	}
	if table.Rows[0].ColumnCountMismatch {
		t.Error("quoted comma must not split the field")
	}
}

func TestParse_EscapedQuotes(t *testing.T) {
	content := []byte("name,notes\nAcme,\"said \"\"call me\"\"\"\n")

	table := Parse(content, Options{})

	if got := table.Rows[0].Cells["notes"]; got != `said "call me"` {
		t.Errorf("notes = %q, want %q", got, `said "call me"`)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content []byte
	}{
		{"zero bytes", []byte{}},
		{"whitespace only", []byte("   \n\n  \r\n")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			table := Parse(tc.content, Options{})
			if !table.Fatal() {
				t.Error("Parse() of empty input should be fatal")
			}
			if len(table.Rows) != 0 {
				t.Errorf("len(Rows) = %d, want 0", len(table.Rows))
			}
		})
	}
}

func TestParse_DuplicateHeaders(t *testing.T) {
	content := []byte("email,name,Email\na@b.com,Acme,c@d.com\n")

	table := Parse(content, Options{})

	if table.Fatal() {
		t.Fatalf("duplicate headers must not be fatal: %v", table.Issues)
	}
	if got := table.Headers[2]; got != "Email (3)" {
		t.Errorf("Headers[2] = %q, want %q", got, "Email (3)")
	}
	// Both columns stay addressable
	if got := table.Rows[0].Cells["email"]; got != "a@b.com" {
		t.Errorf("Cells[email] = %q, want %q", got, "a@b.com")
	}
	if got := table.Rows[0].Cells["Email (3)"]; got != "c@d.com" {
		t.Errorf("Cells[Email (3)] = %q, want %q", got, "c@d.com")
	}

	var warned bool
	for _, is := range table.Issues {
		if is.Severity == SeverityWarning && strings.Contains(is.Message, "duplicate header") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a duplicate header warning, got %v", table.Issues)
	}
}

func TestParse_ColumnCountMismatch(t *testing.T) {
	t.Run("fewer columns", func(t *testing.T) {
		table := Parse([]byte("a,b,c\n1,2\n"), Options{})

		row := table.Rows[0]
		if !row.ColumnCountMismatch {
			t.Error("expected ColumnCountMismatch")
		}
		if got := row.Cells["c"]; got != "" {
			t.Errorf("missing cell = %q, want empty", got)
		}
		if len(table.Issues) != 1 || table.Issues[0].Severity != SeverityError {
			t.Errorf("want one error issue, got %v", table.Issues)
		}
	})

	t.Run("extra columns", func(t *testing.T) {
		table := Parse([]byte("a,b\n1,2,3\n"), Options{})

		row := table.Rows[0]
		if !row.ColumnCountMismatch {
			t.Error("expected ColumnCountMismatch")
		}
		if got := row.Cells["b"]; got != "2" {
			t.Errorf("Cells[b] = %q, want %q", got, "2")
		}
		if len(table.Issues) != 1 || table.Issues[0].Severity != SeverityWarning {
			t.Errorf("want one warning issue, got %v", table.Issues)
		}
	})
}

func TestParse_NoHeader(t *testing.T) {
	table := Parse([]byte("Acme,a@b.com\nGlobex,c@d.com\n"), Options{NoHeader: true})

	if len(table.Headers) != 2 {
		t.Fatalf("len(Headers) = %d, want 2", len(table.Headers))
	}
	if table.Headers[0] != "column_1" || table.Headers[1] != "column_2" {
		t.Errorf("Headers = %v, want [column_1 column_2]", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (first line is data)", len(table.Rows))
	}
	if got := table.Rows[0].Cells["column_1"]; got != "Acme" {
		t.Errorf("Cells[column_1] = %q, want %q", got, "Acme")
	}
}

func TestParse_ForcedDelimiter(t *testing.T) {
	// Commas in the data would win auto-detection; the forced semicolon
	// must be honored.
	table := Parse([]byte("a;b\n1,2;3,4\n"), Options{Delimiter: ';'})

	if got := table.Rows[0].Cells["a"]; got != "1,2" {
		t.Errorf("Cells[a] = %q, want %q", got, "1,2")
	}
}

func TestParse_StripsBOM(t *testing.T) {
	content := append([]byte("\xef\xbb\xbf"), []byte("name,email\nAcme,a@b.com\n")...)

	table := Parse(content, Options{})

	if table.Headers[0] != "name" {
		t.Errorf("Headers[0] = %q, want %q (BOM must be stripped)", table.Headers[0], "name")
	}
}

func TestParse_InvalidUTF8Replaced(t *testing.T) {
	content := []byte("name,notes\nAcme,caf\xff\n")

	table := Parse(content, Options{})

	got := table.Rows[0].Cells["notes"]
	if !strings.Contains(got, "�") {
		t.Errorf("notes = %q, want replacement rune for invalid byte", got)
	}
}

func TestParse_CRLFAndBlankLines(t *testing.T) {
	table := Parse([]byte("name,email\r\n\r\nAcme,a@b.com\r\n\r\n"), Options{})

	if len(table.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1 (blank lines skipped)", len(table.Rows))
	}
	if got := table.Rows[0].Cells["name"]; got != "Acme" {
		t.Errorf("Cells[name] = %q, want %q", got, "Acme")
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  rune
	}{
		{
			name:  "comma",
			lines: []string{"a,b,c", "1,2,3", "4,5,6"},
			want:  ',',
		},
		{
			name:  "semicolon",
			lines: []string{"a;b;c", "1;2;3"},
			want:  ';',
		},
		{
			name:  "tab",
			lines: []string{"a\tb\tc", "1\t2\t3"},
			want:  '\t',
		},
		{
			name:  "pipe",
			lines: []string{"a|b|c", "1|2|3"},
			want:  '|',
		},
		{
			name:  "tie resolves to comma",
			lines: []string{"a,b;c", "1,2;3"},
			want:  ',',
		},
		{
			name:  "no delimiter falls back to comma",
			lines: []string{"plainline", "another"},
			want:  ',',
		},
		{
			name:  "consistent semicolon beats erratic comma",
			lines: []string{"a,;b;c", "1,,,;2;3", "4;5;6", "7;8;9"},
			want:  ';',
		},
		{
			name:  "quoted commas do not count",
			lines: []string{`"a,a";b;c`, `"1,1";2;3`},
			want:  ';',
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.lines); got != tt.want {
				t.Errorf("DetectDelimiter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSupportedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"contacts.csv", true},
		{"contacts.CSV", true},
		{"data.tsv", true},
		{"notes.txt", true},
		{"report.xlsx", false},
		{"archive.zip", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		if got := SupportedFile(tt.name); got != tt.want {
			t.Errorf("SupportedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTokenizeLine_TrimsFields(t *testing.T) {
	fields := tokenizeLine("  Acme  , a@b.com ,  555 ", ',')

	want := []string{"Acme", "a@b.com", "555"}
	if len(fields) != len(want) {
		t.Fatalf("len(fields) = %d, want %d", len(fields), len(want))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}
