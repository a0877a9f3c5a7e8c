package core

import (
	"strings"
	"testing"

	"github.com/fieldline/importer/internal/schema"
)

func contactsTarget(t *testing.T) schema.Target {
	t.Helper()
	target, ok := schema.Get("contacts")
	if !ok {
		t.Fatal("contacts target not registered")
	}
	return target
}

func mappingBySource(t *testing.T, mappings []ColumnMapping, source string) ColumnMapping {
	t.Helper()
	for _, m := range mappings {
		if m.SourceColumn == source {
			return m
		}
	}
	t.Fatalf("no mapping for source column %q", source)
	return ColumnMapping{}
}

func TestProposeMappings_ExactAlias(t *testing.T) {
	target := contactsTarget(t)
	headers := []string{"Client Name", "Email", "Phone Number"}

	mappings := ProposeMappings(headers, target)

	if len(mappings) != len(headers) {
		t.Fatalf("len(mappings) = %d, want %d", len(mappings), len(headers))
	}

	tests := []struct {
		source    string
		wantField string
	}{
		{"Client Name", "displayName"},
		{"Email", "email"},
		{"Phone Number", "phone"},
	}
	for _, tt := range tests {
		m := mappingBySource(t, mappings, tt.source)
		if m.TargetField != tt.wantField {
			t.Errorf("%q mapped to %q, want %q", tt.source, m.TargetField, tt.wantField)
		}
		if m.Confidence != 1.0 {
			t.Errorf("%q confidence = %v, want 1.0", tt.source, m.Confidence)
		}
	}
}

func TestProposeMappings_FuzzyMatch(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"E-Mail Addr"}, target)

	m := mappings[0]
	if m.TargetField != "email" {
		t.Fatalf("mapped to %q, want %q", m.TargetField, "email")
	}
	if m.Confidence < MinMappingConfidence || m.Confidence >= 1.0 {
		t.Errorf("confidence = %v, want in [%v, 1.0)", m.Confidence, MinMappingConfidence)
	}
}

func TestProposeMappings_UnrecognizedHeaderUnmapped(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"xq7_internal_ref"}, target)

	if got := mappings[0].TargetField; got != "" {
		t.Errorf("garbage header mapped to %q, want unmapped", got)
	}
	if mappings[0].SourceColumn != "xq7_internal_ref" {
		t.Errorf("unmapped entry must keep its source column")
	}
}

func TestProposeMappings_OneToOne(t *testing.T) {
	target := contactsTarget(t)
	headers := []string{"Email", "E-mail Address"}

	mappings := ProposeMappings(headers, target)

	// Both headers match the email field exactly; only one may claim it.
	var claims int
	for _, m := range mappings {
		if m.TargetField == "email" {
			claims++
		}
	}
	if claims != 1 {
		t.Fatalf("email claimed by %d columns, want 1", claims)
	}

	// Ties resolve in header order.
	if mappings[0].TargetField != "email" {
		t.Errorf("first header should win the tie, got %q", mappings[0].TargetField)
	}
	if mappings[1].TargetField != "" {
		t.Errorf("second header should be unmapped, got %q", mappings[1].TargetField)
	}
}

func TestProposeMappings_OutputOrderMatchesHeaders(t *testing.T) {
	target := contactsTarget(t)
	headers := []string{"notes", "Email", "unrelated_col", "Client Name"}

	mappings := ProposeMappings(headers, target)

	for i, h := range headers {
		if mappings[i].SourceColumn != h {
			t.Errorf("mappings[%d].SourceColumn = %q, want %q", i, mappings[i].SourceColumn, h)
		}
	}
}

func TestProposeMappings_DefaultTransforms(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"Phone", "Date Added", "Email"}, target)

	if m := mappingBySource(t, mappings, "Phone"); m.Transform != TransformPhoneFormat {
		t.Errorf("phone transform = %q, want %q", m.Transform, TransformPhoneFormat)
	}
	if m := mappingBySource(t, mappings, "Date Added"); m.Transform != TransformDateFormat {
		t.Errorf("date transform = %q, want %q", m.Transform, TransformDateFormat)
	}
	if m := mappingBySource(t, mappings, "Email"); m.Transform != TransformNone {
		t.Errorf("email transform = %q, want %q", m.Transform, TransformNone)
	}
}

func TestProposeMappings_CarriesFieldMetadata(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"Status", "Email"}, target)

	status := mappingBySource(t, mappings, "Status")
	if status.DataType != schema.FieldEnum {
		t.Errorf("status DataType = %q, want %q", status.DataType, schema.FieldEnum)
	}
	if len(status.EnumValues) == 0 {
		t.Error("status mapping should carry the enum domain")
	}

	email := mappingBySource(t, mappings, "Email")
	if !email.Required {
		t.Error("email mapping should be marked required")
	}
}

func TestUpdateMapping(t *testing.T) {
	target := contactsTarget(t)
	mappings := ProposeMappings([]string{"Client Name", "Email", "misc"}, target)

	t.Run("manual assignment", func(t *testing.T) {
		updated, err := UpdateMapping(mappings, "misc", "notes", target)
		if err != nil {
			t.Fatalf("UpdateMapping() error = %v", err)
		}
		m := mappingBySource(t, updated, "misc")
		if m.TargetField != "notes" {
			t.Errorf("TargetField = %q, want %q", m.TargetField, "notes")
		}
		if m.Confidence != 1.0 {
			t.Errorf("Confidence = %v, want 1.0 for explicit assignment", m.Confidence)
		}
	})

	t.Run("reassignment clears previous claimant", func(t *testing.T) {
		updated, err := UpdateMapping(mappings, "misc", "email", target)
		if err != nil {
			t.Fatalf("UpdateMapping() error = %v", err)
		}
		if m := mappingBySource(t, updated, "Email"); m.TargetField != "" {
			t.Errorf("previous claimant still mapped to %q", m.TargetField)
		}
		if m := mappingBySource(t, updated, "misc"); m.TargetField != "email" {
			t.Errorf("misc mapped to %q, want email", m.TargetField)
		}
	})

	t.Run("empty target unmaps", func(t *testing.T) {
		updated, err := UpdateMapping(mappings, "Email", "", target)
		if err != nil {
			t.Fatalf("UpdateMapping() error = %v", err)
		}
		if m := mappingBySource(t, updated, "Email"); m.TargetField != "" {
			t.Errorf("TargetField = %q, want unmapped", m.TargetField)
		}
	})

	t.Run("unknown source column", func(t *testing.T) {
		if _, err := UpdateMapping(mappings, "nope", "email", target); err == nil {
			t.Error("expected error for unknown source column")
		}
	})

	t.Run("unknown target field", func(t *testing.T) {
		if _, err := UpdateMapping(mappings, "misc", "nonexistent", target); err == nil {
			t.Error("expected error for unknown target field")
		}
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		before := mappingBySource(t, mappings, "Email").TargetField
		_, err := UpdateMapping(mappings, "Email", "", target)
		if err != nil {
			t.Fatalf("UpdateMapping() error = %v", err)
		}
		if after := mappingBySource(t, mappings, "Email").TargetField; after != before {
			t.Error("UpdateMapping mutated its input")
		}
	})
}

func TestValidateMappings(t *testing.T) {
	target := contactsTarget(t)

	t.Run("complete mappings pass", func(t *testing.T) {
		mappings := ProposeMappings([]string{"Client Name", "Email"}, target)
		ok, reasons := ValidateMappings(mappings, target)
		if !ok {
			t.Errorf("ValidateMappings() = false, reasons %v", reasons)
		}
	})

	t.Run("missing required field is reported by label", func(t *testing.T) {
		mappings := ProposeMappings([]string{"Email"}, target)
		ok, reasons := ValidateMappings(mappings, target)
		if ok {
			t.Fatal("ValidateMappings() = true, want false")
		}
		var found bool
		for _, r := range reasons {
			if strings.Contains(r, "Display Name") {
				found = true
			}
		}
		if !found {
			t.Errorf("reasons %v should name the missing required field label", reasons)
		}
	})

	t.Run("duplicate claims are reported", func(t *testing.T) {
		mappings := []ColumnMapping{
			{SourceColumn: "a", TargetField: "email"},
			{SourceColumn: "b", TargetField: "email"},
			{SourceColumn: "c", TargetField: "displayName"},
		}
		ok, reasons := ValidateMappings(mappings, target)
		if ok {
			t.Fatal("ValidateMappings() = true, want false")
		}
		var found bool
		for _, r := range reasons {
			if strings.Contains(r, "both mapped") {
				found = true
			}
		}
		if !found {
			t.Errorf("reasons %v should report the duplicate claim", reasons)
		}
	})
}

func TestUnmappedRequiredFields(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"Email"}, target)
	missing := UnmappedRequiredFields(mappings, target)

	if len(missing) != 1 || missing[0].Name != "displayName" {
		t.Errorf("UnmappedRequiredFields() = %v, want [displayName]", missing)
	}
}

func TestAvailableFields(t *testing.T) {
	target := contactsTarget(t)

	mappings := ProposeMappings([]string{"Client Name", "Email"}, target)
	available := AvailableFields(mappings, target)

	for _, f := range available {
		if f.Name == "displayName" || f.Name == "email" {
			t.Errorf("claimed field %q listed as available", f.Name)
		}
	}
	if len(available) != len(target.Fields)-2 {
		t.Errorf("len(available) = %d, want %d", len(available), len(target.Fields)-2)
	}
}
