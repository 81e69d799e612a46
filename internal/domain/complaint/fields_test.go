package complaint

import "testing"

func TestSourceFields(t *testing.T) {
	if len(SourceFields) != 19 {
		t.Fatalf("len(SourceFields) = %d, want 19", len(SourceFields))
	}
	seen := make(map[string]bool)
	for _, f := range SourceFields {
		if seen[f] {
			t.Errorf("duplicate source field %q", f)
		}
		seen[f] = true
	}
	for _, f := range BaseAggExclude {
		if !seen[f] {
			t.Errorf("excluded field %q is not a source field", f)
		}
	}
}

func TestExportHeaders(t *testing.T) {
	if len(ExportHeaders) != 18 {
		t.Fatalf("len(ExportHeaders) = %d, want 18", len(ExportHeaders))
	}
	first, last := ExportHeaders[0], ExportHeaders[len(ExportHeaders)-1]
	if first.Field != FieldDateReceivedFormatted || first.Label != "Date received" {
		t.Errorf("first header = %+v", first)
	}
	if last.Field != FieldComplaintID || last.Label != "Complaint ID" {
		t.Errorf("last header = %+v", last)
	}
}

func TestSubField(t *testing.T) {
	if f, ok := SubField(FieldProduct); !ok || f != FieldSubProduct {
		t.Errorf("SubField(product) = %q, %v", f, ok)
	}
	if f, ok := SubField(FieldIssue); !ok || f != FieldSubIssue {
		t.Errorf("SubField(issue) = %q, %v", f, ok)
	}
	if _, ok := SubField(FieldState); ok {
		t.Error("state has no sub field")
	}
}

func TestFieldKinds(t *testing.T) {
	if !IsDateField(FieldDateReceived) || !IsDateField(FieldDateSentToCompany) || IsDateField(FieldState) {
		t.Error("IsDateField mismatch")
	}
	if !IsListField(FieldTags) || IsListField(FieldProduct) {
		t.Error("IsListField mismatch")
	}
}
