package query

import "testing"

func TestQuery_WithPage(t *testing.T) {
	q := Query{From: 0, Size: 10}
	p := q.WithPage(512, 512)
	if p.From != 512 || p.Size != 512 {
		t.Errorf("WithPage = %d/%d", p.From, p.Size)
	}
	if q.From != 0 || q.Size != 10 {
		t.Error("WithPage mutated the receiver")
	}
}

func TestQuery_WithoutExtras(t *testing.T) {
	q := Query{
		Highlight: &Highlight{Fields: []string{"complaint_what_happened"}},
		Aggs:      []TermsAgg{{Field: "state", Size: DefaultAggSize}},
	}
	if !q.HasAggs() {
		t.Fatal("expected aggs")
	}
	stripped := q.WithoutExtras()
	if stripped.Highlight != nil || stripped.HasAggs() {
		t.Error("extras not removed")
	}
	if q.Highlight == nil {
		t.Error("WithoutExtras mutated the receiver")
	}
}

func TestQuery_AggFields(t *testing.T) {
	q := Query{Aggs: []TermsAgg{{Field: "product"}, {Field: "state"}}}
	got := q.AggFields()
	if len(got) != 2 || got[0] != "product" || got[1] != "state" {
		t.Errorf("AggFields() = %v", got)
	}
}
