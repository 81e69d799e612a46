package search

import (
	"slices"
	"testing"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/filter"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
)

func TestCompile_Defaults(t *testing.T) {
	q := Compile(request.Defaults(), nil)

	if q.From != 0 || q.Size != 10 {
		t.Errorf("page = %d/%d, want 0/10", q.From, q.Size)
	}
	if !q.Bool.IsEmpty() {
		t.Errorf("expected filter-free query, got %+v", q.Bool)
	}
	if q.Highlight != nil {
		t.Error("highlight without a search term")
	}
	// relevance without a term orders by newest first
	if q.Sort != (query.Sort{Field: complaint.FieldDateReceived, Desc: true}) {
		t.Errorf("sort = %+v", q.Sort)
	}
	if q.HasAggs() {
		t.Error("no aggregations were planned")
	}
}

func TestCompile_SearchTerm(t *testing.T) {
	p := request.Defaults()
	p.SearchTerm = "  FHA Mortgage "

	q := Compile(p, nil)

	must := q.Bool.Must()
	if len(must) != 1 || must[0].Kind() != filter.KindMatch {
		t.Fatalf("must = %+v", must)
	}
	if must[0].Text() != "FHA Mortgage" {
		t.Errorf("text = %q", must[0].Text())
	}
	if !slices.Equal(must[0].Fields(), []string{complaint.FieldComplaintWhatHappened}) {
		t.Errorf("fields = %v", must[0].Fields())
	}
	if q.Sort != (query.Sort{ByScore: true, Desc: true}) {
		t.Errorf("sort = %+v", q.Sort)
	}
	if q.Highlight == nil || q.Highlight.PreTag != query.DefaultPreTag {
		t.Errorf("highlight = %+v", q.Highlight)
	}
}

func TestCompile_SearchTermNFC(t *testing.T) {
	p := request.Defaults()
	p.SearchTerm = "cafe\u0301"

	q := Compile(p, nil)

	if got := q.Bool.Must()[0].Text(); got != "caf\u00e9" {
	p := request.Defaults()
	p.SearchTerm = "loan"
	p.Field = request.FieldAll

	q := Compile(p, nil)

	if got := q.Bool.Must()[0].Fields(); !slices.Equal(got, complaint.TextFields) {
		t.Errorf("fields = %v", got)
	}
	if !slices.Equal(q.Highlight.Fields, complaint.TextFields) {
		t.Errorf("highlight fields = %v", q.Highlight.Fields)
	}
}

func TestCompile_NoHighlight(t *testing.T) {
	p := request.Defaults()
	p.SearchTerm = "loan"
	p.NoHighlight = true

	if q := Compile(p, nil); q.Highlight != nil {
		t.Errorf("highlight = %+v", q.Highlight)
	}
}

func TestCompile_Sort(t *testing.T) {
	tests := []struct {
		name string
		sort request.Sort
		term string
		want query.Sort
	}{
		{"relevance desc", request.RelevanceDesc, "x", query.Sort{ByScore: true, Desc: true}},
		{"relevance asc", request.RelevanceAsc, "x", query.Sort{ByScore: true}},
		{"relevance asc without term", request.RelevanceAsc, "", query.Sort{Field: complaint.FieldDateReceived, Desc: true}},
		{"created desc", request.CreatedDateDesc, "x", query.Sort{Field: complaint.FieldDateReceived, Desc: true}},
		{"created asc", request.CreatedDateAsc, "", query.Sort{Field: complaint.FieldDateReceived}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := request.Defaults()
			p.Sort = tt.sort
			p.SearchTerm = tt.term
			if got := Compile(p, nil).Sort; got != tt.want {
				t.Errorf("sort = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompile_DateReceivedMin(t *testing.T) {
	p := request.Defaults()
	p.DateReceived = request.DateRange{Min: mustDate("2017-04-11")}

	q := Compile(p, nil)

	filters := q.Bool.Filter()
	if len(filters) != 1 {
		t.Fatalf("filters = %d, want 1", len(filters))
	}
	c := filters[0]
	if c.Kind() != filter.KindDateRange || c.Key() != complaint.FieldDateReceived {
		t.Fatalf("filter = kind %d key %q", c.Kind(), c.Key())
	}
	if c.GTE() == nil || !c.GTE().Equal(*mustDate("2017-04-11")) {
		t.Errorf("gte = %v", c.GTE())
	}
	if c.LTE() != nil {
		t.Errorf("lte = %v, want none", c.LTE())
	}
}

func TestCompile_CompanyReceived(t *testing.T) {
	p := request.Defaults()
	p.CompanyReceived = request.DateRange{Max: mustDate("2017-04-11")}

	c := Compile(p, nil).Bool.Filter()[0]

	if c.Key() != complaint.FieldDateSentToCompany {
		t.Errorf("key = %q", c.Key())
	}
	if c.GTE() != nil || c.LTE() == nil {
		t.Errorf("bounds = %v/%v", c.GTE(), c.LTE())
	}
}

func TestCompile_Filters(t *testing.T) {
	p := request.Defaults().
		WithFilter(request.DimState, "CA", "FL").
		WithFilter(request.DimCompany, "Bank of America").
		WithFilter(request.DimTimely, "Yes")

	filters := Compile(p, nil).Bool.Filter()

	// dimension order, not insertion order
	wantKeys := []string{"company", "state", "timely"}
	if len(filters) != len(wantKeys) {
		t.Fatalf("filters = %d, want %d", len(filters), len(wantKeys))
	}
	for i, key := range wantKeys {
		if filters[i].Kind() != filter.KindTerms || filters[i].Key() != key {
			t.Errorf("filter[%d] = kind %d key %q, want terms %q", i, filters[i].Kind(), filters[i].Key(), key)
		}
	}
	if !slices.Equal(filters[1].Values(), []string{"CA", "FL"}) {
		t.Errorf("state values = %v", filters[1].Values())
	}
}

func TestCompile_AbsentFilterAddsNothing(t *testing.T) {
	p := request.Defaults().WithFilter(request.DimState)

	if f := Compile(p, nil).Bool.Filter(); len(f) != 0 {
		t.Errorf("filters = %+v, want none", f)
	}
}

func TestCompile_HierarchicalProduct(t *testing.T) {
	p := request.Defaults().WithFilter(request.DimProduct,
		"Payday loan", "Mortgage•FHA mortgage", "Mortgage•VA mortgage")

	filters := Compile(p, nil).Bool.Filter()
	if len(filters) != 1 || filters[0].Kind() != filter.KindAny {
		t.Fatalf("filters = %+v", filters)
	}

	children := filters[0].Children()
	if len(children) != 3 {
		t.Fatalf("children = %d, want 3", len(children))
	}
	if children[0].Kind() != filter.KindTerms || !slices.Equal(children[0].Values(), []string{"Payday loan"}) {
		t.Errorf("plain child = %+v", children[0])
	}

	pair := children[1]
	if pair.Kind() != filter.KindAll || len(pair.Children()) != 2 {
		t.Fatalf("pair = %+v", pair)
	}
	parent, sub := pair.Children()[0], pair.Children()[1]
	if parent.Key() != complaint.FieldProduct || parent.Values()[0] != "Mortgage" {
		t.Errorf("parent = %q %v", parent.Key(), parent.Values())
	}
	if sub.Key() != complaint.FieldSubProduct || sub.Values()[0] != "FHA mortgage" {
		t.Errorf("sub = %q %v", sub.Key(), sub.Values())
	}
}

func TestCompile_HierarchicalIssueOnlyPairs(t *testing.T) {
	p := request.Defaults().WithFilter(request.DimIssue, "Incorrect information•Account status")

	c := Compile(p, nil).Bool.Filter()[0]
	if c.Kind() != filter.KindAny || len(c.Children()) != 1 {
		t.Fatalf("filter = %+v", c)
	}
	if got := c.Children()[0].Children()[1].Key(); got != complaint.FieldSubIssue {
		t.Errorf("sub key = %q", got)
	}
}

func TestCompile_Aggregations(t *testing.T) {
	aggs := NewPlanner(0).Plan(nil)

	q := Compile(request.Defaults(), aggs)
	if len(q.Aggs) != len(aggs) {
		t.Errorf("aggs = %d, want %d", len(q.Aggs), len(aggs))
	}

	p := request.Defaults()
	p.NoAggs = true
	if Compile(p, aggs).HasAggs() {
		t.Error("no_aggs must drop aggregations")
	}
}

func TestCompile_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		frm, size int
		wantPanic bool
	}{
		{"zero frm", 0, 25, false},
		{"zero frm zero size", 0, 0, false},
		{"multiple", 20, 10, false},
		{"zero size", 7, 0, false},
		{"not a multiple", 15, 10, true},
		{"smaller than size", 5, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); (r != nil) != tt.wantPanic {
					t.Errorf("panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()
			q := Compile(request.Defaults().WithPage(tt.frm, tt.size), nil)
			if q.From != tt.frm || q.Size != tt.size {
				t.Errorf("page = %d/%d", q.From, q.Size)
			}
		})
	}
}
