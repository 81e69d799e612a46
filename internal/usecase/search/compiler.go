package search

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/filter"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
)

// Compile translates validated parameters into an engine query. aggs is the
// planned aggregation set; it is dropped when p.NoAggs is set.
//
// Compile panics when p violates the pagination invariant or holds a value
// the filter constructors reject: both mean p skipped validation.
func Compile(p request.Params, aggs []query.TermsAgg) query.Query {
	if !p.PaginationValid() {
		panic(fmt.Sprintf("search: frm %d is not a multiple of size %d", p.Frm, p.Size))
	}

	term := NormalizeTerm(p.SearchTerm)

	var must []filter.Condition
	if term != "" {
		must = append(must, mustCond(filter.NewMatch(p.Field.EngineFields(), term)))
	}

	expr, err := filter.NewExpression(must, compileFilters(p), nil)
	if err != nil {
		panic(fmt.Sprintf("search: %v", err))
	}

	q := query.Query{
		Bool: expr,
		Sort: compileSort(p.Sort, term != ""),
		From: p.Frm,
		Size: p.Size,
	}

	if term != "" && !p.NoHighlight {
		q.Highlight = &query.Highlight{
			Fields:  p.Field.EngineFields(),
			PreTag:  query.DefaultPreTag,
			PostTag: query.DefaultPostTag,
		}
	}

	if !p.NoAggs && len(aggs) > 0 {
		q.Aggs = append([]query.TermsAgg(nil), aggs...)
	}

	return q
}

// NormalizeTerm trims the search term and puts it in Unicode NFC form so
// composed and decomposed input match the same indexed tokens.
func NormalizeTerm(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func compileFilters(p request.Params) []filter.Condition {
	var out []filter.Condition

	for _, d := range p.FilteredDimensions() {
		out = append(out, compileDimension(d.EngineField(), p.Filter(d)))
	}

	if c, ok := compileRange(complaint.FieldDateReceived, p.DateReceived); ok {
		out = append(out, c)
	}
	if c, ok := compileRange(complaint.FieldDateSentToCompany, p.CompanyReceived); ok {
		out = append(out, c)
	}

	return out
}

// compileDimension builds the "one of values" clause. Values of a
// hierarchical field in "parent•child" form match documents carrying both
// the parent and the child.
func compileDimension(field string, values []string) filter.Condition {
	sub, hierarchical := complaint.SubField(field)
	if !hierarchical {
		return mustCond(filter.NewTerms(field, values))
	}

	var (
		plain []string
		pairs []filter.Condition
	)
	for _, v := range values {
		parent, child, ok := strings.Cut(v, complaint.Delimiter)
		if !ok || parent == "" || child == "" {
			plain = append(plain, v)
			continue
		}
		pairs = append(pairs, mustCond(filter.NewAll(
			mustCond(filter.NewTerms(field, []string{parent})),
			mustCond(filter.NewTerms(sub, []string{child})),
		)))
	}

	if len(pairs) == 0 {
		return mustCond(filter.NewTerms(field, plain))
	}
	children := pairs
	if len(plain) > 0 {
		children = append([]filter.Condition{mustCond(filter.NewTerms(field, plain))}, pairs...)
	}
	return mustCond(filter.NewAny(children...))
}

func compileRange(field string, r request.DateRange) (filter.Condition, bool) {
	if r.IsEmpty() {
		return filter.Condition{}, false
	}
	return mustCond(filter.NewDateRange(field, r.Min, r.Max)), true
}

// compileSort maps the requested ordering. Relevance without a search term
// has no score to order by and falls back to newest first.
func compileSort(s request.Sort, scored bool) query.Sort {
	switch {
	case s.IsRelevance() && scored:
		return query.Sort{ByScore: true, Desc: s == request.RelevanceDesc}
	case s == request.CreatedDateAsc:
		return query.Sort{Field: complaint.FieldDateReceived}
	default:
		return query.Sort{Field: complaint.FieldDateReceived, Desc: true}
	}
}

func mustCond(c filter.Condition, err error) filter.Condition {
	if err != nil {
		panic(fmt.Sprintf("search: %v", err))
	}
	return c
}
