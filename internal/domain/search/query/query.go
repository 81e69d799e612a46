// Package query defines the engine-neutral structured query produced by the
// compiler and consumed by the search executor.
package query

import "github.com/kailas-cloud/ccdb/internal/domain/search/filter"

// Highlight tags wrapped around matched terms.
const (
	DefaultPreTag  = "<em>"
	DefaultPostTag = "</em>"
)

// DefaultAggSize is the bucket limit of a terms aggregation.
const DefaultAggSize = 10

// Highlight requests marked-up fragments of the matched text fields.
type Highlight struct {
	Fields  []string
	PreTag  string
	PostTag string
}

// Sort orders the hits either by relevance score or by a sortable field.
type Sort struct {
	ByScore bool
	Field   string
	Desc    bool
}

// TermsAgg counts documents per distinct value of Field.
type TermsAgg struct {
	Field string
	Size  int
}

// Query is the compiled request. It is built once per request and treated as
// read-only afterwards.
type Query struct {
	Bool      filter.Expression
	Highlight *Highlight
	Sort      Sort
	Aggs      []TermsAgg
	From      int
	Size      int
}

// HasAggs reports whether the query requests any aggregation.
func (q Query) HasAggs() bool { return len(q.Aggs) > 0 }

// WithPage returns a copy of q addressing another window of hits.
func (q Query) WithPage(from, size int) Query {
	q.From = from
	q.Size = size
	return q
}

// WithoutExtras returns a copy of q with highlight and aggregations removed.
func (q Query) WithoutExtras() Query {
	q.Highlight = nil
	q.Aggs = nil
	return q
}

// AggFields lists the aggregated fields in request order.
func (q Query) AggFields() []string {
	out := make([]string, len(q.Aggs))
	for i, a := range q.Aggs {
		out[i] = a.Field
	}
	return out
}
