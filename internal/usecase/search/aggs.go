package search

import (
	"slices"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
)

// Planner derives the aggregation set of a search.
type Planner struct {
	size int
}

// NewPlanner creates a planner requesting size buckets per field
// (query.DefaultAggSize when size <= 0).
func NewPlanner(size int) Planner {
	if size <= 0 {
		size = query.DefaultAggSize
	}
	return Planner{size: size}
}

// Exclusions returns the effective exclusion set: the base pair followed by
// the caller's fields, without duplicates.
func Exclusions(exclude []string) []string {
	out := slices.Clone(complaint.BaseAggExclude)
	for _, f := range exclude {
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// Plan returns one terms aggregation per source field outside the
// exclusion set, in canonical field order.
func (p Planner) Plan(exclude []string) []query.TermsAgg {
	excluded := Exclusions(exclude)

	var aggs []query.TermsAgg
	for _, f := range complaint.SourceFields {
		if slices.Contains(excluded, f) {
			continue
		}
		aggs = append(aggs, query.TermsAgg{Field: f, Size: p.size})
	}
	return aggs
}
