package db

import "github.com/kailas-cloud/ccdb/internal/domain/search/filter"

// HighlightSpec asks FT.SEARCH to wrap matched terms of Fields in tags.
type HighlightSpec struct {
	Fields []string
	Open   string
	Close  string
}

// SearchQuery is the input for a filtered, paginated FT.SEARCH.
type SearchQuery struct {
	IndexName  string
	Filters    filter.Expression
	Offset     int
	Limit      int
	SortBy     string // empty sorts by relevance score, descending
	SortAsc    bool
	WithScores bool
	Highlight  *HighlightSpec
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// TermsQuery counts documents per distinct value of Field via FT.AGGREGATE.
type TermsQuery struct {
	IndexName string
	Filters   filter.Expression
	Field     string
	Limit     int
	// Separator splits multi-value fields before grouping. Empty means the
	// field holds a single value.
	Separator string
}

// TermsResult holds the buckets of one TermsQuery, ordered by count descending.
type TermsResult struct {
	Field   string
	Buckets []TermBucket
}

// TermBucket is one distinct value and its document count.
type TermBucket struct {
	Value string
	Count int64
}
