package client

import (
	"net/url"
	"slices"
	"strconv"
	"time"
)

// Format selects the export serialization.
type Format string

// Export formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Query mirrors the search parameters of the API. Zero values are omitted
// so the server defaults apply.
type Query struct {
	SearchTerm string
	Field      string // complaint_what_happened, company_public_response, all
	Sort       string // relevance_desc, relevance_asc, created_date_desc, created_date_asc
	Frm        int
	Size       int

	// Filters maps a dimension (state, product, tags, ...) to accepted values.
	Filters map[string][]string

	DateReceivedMin    time.Time
	DateReceivedMax    time.Time
	CompanyReceivedMin time.Time
	CompanyReceivedMax time.Time

	NoAggs      bool
	NoHighlight bool
}

// Values encodes the query string.
func (q Query) Values() url.Values {
	v := url.Values{}
	setString(v, "search_term", q.SearchTerm)
	setString(v, "field", q.Field)
	setString(v, "sort", q.Sort)
	if q.Frm > 0 {
		v.Set("frm", strconv.Itoa(q.Frm))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}

	dims := make([]string, 0, len(q.Filters))
	for d := range q.Filters {
		dims = append(dims, d)
	}
	slices.Sort(dims)
	for _, d := range dims {
		for _, val := range q.Filters[d] {
			v.Add(d, val)
		}
	}

	setDate(v, "date_received_min", q.DateReceivedMin)
	setDate(v, "date_received_max", q.DateReceivedMax)
	setDate(v, "company_received_min", q.CompanyReceivedMin)
	setDate(v, "company_received_max", q.CompanyReceivedMax)

	if q.NoAggs {
		v.Set("no_aggs", "true")
	}
	if q.NoHighlight {
		v.Set("no_highlight", "true")
	}
	return v
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setDate(v url.Values, key string, t time.Time) {
	if !t.IsZero() {
		v.Set(key, t.Format(time.DateOnly))
	}
}

// Hit is one matched complaint.
type Hit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    map[string]any      `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Hits is the result window with the total match count.
type Hits struct {
	Total    int64   `json:"total"`
	MaxScore float64 `json:"max_score"`
	Hits     []Hit   `json:"hits"`
}

// Bucket is one term of an aggregation.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

// Aggregation counts matches per value of one field.
type Aggregation struct {
	DocCount int64    `json:"doc_count"`
	Buckets  []Bucket `json:"buckets"`
}

// SearchResponse is the default search payload.
type SearchResponse struct {
	Hits         Hits                   `json:"hits"`
	Aggregations map[string]Aggregation `json:"aggregations"`
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"`
}
