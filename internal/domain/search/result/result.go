package result

// Hit is a single matched document.
type Hit struct {
	ID        string
	Score     float64
	Source    map[string]any
	Highlight map[string][]string
}

// Bucket is one term of a terms aggregation.
type Bucket struct {
	Key      string
	DocCount int64
}

// Aggregation is the bucket list of one aggregated field.
type Aggregation struct {
	DocCount int64
	Buckets  []Bucket
}

// Page is the outcome of one engine query.
type Page struct {
	Total        int64
	MaxScore     float64
	Hits         []Hit
	Aggregations map[string]Aggregation
}

// Len returns the number of hits on the page.
func (p *Page) Len() int { return len(p.Hits) }

// SourceString returns a source field rendered as text, or "" when absent.
func (h *Hit) SourceString(field string) (string, bool) {
	v, ok := h.Source[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
