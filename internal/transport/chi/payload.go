package chi

import (
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/ccdb/internal/usecase/health"
)

type hitPayload struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    map[string]any      `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

type hitsPayload struct {
	Total    int64        `json:"total"`
	MaxScore float64      `json:"max_score"`
	Hits     []hitPayload `json:"hits"`
}

type bucketPayload struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

type aggregationPayload struct {
	DocCount int64           `json:"doc_count"`
	Buckets  []bucketPayload `json:"buckets"`
}

type searchPayload struct {
	Hits         hitsPayload                   `json:"hits"`
	Aggregations map[string]aggregationPayload `json:"aggregations,omitempty"`
}

type healthPayload struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func pageToPayload(p *result.Page) searchPayload {
	hits := make([]hitPayload, len(p.Hits))
	for i, h := range p.Hits {
		hits[i] = hitToPayload(h)
	}

	out := searchPayload{
		Hits: hitsPayload{Total: p.Total, MaxScore: p.MaxScore, Hits: hits},
	}
	if len(p.Aggregations) > 0 {
		out.Aggregations = make(map[string]aggregationPayload, len(p.Aggregations))
		for field, a := range p.Aggregations {
			buckets := make([]bucketPayload, len(a.Buckets))
			for i, b := range a.Buckets {
				buckets[i] = bucketPayload{Key: b.Key, DocCount: b.DocCount}
			}
			out.Aggregations[field] = aggregationPayload{DocCount: a.DocCount, Buckets: buckets}
		}
	}
	return out
}

func hitToPayload(h result.Hit) hitPayload {
	src := h.Source
	if src == nil {
		src = map[string]any{}
	}
	return hitPayload{ID: h.ID, Score: h.Score, Source: src, Highlight: h.Highlight}
}
