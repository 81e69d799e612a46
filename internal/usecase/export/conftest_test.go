package export

import (
	"context"
	"strconv"
	"sync"

	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// --- Mocks ---

// mockExecutor serves pages over a synthetic result set of total hits.
type mockExecutor struct {
	mu        sync.Mutex
	total     int
	executeFn func(ctx context.Context, q query.Query) (*result.Page, error)
	queries   []query.Query
}

func (m *mockExecutor) Execute(ctx context.Context, q query.Query) (*result.Page, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.executeFn != nil {
		return m.executeFn(ctx, q)
	}
	return pageOf(m.total, q.From, q.Size), nil
}

func (m *mockExecutor) calls() []query.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]query.Query(nil), m.queries...)
}

func pageOf(total, from, size int) *result.Page {
	page := &result.Page{Total: int64(total)}
	for i := from; i < from+size && i < total; i++ {
		page.Hits = append(page.Hits, testHit(i))
	}
	return page
}

func testHit(i int) result.Hit {
	id := strconv.Itoa(i)
	return result.Hit{
		ID: id,
		Source: map[string]any{
			"complaint_id":            id,
			"company":                 "Acme, Inc.",
			"product":                 "Mortgage",
			"sub_product":             "FHA mortgage",
			"state":                   "CA",
			"date_received":           "2017-04-11",
			"date_sent_to_company":    "2017-04-12",
			"complaint_what_happened": "They said \"pay now\",\nthen - nothing.",
			"tags":                    []any{"Older American", "Servicemember"},
			"timely":                  "Yes",
		},
	}
}
