package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// --- Mocks ---

type mockExecutor struct {
	executeFn func(ctx context.Context, q query.Query) (*result.Page, error)
	getFn     func(ctx context.Context, id string) (result.Hit, error)
	suggestFn func(ctx context.Context, prefix string, size int) ([]string, error)

	queries []query.Query
}

func (m *mockExecutor) Execute(ctx context.Context, q query.Query) (*result.Page, error) {
	m.queries = append(m.queries, q)
	if m.executeFn != nil {
		return m.executeFn(ctx, q)
	}
	return &result.Page{}, nil
}

func (m *mockExecutor) Get(ctx context.Context, id string) (result.Hit, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return result.Hit{ID: id}, nil
}

func (m *mockExecutor) SuggestZip(ctx context.Context, prefix string, size int) ([]string, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, prefix, size)
	}
	return nil, nil
}

func mustDate(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}
