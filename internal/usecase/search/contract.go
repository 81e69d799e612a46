package search

import (
	"context"

	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// Executor runs compiled queries against the complaint index.
//
// Every failure that reached the engine is a *domain.EngineError.
type Executor interface {
	Execute(ctx context.Context, q query.Query) (*result.Page, error)
	Get(ctx context.Context, id string) (result.Hit, error)
	SuggestZip(ctx context.Context, prefix string, size int) ([]string, error)
}
