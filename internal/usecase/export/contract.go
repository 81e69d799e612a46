package export

import (
	"context"

	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// Executor runs one page of an export query.
type Executor interface {
	Execute(ctx context.Context, q query.Query) (*result.Page, error)
}
