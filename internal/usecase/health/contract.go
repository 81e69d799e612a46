package health

import "context"

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the complaint index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
