package complaint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kailas-cloud/ccdb/internal/db"
	"github.com/kailas-cloud/ccdb/internal/domain"
	domcomplaint "github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/filter"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// Defaults for the index location.
const (
	DefaultIndex     = "complaints"
	DefaultKeyPrefix = "complaint:"
)

// store is the consumer interface for complaint queries (ISP).
//
//nolint:interfacebloat // executor needs search + hash + index lifecycle operations
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, q *db.SearchQuery) (int, error)
	AggregateTerms(ctx context.Context, qs []db.TermsQuery) ([]db.TermsResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Config locates the complaint index.
type Config struct {
	Index     string
	KeyPrefix string
}

// Repo executes compiled queries against the complaint index.
// It implements usecase/search.Executor.
type Repo struct {
	store     store
	index     string
	prefix    string
	sanitizer *bluemonday.Policy
}

// New creates a complaint repository.
func New(s store, cfg Config) *Repo {
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	policy := bluemonday.NewPolicy()
	policy.AllowElements("em")

	return &Repo{store: s, index: cfg.Index, prefix: cfg.KeyPrefix, sanitizer: policy}
}

// Execute runs one compiled query and returns the hits and aggregations.
func (r *Repo) Execute(ctx context.Context, q query.Query) (*result.Page, error) {
	sq := r.searchQuery(q)

	var (
		sr  *db.SearchResult
		err error
	)
	if q.Sort.ByScore && !q.Sort.Desc {
		sr, err = r.searchScoreAscending(ctx, sq)
	} else {
		sr, err = r.store.Search(ctx, sq)
	}
	if err != nil {
		return nil, engineError(fmt.Errorf("search %s: %w", r.index, err))
	}

	page := r.toPage(sr, q.Highlight)

	if q.HasAggs() {
		aggs, err := r.aggregate(ctx, sq.Filters, q.Aggs, int64(sr.Total))
		if err != nil {
			return nil, engineError(fmt.Errorf("aggregate %s: %w", r.index, err))
		}
		page.Aggregations = aggs
	}

	return page, nil
}

// Get returns a single complaint by id.
func (r *Repo) Get(ctx context.Context, id string) (result.Hit, error) {
	if id == "" {
		return result.Hit{}, fmt.Errorf("complaint id is required: %w", domain.ErrNotFound)
	}
	fields, err := r.store.HGetAll(ctx, r.prefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return result.Hit{}, fmt.Errorf("complaint %s: %w", id, domain.ErrNotFound)
		}
		return result.Hit{}, engineError(fmt.Errorf("get complaint %s: %w", id, err))
	}
	return result.Hit{ID: id, Source: decodeSource(fields)}, nil
}

// SuggestZip returns up to size zip codes starting with prefix, most
// frequent first.
func (r *Repo) SuggestZip(ctx context.Context, prefix string, size int) ([]string, error) {
	cond, err := filter.NewPrefix(domcomplaint.FieldZipCode, prefix)
	if err != nil {
		return nil, fmt.Errorf("suggest zip: %w", err)
	}
	expr, err := filter.NewExpression(nil, []filter.Condition{cond}, nil)
	if err != nil {
		return nil, fmt.Errorf("suggest zip: %w", err)
	}

	res, err := r.store.AggregateTerms(ctx, []db.TermsQuery{{
		IndexName: r.index,
		Filters:   expr,
		Field:     domcomplaint.FieldZipCode,
		Limit:     size,
	}})
	if err != nil {
		return nil, engineError(fmt.Errorf("suggest zip %q: %w", prefix, err))
	}

	out := make([]string, 0, size)
	for _, tr := range res {
		for _, b := range tr.Buckets {
			out = append(out, b.Value)
		}
	}
	return out, nil
}

// EnsureIndex creates the complaint index when it is missing. With recreate,
// an existing index is dropped first; documents are kept.
func (r *Repo) EnsureIndex(ctx context.Context, recreate bool) (bool, error) {
	def, err := buildIndex(r.index, r.prefix)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}

	if recreate {
		if err := r.store.DropIndex(ctx, r.index); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return false, fmt.Errorf("drop index %s: %w", r.index, err)
		}
	} else {
		exists, err := r.store.IndexExists(ctx, r.index)
		if err != nil {
			return false, fmt.Errorf("check index %s: %w", r.index, err)
		}
		if exists {
			return false, nil
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.index, err)
	}
	return true, nil
}

func (r *Repo) searchQuery(q query.Query) *db.SearchQuery {
	sq := &db.SearchQuery{
		IndexName:  r.index,
		Filters:    q.Bool.MapKeys(attribute),
		Offset:     q.From,
		Limit:      q.Size,
		WithScores: true,
	}
	if !q.Sort.ByScore && q.Sort.Field != "" {
		sq.SortBy = attribute(q.Sort.Field)
		sq.SortAsc = !q.Sort.Desc
	}
	if h := q.Highlight; h != nil {
		sq.Highlight = &db.HighlightSpec{Fields: h.Fields, Open: h.PreTag, Close: h.PostTag}
	}
	return sq
}

// searchScoreAscending serves a relevance-ascending page. The engine only
// ranks by descending score, so the page is read from the mirrored window at
// the end of the descending ranking and reversed.
func (r *Repo) searchScoreAscending(ctx context.Context, sq *db.SearchQuery) (*db.SearchResult, error) {
	total, err := r.store.Count(ctx, sq)
	if err != nil {
		return nil, err
	}
	if sq.Offset >= total || sq.Limit == 0 {
		return &db.SearchResult{Total: total}, nil
	}

	start := total - sq.Offset - sq.Limit
	limit := sq.Limit
	if start < 0 {
		limit += start
		start = 0
	}

	mirrored := *sq
	mirrored.Offset = start
	mirrored.Limit = limit

	sr, err := r.store.Search(ctx, &mirrored)
	if err != nil {
		return nil, err
	}
	slices.Reverse(sr.Entries)
	return sr, nil
}

func (r *Repo) aggregate(
	ctx context.Context, filters filter.Expression, aggs []query.TermsAgg, docCount int64,
) (map[string]result.Aggregation, error) {
	qs := make([]db.TermsQuery, len(aggs))
	for i, a := range aggs {
		qs[i] = db.TermsQuery{
			IndexName: r.index,
			Filters:   filters,
			Field:     a.Field,
			Limit:     a.Size,
		}
		if domcomplaint.IsListField(a.Field) {
			qs[i].Separator = ListSeparator
		}
	}

	res, err := r.store.AggregateTerms(ctx, qs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]result.Aggregation, len(res))
	for _, tr := range res {
		buckets := make([]result.Bucket, len(tr.Buckets))
		for i, b := range tr.Buckets {
			buckets[i] = result.Bucket{Key: b.Value, DocCount: b.Count}
		}
		out[tr.Field] = result.Aggregation{DocCount: docCount, Buckets: buckets}
	}
	return out, nil
}

func (r *Repo) toPage(sr *db.SearchResult, h *query.Highlight) *result.Page {
	page := &result.Page{Total: int64(sr.Total), Hits: make([]result.Hit, 0, len(sr.Entries))}

	for _, entry := range sr.Entries {
		hit := result.Hit{
			ID:     strings.TrimPrefix(entry.Key, r.prefix),
			Score:  entry.Score,
			Source: decodeSource(entry.Fields),
		}
		if h != nil {
			hit.Highlight = r.extractHighlight(hit.Source, h)
		}
		page.MaxScore = max(page.MaxScore, entry.Score)
		page.Hits = append(page.Hits, hit)
	}

	return page
}

// extractHighlight moves marked-up text out of the source into sanitized
// highlight fragments, restoring the plain source value.
func (r *Repo) extractHighlight(source map[string]any, h *query.Highlight) map[string][]string {
	var out map[string][]string
	for _, f := range h.Fields {
		v, ok := source[f].(string)
		if !ok || !strings.Contains(v, h.PreTag) {
			continue
		}
		if out == nil {
			out = make(map[string][]string, len(h.Fields))
		}
		out[f] = []string{r.sanitizer.Sanitize(v)}
		source[f] = strings.NewReplacer(h.PreTag, "", h.PostTag, "").Replace(v)
	}
	return out
}

// decodeSource keeps the source fields of a hash and splits list values.
func decodeSource(fields map[string]string) map[string]any {
	src := make(map[string]any, len(domcomplaint.SourceFields))
	for _, f := range domcomplaint.SourceFields {
		v, ok := fields[f]
		if !ok {
			continue
		}
		if domcomplaint.IsListField(f) {
			src[f] = splitList(v)
			continue
		}
		src[f] = v
	}
	return src
}

func splitList(v string) []any {
	if v == "" {
		return []any{}
	}
	parts := strings.Split(v, ListSeparator)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// engineError maps store failures to the executor error contract: a missing
// index is 404, a rejected query is 400, anything else carries no status.
func engineError(err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return domain.NewEngineError(http.StatusNotFound, err)
	case errors.Is(err, db.ErrQuery):
		return domain.NewEngineError(http.StatusBadRequest, err)
	default:
		return domain.NewEngineError(0, err)
	}
}
