package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// DefaultSuggestSize is the number of zip codes a suggestion returns.
const DefaultSuggestSize = 10

// Config tunes the search service.
type Config struct {
	// AggSize is the bucket limit per aggregated field.
	AggSize int
	// ExcludeFilteredAggs drops every filtered dimension from aggregation.
	ExcludeFilteredAggs bool
	SuggestSize         int
}

// Service compiles search parameters and runs them on the executor.
type Service struct {
	exec            Executor
	planner         Planner
	excludeFiltered bool
	suggestSize     int
	upper           cases.Caser
}

// New creates a search service.
func New(exec Executor, cfg Config) *Service {
	if cfg.SuggestSize <= 0 {
		cfg.SuggestSize = DefaultSuggestSize
	}
	return &Service{
		exec:            exec,
		planner:         NewPlanner(cfg.AggSize),
		excludeFiltered: cfg.ExcludeFilteredAggs,
		suggestSize:     cfg.SuggestSize,
		upper:           cases.Upper(language.Und),
	}
}

// Query validates p and compiles it with the aggregations left after
// exclude (plus the base exclusions).
func (s *Service) Query(p request.Params, exclude []string) (query.Query, error) {
	if err := p.Validate(); err != nil {
		return query.Query{}, err
	}
	var aggs []query.TermsAgg
	if !p.NoAggs {
		aggs = s.planner.Plan(s.exclusions(p, exclude))
	}
	return Compile(p, aggs), nil
}

// Search runs one page of results for p.
func (s *Service) Search(ctx context.Context, p request.Params, exclude []string) (*result.Page, error) {
	q, err := s.Query(p, exclude)
	if err != nil {
		return nil, err
	}
	page, err := s.exec.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	return page, nil
}

// Document returns a single complaint.
func (s *Service) Document(ctx context.Context, id string) (result.Hit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Hit{}, fmt.Errorf("%w: complaint id is required", domain.ErrInvalidQuery)
	}
	hit, err := s.exec.Get(ctx, id)
	if err != nil {
		return result.Hit{}, fmt.Errorf("get document: %w", err)
	}
	return hit, nil
}

// SuggestZip returns the most frequent zip codes starting with text.
// Zip codes are stored upper case ("207XX"), so text is upper-cased first.
func (s *Service) SuggestZip(ctx context.Context, text string) ([]string, error) {
	prefix := s.upper.String(strings.TrimSpace(text))
	if prefix == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidQuery)
	}
	zips, err := s.exec.SuggestZip(ctx, prefix, s.suggestSize)
	if err != nil {
		return nil, fmt.Errorf("suggest zip: %w", err)
	}
	return zips, nil
}

func (s *Service) exclusions(p request.Params, exclude []string) []string {
	if !s.excludeFiltered {
		return exclude
	}
	out := append([]string(nil), exclude...)
	for _, d := range p.FilteredDimensions() {
		out = append(out, string(d))
	}
	return out
}
