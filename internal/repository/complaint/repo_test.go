package complaint

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/kailas-cloud/ccdb/internal/db"
	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/search/filter"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
)

func mustExpression(t *testing.T, must, filt []filter.Condition) filter.Expression {
	t.Helper()
	e, err := filter.NewExpression(must, filt, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}

// --- Execute ---

func TestExecute_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if q.IndexName != "complaints" {
			t.Errorf("index = %q", q.IndexName)
		}
		if q.Offset != 20 || q.Limit != 10 {
			t.Errorf("window = %d/%d", q.Offset, q.Limit)
		}
		if q.SortBy != "date_received_ts" || q.SortAsc {
			t.Errorf("sort = %q asc=%v", q.SortBy, q.SortAsc)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "complaint:1", Score: 1.5, Fields: map[string]string{
					"state": "CA", "tags": "Older American|Servicemember", "date_received_ts": "1491868800",
				}},
				{Key: "complaint:2", Score: 3, Fields: map[string]string{"state": "VA"}},
			},
		}, nil
	}

	page, err := repo.Execute(context.Background(), query.Query{
		Sort: query.Sort{Field: "date_received", Desc: true},
		From: 20,
		Size: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 2 || page.Len() != 2 || page.MaxScore != 3 {
		t.Fatalf("page = %+v", page)
	}
	hit := page.Hits[0]
	if hit.ID != "1" {
		t.Errorf("ID = %q", hit.ID)
	}
	if _, ok := hit.Source["date_received_ts"]; ok {
		t.Error("index attributes must not leak into the source")
	}
	tags, ok := hit.Source["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != "Servicemember" {
		t.Errorf("tags = %#v", hit.Source["tags"])
	}
	if page.Aggregations != nil {
		t.Error("no aggregations requested")
	}
}

func TestExecute_MapsFilterKeys(t *testing.T) {
	repo, ms := newTestRepo(t)

	lte := mustDate(t, "2020-01-01")
	r, _ := filter.NewDateRange("date_received", nil, &lte)
	c, _ := filter.NewTerms("company_public_response", []string{"Company chooses not to provide a public response"})

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		f := q.Filters.Filter()
		if f[0].Key() != attrDateReceived || f[1].Key() != attrCompanyPublicResponse {
			t.Errorf("keys = %q, %q", f[0].Key(), f[1].Key())
		}
		return &db.SearchResult{}, nil
	}

	_, err := repo.Execute(context.Background(), query.Query{
		Bool: mustExpression(t, nil, []filter.Condition{r, c}),
		Sort: query.Sort{ByScore: true, Desc: true},
		Size: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecute_HighlightExtracted(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if q.Highlight == nil || q.Highlight.Open != "<em>" {
			t.Errorf("highlight = %+v", q.Highlight)
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{
			Key:   "complaint:7",
			Score: 2,
			Fields: map[string]string{
				"complaint_what_happened": `my <em>loan</em> <script>x</script>`,
				"company_public_response": "none",
			},
		}}}, nil
	}

	page, err := repo.Execute(context.Background(), query.Query{
		Highlight: &query.Highlight{
			Fields:  []string{"complaint_what_happened", "company_public_response"},
			PreTag:  query.DefaultPreTag,
			PostTag: query.DefaultPostTag,
		},
		Sort: query.Sort{ByScore: true, Desc: true},
		Size: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hit := page.Hits[0]
	frags := hit.Highlight["complaint_what_happened"]
	if len(frags) != 1 || frags[0] != "my <em>loan</em> " {
		t.Errorf("highlight = %q", frags)
	}
	if _, ok := hit.Highlight["company_public_response"]; ok {
		t.Error("fields without matches must not be highlighted")
	}
	if hit.Source["complaint_what_happened"] != "my loan <script>x</script>" {
		t.Errorf("source = %q", hit.Source["complaint_what_happened"])
	}
}

func TestExecute_RelevanceAscending(t *testing.T) {
	repo, ms := newTestRepo(t)

	// 25 hits ranked by descending score: complaint:0 is best.
	ms.countFn = func(context.Context, *db.SearchQuery) (int, error) { return 25, nil }
	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		entries := make([]db.SearchEntry, 0, q.Limit)
		for i := q.Offset; i < q.Offset+q.Limit && i < 25; i++ {
			entries = append(entries, db.SearchEntry{Key: "complaint:" + strconv.Itoa(i), Score: float64(25 - i)})
		}
		return &db.SearchResult{Total: 25, Entries: entries}, nil
	}

	tests := []struct {
		from, size int
		wantFirst  string
		wantLen    int
	}{
		{0, 10, "24", 10},
		{10, 10, "14", 10},
		{20, 10, "4", 5},
		{30, 10, "", 0},
	}
	for _, tt := range tests {
		page, err := repo.Execute(context.Background(), query.Query{
			Sort: query.Sort{ByScore: true},
			From: tt.from,
			Size: tt.size,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Len() != tt.wantLen {
			t.Fatalf("from=%d: len = %d, want %d", tt.from, page.Len(), tt.wantLen)
		}
		if page.Total != 25 {
			t.Errorf("from=%d: total = %d", tt.from, page.Total)
		}
		if tt.wantLen > 0 && page.Hits[0].ID != tt.wantFirst {
			t.Errorf("from=%d: first = %q, want %q", tt.from, page.Hits[0].ID, tt.wantFirst)
		}
		for i := 1; i < page.Len(); i++ {
			if page.Hits[i].Score < page.Hits[i-1].Score {
				t.Errorf("from=%d: scores not ascending at %d", tt.from, i)
			}
		}
	}
}

func TestExecute_Aggregations(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(context.Context, *db.SearchQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 40}, nil
	}
	ms.aggregateFn = func(_ context.Context, qs []db.TermsQuery) ([]db.TermsResult, error) {
		if len(qs) != 2 {
			t.Fatalf("len(qs) = %d", len(qs))
		}
		if qs[0].Separator != "" || qs[1].Separator != ListSeparator {
			t.Errorf("separators = %q, %q", qs[0].Separator, qs[1].Separator)
		}
		return []db.TermsResult{
			{Field: "state", Buckets: []db.TermBucket{{Value: "CA", Count: 30}}},
			{Field: "tags", Buckets: []db.TermBucket{{Value: "Servicemember", Count: 2}}},
		}, nil
	}

	page, err := repo.Execute(context.Background(), query.Query{
		Aggs: []query.TermsAgg{{Field: "state", Size: 10}, {Field: "tags", Size: 10}},
		Size: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := page.Aggregations["state"]
	if state.DocCount != 40 || len(state.Buckets) != 1 || state.Buckets[0].Key != "CA" || state.Buckets[0].DocCount != 30 {
		t.Errorf("state = %+v", state)
	}
	if _, ok := page.Aggregations["tags"]; !ok {
		t.Error("missing tags aggregation")
	}
}

func TestExecute_EngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing index", &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}, http.StatusNotFound},
		{"rejected query", &db.Error{Op: db.OpSearch, Err: db.ErrQuery}, http.StatusBadRequest},
		{"transport", errors.New("connection refused"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.searchFn = func(context.Context, *db.SearchQuery) (*db.SearchResult, error) {
				return nil, tt.err
			}

			_, err := repo.Execute(context.Background(), query.Query{Size: 10})
			if !errors.Is(err, domain.ErrEngine) {
				t.Fatalf("expected ErrEngine, got %v", err)
			}
			var ee *domain.EngineError
			if !errors.As(err, &ee) {
				t.Fatalf("expected EngineError, got %T", err)
			}
			if ee.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", ee.Status, tt.wantStatus)
			}
		})
	}
}

// --- Get ---

func TestGet(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetallFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "complaint:123" {
			return nil, db.ErrKeyNotFound
		}
		return map[string]string{"complaint_id": "123", "state": "CA"}, nil
	}

	hit, err := repo.Get(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit.ID != "123" || hit.Source["state"] != "CA" {
		t.Errorf("hit = %+v", hit)
	}

	if _, err := repo.Get(context.Background(), "404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(context.Background(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetallFn = func(context.Context, string) (map[string]string, error) {
		return nil, errors.New("boom")
	}
	if _, err := repo.Get(context.Background(), "1"); !errors.Is(err, domain.ErrEngine) {
		t.Errorf("expected ErrEngine, got %v", err)
	}
}

// --- SuggestZip ---

func TestSuggestZip(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, qs []db.TermsQuery) ([]db.TermsResult, error) {
		q := qs[0]
		if q.Field != "zip_code" || q.Limit != 6 {
			t.Errorf("query = %+v", q)
		}
		c := q.Filters.Filter()[0]
		if c.Kind() != filter.KindPrefix || c.Text() != "20X" {
			t.Errorf("condition = %+v", c)
		}
		return []db.TermsResult{{Field: "zip_code", Buckets: []db.TermBucket{
			{Value: "207XX", Count: 9}, {Value: "200XX", Count: 4},
		}}}, nil
	}

	got, err := repo.SuggestZip(context.Background(), "20X", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "207XX" {
		t.Errorf("SuggestZip = %v", got)
	}
}

// --- EnsureIndex ---

func TestEnsureIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	var created *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	ok, err := repo.EnsureIndex(context.Background(), false)
	if err != nil || !ok {
		t.Fatalf("EnsureIndex = %v, %v", ok, err)
	}
	if created.Name != "complaints" || created.Prefixes[0] != "complaint:" {
		t.Errorf("definition = %s", created)
	}

	ms.indexExistsFn = func(context.Context, string) (bool, error) { return true, nil }
	created = nil
	ok, err = repo.EnsureIndex(context.Background(), false)
	if err != nil || ok || created != nil {
		t.Errorf("existing index: ok=%v err=%v created=%v", ok, err, created)
	}
}

func TestEnsureIndex_Recreate(t *testing.T) {
	repo, ms := newTestRepo(t)

	dropped := false
	ms.dropIndexFn = func(context.Context, string) error {
		dropped = true
		return db.ErrIndexNotFound
	}
	ms.indexExistsFn = func(context.Context, string) (bool, error) {
		t.Error("recreate must not probe existence")
		return true, nil
	}

	ok, err := repo.EnsureIndex(context.Background(), true)
	if err != nil || !ok || !dropped {
		t.Errorf("EnsureIndex(recreate) = %v, %v dropped=%v", ok, err, dropped)
	}
}

func TestBuildIndex(t *testing.T) {
	def, err := buildIndex("complaints", "complaint:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attrs := make(map[string]db.IndexField)
	for _, f := range def.Fields {
		key := f.Name
		if f.Alias != "" {
			key = f.Alias
		}
		attrs[key] = f
	}
	if attrs["complaint_what_happened"].Type != db.IndexFieldText {
		t.Error("narrative must be TEXT")
	}
	if f := attrs["tags"]; f.Type != db.IndexFieldTag || f.TagSeparator != ListSeparator {
		t.Errorf("tags = %+v", f)
	}
	if f := attrs[attrDateReceived]; f.Type != db.IndexFieldNumeric || !f.Sortable {
		t.Errorf("date_received_ts = %+v", f)
	}
	if f := attrs[attrCompanyPublicResponse]; f.Name != "company_public_response" || f.Type != db.IndexFieldTag {
		t.Errorf("company_public_response_raw = %+v", f)
	}
}
