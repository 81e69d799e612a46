package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
	exportuc "github.com/kailas-cloud/ccdb/internal/usecase/export"
	healthuc "github.com/kailas-cloud/ccdb/internal/usecase/health"
)

// --- Mocks ---

type mockSearch struct {
	searchFn   func(ctx context.Context, p request.Params, exclude []string) (*result.Page, error)
	documentFn func(ctx context.Context, id string) (result.Hit, error)
	suggestFn  func(ctx context.Context, text string) ([]string, error)

	calls int
}

func (m *mockSearch) Search(ctx context.Context, p request.Params, exclude []string) (*result.Page, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, p, exclude)
	}
	return &result.Page{}, nil
}

func (m *mockSearch) Document(ctx context.Context, id string) (result.Hit, error) {
	m.calls++
	if m.documentFn != nil {
		return m.documentFn(ctx, id)
	}
	return result.Hit{ID: id}, nil
}

func (m *mockSearch) SuggestZip(ctx context.Context, text string) ([]string, error) {
	m.calls++
	if m.suggestFn != nil {
		return m.suggestFn(ctx, text)
	}
	return nil, nil
}

// mockExecutor serves export chunks out of a fixed hit list.
type mockExecutor struct {
	hits    []result.Hit
	errAt   int // call index that fails, -1 for never
	err     error
	queries []query.Query
}

func (m *mockExecutor) Execute(_ context.Context, q query.Query) (*result.Page, error) {
	m.queries = append(m.queries, q)
	if m.err != nil && len(m.queries)-1 == m.errAt {
		return nil, m.err
	}
	from := min(q.From, len(m.hits))
	to := min(q.From+q.Size, len(m.hits))
	return &result.Page{Total: int64(len(m.hits)), Hits: m.hits[from:to]}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixedClassifier struct {
	class domthrottle.Classification
}

func (f fixedClassifier) Classify(string) domthrottle.Classification { return f.class }

type mockAdmitter struct {
	admitFn func(
		ctx context.Context, c domthrottle.Classification, ep domthrottle.Endpoint, identity string,
	) (domthrottle.Decision, error)

	endpoints  []domthrottle.Endpoint
	identities []string
}

func (m *mockAdmitter) Admit(
	ctx context.Context, c domthrottle.Classification, ep domthrottle.Endpoint, identity string,
) (domthrottle.Decision, error) {
	m.endpoints = append(m.endpoints, ep)
	m.identities = append(m.identities, identity)
	if m.admitFn != nil {
		return m.admitFn(ctx, c, ep, identity)
	}
	return domthrottle.NewDecision(true, 1, 0, 0), nil
}

// --- Helpers ---

func complaintHits(n int) []result.Hit {
	hits := make([]result.Hit, n)
	for i := range hits {
		hits[i] = result.Hit{
			ID: string(rune('a' + i%26)),
			Source: map[string]any{
				"complaint_id":  i,
				"state":         "CA",
				"date_received": "2017-04-11",
				"tags":          []any{"Older American", "Servicemember"},
			},
		}
	}
	return hits
}

func newTestServer(t *testing.T, search *mockSearch, exec *mockExecutor, throttle *Throttle) http.Handler {
	t.Helper()
	if exec == nil {
		exec = &mockExecutor{errAt: -1}
	}
	health := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"engine": healthuc.CheckOK},
	}}
	srv := NewServer(search, exportuc.New(exec, exportuc.Config{ChunkSize: 4}), health, throttle, zap.NewNop(),
		Options{CORS: true})
	h, err := srv.Routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	return h
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
