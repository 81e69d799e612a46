package search

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
	"github.com/kailas-cloud/ccdb/internal/metrics"
)

func TestInstrumentedExecutor_Execute(t *testing.T) {
	inner := &mockExecutor{
		executeFn: func(_ context.Context, _ query.Query) (*result.Page, error) {
			return &result.Page{Total: 3}, nil
		},
	}
	exec := NewInstrumentedExecutor(inner)

	before := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(opExecute, "ok"))

	page, err := exec.Execute(context.Background(), query.Query{Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d", page.Total)
	}

	after := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(opExecute, "ok"))
	if after-before != 1 {
		t.Errorf("ok counter delta = %f, want 1", after-before)
	}
}

func TestInstrumentedExecutor_ErrorPassthrough(t *testing.T) {
	engineErr := domain.NewEngineError(400, errors.New("Syntax error"))
	inner := &mockExecutor{
		executeFn: func(_ context.Context, _ query.Query) (*result.Page, error) {
			return nil, engineErr
		},
	}
	exec := NewInstrumentedExecutor(inner)

	before := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(opExecute, "400"))

	if _, err := exec.Execute(context.Background(), query.Query{}); !errors.Is(err, engineErr) {
		t.Fatalf("error not passed through: %v", err)
	}

	after := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(opExecute, "400"))
	if after-before != 1 {
		t.Errorf("400 counter delta = %f, want 1", after-before)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "ok"},
		{"not found", domain.ErrNotFound, "not_found"},
		{"with status", domain.NewEngineError(404, errors.New("x")), "404"},
		{"without status", domain.NewEngineError(0, errors.New("dial tcp")), "error"},
		{"plain", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusLabel(tt.err); got != tt.want {
				t.Errorf("statusLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
