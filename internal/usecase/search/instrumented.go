package search

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/search/query"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
	"github.com/kailas-cloud/ccdb/internal/logger"
	"github.com/kailas-cloud/ccdb/internal/metrics"
)

// Engine operation labels.
const (
	opExecute = "execute"
	opGet     = "get"
	opSuggest = "suggest_zip"
)

// InstrumentedExecutor wraps an Executor with engine metrics and logging.
type InstrumentedExecutor struct {
	inner Executor
}

// NewInstrumentedExecutor wraps an executor with observability.
func NewInstrumentedExecutor(inner Executor) *InstrumentedExecutor {
	return &InstrumentedExecutor{inner: inner}
}

// Execute delegates to the inner executor and records the round-trip.
func (e *InstrumentedExecutor) Execute(ctx context.Context, q query.Query) (*result.Page, error) {
	start := time.Now()
	page, err := e.inner.Execute(ctx, q)
	e.observe(ctx, opExecute, start, err,
		zap.Int("from", q.From),
		zap.Int("size", q.Size),
		zap.Int("aggs", len(q.Aggs)),
	)
	return page, err
}

// Get delegates to the inner executor and records the round-trip.
func (e *InstrumentedExecutor) Get(ctx context.Context, id string) (result.Hit, error) {
	start := time.Now()
	hit, err := e.inner.Get(ctx, id)
	e.observe(ctx, opGet, start, err, zap.String("complaint_id", id))
	return hit, err
}

// SuggestZip delegates to the inner executor and records the round-trip.
func (e *InstrumentedExecutor) SuggestZip(ctx context.Context, prefix string, size int) ([]string, error) {
	start := time.Now()
	zips, err := e.inner.SuggestZip(ctx, prefix, size)
	e.observe(ctx, opSuggest, start, err, zap.String("prefix", prefix))
	return zips, err
}

func (e *InstrumentedExecutor) observe(
	ctx context.Context, op string, start time.Time, err error, fields ...zap.Field,
) {
	duration := time.Since(start)
	status := statusLabel(err)

	metrics.EngineRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	log := logger.FromContext(ctx).With(zap.String("operation", op), zap.Duration("duration", duration))
	switch {
	case err == nil:
		log.Debug("Engine request completed", fields...)
	case errors.Is(err, domain.ErrNotFound):
		log.Debug("Engine request found nothing", fields...)
	default:
		log.Error("Engine request failed", append(fields, zap.Error(err))...)
	}
}

// statusLabel reports "ok", "not_found", the engine status code, or "error"
// for failures without one.
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	var ee *domain.EngineError
	if errors.As(err, &ee) && ee.Status > 0 {
		return strconv.Itoa(ee.Status)
	}
	return "error"
}
