package export

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
	"github.com/kailas-cloud/ccdb/internal/logger"
	"github.com/kailas-cloud/ccdb/internal/metrics"
	"github.com/kailas-cloud/ccdb/internal/usecase/search"
)

// Export outcome labels.
const (
	outcomeCompleted = "completed"
	outcomeAborted   = "aborted"
	outcomeFailed    = "failed"
)

// Config tunes the exporter.
type Config struct {
	// ChunkSize is the number of hits fetched per engine round-trip.
	ChunkSize int
}

// Exporter streams large result sets chunk by chunk.
type Exporter struct {
	exec      Executor
	chunkSize int
	now       func() time.Time
}

// New creates an exporter.
func New(exec Executor, cfg Config) *Exporter {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = complaint.DefaultChunkSize
	}
	return &Exporter{exec: exec, chunkSize: cfg.ChunkSize, now: time.Now}
}

// Job is the state of one export. It is advanced by Export and must not be
// reused.
type Job struct {
	ID        string
	Format    format.Format
	Headers   []complaint.Header
	ChunkSize int

	// Cursor is the offset of the next chunk.
	Cursor int
	Rows   int
	Chunks int
}

// NewJob prepares an export in the given format with the canonical headers.
func (e *Exporter) NewJob(f format.Format) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Format:    f,
		Headers:   complaint.ExportHeaders,
		ChunkSize: e.chunkSize,
	}
}

// Filename names the attachment of an export started now.
func (e *Exporter) Filename(f format.Format) string {
	return Filename(f, e.now())
}

// Filename returns complaints-YYYY-MM-DD_HH_MM.ext for t.
func Filename(f format.Format, t time.Time) string {
	return fmt.Sprintf("complaints-%s.%s", t.Format("2006-01-02_15_04"), f.Extension())
}

// Export returns the serialized export of p as a lazy sequence of byte
// chunks. The engine is queried from p.Frm in steps of the job's chunk size
// until p.Size rows were produced or the results run out. Iteration stops at
// the first error; a cancelled ctx stops further engine calls.
//
// The sequence is single-use: the job records the progress.
func (e *Exporter) Export(ctx context.Context, p request.Params, job *Job) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		log := logger.FromContext(ctx).With(
			zap.String("export_id", job.ID),
			zap.String("format", string(job.Format)),
		)
		start := time.Now()

		outcome := outcomeFailed
		defer func() {
			metrics.ExportsTotal.WithLabelValues(string(job.Format), outcome).Inc()
			log.Info("Export finished",
				zap.String("outcome", outcome),
				zap.Int("rows", job.Rows),
				zap.Int("chunks", job.Chunks),
				zap.Duration("duration", time.Since(start)),
			)
		}()

		if err := p.Validate(); err != nil {
			yield(nil, err)
			return
		}
		enc, err := newEncoder(job.Format, job.Headers)
		if err != nil {
			yield(nil, err)
			return
		}

		log.Info("Export started", zap.Int("frm", p.Frm), zap.Int("size", p.Size))

		q := search.Compile(p, nil).WithoutExtras()
		chunk := job.ChunkSize
		if chunk <= 0 {
			chunk = e.chunkSize
		}
		job.Cursor = p.Frm

		emit := func(b []byte, err error) bool {
			if err != nil {
				yield(nil, err)
				return false
			}
			if len(b) == 0 {
				return true
			}
			if !yield(b, nil) {
				outcome = outcomeAborted
				return false
			}
			return true
		}

		if !emit(enc.Open()) {
			return
		}

		for remaining := p.Size; remaining > 0; {
			if err := ctx.Err(); err != nil {
				outcome = outcomeAborted
				yield(nil, fmt.Errorf("export %s: %w", job.ID, err))
				return
			}

			n := min(chunk, remaining)
			page, err := e.exec.Execute(ctx, q.WithPage(job.Cursor, n))
			if err != nil {
				if ctx.Err() != nil {
					outcome = outcomeAborted
				}
				yield(nil, fmt.Errorf("export %s chunk at %d: %w", job.ID, job.Cursor, err))
				return
			}
			if len(page.Hits) == 0 {
				break
			}

			hits := page.Hits
			if len(hits) > remaining {
				hits = hits[:remaining]
			}
			job.Chunks++
			job.Rows += len(hits)
			job.Cursor += n
			remaining -= len(hits)
			metrics.ExportRowsTotal.WithLabelValues(string(job.Format)).Add(float64(len(hits)))

			if !emit(enc.Rows(hits)) {
				return
			}
			if len(page.Hits) < n {
				break
			}
		}

		if !emit(enc.Close()) {
			return
		}
		outcome = outcomeCompleted
	}
}

// WriteTo runs the export into w, flushing after every chunk when w
// supports it. It returns the number of bytes written.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer, p request.Params, job *Job) (int64, error) {
	flusher, _ := w.(interface{ Flush() error })
	httpFlusher, _ := w.(interface{ Flush() })

	var written int64
	for b, err := range e.Export(ctx, p, job) {
		if err != nil {
			return written, err
		}
		n, err := w.Write(b)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write export: %w", err)
		}
		switch {
		case flusher != nil:
			if err := flusher.Flush(); err != nil {
				return written, fmt.Errorf("flush export: %w", err)
			}
		case httpFlusher != nil:
			httpFlusher.Flush()
		}
	}
	return written, nil
}
