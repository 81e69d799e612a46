package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
	"github.com/kailas-cloud/ccdb/internal/logger"
	"github.com/kailas-cloud/ccdb/internal/metrics"
	exportuc "github.com/kailas-cloud/ccdb/internal/usecase/export"
	healthuc "github.com/kailas-cloud/ccdb/internal/usecase/health"
)

// engineErrorPrefix keeps error bodies compatible with existing API clients.
const engineErrorPrefix = "Elasticsearch error: "

// searchService is the consumer interface of the search use case.
type searchService interface {
	Search(ctx context.Context, p request.Params, exclude []string) (*result.Page, error)
	Document(ctx context.Context, id string) (result.Hit, error)
	SuggestZip(ctx context.Context, text string) ([]string, error)
}

// exportService is the consumer interface of the streaming exporter.
type exportService interface {
	NewJob(f format.Format) *exportuc.Job
	Filename(f format.Format) string
	Export(ctx context.Context, p request.Params, job *exportuc.Job) iter.Seq2[[]byte, error]
}

// healthService is the consumer interface of the health check.
type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Options toggles the optional middlewares.
type Options struct {
	CORS        bool
	Compression bool
	// TrustProxy replaces the remote address with the forwarded client
	// address before logging and throttling.
	TrustProxy bool
	// DefaultSize is the page size of searches without a size parameter.
	DefaultSize int
}

// Server serves the complaint search API.
type Server struct {
	search        searchService
	exports       exportService
	health        healthService
	throttle      *Throttle
	logger        *zap.Logger
	opts          Options
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. throttle can be nil to disable quotas.
func NewServer(
	search searchService,
	exports exportService,
	health healthService,
	throttle *Throttle,
	logger *zap.Logger,
	opts Options,
) *Server {
	return &Server{
		search:   search,
		exports:  exports,
		health:   health,
		throttle: throttle,
		logger:   logger,
		opts:     opts,
		errorHandlers: []errorHandler{
			throttledHandler,
			notFoundHandler,
			engineErrorHandler,
			invalidQueryHandler,
		},
	}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(wideEventMiddleware(s.logger))
	if s.opts.CORS {
		r.Use(corsMiddleware())
	}
	r.Use(metrics.Middleware())
	if s.opts.Compression {
		gz, err := gzipMiddleware()
		if err != nil {
			return nil, fmt.Errorf("gzip middleware: %w", err)
		}
		r.Use(gz)
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Group(func(r chi.Router) {
		s.limit(r, searchEndpoint)
		r.Get("/", s.Search)
		r.Get("/search", s.Search)
	})
	r.Group(func(r chi.Router) {
		s.limit(r, Fixed(domthrottle.EndpointSearch))
		r.Get("/_suggest_zip", s.SuggestZip)
	})
	r.Group(func(r chi.Router) {
		s.limit(r, Fixed(domthrottle.EndpointDocument))
		r.Get("/document/{id}", s.GetDocument)
		r.Get("/{id}", s.GetDocument)
	})

	return r, nil
}

func (s *Server) limit(r chi.Router, endpoint func(*http.Request) domthrottle.Endpoint) {
	if s.throttle != nil {
		r.Use(s.throttle.Middleware(endpoint))
	}
}

// Search handles GET / and GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	p, errs := parseSearchParams(r.URL.Query(), s.opts.DefaultSize)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	if p.Format.IsExport() {
		s.export(w, r, p)
		return
	}

	page, err := s.search.Search(r.Context(), p, nil)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToPayload(page))
}

// export streams the attachment. Headers are committed only once the first
// chunk of rows arrived, so a failing first engine call still gets a proper
// error status.
func (s *Server) export(w http.ResponseWriter, r *http.Request, p request.Params) {
	job := s.exports.NewJob(p.Format)
	rc := http.NewResponseController(w)
	log := logger.FromContext(r.Context())

	var pending []byte
	committed := false
	write := func(b []byte) bool {
		if _, err := w.Write(b); err != nil {
			log.Info("Export client went away", zap.String("export_id", job.ID), zap.Error(err))
			return false
		}
		_ = rc.Flush()
		return true
	}
	commit := func() {
		w.Header().Set("Content-Type", p.Format.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", s.exports.Filename(p.Format)))
		w.WriteHeader(http.StatusOK)
		committed = true
	}

	for b, err := range s.exports.Export(r.Context(), p, job) {
		if err != nil {
			if !committed {
				s.handleDomainError(w, r, err)
				return
			}
			log.Warn("Export aborted mid-stream",
				zap.String("export_id", job.ID),
				zap.Int("rows", job.Rows),
				zap.Error(err),
			)
			return
		}
		if !committed {
			if pending == nil {
				pending = b
				continue
			}
			commit()
			if !write(pending) {
				return
			}
			pending = nil
		}
		if !write(b) {
			return
		}
	}

	if !committed {
		commit()
		write(pending)
	}
}

// GetDocument handles GET /document/{id} and GET /{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	hit, err := s.search.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hitToPayload(hit))
}

// SuggestZip handles GET /_suggest_zip.
func (s *Server) SuggestZip(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, fieldErrors{"text": {msgRequired}})
		return
	}
	zips, err := s.search.SuggestZip(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zips)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthPayload{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeThrottled(w http.ResponseWriter, te *domain.ThrottledError) {
	w.Header().Set("Retry-After", strconv.Itoa(te.RetryAfterSec))
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"detail": fmt.Sprintf("Request was throttled. Expected available in %d seconds.", te.RetryAfterSec),
	})
}

func throttledHandler(w http.ResponseWriter, err error) bool {
	var te *domain.ThrottledError
	if !errors.As(err, &te) {
		return false
	}
	writeThrottled(w, te)
	return true
}

// notFoundHandler reports missing documents the way the engine used to.
func notFoundHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrNotFound) {
		return false
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": engineErrorPrefix + domain.ErrNotFound.Error()})
	return true
}

// engineErrorHandler forwards the engine status, falling back to 400.
func engineErrorHandler(w http.ResponseWriter, err error) bool {
	var ee *domain.EngineError
	if !errors.As(err, &ee) {
		return false
	}
	status := ee.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": engineErrorPrefix + ee.Message})
	return true
}

func invalidQueryHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, fieldErrors{"non_field_errors": {err.Error()}})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
