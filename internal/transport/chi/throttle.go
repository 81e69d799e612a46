package chi

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain"
	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
	"github.com/kailas-cloud/ccdb/internal/logger"
)

// classifier is the consumer interface of the request classifier.
type classifier interface {
	Classify(referer string) domthrottle.Classification
}

// admitter is the consumer interface of the quota enforcer.
type admitter interface {
	Admit(
		ctx context.Context, c domthrottle.Classification, ep domthrottle.Endpoint, identity string,
	) (domthrottle.Decision, error)
}

// Throttle gates requests on their quota before any handler work runs.
type Throttle struct {
	classifier classifier
	enforcer   admitter
}

// NewThrottle creates the throttling middleware factory.
func NewThrottle(c classifier, e admitter) *Throttle {
	return &Throttle{classifier: c, enforcer: e}
}

// Middleware returns a middleware charging requests to the endpoint class
// chosen by endpoint. Denied requests get 429 with Retry-After. When the
// counter store fails the request is let through.
func (t *Throttle) Middleware(endpoint func(*http.Request) domthrottle.Endpoint) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := t.classifier.Classify(r.Header.Get("Referer"))
			ep := endpoint(r)

			d, err := t.enforcer.Admit(r.Context(), class, ep, clientIdentity(r))
			if err != nil {
				logger.FromContext(r.Context()).Warn("Throttle check failed, admitting request",
					zap.String("endpoint", string(ep)),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !d.Allowed() {
				writeThrottled(w, &domain.ThrottledError{RetryAfterSec: d.RetryAfterSeconds()})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Fixed returns an endpoint selector for routes of a single class.
func Fixed(ep domthrottle.Endpoint) func(*http.Request) domthrottle.Endpoint {
	return func(*http.Request) domthrottle.Endpoint { return ep }
}

// searchEndpoint charges exports to the export quota and everything else
// on the search route to the search quota.
func searchEndpoint(r *http.Request) domthrottle.Endpoint {
	switch r.URL.Query().Get("format") {
	case "csv", "json":
		return domthrottle.EndpointExport
	default:
		return domthrottle.EndpointSearch
	}
}

// clientIdentity keys buckets by client address. RealIP has already
// replaced RemoteAddr with the forwarded address when present.
func clientIdentity(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
