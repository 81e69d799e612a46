// Package throttle models request classification and fixed-window quotas.
package throttle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Classification is the trust tier of a request.
type Classification string

// Classification constants.
const (
	Anonymous Classification = "anonymous"
	UI        Classification = "ui"
)

// Endpoint is the quota class of a route.
type Endpoint string

// Endpoint constants.
const (
	EndpointDocument Endpoint = "document"
	EndpointSearch   Endpoint = "search"
	EndpointExport   Endpoint = "export"
)

// Endpoints lists every quota class.
var Endpoints = []Endpoint{EndpointDocument, EndpointSearch, EndpointExport}

// Rate is a request allowance per fixed window. The zero Rate is unlimited.
type Rate struct {
	limit  int
	period time.Duration
}

// NewRate creates a rate of limit requests per period.
func NewRate(limit int, period time.Duration) Rate {
	return Rate{limit: limit, period: period}
}

// ParseRate parses "N/period" where period starts with s, m, h or d
// ("20/min", "2000/minute", "5/s"). An empty string is unlimited.
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rate{}, nil
	}
	num, period, ok := strings.Cut(s, "/")
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: expected N/period", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || limit < 0 {
		return Rate{}, fmt.Errorf("rate %q: invalid request count", s)
	}
	period = strings.TrimSpace(period)
	if period == "" {
		return Rate{}, fmt.Errorf("rate %q: missing period", s)
	}
	var d time.Duration
	switch period[0] {
	case 's':
		d = time.Second
	case 'm':
		d = time.Minute
	case 'h':
		d = time.Hour
	case 'd':
		d = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("rate %q: unknown period %q", s, period)
	}
	if limit == 0 {
		return Rate{}, nil
	}
	return Rate{limit: limit, period: d}, nil
}

// Limit returns the number of requests allowed per window.
func (r Rate) Limit() int { return r.limit }

// Period returns the window length.
func (r Rate) Period() time.Duration { return r.period }

// IsUnlimited reports whether the rate admits every request.
func (r Rate) IsUnlimited() bool { return r.limit <= 0 || r.period <= 0 }

func (r Rate) String() string {
	if r.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d/%s", r.limit, r.period)
}

// Policy maps each (classification, endpoint) pair to its rate.
type Policy struct {
	rates map[Classification]map[Endpoint]Rate
}

// NewPolicy creates a Policy. Missing pairs are unlimited.
func NewPolicy(rates map[Classification]map[Endpoint]Rate) Policy {
	cp := make(map[Classification]map[Endpoint]Rate, len(rates))
	for c, byEndpoint := range rates {
		inner := make(map[Endpoint]Rate, len(byEndpoint))
		for e, r := range byEndpoint {
			inner[e] = r
		}
		cp[c] = inner
	}
	return Policy{rates: cp}
}

// DefaultPolicy returns the quotas of the public deployment.
func DefaultPolicy() Policy {
	return NewPolicy(map[Classification]map[Endpoint]Rate{
		Anonymous: {
			EndpointDocument: NewRate(5, time.Minute),
			EndpointSearch:   NewRate(20, time.Minute),
			EndpointExport:   NewRate(2, time.Minute),
		},
		UI: {
			EndpointDocument: NewRate(2000, time.Minute),
			EndpointSearch:   NewRate(2000, time.Minute),
			EndpointExport:   NewRate(6, time.Minute),
		},
	})
}

// Rate returns the rate of a pair.
func (p Policy) Rate(c Classification, e Endpoint) Rate {
	return p.rates[c][e]
}

// Decision is the outcome of one admission check.
type Decision struct {
	allowed    bool
	count      int
	limit      int
	retryAfter time.Duration
}

// NewDecision creates a Decision snapshot.
func NewDecision(allowed bool, count, limit int, retryAfter time.Duration) Decision {
	return Decision{allowed: allowed, count: count, limit: limit, retryAfter: retryAfter}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.allowed }

// Count returns the window counter after this request.
func (d Decision) Count() int { return d.count }

// Limit returns the window limit, zero when unlimited.
func (d Decision) Limit() int { return d.limit }

// RetryAfter returns the time until the window resets.
func (d Decision) RetryAfter() time.Duration { return d.retryAfter }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1 when
// the request was denied.
func (d Decision) RetryAfterSeconds() int {
	secs := int((d.retryAfter + time.Second - 1) / time.Second)
	if !d.allowed && secs < 1 {
		return 1
	}
	return secs
}
