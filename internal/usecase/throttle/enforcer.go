package throttle

import (
	"context"
	"fmt"

	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
	"github.com/kailas-cloud/ccdb/internal/metrics"
)

// Enforcer admits requests against the quotas of a policy.
type Enforcer struct {
	policy  domthrottle.Policy
	counter Counter
}

// NewEnforcer creates an enforcer over counter.
func NewEnforcer(policy domthrottle.Policy, counter Counter) *Enforcer {
	return &Enforcer{policy: policy, counter: counter}
}

// Admit counts the request of identity and reports whether it fits the
// current window of its (classification, endpoint) quota. The request that
// takes the count past the limit and every later one in the window are
// denied.
func (e *Enforcer) Admit(
	ctx context.Context, c domthrottle.Classification, ep domthrottle.Endpoint, identity string,
) (domthrottle.Decision, error) {
	rate := e.policy.Rate(c, ep)
	if rate.IsUnlimited() {
		record(c, ep, true)
		return domthrottle.NewDecision(true, 0, 0, 0), nil
	}

	key := fmt.Sprintf("%s:%s:%s", c, ep, identity)
	count, ttl, err := e.counter.Incr(ctx, key, rate.Period())
	if err != nil {
		return domthrottle.Decision{}, fmt.Errorf("count %s: %w", key, err)
	}

	allowed := count <= int64(rate.Limit())
	record(c, ep, allowed)

	return domthrottle.NewDecision(allowed, int(count), rate.Limit(), ttl), nil
}

func record(c domthrottle.Classification, ep domthrottle.Endpoint, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "throttled"
	}
	metrics.ThrottleDecisionsTotal.WithLabelValues(string(c), string(ep), decision).Inc()
}
