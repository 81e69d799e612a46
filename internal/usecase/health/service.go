package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine answers but cannot serve searches.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates a resource that does not exist.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine EnginePinger
	index  IndexChecker
	name   string
}

// New creates a Service checking the engine and the named index. index can
// be nil.
func New(engine EnginePinger, index IndexChecker, indexName string) *Service {
	return &Service{engine: engine, index: index, name: indexName}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.engine.Ping(ctx); err != nil {
		checks["engine"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["engine"] = CheckOK

	status := Healthy
	if s.index != nil {
		ok, err := s.index.IndexExists(ctx, s.name)
		switch {
		case err != nil:
			checks["index"] = CheckError
			status = Degraded
		case !ok:
			checks["index"] = CheckMissing
			status = Degraded
		default:
			checks["index"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
