package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/petalworks/api/internal/domain"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// DependencyCheck describes a dependency probe executed during readiness checks.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// HealthRepository evaluates dependency probes and reports aggregate health.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}

type dependencyHealthRepository struct {
	checks []DependencyCheck
	now    func() time.Time
}

// NewDependencyHealthRepository builds a HealthRepository over the given probe
// set. The clock may be nil, in which case time.Now is used.
func NewDependencyHealthRepository(checks []DependencyCheck, clock func() time.Time) (HealthRepository, error) {
	if len(checks) == 0 {
		return nil, errors.New("health repository: at least one dependency check is required")
	}
	for _, check := range checks {
		if strings.TrimSpace(check.Name) == "" {
			return nil, errors.New("health repository: dependency check missing name")
		}
		if check.Check == nil {
			return nil, errors.New("health repository: dependency " + check.Name + " missing check function")
		}
	}
	if clock == nil {
		clock = time.Now
	}
	repo := &dependencyHealthRepository{checks: make([]DependencyCheck, len(checks)), now: clock}
	copy(repo.checks, checks)
	return repo, nil
}

func (r *dependencyHealthRepository) Collect(ctx context.Context) (domain.HealthReport, error) {
	if ctx == nil {
		return domain.HealthReport{}, errors.New("health repository: context is required")
	}

	results := make(map[string]domain.HealthCheckResult, len(r.checks))
	for _, check := range r.checks {
		timeout := check.Timeout
		if timeout <= 0 {
			timeout = defaultProbeTimeout
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		start := r.now()
		err := check.Check(checkCtx)
		cancel()
		end := r.now()

		result := domain.HealthCheckResult{
			Status:    domain.HealthStatusOK,
			Detail:    "ok",
			Latency:   end.Sub(start),
			CheckedAt: end,
		}
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			result.Status = domain.HealthStatusError
			result.Detail = err.Error()
		default:
			result.Status = domain.HealthStatusDegraded
			result.Detail = err.Error()
		}
		results[check.Name] = result
	}

	status := domain.HealthStatusOK
	for _, result := range results {
		if result.Status == domain.HealthStatusError {
			status = domain.HealthStatusError
			break
		}
		if result.Status == domain.HealthStatusDegraded {
			status = domain.HealthStatusDegraded
		}
	}

	return domain.HealthReport{Status: status, Checks: results, GeneratedAt: r.now()}, nil
}
