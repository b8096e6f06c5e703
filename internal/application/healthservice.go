package application

import (
	"context"
	"time"

	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Upstream reachability states reported by HealthService.
const (
	UpstreamUnchecked   = "unchecked"
	UpstreamReachable   = "reachable"
	UpstreamUnreachable = "unreachable"
)

// HealthReport is the process health snapshot.
type HealthReport struct {
	Status    string
	Upstream  string
	CheckedAt time.Time
}

// HealthService reports process liveness and, on request, whether the
// record system answers at all.
type HealthService struct {
	records driven.RecordSystem
	now     func() time.Time
}

// NewHealthService creates a HealthService.
func NewHealthService(records driven.RecordSystem) *HealthService {
	return &HealthService{records: records, now: time.Now}
}

// Check returns the health report. The process is always "ok" when it can
// answer; deep additionally pings the record system.
func (s *HealthService) Check(ctx context.Context, deep bool) HealthReport {
	report := HealthReport{
		Status:    "ok",
		Upstream:  UpstreamUnchecked,
		CheckedAt: s.now().UTC(),
	}

	if !deep {
		return report
	}

	if err := s.records.Ping(ctx); err != nil {
		report.Upstream = UpstreamUnreachable
	} else {
		report.Upstream = UpstreamReachable
	}
	return report
}
