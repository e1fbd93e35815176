package chi

import (
	"context"

	"github.com/kailas-cloud/recollect/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/recollect/internal/usecase/health"
	searchuc "github.com/kailas-cloud/recollect/internal/usecase/search"
)

// SearchHandler runs one validated search.
type SearchHandler interface {
	Handle(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
