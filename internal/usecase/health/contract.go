package health

import "context"

// CachePinger checks completion cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks LLM gateway availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
