package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an upstream provider (embedding, SEO data).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
