package chi

import (
	"context"

	domanalysis "github.com/kailas-cloud/compscope/internal/domain/analysis"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
	healthuc "github.com/kailas-cloud/compscope/internal/usecase/health"
)

// TaskRunner accepts background analysis tasks and reports their status.
type TaskRunner interface {
	Submit(ctx context.Context, kind domtask.Kind, businessID string) (domtask.Task, error)
	Get(ctx context.Context, id string) (domtask.Task, error)
}

// AnalysisReader returns stored analysis documents.
type AnalysisReader interface {
	Analysis(ctx context.Context, businessID string) (domanalysis.Document, error)
}

// KeywordScorer scores and categorizes posted keyword records.
type KeywordScorer interface {
	Score(records []keyword.Record) keyword.Opportunities
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
