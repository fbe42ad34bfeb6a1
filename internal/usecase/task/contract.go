package task

import (
	"context"

	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
)

// Repository stores task status records.
type Repository interface {
	Save(ctx context.Context, t domtask.Task) error
	Get(ctx context.Context, id string) (domtask.Task, error)
}
