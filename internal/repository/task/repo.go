package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/compscope/internal/db"
	"github.com/kailas-cloud/compscope/internal/domain"
	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
)

// DefaultTTL is how long a status record stays readable after its last write.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for task status records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo stores task status records with a sliding TTL.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a task repository. ttl <= 0 uses DefaultTTL.
func New(s store, prefix string, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Save writes the full status record and refreshes its TTL.
func (r *Repo) Save(ctx context.Context, t domtask.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", t.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(t.ID), data, r.ttl); err != nil {
		return fmt.Errorf("set task %s: %w", t.ID, err)
	}
	return nil
}

// Get reads a status record. Expired or unknown IDs return domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domtask.Task, error) {
	raw, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtask.Task{}, domain.ErrNotFound
		}
		return domtask.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	var t domtask.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return domtask.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	return t, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "task:" + id
}
