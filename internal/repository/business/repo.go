package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/compscope/internal/db"
	"github.com/kailas-cloud/compscope/internal/domain"
	dombiz "github.com/kailas-cloud/compscope/internal/domain/business"
)

// store is the consumer interface for business records (ISP).
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONSet(ctx context.Context, key, path string, data []byte) error
}

// Repo reads business records written by the owning service.
type Repo struct {
	store  store
	prefix string
}

// New creates a business repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get loads a business by ID.
func (r *Repo) Get(ctx context.Context, id string) (dombiz.Business, error) {
	raw, err := r.store.JSONGet(ctx, r.key(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dombiz.Business{}, domain.ErrNotFound
		}
		return dombiz.Business{}, fmt.Errorf("json.get business %s: %w", id, err)
	}

	// JSONPath "$" wraps the document in an array.
	var docs []dombiz.Business
	if err := json.Unmarshal(raw, &docs); err != nil {
		return dombiz.Business{}, fmt.Errorf("decode business %s: %w", id, err)
	}
	if len(docs) == 0 {
		return dombiz.Business{}, domain.ErrNotFound
	}
	b := docs[0]
	if b.ID == "" {
		b.ID = id
	}
	return b, nil
}

// Put stores a business record, replacing any previous one.
func (r *Repo) Put(ctx context.Context, b dombiz.Business) error {
	if b.ID == "" {
		return domain.NewValidation("id", "is required")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode business %s: %w", b.ID, err)
	}
	if err := r.store.JSONSet(ctx, r.key(b.ID), "$", data); err != nil {
		return fmt.Errorf("json.set business %s: %w", b.ID, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "business:" + id
}
