package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/compscope/internal/db"
)

// JSONSet stores a JSON value at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().JsonSet().Key(key).Path(path).Value(string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONMerge applies an RFC 7396 merge patch at path, creating the document
// when merging at the root of a missing key.
func (s *Store) JSONMerge(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().JsonMerge().Key(key).Path(path).Value(string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONMerge, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
// A missing key or a missing path both yield db.ErrKeyNotFound.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().JsonGet().Key(key).Path(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) || isRedisErr(err, "does not exist") {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}
