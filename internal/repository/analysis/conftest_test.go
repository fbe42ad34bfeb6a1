package analysis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kailas-cloud/compscope/internal/db"
)

// memStore applies JSON.MERGE patches to in-memory documents (RFC 7396
// subset: objects merge recursively, everything else replaces).
type memStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	mergeErr error
	getErr   error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string]any)}
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return json.Marshal([]any{doc})
}

func (m *memStore) JSONMerge(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mergeErr != nil {
		return m.mergeErr
	}
	var patch map[string]any
	if err := json.Unmarshal(data, &patch); err != nil {
		return err
	}
	doc, ok := m.docs[key]
	if !ok {
		doc = make(map[string]any)
		m.docs[key] = doc
	}
	mergeInto(doc, patch)
	return nil
}

func mergeInto(dst, patch map[string]any) {
	for k, v := range patch {
		if v == nil {
			delete(dst, k)
			continue
		}
		pv, pIsObj := v.(map[string]any)
		dv, dIsObj := dst[k].(map[string]any)
		if pIsObj && dIsObj {
			mergeInto(dv, pv)
			continue
		}
		dst[k] = v
	}
}
