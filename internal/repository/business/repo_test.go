package business

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/compscope/internal/db"
	"github.com/kailas-cloud/compscope/internal/domain"
	dombiz "github.com/kailas-cloud/compscope/internal/domain/business"
)

func TestGet_Success(t *testing.T) {
	var gotKey string
	s := &mockStore{
		jsonGetFn: func(_ context.Context, key string, _ ...string) ([]byte, error) {
			gotKey = key
			return []byte(`[{"domain":"acmeplumbing.com","services":["Drain cleaning"],"location":{"location_code":2840,"language_code":"en"}}]`), nil
		},
	}
	r := New(s, "cs:")

	b, err := r.Get(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "cs:business:b1" {
		t.Errorf("unexpected key %q", gotKey)
	}
	if b.ID != "b1" || b.Domain != "acmeplumbing.com" {
		t.Errorf("unexpected business %+v", b)
	}
	if b.ServiceProfile() != "Drain cleaning" {
		t.Errorf("unexpected profile %q", b.ServiceProfile())
	}
}

func TestGet_NotFound(t *testing.T) {
	r := New(&mockStore{}, "")
	if _, err := r.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_EmptyArray(t *testing.T) {
	s := &mockStore{
		jsonGetFn: func(context.Context, string, ...string) ([]byte, error) { return []byte(`[]`), nil },
	}
	if _, err := New(s, "").Get(context.Background(), "b1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	s := &mockStore{
		jsonGetFn: func(context.Context, string, ...string) ([]byte, error) {
			return nil, &db.Error{Op: db.OpJSONGet, Err: context.DeadlineExceeded}
		},
	}
	_, err := New(s, "").Get(context.Background(), "b1")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPut(t *testing.T) {
	var key, path string
	var body []byte
	s := &mockStore{
		jsonSetFn: func(_ context.Context, k, p string, data []byte) error {
			key, path, body = k, p, data
			return nil
		},
	}
	b := dombiz.Business{ID: "b1", Domain: "acmeplumbing.com"}
	if err := New(s, "cs:").Put(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "cs:business:b1" || path != "$" {
		t.Errorf("unexpected write %s %s", key, path)
	}
	var back dombiz.Business
	if err := json.Unmarshal(body, &back); err != nil || back.Domain != "acmeplumbing.com" {
		t.Errorf("unexpected body %s (%v)", body, err)
	}
}

func TestPut_RequiresID(t *testing.T) {
	err := New(&mockStore{}, "").Put(context.Background(), dombiz.Business{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
