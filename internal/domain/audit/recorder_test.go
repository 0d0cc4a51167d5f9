package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *fakeStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	e.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...), nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestRecorder_FlushesOnClose(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, 16)

	rec.Record("POST", "/api/v1/purchases", `{"productId":1}`)
	rec.Record("GET", "/api/v1/products", "")
	rec.Close()

	require.Equal(t, 2, store.count())
	assert.Equal(t, "POST", store.entries[0].Method)
	assert.Equal(t, "/api/v1/purchases", store.entries[0].Endpoint)
	assert.False(t, store.entries[0].RecordedAt.IsZero())
}

func TestRecorder_StoreFailureIsSuppressed(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	rec := NewRecorder(store, 16)

	// Must neither panic nor surface the error to the caller.
	rec.Record("POST", "/api/v1/purchases", `{"productId":1}`)
	rec.Close()

	assert.Equal(t, 0, store.count())
}

func TestRecorder_RecordAfterCloseIsDropped(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, 16)

	rec.Record("POST", "/api/v1/purchases", "")
	rec.Close()

	// Late entries are dropped, never a send on a closed channel.
	rec.Record("GET", "/api/v1/products", "")
	rec.Close()

	assert.Equal(t, 1, store.count())
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	// Tiny buffer: Record must never block even when entries outpace
	// the background writer.
	store := &fakeStore{}
	rec := NewRecorder(store, 1)

	for i := 0; i < 100; i++ {
		rec.Record("POST", "/api/v1/purchases", "")
	}
	rec.Close()
}
